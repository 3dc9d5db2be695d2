package storage

import (
	"facecam/internal/model"
	"facecam/internal/repository"
	"fmt"
	"os"
	"path/filepath"
)

// ReindexResult reports what Reindex did.
type ReindexResult struct {
	Added    int
	Existing int
	Skipped  []string
}

// Reindex adds journal rows for snapshot files in dir that the database does
// not know about, for example after the database file was removed. Labels are
// recovered from the filename; confidences and boxes are not.
func Reindex(dir string, snapshotRepo repository.SnapshotRepository, predictionRepo repository.PredictionRepository) (ReindexResult, error) {
	var result ReindexResult

	files, err := os.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	known, err := snapshotRepo.GetAll(nil)
	if err != nil {
		return result, err
	}
	seen := make(map[string]bool, len(known))
	for _, s := range known {
		seen[s.Filename] = true
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}
		if seen[file.Name()] {
			result.Existing++
			continue
		}

		ts, source, labels, err := ParseSnapshotFilename(file.Name())
		if err != nil {
			result.Skipped = append(result.Skipped, file.Name())
			continue
		}

		info, err := file.Info()
		if err != nil {
			result.Skipped = append(result.Skipped, file.Name())
			continue
		}

		id, err := snapshotRepo.Insert(&model.Snapshot{
			Filename:  file.Name(),
			Source:    source,
			Timestamp: ts,
			FilePath:  filepath.Join(dir, file.Name()),
			FileSize:  info.Size(),
		})
		if err != nil {
			return result, err
		}

		predictions := make([]model.Prediction, 0, len(labels))
		for _, label := range labels {
			predictions = append(predictions, model.Prediction{SnapshotID: id, Label: label, ClassIndex: -1})
		}
		if err := predictionRepo.InsertBatch(predictions); err != nil {
			return result, err
		}
		result.Added++
	}

	return result, nil
}
