package storage

import (
	"context"
	"facecam/internal/config"
	"facecam/internal/dto"
	"facecam/internal/logger"
	"facecam/internal/model"
	"facecam/internal/repository"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02_15-04_05.000"

// BufferService buffers annotated snapshots in memory and periodically
// flushes them to disk and to the journal database.
type BufferService struct {
	imagesDir      string
	limit          int
	flushInterval  time.Duration
	snapshots      []dto.BufferedSnapshot
	mu             sync.Mutex
	logger         *logger.Logger
	snapshotRepo   repository.SnapshotRepository
	predictionRepo repository.PredictionRepository
	now            func() time.Time
}

// NewBufferService creates a new BufferService with the target directory and logger.
func NewBufferService(config *config.Config, logger *logger.Logger, snapshotRepo repository.SnapshotRepository, predictionRepo repository.PredictionRepository) *BufferService {
	return &BufferService{
		imagesDir:      config.SnapshotDirectory,
		limit:          config.SnapshotLimit,
		flushInterval:  time.Duration(config.SnapshotFlushInterval) * time.Second,
		snapshots:      make([]dto.BufferedSnapshot, 0),
		logger:         logger,
		snapshotRepo:   snapshotRepo,
		predictionRepo: predictionRepo,
		now:            time.Now,
	}
}

// Run flushes the buffer on every tick until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.FlushSnapshots()
		case <-ctx.Done():
			s.FlushSnapshots()
			return
		}
	}
}

// AddSnapshot appends a snapshot to the in-memory buffer. Snapshots beyond
// the per-interval limit are dropped. Returns whether it was kept.
func (s *BufferService) AddSnapshot(imageData []byte, source string, faces []dto.FaceResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(faces) == 0 || (s.limit > 0 && len(s.snapshots) >= s.limit) {
		return false
	}

	s.snapshots = append(s.snapshots, dto.BufferedSnapshot{
		Timestamp: s.now().Format(timestampLayout),
		Source:    source,
		Faces:     faces,
		Data:      imageData,
	})
	s.logger.Info("Snapshot buffer size: %d/%d", len(s.snapshots), s.limit)
	return true
}

// Pending returns how many snapshots wait for the next flush.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// FlushSnapshots writes buffered snapshots to disk and the database and
// clears the buffer. Returns the number of snapshots saved.
func (s *BufferService) FlushSnapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for i, snapshot := range s.snapshots {
		filename := SnapshotFilename(snapshot, i)
		fullpath := filepath.Join(s.imagesDir, filename)

		if err := os.WriteFile(fullpath, snapshot.Data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}

		if s.snapshotRepo != nil {
			ts, err := time.ParseInLocation(timestampLayout, snapshot.Timestamp, time.Local)
			if err != nil {
				ts = s.now()
			}

			snapshotID, err := s.snapshotRepo.Insert(&model.Snapshot{
				Filename:  filename,
				Source:    snapshot.Source,
				Timestamp: ts,
				FilePath:  fullpath,
				FileSize:  int64(len(snapshot.Data)),
			})
			if err != nil {
				s.logger.Error("Error saving snapshot to database %s: %v", filename, err)
				continue
			}

			if s.predictionRepo != nil {
				predictions := make([]model.Prediction, 0, len(snapshot.Faces))
				for _, face := range snapshot.Faces {
					predictions = append(predictions, model.Prediction{
						SnapshotID: snapshotID,
						Label:      face.Label,
						ClassIndex: face.Class,
						Confidence: face.Confidence,
						X:          face.X,
						Y:          face.Y,
						Width:      face.Width,
						Height:     face.Height,
					})
				}
				if err := s.predictionRepo.InsertBatch(predictions); err != nil {
					s.logger.Error("Error saving predictions to database: %v", err)
				}
			}
		}

		savedCount++
	}

	s.logger.Info("Flushed %d snapshots to disk", savedCount)
	s.snapshots = s.snapshots[:0]
	return savedCount
}

// SnapshotFilename builds "<timestamp>_<source>_<labels>.jpg". Source and
// labels are sanitized so "_" only ever separates fields. The sequence
// number keeps names unique when two snapshots share a millisecond.
func SnapshotFilename(snapshot dto.BufferedSnapshot, seq int) string {
	labels := ""
	for _, face := range snapshot.Faces {
		labels += sanitize(face.Label) + "_"
	}
	return fmt.Sprintf("%s_%s_%s%d.jpg", snapshot.Timestamp, sanitize(filepath.Base(snapshot.Source)), labels, seq)
}

// sanitize keeps a filename field to letters, digits, "-" and ".".
func sanitize(field string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '-'
	}, field)
}

// ParseSnapshotFilename reverses SnapshotFilename.
func ParseSnapshotFilename(name string) (time.Time, string, []string, error) {
	if filepath.Ext(name) != ".jpg" {
		return time.Time{}, "", nil, fmt.Errorf("not a snapshot: %s", name)
	}

	parts := strings.Split(strings.TrimSuffix(name, ".jpg"), "_")
	if len(parts) < 5 {
		return time.Time{}, "", nil, fmt.Errorf("invalid snapshot name: %s", name)
	}

	ts, err := time.ParseInLocation(timestampLayout, strings.Join(parts[:3], "_"), time.Local)
	if err != nil {
		return time.Time{}, "", nil, fmt.Errorf("invalid timestamp in %s: %w", name, err)
	}

	labels := parts[4 : len(parts)-1]
	return ts, parts[3], labels, nil
}
