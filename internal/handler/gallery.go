package handler

import (
	"encoding/json"
	"facecam/internal/dto"
	"facecam/internal/logger"
	"facecam/internal/model"
	"facecam/internal/repository"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const defaultPageSize = 24

// GetSnapshotsHandler returns a filtered, paginated list of journal snapshots
// together with the faces recorded in each.
func GetSnapshotsHandler(logger *logger.Logger, snapshotRepo repository.SnapshotRepository,
	predictionRepo repository.PredictionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultPageSize)

		filter := &dto.SnapshotFilters{
			Source: q.Get("source"),
			Label:  q.Get("label"),
			After:  parseDate(q.Get("dateAfter")),
			Before: endOfDay(parseDate(q.Get("dateBefore"))),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}

		snapshots, err := snapshotRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying snapshots from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := snapshotRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting snapshots: %v", err)
			totalCount = len(snapshots)
		}

		infos := make([]dto.SnapshotInfo, 0, len(snapshots))
		for _, s := range snapshots {
			predictions, err := predictionRepo.GetBySnapshotID(s.ID)
			if err != nil {
				logger.Error("Error getting predictions for snapshot %d: %v", s.ID, err)
			}

			infos = append(infos, dto.SnapshotInfo{
				ID:        s.ID,
				Name:      s.Filename,
				Date:      s.Timestamp.Local(),
				TimeOfDay: s.Timestamp.Local(),
				Source:    s.Source,
				Faces:     toFaceResults(predictions),
			})
		}

		writeJSON(w, logger, dto.SnapshotsData{
			Snapshots:   infos,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// SnapshotStatsHandler returns the number of snapshots and faces per label.
func SnapshotStatsHandler(logger *logger.Logger, snapshotRepo repository.SnapshotRepository,
	predictionRepo repository.PredictionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, err := snapshotRepo.GetTotalCount(nil)
		if err != nil {
			logger.Error("Error counting snapshots: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		labels, err := predictionRepo.CountByLabel()
		if err != nil {
			logger.Error("Error counting labels: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if labels == nil {
			labels = []dto.LabelCount{}
		}

		writeJSON(w, logger, dto.SnapshotStats{Snapshots: total, Labels: labels})
	}
}

// ViewSnapshotHandler serves a single snapshot file named in the "name" query parameter.
func ViewSnapshotHandler(snapshotDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Name parameter is required", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(snapshotDir, filepath.Base(name)))
	}
}

// DeleteSnapshotHandler removes a snapshot from disk and from the journal.
func DeleteSnapshotHandler(logger *logger.Logger, snapshotRepo repository.SnapshotRepository,
	predictionRepo repository.PredictionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete && r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Valid id required", http.StatusBadRequest)
			return
		}

		snapshot, err := snapshotRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading snapshot %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if snapshot == nil {
			http.NotFound(w, r)
			return
		}

		if err := os.Remove(snapshot.FilePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", snapshot.FilePath, err)
		}
		if err := predictionRepo.DeleteBySnapshotID(id); err != nil {
			logger.Error("Failed to delete predictions of snapshot %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if err := snapshotRepo.Delete(id); err != nil {
			logger.Error("Failed to delete snapshot %d from database: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted snapshot: %s", snapshot.Filename)
		writeJSON(w, logger, map[string]string{"status": "deleted", "name": snapshot.Filename})
	}
}

// ClearSnapshotsHandler deletes every snapshot file and empties the journal.
func ClearSnapshotsHandler(logger *logger.Logger, snapshotDir string, snapshotRepo repository.SnapshotRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete && r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		files, err := os.ReadDir(snapshotDir)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading snapshot directory: %v", err)
			http.Error(w, "Unable to read snapshot directory", http.StatusInternalServerError)
			return
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(snapshotDir, file.Name())); err != nil {
				logger.Error("Error deleting file %s: %v", file.Name(), err)
			}
		}

		if err := snapshotRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("All snapshots cleared from directory: %s", snapshotDir)
		w.WriteHeader(http.StatusNoContent)
	}
}

func toFaceResults(predictions []model.Prediction) []dto.FaceResult {
	faces := make([]dto.FaceResult, 0, len(predictions))
	for _, p := range predictions {
		faces = append(faces, dto.FaceResult{
			Label:      p.Label,
			Class:      p.ClassIndex,
			Confidence: p.Confidence,
			X:          p.X,
			Y:          p.Y,
			Width:      p.Width,
			Height:     p.Height,
		})
	}
	return faces
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" (HTML input format) in local time.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// endOfDay makes a "before" date inclusive of the whole day.
func endOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.Add(24*time.Hour - time.Nanosecond)
}
