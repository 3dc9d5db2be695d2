package handler

import (
	"facecam/internal/logger"
	"net/http"
	"os"
	"path/filepath"
)

var logFiles = map[string]string{
	"info":    "info.log",
	"warning": "warning.log",
	"error":   "error.log",
}

// ShowLogsHandler serves the log file of the level given in the
// "level" query parameter as text/plain.
func ShowLogsHandler(logDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename, ok := logFiles[r.URL.Query().Get("level")]
		if !ok {
			http.Error(w, "Unknown log level", http.StatusBadRequest)
			return
		}

		filePath := filepath.Join(logDir, filename)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.Error(w, "Log file not found: "+filename, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, filePath)
	}
}

// ClearLogsHandler truncates the log file of the requested level.
func ClearLogsHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		filename, ok := logFiles[r.URL.Query().Get("level")]
		if !ok {
			http.Error(w, "Unknown log level", http.StatusBadRequest)
			return
		}

		logger.CleanLogs(filename)
		w.WriteHeader(http.StatusNoContent)
	}
}
