package route

import (
	"facecam/internal/config"
	"facecam/internal/handler"
	"facecam/internal/logger"
	"facecam/internal/repository"
	"facecam/internal/service/websocket"
	"net/http"
	"os"
	"path/filepath"
)

// StaticDirectory holds the viewer pages.
const StaticDirectory = "static"

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the live viewer, the snapshot journal API (when
// recording is enabled) and the static pages.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, staticDir string, hub *websocket.HubService,
	snapshotRepo repository.SnapshotRepository, predictionRepo repository.PredictionRepository) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	// Live view
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, logger))

	// Snapshot journal
	if snapshotRepo != nil && predictionRepo != nil {
		mux.HandleFunc("/api/snapshots", handler.GetSnapshotsHandler(logger, snapshotRepo, predictionRepo))
		mux.HandleFunc("/api/snapshots/stats", handler.SnapshotStatsHandler(logger, snapshotRepo, predictionRepo))
		mux.HandleFunc("/api/snapshots/view", handler.ViewSnapshotHandler(cfg.SnapshotDirectory))
		mux.HandleFunc("/api/snapshots/delete", handler.DeleteSnapshotHandler(logger, snapshotRepo, predictionRepo))
		mux.HandleFunc("/api/snapshots/clear", handler.ClearSnapshotsHandler(logger, cfg.SnapshotDirectory, snapshotRepo))
	}

	// Logs
	mux.HandleFunc("/logs", handler.ShowLogsHandler(cfg.LogDirectory))
	mux.HandleFunc("/logs/clear", handler.ClearLogsHandler(logger))

	// Automatic HTML handler mapping, for example: /journal -> /static/journal.html
	mux.HandleFunc("/", dynamicHTMLHandler(staticDir))

	return mux
}
