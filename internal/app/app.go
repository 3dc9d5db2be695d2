package app

import (
	"context"
	"errors"
	"facecam/internal/config"
	"facecam/internal/logger"
	"facecam/internal/repository/sqlite"
	"facecam/internal/route"
	"facecam/internal/service"
	"facecam/internal/service/ai"
	"facecam/internal/service/capture"
	"facecam/internal/service/render"
	"facecam/internal/service/storage"
	"facecam/internal/service/websocket"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// openSource and newDisplay are swapped out in tests.
var (
	openSource = func(source string) (capture.Source, error) {
		return capture.Open(source)
	}
	newDisplay = func(cfg *config.Config) render.Display {
		if cfg.Headless {
			return render.Headless{}
		}
		return render.NewWindow(cfg.WindowTitle)
	}
)

type App struct {
	config        *config.Config
	logger        *logger.Logger
	classifier    *ai.NetClassifier
	locator       *ai.CascadeLocator
	pipeline      *service.Pipeline
	db            *sqlite.DB
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	server        *http.Server
}

// NewApp loads the model and the cascade, opens the capture source and
// prepares the optional journal and viewer. Model and cascade are checked
// before the camera is touched.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{config: cfg, logger: logger}

	classifier, err := ai.LoadClassifier(cfg.ModelPath, cfg.ModelLayout)
	if err != nil {
		return nil, err
	}
	a.classifier = classifier
	logger.Info("Model loaded: %s (%s)", cfg.ModelPath, cfg.ModelLayout)

	locator, err := ai.NewCascadeLocator(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.locator = locator

	source, err := openSource(cfg.Source)
	if err != nil {
		a.Close()
		return nil, err
	}

	components := service.Components{
		Source:     source,
		Locator:    locator,
		Classifier: classifier,
	}

	if cfg.Record {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			source.Close()
			a.Close()
			return nil, err
		}
		a.db = db
		a.bufferService = storage.NewBufferService(cfg, logger, sqlite.NewSnapshotRepository(db), sqlite.NewPredictionRepository(db))
		components.Recorder = a.bufferService
		logger.Info("Recording snapshots to %s", cfg.SnapshotDirectory)
	}

	if cfg.ViewerPort > 0 {
		a.hubService = websocket.NewHubService(logger)
		components.Viewers = a.hubService

		var router http.Handler
		if a.db != nil {
			router = route.SetupRoutes(cfg, logger, route.StaticDirectory, a.hubService,
				sqlite.NewSnapshotRepository(a.db), sqlite.NewPredictionRepository(a.db))
		} else {
			router = route.SetupRoutes(cfg, logger, route.StaticDirectory, a.hubService, nil, nil)
		}
		a.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.ViewerPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	components.Display = newDisplay(cfg)
	a.pipeline = service.NewPipeline(cfg, logger, components)
	return a, nil
}

// Run drives the capture loop on the calling goroutine until it ends, then
// stops the background services and flushes pending snapshots.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	// Start background services
	if a.hubService != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.hubService.Run(ctx)
		}()
	}
	if a.bufferService != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.bufferService.Run(ctx)
		}()
	}
	if a.server != nil {
		go func() {
			a.logger.Info("Live viewer on http://localhost%s", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Viewer server failed: %v", err)
			}
		}()
	}

	err := a.pipeline.Run(ctx)

	if a.server != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warning("Viewer server shutdown: %v", err)
		}
		stop()
	}

	cancel()
	wg.Wait()
	return err
}

// Stats returns the counters of the capture loop.
func (a *App) Stats() service.Stats {
	return a.pipeline.Stats()
}

// Close releases the model, the cascade and the journal database.
func (a *App) Close() {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.classifier != nil {
		a.classifier.Close()
	}
	if a.locator != nil {
		a.locator.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database: %v", err)
		}
	}
}
