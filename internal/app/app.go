package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"framecheck/internal/config"
	"framecheck/internal/handler"
	"framecheck/internal/logger"
	"framecheck/internal/route"
	"framecheck/internal/service/kernel"
	"framecheck/internal/service/metrics"
	"framecheck/internal/service/session"
	"framecheck/internal/service/stats"
	"framecheck/internal/service/storage"
	"framecheck/internal/service/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	kernel     *kernel.OpenCV
	metrics    *metrics.Collector
	hubService *websocket.HubService
	controller *session.Controller
}

func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	k := kernel.NewOpenCV()
	collector := metrics.NewCollector()
	hub := websocket.NewHubService(log)
	controller := session.NewController(k, cfg, storage.NewBadFrameCollector(cfg, log), stats.NewTracker(), collector, log)
	controller.OnResult(handler.BroadcastFrameResults(hub, log))

	return &App{
		config:     cfg,
		logger:     log,
		kernel:     k,
		metrics:    collector,
		hubService: hub,
		controller: controller,
	}, nil
}

// Run serves HTTP and UDP ingestion until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	udpDone := make(chan struct{})
	// Ingestion must be gone before the controller closes.
	defer func() {
		stop()
		<-udpDone
		a.Close()
	}()

	// Start background services
	go a.hubService.Run()
	go func() {
		defer close(udpDone)
		handler.UDPCameraHandler(ctx, a.controller, a.logger, a.config)
	}()

	router := route.SetupRoutes(a.controller, a.hubService, a.kernel, a.metrics, a.config, a.logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("🚀 Frame Quality Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📷 UDP cameras: %d\n", a.config.CamerasPort)
	fmt.Printf("🎯 Thresholds: STD > %.2f, dark < %.2f, bright < %.2f\n",
		a.config.Thresholds.Sharpness, a.config.Thresholds.DarkShare, a.config.Thresholds.BrightShare)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Close stops the workers, the hub and the backend, in that order.
func (a *App) Close() {
	a.controller.Close()
	a.hubService.Stop()
	a.kernel.Close()
	a.logger.Close()
}
