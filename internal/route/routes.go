package route

import (
	"net/http"

	"framecheck/internal/config"
	"framecheck/internal/handler"
	"framecheck/internal/logger"
	"framecheck/internal/middleware"
	"framecheck/internal/service/metrics"
	"framecheck/internal/service/session"
	"framecheck/internal/service/websocket"
)

// SetupRoutes registers ingestion, session, review, log and metrics endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(controller *session.Controller, hub *websocket.HubService, encoder handler.SnapshotEncoder,
	collector *metrics.Collector, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Ingestion and viewers
	mux.HandleFunc("/api/camera", handler.CameraWebsocketHandler(controller, logger))
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, logger))

	// Session endpoints
	mux.HandleFunc("/api/session/start", handler.StartSessionHandler(controller, logger))
	mux.HandleFunc("/api/session/stop", handler.StopSessionHandler(controller, logger))
	mux.HandleFunc("/api/session/status", handler.SessionStatusHandler(controller, logger))

	// Review of the last session
	mux.HandleFunc("/api/review", handler.ReviewHandler(controller, logger))
	mux.HandleFunc("/api/review/image", handler.ReviewImageHandler(controller, encoder, logger))

	// Logs: /logs/{info,warning,error} and /logs/{level}/clear
	mux.HandleFunc("/logs/", handler.LogsHandler(controller, cfg, logger))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	mux.Handle("/metrics", collector.Handler())

	return middleware.AuthMiddleware(cfg.Password, mux)
}
