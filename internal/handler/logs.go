package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"framecheck/internal/config"
	"framecheck/internal/logger"
	"framecheck/internal/service/session"
)

var logFiles = map[string]string{
	"info":    "info.log",
	"warning": "warning.log",
	"error":   "error.log",
}

// LogsHandler serves GET /logs/{level} as text/plain and truncates the file on
// POST /logs/{level}/clear. Responses carry the session state and frame totals
// so a log excerpt can be read against the session it came from.
func LogsHandler(controller *session.Controller, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level, action, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/logs/"), "/")
		filename, ok := logFiles[level]
		if !ok || (action != "" && action != "clear") {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("X-Session-State", controller.State().String())
		w.Header().Set("X-Session-Stats", controller.Stats())

		if action == "clear" {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			if err := logger.CleanLogs(filename); err != nil {
				logger.Error("Failed to clear %s: %v", filename, err)
				http.Error(w, "Unable to clear "+filename, http.StatusInternalServerError)
				return
			}
			logger.Info("🧹 Cleared %s (session %s, %s)", filename, controller.State(), controller.Stats())
			w.WriteHeader(http.StatusNoContent)
			return
		}

		path := filepath.Join(cfg.LogDirectory, filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.Error(w, "Log file not found: "+filename, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, path)
	}
}
