package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"framecheck/internal/dto"
	"framecheck/internal/logger"
	"framecheck/internal/service/session"
)

// StartSessionHandler handles POST /api/session/start.
func StartSessionHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := controller.Start(); err != nil {
			if errors.Is(err, session.ErrAlreadyAnalyzing) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.Error("Failed to start session: %v", err)
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, dto.SessionStatus{State: controller.State().String(), Stats: controller.Stats()}, logger)
	}
}

// StopSessionHandler handles POST /api/session/stop and returns the session report.
func StopSessionHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		report, err := controller.Stop()
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		writeJSON(w, http.StatusOK, dto.NewSessionReport(report), logger)
	}
}

// SessionStatusHandler handles GET /api/session/status.
func SessionStatusHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.SessionStatus{State: controller.State().String(), Stats: controller.Stats()}, logger)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
