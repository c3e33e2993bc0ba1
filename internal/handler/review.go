package handler

import (
	"net/http"
	"strconv"

	"framecheck/internal/dto"
	"framecheck/internal/logger"
	"framecheck/internal/model"
	"framecheck/internal/service/session"
)

// SnapshotEncoder turns a retained snapshot into JPEG bytes; kernel.OpenCV implements it.
type SnapshotEncoder interface {
	EncodeJPEG(frame model.Frame) ([]byte, error)
}

// ReviewHandler returns the bad frames of the last stopped session.
func ReviewHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := controller.LastReport()
		if !ok {
			http.Error(w, "No session has been stopped yet", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewSessionReport(report), logger)
	}
}

// ReviewImageHandler serves the snapshot of record "index" of the last report as JPEG.
func ReviewImageHandler(controller *session.Controller, encoder SnapshotEncoder, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(r.URL.Query().Get("index"))
		if err != nil {
			http.Error(w, "Index parameter is required", http.StatusBadRequest)
			return
		}

		report, ok := controller.LastReport()
		if !ok {
			http.Error(w, "No session has been stopped yet", http.StatusNotFound)
			return
		}
		snapshot, _, err := report.Record(index)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		data, err := encoder.EncodeJPEG(snapshot)
		if err != nil {
			logger.Error("Failed to encode snapshot %d: %v", index, err)
			http.Error(w, "Unable to encode snapshot", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(data)
	}
}
