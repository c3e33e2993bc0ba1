package dto

import (
	"encoding/json"
	"time"

	"framecheck/internal/model"
)

// BadFrameInfo describes one retained bad frame; the image is served separately by index.
type BadFrameInfo struct {
	Index      int       `json:"index"`
	Reason     string    `json:"reason"`
	Camera     string    `json:"camera"`
	CapturedAt time.Time `json:"capturedAt"`
}

// MarshalJSON formats the capture time the way the review list shows it.
func (b BadFrameInfo) MarshalJSON() ([]byte, error) {
	type Alias BadFrameInfo
	return json.Marshal(&struct {
		CapturedAt string `json:"capturedAt"`
		Alias
	}{
		CapturedAt: b.CapturedAt.Format("02-01-2006 15:04:05.000"),
		Alias:      (Alias)(b),
	})
}

// SessionReport is the response of POST /api/session/stop and GET /api/review.
type SessionReport struct {
	Message string         `json:"message"`
	Passed  bool           `json:"passed"`
	Count   int            `json:"count"`
	Frames  []BadFrameInfo `json:"frames"`
}

func NewSessionReport(report model.SessionReport) SessionReport {
	frames := make([]BadFrameInfo, 0, report.Count())
	for i, rec := range report.Records() {
		frames = append(frames, BadFrameInfo{
			Index:      i,
			Reason:     rec.Reason,
			Camera:     rec.Snapshot.Source,
			CapturedAt: rec.CapturedAt,
		})
	}
	return SessionReport{
		Message: report.Message(),
		Passed:  report.Passed(),
		Count:   report.Count(),
		Frames:  frames,
	}
}

// SessionStatus is the response of GET /api/session/status.
type SessionStatus struct {
	State string `json:"state"`
	Stats string `json:"stats"`
}
