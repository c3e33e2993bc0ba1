package dto

import (
	"framecheck/internal/service/classifier"
	"framecheck/internal/service/session"
)

// FrameResult is pushed to viewers for every analyzed frame.
type FrameResult struct {
	FrameID string            `json:"frameId"`
	Camera  string            `json:"camera"`
	Lines   []classifier.Line `json:"lines"`
	Stats   string            `json:"stats"`
	Text    string            `json:"text"` // lines and stats as plain text
	Bad     bool              `json:"bad"`
}

func NewFrameResult(report session.FrameReport) FrameResult {
	lines := report.Result.Lines()
	if lines == nil {
		lines = []classifier.Line{}
	}
	return FrameResult{
		FrameID: report.FrameID.String(),
		Camera:  report.Source,
		Lines:   lines,
		Stats:   report.Stats,
		Text:    report.Text(),
		Bad:     report.Result.HasBad(),
	}
}
