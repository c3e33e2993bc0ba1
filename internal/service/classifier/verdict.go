package classifier

import (
	"framecheck/internal/config"
	"framecheck/internal/model"
)

// Verdict is either Good or Bad. Only Bad carries image data.
type Verdict interface {
	Score() float64
	verdict()
}

// Good is a metric that passed its threshold.
type Good struct {
	Value float64
}

// Bad is a metric that failed its threshold, with a copy of the frame it came from.
type Bad struct {
	Value    float64
	Snapshot model.Frame
}

func (g Good) Score() float64 { return g.Value }
func (b Bad) Score() float64  { return b.Value }

func (Good) verdict() {}
func (Bad) verdict()  {}

// IsBad reports whether v is a Bad verdict.
func IsBad(v Verdict) bool {
	_, ok := v.(Bad)
	return ok
}

// snapshotter clones the frame at most once, so all Bad verdicts of a frame share one copy.
type snapshotter struct {
	frame model.Frame
	taken bool
	copy  model.Frame
}

func (s *snapshotter) get() model.Frame {
	if !s.taken {
		s.copy = s.frame.Clone()
		s.taken = true
	}
	return s.copy
}

// Sharpness is good iff std is strictly above the threshold.
func classifySharpness(std float64, t config.Thresholds, snap *snapshotter) Verdict {
	if std > t.Sharpness {
		return Good{Value: std}
	}
	return Bad{Value: std, Snapshot: snap.get()}
}

func classifyDark(share float64, t config.Thresholds, snap *snapshotter) Verdict {
	if share < t.DarkShare {
		return Good{Value: share}
	}
	return Bad{Value: share, Snapshot: snap.get()}
}

func classifyBright(share float64, t config.Thresholds, snap *snapshotter) Verdict {
	if share < t.BrightShare {
		return Good{Value: share}
	}
	return Bad{Value: share, Snapshot: snap.get()}
}
