package classifier

import (
	"fmt"
	"strings"

	"framecheck/internal/config"
	"framecheck/internal/model"
	"framecheck/internal/service/analysis"
)

// Tone is how a line should be colored.
type Tone int

const (
	ToneGood Tone = iota
	ToneBad
	ToneError
)

func (t Tone) String() string {
	switch t {
	case ToneGood:
		return "good"
	case ToneBad:
		return "bad"
	default:
		return "error"
	}
}

func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Line is one rendered row of a frame result.
type Line struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// Result is the immutable outcome of classifying one frame.
type Result struct {
	sharpness Verdict
	dark      Verdict
	bright    Verdict
	errors    []string
	lines     []Line
}

// Builder collects whatever the pipeline produced for a frame.
type Builder struct {
	sharpness    float64
	hasSharpness bool
	exposure     analysis.Exposure
	hasExposure  bool
	errors       []string
}

func NewBuilder() *Builder {
	return &Builder{}
}

// FromMeasurements fills a builder from a pipeline run.
func FromMeasurements(m analysis.Measurements) *Builder {
	b := NewBuilder()
	if m.HasSharpness {
		b.SetSharpness(m.Sharpness)
	}
	if m.HasExposure {
		b.SetExposure(m.Exposure)
	}
	for _, err := range m.Errors {
		b.AddError(err)
	}
	return b
}

func (b *Builder) SetSharpness(std float64) *Builder {
	b.sharpness, b.hasSharpness = std, true
	return b
}

func (b *Builder) SetExposure(e analysis.Exposure) *Builder {
	b.exposure, b.hasExposure = e, true
	return b
}

// AddError records a stage failure; it is rendered after the metric lines.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errors = append(b.errors, analysis.Describe(err))
	}
	return b
}

// Build classifies the collected metrics. frame is copied only if some verdict is Bad.
func (b *Builder) Build(t config.Thresholds, frame model.Frame) *Result {
	r := &Result{errors: append([]string(nil), b.errors...)}
	snap := &snapshotter{frame: frame}

	if b.hasSharpness {
		r.sharpness = classifySharpness(b.sharpness, t, snap)
		r.lines = append(r.lines, verdictLine("STD: %.2f", r.sharpness.Score(), r.sharpness))
	}
	if b.hasExposure {
		r.dark = classifyDark(b.exposure.DarkShare, t, snap)
		r.bright = classifyBright(b.exposure.BrightShare, t, snap)
		r.lines = append(r.lines,
			verdictLine("Dark Pixels: %.2f", r.dark.Score()*100, r.dark),
			verdictLine("Bright Pixels: %.2f", r.bright.Score()*100, r.bright),
		)
	}
	for _, msg := range r.errors {
		r.lines = append(r.lines, Line{Text: msg, Tone: ToneError})
	}
	return r
}

func verdictLine(format string, value float64, v Verdict) Line {
	tone := ToneGood
	if IsBad(v) {
		tone = ToneBad
	}
	return Line{Text: fmt.Sprintf(format, value), Tone: tone}
}

// Sharpness returns the sharpness verdict, or nil if it was not computed.
func (r *Result) Sharpness() Verdict { return r.sharpness }

// Exposure returns the dark and bright verdicts, or nils if exposure was not computed.
func (r *Result) Exposure() (dark, bright Verdict) { return r.dark, r.bright }

func (r *Result) Errors() []string {
	return append([]string(nil), r.errors...)
}

func (r *Result) Lines() []Line {
	return append([]Line(nil), r.lines...)
}

// HasBad reports whether any metric of the frame failed.
func (r *Result) HasBad() bool {
	for _, v := range []Verdict{r.sharpness, r.dark, r.bright} {
		if v != nil && IsBad(v) {
			return true
		}
	}
	return false
}

// BadRecords returns one record per Bad verdict, in the order dark, bright, STD.
func (r *Result) BadRecords() []model.BadFrameRecord {
	var records []model.BadFrameRecord
	add := func(v Verdict, name string, scale float64) {
		bad, ok := v.(Bad)
		if !ok {
			return
		}
		records = append(records, model.BadFrameRecord{
			Snapshot:   bad.Snapshot,
			Reason:     fmt.Sprintf("%s: %.2f", name, bad.Value*scale),
			CapturedAt: bad.Snapshot.Timestamp,
		})
	}
	add(r.dark, "Dark", 100)
	add(r.bright, "Bright", 100)
	add(r.sharpness, "STD", 1)
	return records
}

// Text joins the rendered lines with newlines.
func (r *Result) Text() string {
	texts := make([]string, len(r.lines))
	for i, l := range r.lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

var ansiColors = map[Tone]string{
	ToneGood:  "\033[32m",
	ToneBad:   "\033[31m",
	ToneError: "\033[38;5;208m",
}

// ANSI renders the lines colored for a terminal.
func (r *Result) ANSI() string {
	texts := make([]string, len(r.lines))
	for i, l := range r.lines {
		texts[i] = ansiColors[l.Tone] + l.Text + "\033[0m"
	}
	return strings.Join(texts, "\n")
}
