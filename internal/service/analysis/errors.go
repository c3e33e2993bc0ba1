package analysis

import (
	"errors"
	"fmt"

	"framecheck/internal/service/kernel"
)

// Kind classifies a stage failure.
type Kind int

const (
	KindConfiguration Kind = iota // backend could not be prepared for the frame
	KindConversion                // grayscale conversion failed
	KindSharpness                 // no variance could be produced
	KindExposure                  // no pixel counts could be produced
	KindEmptyResult               // backend returned no data where a scalar was expected
	kindCount
)

// Stage names the pipeline step that failed.
type Stage int

const (
	StagePrepare Stage = iota
	StageGrayscale
	StageSharpness
	StageExposure
)

func (s Stage) String() string {
	switch s {
	case StagePrepare:
		return "prepare"
	case StageGrayscale:
		return "grayscale"
	case StageSharpness:
		return "sharpness"
	case StageExposure:
		return "exposure"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError is the only error type the pipeline reports for a frame.
type StageError struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s stage failed", e.Stage)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// newStageError picks KindEmptyResult over the stage's own kind when the backend
// produced nothing.
func newStageError(stage Stage, kind Kind, err error) *StageError {
	if errors.Is(err, kernel.ErrEmptyResult) {
		kind = KindEmptyResult
	}
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

var kindMessages = [...]string{
	KindConfiguration: "Could not prepare the compute backend",
	KindConversion:    "Could not convert the frame to grayscale",
	KindSharpness:     "Could not compute the sharpness of the frame",
	KindExposure:      "Could not count dark and bright pixels",
	KindEmptyResult:   "The compute backend returned an empty result",
}

// Fails to compile when a Kind is added without a message.
var _ = [1]struct{}{}[int(kindCount)-len(kindMessages)]

// Describe maps a pipeline error to the line shown to the operator.
func Describe(err error) string {
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		return err.Error()
	}

	msg := kindMessages[stageErr.Kind]
	if detail := describeCause(stageErr.Err); detail != "" {
		msg += ": " + detail
	}
	return msg
}

func describeCause(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, kernel.ErrClosed):
		return "backend is shut down"
	case errors.Is(err, kernel.ErrUnsupportedLayout):
		return "pixel layout is not supported"
	case errors.Is(err, kernel.ErrInvalidFrame):
		return "frame size does not match its data"
	case errors.Is(err, kernel.ErrDecode):
		return "frame could not be decoded"
	case errors.Is(err, kernel.ErrDegenerate):
		return "frame has no pixels"
	case errors.Is(err, kernel.ErrVarianceEmpty):
		return "mean and variance"
	case errors.Is(err, kernel.ErrDarkResultEmpty):
		return "dark pixel count"
	case errors.Is(err, kernel.ErrBrightResultEmpty):
		return "bright pixel count"
	case errors.Is(err, kernel.ErrAllocation):
		// keeps the backend's own message
		return err.Error()
	case errors.Is(err, errNonFinite):
		return "result is not a finite number"
	default:
		return err.Error()
	}
}
