package kernel

import (
	"errors"
	"fmt"
)

var (
	ErrClosed            = errors.New("kernel is closed")
	ErrUnsupportedLayout = errors.New("unsupported pixel layout")
	ErrInvalidFrame      = errors.New("invalid frame")
	ErrDecode            = errors.New("failed to decode frame")
	ErrDegenerate        = errors.New("buffer has no pixels")
	ErrAllocation        = errors.New("backend could not produce output")
	ErrEmptyResult       = errors.New("backend returned an empty result")

	ErrVarianceEmpty     = fmt.Errorf("mean and variance: %w", ErrEmptyResult)
	ErrDarkResultEmpty   = fmt.Errorf("dark pixel count: %w", ErrEmptyResult)
	ErrBrightResultEmpty = fmt.Errorf("bright pixel count: %w", ErrEmptyResult)
)
