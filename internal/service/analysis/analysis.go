package analysis

import (
	"errors"
	"fmt"
	"math"

	"framecheck/internal/model"
	"framecheck/internal/service/kernel"
)

// Kernel is the numeric backend. Calls are synchronous and may run concurrently.
type Kernel interface {
	Ready() error
	Grayscale(frame model.Frame) (model.GrayscaleBuffer, error)
	LaplacianStdDev(buf model.GrayscaleBuffer) (float64, error)
	CountExposure(buf model.GrayscaleBuffer, darkMax, brightMin int) (dark, bright int, err error)
}

var errNonFinite = errors.New("non-finite result")

// GrayscaleConverter derives the intensity buffer a frame's metrics are computed on.
type GrayscaleConverter struct {
	kernel Kernel
}

func NewGrayscaleConverter(k Kernel) *GrayscaleConverter {
	return &GrayscaleConverter{kernel: k}
}

// Convert returns a buffer with the frame's dimensions or a conversion StageError.
func (c *GrayscaleConverter) Convert(frame model.Frame) (model.GrayscaleBuffer, error) {
	if frame.Layout != model.LayoutJPEG && frame.Layout.BytesPerPixel() == 0 {
		return model.GrayscaleBuffer{}, newStageError(StageGrayscale, KindConversion,
			fmt.Errorf("%w: %s", kernel.ErrUnsupportedLayout, frame.Layout))
	}

	buf, err := c.kernel.Grayscale(frame)
	if err != nil {
		return model.GrayscaleBuffer{}, newStageError(StageGrayscale, KindConversion, err)
	}
	if buf.Empty() {
		return model.GrayscaleBuffer{}, newStageError(StageGrayscale, KindConversion, kernel.ErrDegenerate)
	}
	if frame.Layout != model.LayoutJPEG && (buf.Width != frame.Width || buf.Height != frame.Height) {
		return model.GrayscaleBuffer{}, newStageError(StageGrayscale, KindConversion,
			fmt.Errorf("backend returned %dx%d for a %dx%d frame", buf.Width, buf.Height, frame.Width, frame.Height))
	}
	return buf, nil
}

// SharpnessEstimator scores focus as the standard deviation of the Laplacian response.
// Low values indicate blur.
type SharpnessEstimator struct {
	kernel Kernel
}

func NewSharpnessEstimator(k Kernel) *SharpnessEstimator {
	return &SharpnessEstimator{kernel: k}
}

func (e *SharpnessEstimator) Estimate(buf model.GrayscaleBuffer) (float64, error) {
	if buf.Empty() {
		return 0, newStageError(StageSharpness, KindSharpness, kernel.ErrDegenerate)
	}
	std, err := e.kernel.LaplacianStdDev(buf)
	if err != nil {
		return 0, newStageError(StageSharpness, KindSharpness, err)
	}
	if math.IsNaN(std) || math.IsInf(std, 0) || std < 0 {
		return 0, newStageError(StageSharpness, KindSharpness, fmt.Errorf("%w: %v", errNonFinite, std))
	}
	return std, nil
}

// Exposure holds the share of dark and bright pixels, each in [0,1].
type Exposure struct {
	DarkShare   float64
	BrightShare float64
}

// ExposureEstimator counts pixels at or beyond the normalized dark/bright intensities.
type ExposureEstimator struct {
	kernel    Kernel
	darkMax   int // largest 8-bit value counted as dark, -1 for none
	brightMin int // smallest 8-bit value counted as bright, 256 for none
}

// NewExposureEstimator takes normalized thresholds (e.g. 40/255 and 210/255).
func NewExposureEstimator(k Kernel, darkPixel, brightPixel float64) *ExposureEstimator {
	darkMax, brightMin := intensityBounds(darkPixel, brightPixel)
	return &ExposureEstimator{kernel: k, darkMax: darkMax, brightMin: brightMin}
}

// intensityBounds converts normalized thresholds to the exact 8-bit bounds that satisfy
// v/255 <= dark and v/255 >= bright.
func intensityBounds(darkPixel, brightPixel float64) (darkMax, brightMin int) {
	darkMax, brightMin = -1, 256
	for v := 0; v <= 255; v++ {
		n := float64(v) / 255
		if n <= darkPixel {
			darkMax = v
		}
		if n >= brightPixel && brightMin == 256 {
			brightMin = v
		}
	}
	return darkMax, brightMin
}

func (e *ExposureEstimator) Estimate(buf model.GrayscaleBuffer) (Exposure, error) {
	if buf.Empty() {
		return Exposure{}, newStageError(StageExposure, KindExposure, kernel.ErrDegenerate)
	}
	dark, bright, err := e.kernel.CountExposure(buf, e.darkMax, e.brightMin)
	if err != nil {
		return Exposure{}, newStageError(StageExposure, KindExposure, err)
	}

	total := buf.Len()
	if dark < 0 || bright < 0 || dark > total || bright > total {
		return Exposure{}, newStageError(StageExposure, KindExposure,
			fmt.Errorf("counts dark=%d bright=%d out of range for %d pixels", dark, bright, total))
	}
	return Exposure{
		DarkShare:   float64(dark) / float64(total),
		BrightShare: float64(bright) / float64(total),
	}, nil
}
