package analysis

import (
	"sync"

	"framecheck/internal/model"
)

// Measurements is what one pipeline run produced. Metrics that failed are absent and
// their failures are listed in Errors, sharpness before exposure.
type Measurements struct {
	Sharpness    float64
	HasSharpness bool
	Exposure     Exposure
	HasExposure  bool
	Errors       []error
}

// Pipeline runs grayscale conversion, then sharpness and exposure in parallel.
type Pipeline struct {
	kernel    Kernel
	converter *GrayscaleConverter
	sharpness *SharpnessEstimator
	exposure  *ExposureEstimator
}

func NewPipeline(k Kernel, darkPixel, brightPixel float64) *Pipeline {
	return &Pipeline{
		kernel:    k,
		converter: NewGrayscaleConverter(k),
		sharpness: NewSharpnessEstimator(k),
		exposure:  NewExposureEstimator(k, darkPixel, brightPixel),
	}
}

// Run never fails as a whole: stage failures are reported in Measurements.Errors.
func (p *Pipeline) Run(frame model.Frame) Measurements {
	var m Measurements

	if err := p.kernel.Ready(); err != nil {
		m.Errors = append(m.Errors, newStageError(StagePrepare, KindConfiguration, err))
		return m
	}

	gray, err := p.converter.Convert(frame)
	if err != nil {
		m.Errors = append(m.Errors, err)
		return m
	}

	var (
		wg          sync.WaitGroup
		sharpErr    error
		exposureErr error
		sharpness   float64
		exposure    Exposure
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sharpness, sharpErr = p.sharpness.Estimate(gray)
	}()
	go func() {
		defer wg.Done()
		exposure, exposureErr = p.exposure.Estimate(gray)
	}()
	wg.Wait()

	if sharpErr != nil {
		m.Errors = append(m.Errors, sharpErr)
	} else {
		m.Sharpness, m.HasSharpness = sharpness, true
	}
	if exposureErr != nil {
		m.Errors = append(m.Errors, exposureErr)
	} else {
		m.Exposure, m.HasExposure = exposure, true
	}
	return m
}
