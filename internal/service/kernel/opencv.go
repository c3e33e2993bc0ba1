package kernel

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"framecheck/internal/model"

	"gocv.io/x/gocv"
)

// laplacian is the 4-neighbour Laplacian applied for the sharpness metric.
var laplacian = [3][3]float32{
	{0, -1, 0},
	{-1, 4, -1},
	{0, -1, 0},
}

// OpenCV runs the numeric stages through gocv.
// Safe for concurrent use; Close waits for in-flight calls.
type OpenCV struct {
	mu        sync.RWMutex
	closed    bool
	laplacian gocv.Mat
}

// NewOpenCV prepares the convolution kernel shared by all calls.
func NewOpenCV() *OpenCV {
	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			k.SetFloatAt(r, c, laplacian[r][c])
		}
	}
	return &OpenCV{laplacian: k}
}

// Close releases native memory. Later calls fail with ErrClosed.
func (o *OpenCV) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.laplacian.Close()
}

// Ready reports whether the backend can serve a frame.
func (o *OpenCV) Ready() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}
	if o.laplacian.Empty() {
		return fmt.Errorf("laplacian kernel: %w", ErrAllocation)
	}
	return nil
}

// Grayscale converts a frame to 8-bit intensities.
func (o *OpenCV) Grayscale(frame model.Frame) (model.GrayscaleBuffer, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return model.GrayscaleBuffer{}, ErrClosed
	}

	if frame.Layout == model.LayoutJPEG {
		gray, err := gocv.IMDecode(frame.Data, gocv.IMReadGrayScale)
		if err != nil {
			return model.GrayscaleBuffer{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		defer gray.Close()
		if gray.Empty() {
			return model.GrayscaleBuffer{}, fmt.Errorf("%w: decoded image is empty", ErrDecode)
		}
		return toBuffer(gray), nil
	}

	src, err := rawMat(frame)
	if err != nil {
		return model.GrayscaleBuffer{}, err
	}
	defer src.Close()
	defer runtime.KeepAlive(frame.Data)

	if frame.Layout == model.LayoutGray8 {
		return toBuffer(src), nil
	}

	code, err := grayCode(frame.Layout)
	if err != nil {
		return model.GrayscaleBuffer{}, err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(src, &gray, code); err != nil {
		return model.GrayscaleBuffer{}, fmt.Errorf("failed to convert %s to grayscale: %w", frame.Layout, err)
	}
	if gray.Empty() {
		return model.GrayscaleBuffer{}, fmt.Errorf("grayscale output: %w", ErrAllocation)
	}
	return toBuffer(gray), nil
}

// LaplacianStdDev convolves buf with the Laplacian (clamp-to-edge border) and returns the
// population standard deviation of the response in 0..255 intensity units.
func (o *OpenCV) LaplacianStdDev(buf model.GrayscaleBuffer) (float64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return 0, ErrClosed
	}
	if buf.Empty() {
		return 0, ErrDegenerate
	}

	src, err := gocv.NewMatFromBytes(buf.Height, buf.Width, gocv.MatTypeCV8UC1, buf.Pix[:buf.Len()])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	defer src.Close()
	defer runtime.KeepAlive(buf.Pix)

	// 16-bit signed output keeps the integer response exact (range -1020..1020).
	response := gocv.NewMat()
	defer response.Close()
	err = gocv.Filter2D(src, &response, gocv.MatTypeCV16S, o.laplacian, image.Pt(-1, -1), 0, gocv.BorderReplicate)
	if err := checkStep("laplacian response", err, response, fmt.Errorf("laplacian response: %w", ErrAllocation)); err != nil {
		return 0, err
	}

	mean := gocv.NewMat()
	defer mean.Close()
	stdDev := gocv.NewMat()
	defer stdDev.Close()
	err = gocv.MeanStdDev(response, &mean, &stdDev)
	if err := checkStep("mean and variance", err, stdDev, ErrVarianceEmpty); err != nil {
		return 0, err
	}
	return stdDev.GetDoubleAt(0, 0), nil
}

// checkStep turns the outcome of one gocv call into a kernel error.
// A call that failed is an allocation failure carrying OpenCV's message; only a call
// that succeeded without output reports emptyErr.
func checkStep(step string, err error, out gocv.Mat, emptyErr error) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %v", step, ErrAllocation, err)
	}
	if out.Empty() {
		return emptyErr
	}
	return nil
}

// CountExposure counts pixels with value <= darkMax and value >= brightMin.
// darkMax < 0 or brightMin > 255 mean no pixel can qualify.
func (o *OpenCV) CountExposure(buf model.GrayscaleBuffer, darkMax, brightMin int) (int, int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return 0, 0, ErrClosed
	}
	if buf.Empty() {
		return 0, 0, ErrDegenerate
	}

	src, err := gocv.NewMatFromBytes(buf.Height, buf.Width, gocv.MatTypeCV8UC1, buf.Pix[:buf.Len()])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	defer src.Close()
	defer runtime.KeepAlive(buf.Pix)

	dark := 0
	if darkMax >= 0 {
		dark, err = countThreshold(src, float32(darkMax), gocv.ThresholdBinaryInv, ErrDarkResultEmpty)
		if err != nil {
			return 0, 0, err
		}
	}

	bright := 0
	if brightMin <= 255 {
		bright, err = countThreshold(src, float32(brightMin-1), gocv.ThresholdBinary, ErrBrightResultEmpty)
		if err != nil {
			return 0, 0, err
		}
	}
	return dark, bright, nil
}

// EncodeJPEG renders a frame for review. JPEG frames are returned as-is.
func (o *OpenCV) EncodeJPEG(frame model.Frame) ([]byte, error) {
	if frame.Layout == model.LayoutJPEG {
		return frame.Data, nil
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return nil, ErrClosed
	}

	src, err := rawMat(frame)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	defer runtime.KeepAlive(frame.Data)

	img := src
	if code, ok := bgrCode(frame.Layout); ok {
		bgr := gocv.NewMat()
		defer bgr.Close()
		if err := gocv.CvtColor(src, &bgr, code); err != nil {
			return nil, fmt.Errorf("failed to convert %s to BGR: %w", frame.Layout, err)
		}
		img = bgr
	}

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

func countThreshold(src gocv.Mat, thresh float32, typ gocv.ThresholdType, emptyErr error) (int, error) {
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(src, &mask, thresh, 255, typ)
	if mask.Empty() {
		return 0, emptyErr
	}
	return gocv.CountNonZero(mask), nil
}

func rawMat(frame model.Frame) (gocv.Mat, error) {
	if err := frame.Validate(); err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	var mt gocv.MatType
	switch frame.Layout.BytesPerPixel() {
	case 1:
		mt = gocv.MatTypeCV8UC1
	case 3:
		mt = gocv.MatTypeCV8UC3
	case 4:
		mt = gocv.MatTypeCV8UC4
	default:
		return gocv.Mat{}, fmt.Errorf("%w: %s", ErrUnsupportedLayout, frame.Layout)
	}
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, mt, frame.Data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	return mat, nil
}

func grayCode(layout model.PixelLayout) (gocv.ColorConversionCode, error) {
	switch layout {
	case model.LayoutRGB24:
		return gocv.ColorRGBToGray, nil
	case model.LayoutBGR24:
		return gocv.ColorBGRToGray, nil
	case model.LayoutRGBA32:
		return gocv.ColorRGBAToGray, nil
	case model.LayoutBGRA32:
		return gocv.ColorBGRAToGray, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedLayout, layout)
}

// bgrCode returns the conversion that IMEncode needs, if any.
func bgrCode(layout model.PixelLayout) (gocv.ColorConversionCode, bool) {
	switch layout {
	case model.LayoutRGB24:
		return gocv.ColorBGRToRGB, true // channel swap is symmetric
	case model.LayoutRGBA32:
		return gocv.ColorRGBAToBGR, true
	case model.LayoutBGRA32:
		return gocv.ColorBGRAToBGR, true
	}
	return 0, false
}

func toBuffer(gray gocv.Mat) model.GrayscaleBuffer {
	buf := model.GrayscaleBuffer{Width: gray.Cols(), Height: gray.Rows()}
	data := gray.ToBytes()
	buf.Pix = make([]uint8, len(data))
	copy(buf.Pix, data)
	return buf
}
