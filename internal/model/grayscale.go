package model

// GrayscaleBuffer holds row-major 8-bit intensities, one per pixel.
type GrayscaleBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGrayscaleBuffer allocates a zeroed buffer.
func NewGrayscaleBuffer(width, height int) GrayscaleBuffer {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return GrayscaleBuffer{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// Len is the number of pixels.
func (b GrayscaleBuffer) Len() int {
	return b.Width * b.Height
}

// Empty reports a degenerate buffer that no metric can be computed on.
func (b GrayscaleBuffer) Empty() bool {
	return b.Width <= 0 || b.Height <= 0 || len(b.Pix) < b.Len()
}

func (b GrayscaleBuffer) At(x, y int) uint8 {
	return b.Pix[y*b.Width+x]
}

func (b GrayscaleBuffer) Set(x, y int, v uint8) {
	b.Pix[y*b.Width+x] = v
}
