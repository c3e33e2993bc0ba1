package model

import (
	"fmt"
	"time"
)

// PixelLayout describes how Frame.Data is laid out.
type PixelLayout int

const (
	LayoutGray8 PixelLayout = iota
	LayoutRGB24
	LayoutBGR24
	LayoutRGBA32
	LayoutBGRA32
	LayoutJPEG // encoded bytes, dimensions known only after decoding
)

// BytesPerPixel returns 0 for encoded layouts.
func (l PixelLayout) BytesPerPixel() int {
	switch l {
	case LayoutGray8:
		return 1
	case LayoutRGB24, LayoutBGR24:
		return 3
	case LayoutRGBA32, LayoutBGRA32:
		return 4
	default:
		return 0
	}
}

func (l PixelLayout) String() string {
	switch l {
	case LayoutGray8:
		return "gray8"
	case LayoutRGB24:
		return "rgb24"
	case LayoutBGR24:
		return "bgr24"
	case LayoutRGBA32:
		return "rgba32"
	case LayoutBGRA32:
		return "bgra32"
	case LayoutJPEG:
		return "jpeg"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// Frame is one unit of image data delivered by a capture source.
// Data is owned by the pipeline run it is handed to and must not be modified afterwards.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Layout    PixelLayout
	Source    string
	Timestamp time.Time
}

// Validate checks that raw layouts carry exactly Width*Height pixels.
func (f Frame) Validate() error {
	if len(f.Data) == 0 {
		return fmt.Errorf("frame has no data")
	}
	if f.Layout == LayoutJPEG {
		return nil
	}
	bpp := f.Layout.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("unsupported pixel layout %s", f.Layout)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	if want := f.Width * f.Height * bpp; len(f.Data) != want {
		return fmt.Errorf("%s frame %dx%d needs %d bytes, got %d", f.Layout, f.Width, f.Height, want, len(f.Data))
	}
	return nil
}

// Clone returns a deep copy, used when a frame is retained as a snapshot.
func (f Frame) Clone() Frame {
	c := f
	c.Data = make([]byte, len(f.Data))
	copy(c.Data, f.Data)
	return c
}
