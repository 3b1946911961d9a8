package models

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when arrays that describe the same field of
// view do not share the same width and height.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// ErrInvalidConfiguration is returned when a numeric parameter is outside the
// range the pipeline can work with (non-positive radius, negative border, ...).
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Image is a single channel of a field of view.
// Intensities are stored row-major: the sample at (x, y) is Pix[y*Width+x].
type Image struct {
	// Width is the number of columns
	Width int

	// Height is the number of rows
	Height int

	// Pix holds Width*Height intensity samples without inherent units
	Pix []float64
}

// NewImage allocates a zero-valued image
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// NewImageFromData wraps row-major data as an image. The slice is not copied.
func NewImageFromData(width, height int, data []float64) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image must have positive dimensions, got %dx%d: %w", width, height, ErrInvalidConfiguration)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("image data has %d samples, want %d for %dx%d: %w",
			len(data), width*height, width, height, ErrDimensionMismatch)
	}
	return &Image{Width: width, Height: height, Pix: data}, nil
}

// Dims returns the width and height of the image
func (m *Image) Dims() (int, int) { return m.Width, m.Height }

// At returns the intensity at column x, row y
func (m *Image) At(x, y int) float64 { return m.Pix[y*m.Width+x] }

// Set stores an intensity at column x, row y
func (m *Image) Set(x, y int, v float64) { m.Pix[y*m.Width+x] = v }

// Clone returns a deep copy of the image
func (m *Image) Clone() *Image {
	out := NewImage(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}

// Threshold returns the mask of samples strictly greater than t
func (m *Image) Threshold(t float64) *Mask {
	mask := NewMask(m.Width, m.Height)
	for i, v := range m.Pix {
		mask.Pix[i] = v > t
	}
	return mask
}

// Mask is a binary foreground image with the layout of Image.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an all-background mask
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// Dims returns the width and height of the mask
func (m *Mask) Dims() (int, int) { return m.Width, m.Height }

// At reports whether (x, y) is foreground
func (m *Mask) At(x, y int) bool { return m.Pix[y*m.Width+x] }

// Set marks (x, y) as foreground or background
func (m *Mask) Set(x, y int, v bool) { m.Pix[y*m.Width+x] = v }

// Count returns the number of foreground pixels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// LabelMap assigns every pixel to background (0) or to one of the objects
// 1..N. Maps produced by the labeling stages are dense: every label in 1..N is
// used at least once.
type LabelMap struct {
	Width  int
	Height int
	Pix    []int
}

// NewLabelMap allocates an all-background label map
func NewLabelMap(width, height int) *LabelMap {
	return &LabelMap{
		Width:  width,
		Height: height,
		Pix:    make([]int, width*height),
	}
}

// Dims returns the width and height of the label map
func (l *LabelMap) Dims() (int, int) { return l.Width, l.Height }

// At returns the label at (x, y)
func (l *LabelMap) At(x, y int) int { return l.Pix[y*l.Width+x] }

// Set stores a label at (x, y)
func (l *LabelMap) Set(x, y, label int) { l.Pix[y*l.Width+x] = label }

// Max returns the largest label in the map, which equals the object count of
// a dense map.
func (l *LabelMap) Max() int {
	highest := 0
	for _, v := range l.Pix {
		if v > highest {
			highest = v
		}
	}
	return highest
}

// Foreground returns the mask of all non-background pixels
func (l *LabelMap) Foreground() *Mask {
	mask := NewMask(l.Width, l.Height)
	for i, v := range l.Pix {
		mask.Pix[i] = v > 0
	}
	return mask
}

// Areas returns the pixel count of labels 1..count; index 0 of the result
// is the area of label 1. Labels above count are ignored.
func (l *LabelMap) Areas(count int) []int {
	areas := make([]int, count)
	for _, v := range l.Pix {
		if v > 0 && v <= count {
			areas[v-1]++
		}
	}
	return areas
}

// ToImage converts the label values to intensities so that they can be
// averaged over another label map's regions.
func (l *LabelMap) ToImage() *Image {
	img := NewImage(l.Width, l.Height)
	for i, v := range l.Pix {
		img.Pix[i] = float64(v)
	}
	return img
}

// Shape is implemented by every raster type of this package.
type Shape interface {
	Dims() (width, height int)
}

// CheckDimensions returns ErrDimensionMismatch unless every shape has the
// dimensions of the first one.
func CheckDimensions(shapes ...Shape) error {
	if len(shapes) == 0 {
		return nil
	}
	w, h := shapes[0].Dims()
	for i, s := range shapes[1:] {
		sw, sh := s.Dims()
		if sw != w || sh != h {
			return fmt.Errorf("array %d is %dx%d, expected %dx%d: %w", i+1, sw, sh, w, h, ErrDimensionMismatch)
		}
	}
	return nil
}
