// Package imageio reads channel images from disk and writes intermediary
// stage images for inspection.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"

	"nucleolseg/internal/models"
)

// LoadChannel loads a single-channel image. TIFF files are decoded directly,
// every other format goes through imaging. Intensities keep their stored
// values (0..65535 for 16-bit, 0..255 for 8-bit data); color images are
// reduced to luminance.
func LoadChannel(path string) (*models.Image, error) {
	var img image.Image
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		img, err = loadTIFF(path)
	default:
		img, err = imaging.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return ToImage(img), nil
}

func loadTIFF(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return tiff.Decode(file)
}

// ToImage converts a decoded image into a float image
func ToImage(img image.Image) *models.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	result := models.NewImage(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px, py := bounds.Min.X+x, bounds.Min.Y+y
			var v float64
			switch src := img.(type) {
			case *image.Gray16:
				v = float64(src.Gray16At(px, py).Y)
			case *image.Gray:
				v = float64(src.GrayAt(px, py).Y)
			default:
				v = float64(color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y)
			}
			result.Pix[y*width+x] = v
		}
	}

	return result
}

// FloatToGray16 maps the image's range linearly onto 0..65535. A constant
// image maps to black.
func FloatToGray16(img *models.Image) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	if len(img.Pix) == 0 {
		return out
	}

	lo, hi := floats.Min(img.Pix), floats.Max(img.Pix)
	span := hi - lo
	for i, v := range img.Pix {
		var value uint16
		if span > 0 {
			value = uint16((v - lo) / span * 65535.0)
		}
		out.Pix[2*i] = uint8(value >> 8)
		out.Pix[2*i+1] = uint8(value)
	}
	return out
}

// MaskToGray16 renders foreground white and background black
func MaskToGray16(mask *models.Mask) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, mask.Width, mask.Height))
	for i, v := range mask.Pix {
		if v {
			out.Pix[2*i] = 0xff
			out.Pix[2*i+1] = 0xff
		}
	}
	return out
}

// LabelsToGray16 stores label values as raw intensities so that they can be
// read back exactly. Labels above 65535 saturate.
func LabelsToGray16(labels *models.LabelMap) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, labels.Width, labels.Height))
	for i, v := range labels.Pix {
		if v > 0xffff {
			v = 0xffff
		}
		out.Pix[2*i] = uint8(v >> 8)
		out.Pix[2*i+1] = uint8(v)
	}
	return out
}

// SaveStage writes data as a 16-bit image named name under dir/stage. The
// format follows name's extension; ".png" is appended when it has none.
func SaveStage(dir, stage, name string, data interface{}) error {
	stageDir := filepath.Join(dir, stage)
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return fmt.Errorf("failed to create intermediary directory: %w", err)
	}

	var img image.Image
	switch v := data.(type) {
	case *models.Image:
		img = FloatToGray16(v)
	case *models.Mask:
		img = MaskToGray16(v)
	case *models.LabelMap:
		img = LabelsToGray16(v)
	case image.Image:
		img = v
	default:
		return fmt.Errorf("unsupported intermediary data type %T", data)
	}

	if filepath.Ext(name) == "" {
		name += ".png"
	}
	if err := imaging.Save(img, filepath.Join(stageDir, name)); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", stage, name, err)
	}
	return nil
}
