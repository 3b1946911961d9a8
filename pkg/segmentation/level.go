package segmentation

import (
	"fmt"

	"nucleolseg/internal/models"
)

// Level removes slowly varying background from img.
//
// The background floor is estimated by blurring with smoothing as standard
// deviation and taking the minimum over a square window of side 2*radius. The
// floor is subtracted from the unblurred image, so the result keeps the
// original noise and may be negative close to the floor. This approximates a
// rolling-ball subtraction with a ball of the given radius.
func (s *Segmenter) Level(img *models.Image, radius int, smoothing float64) (*models.Image, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("cannot level a %dx%d image: %w", img.Width, img.Height, ErrInvalidConfiguration)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("rolling ball radius must be positive, got %d: %w", radius, ErrInvalidConfiguration)
	}
	if smoothing < 0 {
		return nil, fmt.Errorf("smoothing standard deviation must not be negative, got %g: %w", smoothing, ErrInvalidConfiguration)
	}

	floor := s.toolkit.MinimumFilter(s.toolkit.GaussianBlur(img, smoothing), 2*radius)

	leveled := models.NewImage(img.Width, img.Height)
	for i, v := range img.Pix {
		leveled.Pix[i] = v - floor.Pix[i]
	}
	return leveled, nil
}
