package segmentation

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"nucleolseg/internal/models"
)

// FilterObjects removes labeled objects whose area is below minSize or, when
// maxSize is positive, above maxSize. Both bounds are inclusive: an object of
// exactly minSize or maxSize pixels is kept. With fillHoles set, holes in the
// remaining foreground are filled before the final dense relabeling, which can
// grow the area of the objects that enclosed them.
func (s *Segmenter) FilterObjects(labels *models.LabelMap, count, minSize, maxSize int, fillHoles bool) (*models.LabelMap, int, error) {
	if minSize < 0 {
		return nil, 0, fmt.Errorf("minimum object size must not be negative, got %d: %w", minSize, ErrInvalidConfiguration)
	}
	if count < 0 {
		return nil, 0, fmt.Errorf("object count must not be negative, got %d: %w", count, ErrInvalidConfiguration)
	}

	areas := labels.Areas(count)
	keep := make([]bool, count+1)
	removed := 0
	for i, area := range areas {
		switch {
		case area < minSize:
			removed++
		case maxSize > 0 && area > maxSize:
			removed++
		default:
			keep[i+1] = true
		}
	}

	mask := models.NewMask(labels.Width, labels.Height)
	for i, l := range labels.Pix {
		mask.Pix[i] = l > 0 && l <= count && keep[l]
	}

	if fillHoles {
		mask = s.toolkit.FillHoles(mask, s.connectivity)
	}

	filtered, remaining := s.toolkit.Label(mask, s.connectivity)
	s.logger.WithFields(logrus.Fields{
		"objects":    count,
		"removed":    removed,
		"remaining":  remaining,
		"min_size":   minSize,
		"max_size":   maxSize,
		"fill_holes": fillHoles,
	}).Debug("filtered objects by size")

	return filtered, remaining, nil
}
