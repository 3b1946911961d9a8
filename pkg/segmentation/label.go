package segmentation

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"nucleolseg/internal/models"
)

// LabelClearEdges labels the connected regions of mask and removes every
// region that has at least one pixel within border pixels of any image edge.
// The survivors are relabeled densely from 1.
//
// A border of half the smaller image dimension or more clears everything,
// which yields an empty map and a zero count.
func (s *Segmenter) LabelClearEdges(mask *models.Mask, border int) (*models.LabelMap, int, error) {
	if border < 0 {
		return nil, 0, fmt.Errorf("border width must not be negative, got %d: %w", border, ErrInvalidConfiguration)
	}

	labels, count := s.toolkit.Label(mask, s.connectivity)

	touching := edgeLabels(labels, border)
	if len(touching) == 0 {
		return labels, count, nil
	}

	kept := models.NewMask(mask.Width, mask.Height)
	for i, l := range labels.Pix {
		kept.Pix[i] = l > 0 && !touching[l]
	}

	cleared, remaining := s.toolkit.Label(kept, s.connectivity)
	s.logger.WithFields(logrus.Fields{
		"objects": count,
		"removed": len(touching),
		"kept":    remaining,
		"border":  border,
	}).Debug("cleared edge objects")

	return cleared, remaining, nil
}

// edgeLabels collects the non-zero labels found in the top and bottom border
// rows and the left and right border columns.
func edgeLabels(labels *models.LabelMap, border int) map[int]bool {
	w, h := labels.Width, labels.Height
	found := make(map[int]bool)
	if border == 0 {
		return found
	}

	mark := func(x, y int) {
		if l := labels.At(x, y); l != 0 {
			found[l] = true
		}
	}

	rows := min(border, h)
	for y := 0; y < rows; y++ {
		for x := 0; x < w; x++ {
			mark(x, y)
			mark(x, h-1-y)
		}
	}

	cols := min(border, w)
	for x := 0; x < cols; x++ {
		for y := 0; y < h; y++ {
			mark(x, y)
			mark(w-1-x, y)
		}
	}

	return found
}
