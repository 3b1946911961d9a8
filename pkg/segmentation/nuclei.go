package segmentation

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"nucleolseg/internal/models"
)

// NuclearParams controls nuclear segmentation
type NuclearParams struct {
	// RollingBallRadius is the half-size of the background window in pixels
	RollingBallRadius int

	// SmoothingStdDev is the blur applied before estimating the background
	SmoothingStdDev float64

	// Threshold is the fraction of the leveled image's maximum above which a
	// pixel is foreground
	Threshold float64

	// MinSize and MaxSize bound the nuclear area in pixels. A MaxSize of zero
	// or less disables the upper bound.
	MinSize int
	MaxSize int

	// Border is the width of the edge zone; nuclei reaching into it are
	// discarded
	Border int

	// FillHoles fills holes inside nuclei before the final labeling
	FillHoles bool
}

// Validate checks the parameters against the ranges the stages accept
func (p NuclearParams) Validate() error {
	if p.RollingBallRadius <= 0 {
		return fmt.Errorf("nuclear rolling ball radius must be positive, got %d: %w", p.RollingBallRadius, ErrInvalidConfiguration)
	}
	if p.SmoothingStdDev < 0 {
		return fmt.Errorf("nuclear smoothing must not be negative, got %g: %w", p.SmoothingStdDev, ErrInvalidConfiguration)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("nuclear threshold fraction must be within [0, 1], got %g: %w", p.Threshold, ErrInvalidConfiguration)
	}
	if p.Border < 0 {
		return fmt.Errorf("nuclear border must not be negative, got %d: %w", p.Border, ErrInvalidConfiguration)
	}
	return validateSizes("nuclear", p.MinSize, p.MaxSize)
}

func validateSizes(kind string, minSize, maxSize int) error {
	if minSize < 0 {
		return fmt.Errorf("%s minimum size must not be negative, got %d: %w", kind, minSize, ErrInvalidConfiguration)
	}
	if maxSize > 0 && maxSize < minSize {
		return fmt.Errorf("%s maximum size %d is below minimum size %d: %w", kind, maxSize, minSize, ErrInvalidConfiguration)
	}
	return nil
}

// NuclearResult holds the outputs of SegmentNuclei
type NuclearResult struct {
	// Leveled is the background-subtracted nuclear channel
	Leveled *models.Image

	// Mask is the thresholded foreground before edge clearing and size
	// filtering
	Mask *models.Mask

	// Labels holds the final nuclei, numbered 1..Count
	Labels *models.LabelMap

	// Count is the number of nuclei
	Count int
}

// SegmentNuclei levels the nuclear (DAPI) channel, thresholds it at a fixed
// fraction of its maximum, discards nuclei touching the border and filters
// the rest by size.
//
// If the leveled maximum is not positive no pixel can pass the threshold and
// the result has zero nuclei.
func (s *Segmenter) SegmentNuclei(img *models.Image, p NuclearParams) (*NuclearResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(img.Pix) == 0 {
		return nil, fmt.Errorf("nuclear channel is empty: %w", ErrInvalidConfiguration)
	}

	leveled, err := s.Level(img, p.RollingBallRadius, p.SmoothingStdDev)
	if err != nil {
		return nil, fmt.Errorf("failed to level nuclear channel: %w", err)
	}

	peak := floats.Max(leveled.Pix)
	var mask *models.Mask
	if peak > 0 {
		mask = leveled.Threshold(p.Threshold * peak)
	} else {
		mask = models.NewMask(img.Width, img.Height)
	}

	labels, count, err := s.LabelClearEdges(mask, p.Border)
	if err != nil {
		return nil, fmt.Errorf("failed to clear edge nuclei: %w", err)
	}

	labels, count, err = s.FilterObjects(labels, count, p.MinSize, p.MaxSize, p.FillHoles)
	if err != nil {
		return nil, fmt.Errorf("failed to filter nuclei: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"peak":      peak,
		"threshold": p.Threshold * peak,
		"nuclei":    count,
	}).Info("segmented nuclei")

	return &NuclearResult{
		Leveled: leveled,
		Mask:    mask,
		Labels:  labels,
		Count:   count,
	}, nil
}
