package segmentation

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"nucleolseg/internal/models"
)

// NucleolarParams controls nucleolar segmentation
type NucleolarParams struct {
	// RollingBallRadius is the half-size of the background window in pixels
	RollingBallRadius int

	// PreSmoothingStdDev is the blur applied before estimating the background
	PreSmoothingStdDev float64

	// PostSmoothingStdDev is the blur applied to the leveled channels
	PostSmoothingStdDev float64

	// Threshold is the fraction of each nucleus' intensity range above its
	// minimum at which a pixel becomes nucleolar
	Threshold float64

	// MinSize and MaxSize bound the nucleolar area in pixels. A MaxSize of
	// zero or less disables the upper bound.
	MinSize int
	MaxSize int

	// FillHoles fills holes inside nucleoli before the final labeling
	FillHoles bool
}

// Validate checks the parameters against the ranges the stages accept
func (p NucleolarParams) Validate() error {
	if p.RollingBallRadius <= 0 {
		return fmt.Errorf("nucleolar rolling ball radius must be positive, got %d: %w", p.RollingBallRadius, ErrInvalidConfiguration)
	}
	if p.PreSmoothingStdDev < 0 || p.PostSmoothingStdDev < 0 {
		return fmt.Errorf("nucleolar smoothing must not be negative, got %g and %g: %w",
			p.PreSmoothingStdDev, p.PostSmoothingStdDev, ErrInvalidConfiguration)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("nucleolar threshold fraction must be within [0, 1], got %g: %w", p.Threshold, ErrInvalidConfiguration)
	}
	return validateSizes("nucleolar", p.MinSize, p.MaxSize)
}

// NucleolarResult holds the outputs of SegmentNucleoli
type NucleolarResult struct {
	// Nucleolar is the leveled and smoothed nucleolar channel
	Nucleolar *models.Image

	// Third is the leveled and smoothed measurement channel
	Third *models.Image

	// Thresholds holds each nucleus' threshold on its pixels and 0 elsewhere
	Thresholds *models.Image

	// Labels holds the nucleoli, numbered 1..Count
	Labels *models.LabelMap

	// Count is the number of nucleoli
	Count int
}

// SegmentNucleoli finds nucleoli inside the given nuclei.
//
// Both the nucleolar and the third channel are leveled and smoothed the same
// way; the third channel is only carried along for measurement. A pixel is
// nucleolar when its intensity exceeds the adaptive threshold of the nucleus
// it lies in, so nucleoli never extend outside the nuclei. Nucleoli are not
// edge cleared since their parents already are.
func (s *Segmenter) SegmentNucleoli(nucleolar, third *models.Image, nuclei *models.LabelMap, nucleiCount int, p NucleolarParams) (*NucleolarResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := models.CheckDimensions(nucleolar, third, nuclei); err != nil {
		return nil, err
	}
	if len(nucleolar.Pix) == 0 {
		return nil, fmt.Errorf("nucleolar channel is empty: %w", ErrInvalidConfiguration)
	}

	nucleolarSub, err := s.Level(nucleolar, p.RollingBallRadius, p.PreSmoothingStdDev)
	if err != nil {
		return nil, fmt.Errorf("failed to level nucleolar channel: %w", err)
	}
	thirdSub, err := s.Level(third, p.RollingBallRadius, p.PreSmoothingStdDev)
	if err != nil {
		return nil, fmt.Errorf("failed to level third channel: %w", err)
	}

	smoothed := s.toolkit.GaussianBlur(nucleolarSub, p.PostSmoothingStdDev)
	thirdSmoothed := s.toolkit.GaussianBlur(thirdSub, p.PostSmoothingStdDev)

	thresholds := s.NucleusThresholds(smoothed, nuclei, nucleiCount, p.Threshold)

	mask := models.NewMask(nucleolar.Width, nucleolar.Height)
	for i, t := range thresholds.Pix {
		mask.Pix[i] = t != 0 && smoothed.Pix[i] > t
	}

	labels, count := s.toolkit.Label(mask, s.connectivity)
	labels, count, err = s.FilterObjects(labels, count, p.MinSize, p.MaxSize, p.FillHoles)
	if err != nil {
		return nil, fmt.Errorf("failed to filter nucleoli: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"nuclei":   nucleiCount,
		"nucleoli": count,
	}).Info("segmented nucleoli")

	return &NucleolarResult{
		Nucleolar:  smoothed,
		Third:      thirdSmoothed,
		Thresholds: thresholds,
		Labels:     labels,
		Count:      count,
	}, nil
}

// NucleusThresholds paints every nucleus with min + fraction*(max-min) of
// img's intensities inside that nucleus. Background pixels are 0.
func (s *Segmenter) NucleusThresholds(img *models.Image, nuclei *models.LabelMap, count int, fraction float64) *models.Image {
	regions := s.toolkit.RegionStats(img, nuclei, count)

	levels := make([]float64, count+1)
	for _, r := range regions {
		if r.Area == 0 {
			continue
		}
		levels[r.Label] = r.Min + fraction*(r.Max-r.Min)
	}

	thresholds := models.NewImage(img.Width, img.Height)
	for i, l := range nuclei.Pix {
		if l > 0 && l <= count {
			thresholds.Pix[i] = levels[l]
		}
	}
	return thresholds
}
