// Package analysis runs the full nucleus and nucleolus pipeline on one field
// of view.
package analysis

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"nucleolseg/internal/models"
	"nucleolseg/pkg/imageio"
	"nucleolseg/pkg/measurement"
	"nucleolseg/pkg/segmentation"
	"nucleolseg/pkg/toolkit"
)

// Params holds the analysis parameters.
type Params struct {
	// Nuclear configures segmentation of the DAPI channel
	Nuclear segmentation.NuclearParams

	// Nucleolar configures segmentation of the nucleolar channel
	Nucleolar segmentation.NucleolarParams

	// Connectivity is used by every labeling step
	Connectivity toolkit.Connectivity

	// SaveIntermediaryResults determines whether to save intermediary processing results.
	// When enabled, every stage is written as a 16-bit image.
	SaveIntermediaryResults bool

	// IntermediaryDir is the directory where intermediary results will be saved.
	// Only used when SaveIntermediaryResults is true.
	IntermediaryDir string

	// Name identifies the field of view in intermediary file names and logs
	Name string
}

// Result holds every intermediate array of a run together with the table
type Result struct {
	Nuclei   *segmentation.NuclearResult
	Nucleoli *segmentation.NucleolarResult
	Table    measurement.Table

	// Duration is the wall time spent in Process
	Duration time.Duration
}

// Analyzer handles the segmentation and measurement of a field of view.
//
// The process consists of three steps:
// 1. Segmenting nuclei on the DAPI channel
// 2. Segmenting nucleoli inside the nuclei
// 3. Measuring every nucleolus and its parent nucleus
type Analyzer struct {
	params    Params
	toolkit   toolkit.Toolkit
	segmenter *segmentation.Segmenter
	logger    *logrus.Logger
}

// NewAnalyzer creates an analyzer after validating params. A nil logger
// discards all output.
func NewAnalyzer(params Params, logger *logrus.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if params.Name == "" {
		params.Name = "field"
	}

	if err := params.Nuclear.Validate(); err != nil {
		return nil, err
	}
	if err := params.Nucleolar.Validate(); err != nil {
		return nil, err
	}

	tk := toolkit.NewNative()
	segmenter, err := segmentation.NewSegmenter(tk, params.Connectivity, logger)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		params:    params,
		toolkit:   tk,
		segmenter: segmenter,
		logger:    logger,
	}, nil
}

// Process runs the complete pipeline on three channels of one field of view.
// All channels must share the same dimensions.
func (a *Analyzer) Process(dapi, nucleolar, third *models.Image) (*Result, error) {
	start := time.Now()
	log := a.logger.WithField("field", a.params.Name)

	if err := models.CheckDimensions(dapi, nucleolar, third); err != nil {
		return nil, fmt.Errorf("channels of %s differ in size: %w", a.params.Name, err)
	}
	if len(dapi.Pix) == 0 {
		return nil, fmt.Errorf("channels of %s are empty: %w", a.params.Name, models.ErrInvalidConfiguration)
	}

	// Step 1: Segment nuclei
	log.Debug("Step 1: segmenting nuclei")
	nuclei, err := a.segmenter.SegmentNuclei(dapi, a.params.Nuclear)
	if err != nil {
		return nil, fmt.Errorf("failed to segment nuclei: %w", err)
	}
	a.saveIntermediaryResult(StageNuclearLeveled, nuclei.Leveled)
	a.saveIntermediaryResult(StageNuclearMask, nuclei.Mask)
	a.saveIntermediaryResult(StageNuclearLabels, nuclei.Labels)

	// Step 2: Segment nucleoli inside the nuclei
	log.Debug("Step 2: segmenting nucleoli")
	nucleoli, err := a.segmenter.SegmentNucleoli(nucleolar, third, nuclei.Labels, nuclei.Count, a.params.Nucleolar)
	if err != nil {
		return nil, fmt.Errorf("failed to segment nucleoli: %w", err)
	}
	a.saveIntermediaryResult(StageNucleolarLeveled, nucleoli.Nucleolar)
	a.saveIntermediaryResult(StageNucleolarThresholds, nucleoli.Thresholds)
	a.saveIntermediaryResult(StageNucleolarLabels, nucleoli.Labels)
	a.saveIntermediaryResult(StageThirdLeveled, nucleoli.Third)

	// Step 3: Measure on the leveled and smoothed channels
	log.Debug("Step 3: measuring nucleoli")
	table, err := measurement.MeasureAll(a.toolkit, nuclei.Labels, nuclei.Count, nucleoli.Labels, nucleoli.Count, nucleoli.Nucleolar, nucleoli.Third)
	if err != nil {
		return nil, fmt.Errorf("failed to measure nucleoli: %w", err)
	}

	result := &Result{
		Nuclei:   nuclei,
		Nucleoli: nucleoli,
		Table:    table,
		Duration: time.Since(start),
	}

	log.WithFields(logrus.Fields{
		"nuclei":   nuclei.Count,
		"nucleoli": nucleoli.Count,
		"records":  len(table),
		"duration": result.Duration.String(),
	}).Info("analysis completed")

	return result, nil
}

// saveIntermediaryResult saves one stage when intermediary results are
// enabled. Failures are logged and do not stop the analysis.
func (a *Analyzer) saveIntermediaryResult(stage string, data interface{}) {
	if !a.params.SaveIntermediaryResults {
		return
	}

	if err := imageio.SaveStage(a.params.IntermediaryDir, stage, a.params.Name, data); err != nil {
		a.logger.WithFields(logrus.Fields{
			"stage": stage,
			"dir":   filepath.Join(a.params.IntermediaryDir, stage),
		}).WithError(err).Warn("failed to save intermediary result")
	}
}

// Intermediary stage directories, numbered in the order Process writes them
const (
	StageNuclearLeveled      = "01_nuclear_leveled"
	StageNuclearMask         = "02_nuclear_mask"
	StageNuclearLabels       = "03_nuclear_labels"
	StageNucleolarLeveled    = "04_nucleolar_leveled"
	StageNucleolarThresholds = "05_nucleolar_thresholds"
	StageNucleolarLabels     = "06_nucleolar_labels"
	StageThirdLeveled        = "07_third_leveled"
)

// Stages lists the intermediary stage directories in the order they are written
var Stages = []string{
	StageNuclearLeveled,
	StageNuclearMask,
	StageNuclearLabels,
	StageNucleolarLeveled,
	StageNucleolarThresholds,
	StageNucleolarLabels,
	StageThirdLeveled,
}
