// Package segmentation finds nuclei and, inside them, nucleoli in
// fluorescence images.
//
// The stages are composed from the primitives of package toolkit:
//
//	Level           background subtraction (blur, local minimum, subtract)
//	LabelClearEdges labeling that drops objects touching the image border
//	FilterObjects   area filtering with optional hole filling
//	SegmentNuclei   global threshold on the leveled nuclear channel
//	SegmentNucleoli per-nucleus adaptive threshold on the nucleolar channel
//
// Every stage returns new arrays and leaves its inputs untouched. Finding no
// objects is a valid outcome and is reported as a zero count, not an error.
package segmentation

import (
	"io"

	"github.com/sirupsen/logrus"

	"nucleolseg/internal/models"
	"nucleolseg/pkg/toolkit"
)

// ErrInvalidConfiguration is returned for parameters the stages cannot work with
var ErrInvalidConfiguration = models.ErrInvalidConfiguration

// Segmenter runs the segmentation stages with a fixed toolkit and
// connectivity.
type Segmenter struct {
	toolkit      toolkit.Toolkit
	connectivity toolkit.Connectivity
	logger       logrus.FieldLogger
}

// NewSegmenter creates a segmenter. A nil toolkit selects toolkit.Native and a
// nil logger discards all output.
func NewSegmenter(tk toolkit.Toolkit, conn toolkit.Connectivity, logger logrus.FieldLogger) (*Segmenter, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if tk == nil {
		tk = toolkit.NewNative()
	}
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Segmenter{
		toolkit:      tk,
		connectivity: conn,
		logger:       logger.WithField("component", "segmentation"),
	}, nil
}

// Toolkit returns the primitives the segmenter was built with
func (s *Segmenter) Toolkit() toolkit.Toolkit { return s.toolkit }

// Connectivity returns the neighbourhood used for labeling and hole filling
func (s *Segmenter) Connectivity() toolkit.Connectivity { return s.connectivity }
