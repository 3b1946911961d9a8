// Package toolkit provides the array primitives the segmentation pipeline is
// built from: smoothing, rank filtering, connected-component labeling,
// regional statistics and hole filling.
//
// The pipeline only depends on the Toolkit interface so that the primitives
// can be swapped (for example for an accelerated backend) without touching
// the segmentation logic. Native is the pure Go implementation.
package toolkit

import (
	"fmt"

	"nucleolseg/internal/models"
)

// Connectivity selects which neighbours of a pixel belong to the same region.
type Connectivity int

const (
	// Four joins horizontally and vertically adjacent pixels
	Four Connectivity = 4

	// Eight additionally joins diagonally adjacent pixels
	Eight Connectivity = 8
)

// Validate rejects anything other than 4- or 8-connectivity
func (c Connectivity) Validate() error {
	if c != Four && c != Eight {
		return fmt.Errorf("connectivity must be 4 or 8, got %d: %w", int(c), models.ErrInvalidConfiguration)
	}
	return nil
}

// Region holds the statistics of one labeled region of an image.
type Region struct {
	// Label is the region's value in the label map
	Label int

	// Area is the number of pixels carrying the label
	Area int

	// Sum of the intensities under the region
	Sum float64

	// Mean intensity
	Mean float64

	// StdDev is the population standard deviation of the intensities
	StdDev float64

	// Min and Max intensity
	Min float64
	Max float64
}

// Toolkit is the set of image processing capabilities used by the
// segmentation stages. Implementations never modify their inputs.
type Toolkit interface {
	// GaussianBlur smooths img with an isotropic Gaussian of the given
	// standard deviation. A zero sigma returns an unmodified copy.
	GaussianBlur(img *models.Image, sigma float64) *models.Image

	// MinimumFilter replaces every sample by the minimum over a size×size
	// square neighbourhood.
	MinimumFilter(img *models.Image, size int) *models.Image

	// Label assigns dense labels 1..N to the connected foreground regions of
	// mask and returns the label map together with N.
	Label(mask *models.Mask, conn Connectivity) (*models.LabelMap, int)

	// RegionStats measures img under labels 1..count. The result is indexed
	// by label-1.
	RegionStats(img *models.Image, labels *models.LabelMap, count int) []Region

	// FillHoles sets every background pixel that is not connected to the
	// image border to foreground.
	FillHoles(mask *models.Mask, conn Connectivity) *models.Mask
}
