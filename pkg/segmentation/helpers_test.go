package segmentation

import (
	"testing"

	"nucleolseg/internal/models"
	"nucleolseg/pkg/toolkit"
)

// newTestSegmenter returns a segmenter with the native toolkit and
// 8-connectivity
func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	s, err := NewSegmenter(nil, toolkit.Eight, nil)
	if err != nil {
		t.Fatalf("Failed to create segmenter: %v", err)
	}
	return s
}

// drawDisk sets every pixel within radius of (cx, cy) to value
func drawDisk(img *models.Image, cx, cy, radius int, value float64) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, value)
			}
		}
	}
}

// maskFromRows builds a mask from rows of '#' (foreground) and '.' characters
func maskFromRows(rows ...string) *models.Mask {
	mask := models.NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			mask.Set(x, y, c == '#')
		}
	}
	return mask
}

// twoNucleusImages builds a 100x100 field of view with two nuclei of radius
// 15 and a nucleolus of radius 4 at the center of each
func twoNucleusImages() (dapi, nucleolar, third *models.Image) {
	dapi = models.NewImage(100, 100)
	nucleolar = models.NewImage(100, 100)
	third = models.NewImage(100, 100)

	for _, c := range [][2]int{{30, 30}, {70, 70}} {
		drawDisk(dapi, c[0], c[1], 15, 1.0)
		drawDisk(nucleolar, c[0], c[1], 4, 1.0)
		drawDisk(third, c[0], c[1], 6, 0.5)
	}
	return dapi, nucleolar, third
}

// testNuclearParams are the nuclear defaults with a minimum size that admits
// the synthetic nuclei
func testNuclearParams() NuclearParams {
	return NuclearParams{
		RollingBallRadius: 100,
		SmoothingStdDev:   5,
		Threshold:         0.1,
		MinSize:           100,
		MaxSize:           4000,
		Border:            2,
		FillHoles:         true,
	}
}

// testNucleolarParams are the nucleolar defaults
func testNucleolarParams() NucleolarParams {
	return NucleolarParams{
		RollingBallRadius:   15,
		PreSmoothingStdDev:  1.0,
		PostSmoothingStdDev: 0.7,
		Threshold:           0.4,
		MinSize:             4,
		MaxSize:             -1,
		FillHoles:           false,
	}
}

// assertDense fails unless the labels present are exactly 1..count
func assertDense(t *testing.T, labels *models.LabelMap, count int) {
	t.Helper()
	seen := make(map[int]bool)
	for _, l := range labels.Pix {
		if l < 0 || l > count {
			t.Fatalf("Label %d outside 0..%d", l, count)
		}
		if l > 0 {
			seen[l] = true
		}
	}
	if len(seen) != count {
		t.Errorf("Expected %d distinct labels, found %d", count, len(seen))
	}
}
