package segmentation

import (
	"errors"
	"math"
	"testing"

	"nucleolseg/internal/models"
)

// TestLevelRemovesOffset verifies that a constant background is subtracted
// while a small bright object keeps its contrast
func TestLevelRemovesOffset(t *testing.T) {
	s := newTestSegmenter(t)

	img := models.NewImage(40, 40)
	for i := range img.Pix {
		img.Pix[i] = 5.0
	}
	drawDisk(img, 20, 20, 3, 6.0)

	leveled, err := s.Level(img, 10, 1.0)
	if err != nil {
		t.Fatalf("Failed to level image: %v", err)
	}

	if math.Abs(leveled.At(0, 0)) > 1e-9 {
		t.Errorf("Expected background near 0, got %f", leveled.At(0, 0))
	}
	if math.Abs(leveled.At(20, 20)-1.0) > 1e-9 {
		t.Errorf("Expected object contrast 1, got %f", leveled.At(20, 20))
	}
	if img.At(0, 0) != 5.0 {
		t.Error("Level modified its input")
	}
}

// TestLevelKeepsNegativeValues verifies that the result is not clamped
func TestLevelKeepsNegativeValues(t *testing.T) {
	s := newTestSegmenter(t)

	img := models.NewImage(30, 30)
	for i := range img.Pix {
		img.Pix[i] = 5.0
	}
	img.Set(15, 15, 0.0)

	leveled, err := s.Level(img, 5, 1.0)
	if err != nil {
		t.Fatalf("Failed to level image: %v", err)
	}
	if leveled.At(15, 15) >= 0 {
		t.Errorf("Expected negative value at the dark pixel, got %f", leveled.At(15, 15))
	}
}

// TestLevelRejectsInvalidParameters verifies the radius and smoothing checks
func TestLevelRejectsInvalidParameters(t *testing.T) {
	s := newTestSegmenter(t)
	img := models.NewImage(10, 10)

	if _, err := s.Level(img, 0, 1.0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for zero radius, got %v", err)
	}
	if _, err := s.Level(img, 5, -1.0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for negative smoothing, got %v", err)
	}
}

// TestLevelRejectsEmptyImage verifies that images without rows or columns
// are rejected instead of filtered
func TestLevelRejectsEmptyImage(t *testing.T) {
	s := newTestSegmenter(t)

	for _, dims := range [][2]int{{5, 0}, {0, 5}, {0, 0}} {
		img := models.NewImage(dims[0], dims[1])
		if _, err := s.Level(img, 3, 1.0); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Expected ErrInvalidConfiguration for a %dx%d image, got %v", dims[0], dims[1], err)
		}
	}
}
