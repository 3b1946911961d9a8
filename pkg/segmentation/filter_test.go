package segmentation

import (
	"errors"
	"sort"
	"testing"

	"nucleolseg/internal/models"
)

// sortedAreas returns the areas of labels 1..count in ascending order
func sortedAreas(labels *models.LabelMap, count int) []int {
	areas := labels.Areas(count)
	sort.Ints(areas)
	return areas
}

// TestFilterObjectsSizeBounds verifies that both bounds are inclusive
func TestFilterObjectsSizeBounds(t *testing.T) {
	s := newTestSegmenter(t)
	mask := maskFromRows(
		"####........",
		"............",
		"#####.......",
		"............",
		"#########...",
		"............",
		"##########..",
	)
	labels, count := s.Toolkit().Label(mask, s.Connectivity())
	if count != 4 {
		t.Fatalf("Expected 4 bars, got %d", count)
	}

	filtered, remaining, err := s.FilterObjects(labels, count, 5, 9, false)
	if err != nil {
		t.Fatalf("FilterObjects failed: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("Expected 2 objects within [5, 9], got %d", remaining)
	}
	assertDense(t, filtered, remaining)
	areas := sortedAreas(filtered, remaining)
	if areas[0] != 5 || areas[1] != 9 {
		t.Errorf("Expected areas [5 9], got %v", areas)
	}

	// A non-positive maximum disables the upper bound
	_, remaining, err = s.FilterObjects(labels, count, 5, -1, false)
	if err != nil {
		t.Fatalf("FilterObjects failed: %v", err)
	}
	if remaining != 3 {
		t.Errorf("Expected 3 objects without an upper bound, got %d", remaining)
	}
}

// TestFilterObjectsFillHoles verifies hole filling and that it can absorb a
// separate object sitting inside a hole
func TestFilterObjectsFillHoles(t *testing.T) {
	s := newTestSegmenter(t)
	mask := maskFromRows(
		"#####......",
		"#...#..###.",
		"#.#.#..#.#.",
		"#...#..###.",
		"#####......",
	)
	labels, count := s.Toolkit().Label(mask, s.Connectivity())
	if count != 3 {
		t.Fatalf("Expected 3 objects, got %d", count)
	}

	t.Run("WithoutFilling", func(t *testing.T) {
		filtered, remaining, err := s.FilterObjects(labels, count, 1, -1, false)
		if err != nil {
			t.Fatalf("FilterObjects failed: %v", err)
		}
		areas := sortedAreas(filtered, remaining)
		if remaining != 3 || areas[0] != 1 || areas[1] != 8 || areas[2] != 16 {
			t.Errorf("Expected areas [1 8 16], got %v", areas)
		}
	})

	t.Run("WithFilling", func(t *testing.T) {
		filtered, remaining, err := s.FilterObjects(labels, count, 1, -1, true)
		if err != nil {
			t.Fatalf("FilterObjects failed: %v", err)
		}
		assertDense(t, filtered, remaining)
		areas := sortedAreas(filtered, remaining)
		if remaining != 2 || areas[0] != 9 || areas[1] != 25 {
			t.Errorf("Expected filled areas [9 25], got %v", areas)
		}
	})

	t.Run("SizeBeforeFilling", func(t *testing.T) {
		// The single pixel is dropped first, the hole is filled regardless
		_, remaining, err := s.FilterObjects(labels, count, 2, 20, true)
		if err != nil {
			t.Fatalf("FilterObjects failed: %v", err)
		}
		if remaining != 2 {
			t.Errorf("Expected 2 objects, got %d", remaining)
		}
	})

	if labels.At(2, 2) == 0 {
		t.Error("FilterObjects modified its input")
	}
}

// TestFilterObjectsEmpty verifies that an empty map passes through
func TestFilterObjectsEmpty(t *testing.T) {
	s := newTestSegmenter(t)
	empty := models.NewLabelMap(8, 8)

	filtered, remaining, err := s.FilterObjects(empty, 0, 4, -1, true)
	if err != nil {
		t.Fatalf("FilterObjects failed: %v", err)
	}
	if remaining != 0 || filtered.Max() != 0 {
		t.Errorf("Expected no objects, got %d", remaining)
	}

	if _, _, err := s.FilterObjects(empty, 0, -1, -1, false); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for negative minimum, got %v", err)
	}
}
