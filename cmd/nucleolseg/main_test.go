package main

import (
	"bytes"
	"encoding/csv"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"nucleolseg/pkg/analysis"
	"nucleolseg/pkg/config"
)

// writeDiskImage writes a 16-bit image with one disk of the given radius at
// each center
func writeDiskImage(t *testing.T, path string, radius int, value uint16) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, 100, 100))
	for _, c := range [][2]int{{30, 30}, {70, 70}} {
		for y := 0; y < 100; y++ {
			for x := 0; x < 100; x++ {
				dx, dy := x-c[0], y-c[1]
				if dx*dx+dy*dy <= radius*radius {
					img.SetGray16(x, y, color.Gray16{Y: value})
				}
			}
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestRun(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping end-to-end test in short mode")
	}

	dir := t.TempDir()
	dapi := filepath.Join(dir, "dapi.tif")
	nucleolar := filepath.Join(dir, "nucleolar.tif")
	third := filepath.Join(dir, "third.png")
	writeDiskImage(t, dapi, 15, 40000)
	writeDiskImage(t, nucleolar, 4, 60000)
	writeDiskImage(t, third, 10, 20000)

	cfg := config.DefaultConfig()
	cfg.Nuclear.MinSize = 100
	cfg.Output.SaveIntermediaryResults = true
	cfg.Output.IntermediaryDir = filepath.Join(dir, "stages")

	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	logger.SetFormatter(&logrus.JSONFormatter{})

	csvPath := filepath.Join(dir, "out.csv")
	jsonPath := filepath.Join(dir, "out.json")
	if err := run(cfg, logger, dapi, nucleolar, third, csvPath, jsonPath); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 records, got %d rows", len(rows))
	}

	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("Expected JSON output: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "stages", analysis.StageNuclearLabels, "dapi.png")); err != nil {
		t.Errorf("Expected intermediary labels: %v", err)
	}
	if !strings.Contains(logs.String(), `"parents":2`) {
		t.Errorf("Expected the summary to report 2 parent nuclei, got %s", logs.String())
	}
}

func TestRunMissingChannel(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.tif")
	err := run(config.DefaultConfig(), logger, missing, missing, missing, filepath.Join(dir, "out.csv"), "")
	if err == nil {
		t.Error("Expected an error for missing channels")
	}
}
