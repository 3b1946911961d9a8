package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"nucleolseg/pkg/analysis"
	"nucleolseg/pkg/config"
	"nucleolseg/pkg/imageio"
)

func main() {
	// Parse command line arguments
	dapiPath := flag.String("dapi", "", "Nuclear (DAPI) channel image")
	nucleolarPath := flag.String("nucleolar", "", "Nucleolar marker channel image")
	thirdPath := flag.String("third", "", "Third channel image to measure")
	configPath := flag.String("config", "config.yaml", "YAML configuration file (defaults are used if it does not exist)")
	outputPath := flag.String("output", "-", "CSV output file, - for stdout")
	jsonPath := flag.String("json", "", "Optional JSON output file")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save intermediary results during processing")
	intermediaryDir := flag.String("intermediary-dir", "", "Directory to save intermediary results (overrides the config)")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this path and exit")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	// Validate inputs
	if *dapiPath == "" || *nucleolarPath == "" || *thirdPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(*debugMode || cfg.Output.Verbose)
	logger.WithFields(logrus.Fields{
		"config":       *configPath,
		"connectivity": cfg.Labeling.Connectivity,
	}).Debug("configuration loaded")

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	if *saveIntermediary {
		cfg.Output.SaveIntermediaryResults = true
	}
	if *intermediaryDir != "" {
		cfg.Output.IntermediaryDir = *intermediaryDir
	}

	if err := run(cfg, logger, *dapiPath, *nucleolarPath, *thirdPath, *outputPath, *jsonPath); err != nil {
		logger.WithError(err).Fatal("analysis failed")
	}
}

// initLogger initializes the logger with appropriate level. Logs go to
// stderr so that the table can be written to stdout.
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// run loads the three channels, analyzes them and writes the table
func run(cfg *config.Config, logger *logrus.Logger, dapiPath, nucleolarPath, thirdPath, outputPath, jsonPath string) error {
	dapi, err := imageio.LoadChannel(dapiPath)
	if err != nil {
		return err
	}
	nucleolar, err := imageio.LoadChannel(nucleolarPath)
	if err != nil {
		return err
	}
	third, err := imageio.LoadChannel(thirdPath)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(dapiPath), filepath.Ext(dapiPath))
	params := analysis.Params{
		Nuclear:                 cfg.NuclearParams(),
		Nucleolar:               cfg.NucleolarParams(),
		Connectivity:            cfg.Connectivity(),
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
		Name:                    name,
	}

	analyzer, err := analysis.NewAnalyzer(params, logger)
	if err != nil {
		return err
	}

	result, err := analyzer.Process(dapi, nucleolar, third)
	if err != nil {
		return err
	}

	if err := writeOutput(outputPath, result.Table.WriteCSV); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	if jsonPath != "" {
		if err := writeOutput(jsonPath, result.Table.WriteJSON); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
	}

	fields := logrus.Fields{
		"nuclei":   result.Nuclei.Count,
		"nucleoli": result.Nucleoli.Count,
		"parents":  result.Table.NucleiCount(),
		"output":   outputPath,
	}
	if params.SaveIntermediaryResults {
		fields["intermediary"] = params.IntermediaryDir
	}
	logger.WithFields(fields).Info("results written")

	return nil
}

// writeOutput writes to stdout for "-" and to a new file otherwise
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
