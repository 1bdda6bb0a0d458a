// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/524D/breathx/internal/config"
	"github.com/524D/breathx/internal/logger"
)

// Program name and version, appended to software list in mzML output
const progName = "breathX"

var progVersion = `Unknown`

// Format of the JSON run summary, if it ever changes we should still be
// able to parse summaries from old versions
const outputFormatVersion = "1.0"

// Command line parameters
type params struct {
	line      bool    // input contains line (centroided) spectra
	quantity  float64 // fraction of peak window scans a feature must occur in
	method    string  // peak detection method
	nPeak     int     // number of Gaussian components
	seed      uint64  // seed for Gaussian sampling
	rtWindow  string  // retention time window for peak detection
	lowRT     float64 // lower rt window boundary
	upRT      float64 // upper rt window boundary
	mzWindow  string  // m/z window of reported features
	lowMz     float64 // lower m/z window boundary
	upMz      float64 // upper m/z window boundary
	workers   int     // files processed concurrently
	outDir    string  // directory for output files, default next to input
	output    string  // output filename (merge)
	adduct    bool    // add adduct annotation column
	isotope   bool    // add isotope annotation column
	rsd       float64 // keep only features with RSD above this value (<0: all)
	peakMzML  bool    // write mzML with only the peak window scans
	summary   string  // filename of JSON run summary
	kind      string  // interpolation kind (align)
	names     string  // comma separated sample names (merge)
	features  string  // feature CSV (tandem)
	radius    float64 // precursor m/z tolerance (tandem)
	verbose   bool
	quiet     bool
	runID     string
	args      []string // Additional values passed on the command line
	verbosity zapcore.Level
}

// ErrRangeSpec is returned for a range with its minimum above its maximum
var ErrRangeSpec = errors.New("invalid range specified")

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned
func parseIntRange(r string, min int, max int) (int, int, error) {
	re := regexp.MustCompile(`\s*(\-?\d*):(\-?\d*)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 3 && m[2] != "" {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// Parse string like "-12.01e1:+6" into 2 values, -120.1 and 6.0
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12.01e1:"), the default is assigned
func parseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	re := regexp.MustCompile(`\s*([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.ParseFloat(m[1], 64)
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 4 && m[3] != "" {
		maxOut, _ = strconv.ParseFloat(m[3], 64)
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// outputName derives an output filename from an input filename by
// replacing its extension with suffix. With outDir set, the file is
// placed there.
func outputName(input, suffix, outDir string) string {
	var extension = filepath.Ext(input)
	var startName = input[0 : len(input)-len(extension)]
	if outDir != "" {
		startName = filepath.Join(outDir, filepath.Base(startName))
	}
	return startName + suffix
}

// sanatizeParams checks parameters and converts range specifications
func sanatizeParams(par *params) error {
	var err error
	par.lowRT, par.upRT, err = parseFloat64Range(par.rtWindow,
		-math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return fmt.Errorf("invalid rt window %q: %w", par.rtWindow, err)
	}
	par.lowMz, par.upMz, err = parseFloat64Range(par.mzWindow,
		-math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return fmt.Errorf("invalid m/z window %q: %w", par.mzWindow, err)
	}
	if par.quantity < 0 {
		return fmt.Errorf("quantity must not be negative, got %v", par.quantity)
	}
	if par.nPeak < 1 {
		return fmt.Errorf("npeak must be at least 1, got %d", par.nPeak)
	}
	if par.workers < 1 {
		par.workers = 1
	}
	if par.outDir != "" {
		if err := os.MkdirAll(par.outDir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// runSummary is written as JSON with --summary
type runSummary struct {
	// Version of the summary format
	BreathXVersion string
	RunID          string
	Command        string
	Method         string `json:",omitempty"`
	Files          []fileSummary
}

type fileSummary struct {
	File       string
	Output     string  `json:",omitempty"`
	Features   int     `json:",omitempty"`
	PeakScans  int     `json:",omitempty"`
	Duration   float64 `json:",omitempty"`
	MinSamples int     `json:",omitempty"`
	Seconds    float64
	Error      string `json:",omitempty"`
}

func writeSummary(s runSummary, filename string) error {
	return writeOutput(filename, func(w io.Writer) error {
		e := json.NewEncoder(w)
		e.SetIndent(``, `  `) // Make output easier to read for humans
		return e.Encode(s)
	})
}

func newRootCmd(defaults config.Defaults) *cobra.Command {
	var par params
	par.verbosity = defaults.LogLevel

	rootCmd := &cobra.Command{
		Use:   "breathx",
		Short: progName + " - feature extraction from breath mass spectrometry data",
		Long: `breathx extracts features (m/z values with their intensity over time)
from the exhalation peaks of breath samples measured by mass spectrometry.
Input files can be mzML or mzXML.

A typical workflow extracts every sample, then merges or aligns the
resulting feature tables:
  breathx extract --workers 4 sample1.mzML sample2.mzML sample3.mzML
  breathx merge -o merged.csv sample1-features.csv sample2-features.csv sample3-features.csv`,
		Version:       progVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if par.verbose {
				par.verbosity = zapcore.DebugLevel
			}
			if par.quiet {
				par.verbosity = zapcore.WarnLevel
			}
			if err := logger.InitLogger(par.verbosity); err != nil {
				return err
			}
			if defaults.DotEnvErr != nil {
				logger.Debug("no .env found, using local environment")
			}
			par.runID = uuid.NewString()
			par.args = args
			logger.Debug("start", zap.String("version", progVersion),
				zap.String("command", cmd.Name()), zap.String("runID", par.runID))
			return sanatizeParams(&par)
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&par.verbose, "verbose", false, "Print more verbose progress information")
	pf.BoolVar(&par.quiet, "quiet", false, "Don't print any output except for warnings and errors")
	pf.StringVar(&par.outDir, "outdir", "", "directory for output files (default: next to the input)")
	pf.StringVar(&par.summary, "summary", "", "write a JSON run summary to this file")

	rootCmd.AddCommand(newExtractCmd(&par, defaults))
	rootCmd.AddCommand(newMergeCmd(&par))
	rootCmd.AddCommand(newAlignCmd(&par))
	rootCmd.AddCommand(newTandemCmd(&par))
	return rootCmd
}

// sampleNames returns names, or the base names of files without extension
func sampleNames(names string, files []string) ([]string, error) {
	if names != "" {
		n := strings.Split(names, ",")
		if len(n) != len(files) {
			return nil, fmt.Errorf("%d names for %d files", len(n), len(files))
		}
		for i := range n {
			n[i] = strings.TrimSpace(n[i])
		}
		return n, nil
	}
	n := make([]string, len(files))
	for i, f := range files {
		base := filepath.Base(f)
		n[i] = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return n, nil
}

func main() {
	defaults, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	err = newRootCmd(defaults).Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
