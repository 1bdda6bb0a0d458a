// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/524D/breathx/internal/align"
	"github.com/524D/breathx/internal/config"
	"github.com/524D/breathx/internal/curve"
	"github.com/524D/breathx/internal/extract"
	"github.com/524D/breathx/internal/feature"
	"github.com/524D/breathx/internal/logger"
	"github.com/524D/breathx/internal/peak"
	"github.com/524D/breathx/internal/source"
)

func newExtractCmd(par *params, defaults config.Defaults) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [flags] <file>...",
		Short: "Extract the feature table of each spectrum file",
		Long: `Extract finds the exhalation peak(s) in the TIC of each file, clusters the
m/z values observed during the peak and scores each cluster by the area
under its intensity curve per minute of peak.

For each input file <name>.mzML a feature table <name>-features.csv is
written. Files are processed concurrently; a file that fails does not
stop the others.

Examples:
  # Profile data, default Topological peak detection
  breathx extract sample.mzML

  # Centroided data, Gaussian mixture with two exhalations
  breathx extract --line --method Gaussian --npeak 2 --seed 1 sample.mzXML`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(par)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&par.line, "line", false, "input contains line (centroided) spectra instead of profile spectra")
	f.Float64Var(&par.quantity, "quantity", 0.2,
		"fraction of the peak window scans an m/z must be observed in to form a feature")
	f.StringVar(&par.method, "method", defaults.Method.String(),
		"peak detection `method`: Topological or Gaussian")
	f.IntVar(&par.nPeak, "npeak", 1, "number of peaks fitted by the Gaussian method")
	f.Uint64Var(&par.seed, "seed", defaults.Seed, "random seed of the Gaussian method")
	f.StringVar(&par.rtWindow, "rt", "", "retention time `range` (minutes) searched for peaks, e.g. 0.5:3")
	f.StringVar(&par.mzWindow, "mz", "", "m/z `range` of reported features, e.g. 50:500")
	f.IntVar(&par.workers, "workers", defaults.Workers, "number of files processed concurrently")
	f.BoolVar(&par.adduct, "adduct", false, "add an adduct annotation column")
	f.BoolVar(&par.isotope, "isotope", false, "add an isotope annotation column")
	f.Float64Var(&par.rsd, "rsd", -1,
		"keep only features whose relative standard deviation exceeds this value (negative: keep all)")
	f.BoolVar(&par.peakMzML, "peak-mzml", false,
		"also write <name>-peak.mzML with only the MS1 scans of the peak window (mzML input only)")
	addDebugFlag(cmd)
	return cmd
}

func runExtract(par *params) error {
	method, err := peak.ParseMethod(par.method)
	if err != nil {
		return err
	}
	opts := extract.DefaultOptions()
	opts.Line = par.line
	opts.Quantity = par.quantity
	opts.Peak.Method = method
	opts.Peak.NPeak = par.nPeak
	opts.Peak.Seed = par.seed
	opts.MinRT, opts.MaxRT = par.lowRT, par.upRT
	opts.MinMz, opts.MaxMz = par.lowMz, par.upMz

	t := time.Now()
	results := extract.Batch(par.args, opts, par.workers)
	summary := runSummary{
		BreathXVersion: outputFormatVersion,
		RunID:          par.runID,
		Command:        "extract",
		Method:         method.String(),
	}
	ann := feature.Annotation{Adduct: par.adduct, Isotope: par.isotope}
	failed := 0
	for _, r := range results {
		fs := fileSummary{File: r.Path, Seconds: r.Elapsed.Seconds()}
		if r.Err != nil {
			fs.Error = r.Err.Error()
			failed++
			summary.Files = append(summary.Files, fs)
			continue
		}
		ex := r.Extraction
		tab := ex.Table
		if par.rsd >= 0 {
			tab = tab.RSDControl(par.rsd)
		}
		debugLogFeatures(r.Path, tab)

		fs.Output = outputName(r.Path, "-features.csv", par.outDir)
		if err := writeTable(tab, fs.Output, ann); err != nil {
			return err
		}
		if par.peakMzML {
			if err := writePeakMzML(r.Path, ex, par); err != nil {
				return err
			}
		}
		fs.Features = tab.Len()
		fs.PeakScans = len(ex.Window.Indices)
		fs.Duration = ex.Window.Duration
		fs.MinSamples = ex.MinSamples
		summary.Files = append(summary.Files, fs)
	}
	if err := finish(par, summary, t); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func newMergeCmd(par *params) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [flags] <features.csv>...",
		Short: "Merge feature tables of several samples into one table",
		Long: `Merge clusters the features of several feature tables by m/z and writes
one row per feature with the intensity score of each sample. Samples in
which a feature was not found have an empty value.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(par)
		},
	}
	cmd.Flags().StringVarP(&par.output, "out", "o", "merged.csv", "`filename` of the merged table")
	cmd.Flags().StringVar(&par.names, "names", "",
		"comma separated sample names (default: input filenames without extension)")
	return cmd
}

func runMerge(par *params) error {
	t := time.Now()
	names, err := sampleNames(par.names, par.args)
	if err != nil {
		return err
	}
	tables, summary, err := readTables(par, "merge")
	if err != nil {
		return err
	}
	merged, err := extract.MergeResult(tables, names)
	if err != nil {
		return err
	}
	out := par.output
	if par.outDir != "" {
		out = outputName(par.output, ".csv", par.outDir)
	}
	if err := writeOutput(out, merged.WriteCSV); err != nil {
		return err
	}
	logger.Info("merged", zap.Int("tables", len(tables)), zap.Int("features", len(merged.Rows)),
		zap.String("output", out))
	return finish(par, summary, t)
}

func newAlignCmd(par *params) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align [flags] <features.csv>...",
		Short: "Resample feature tables onto a common time axis",
		Long: `Align interpolates the intensity curves of every feature table onto the
union of the scan times of all tables, so that the tables can be compared
column by column. For each input <name>.csv, <name>-aligned.csv is written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlign(par)
		},
	}
	cmd.Flags().StringVar(&par.kind, "kind", curve.Linear.String(), "interpolation `kind`: linear or cubic")
	return cmd
}

func runAlign(par *params) error {
	t := time.Now()
	kind, err := curve.ParseKind(par.kind)
	if err != nil {
		return err
	}
	tables, summary, err := readTables(par, "align")
	if err != nil {
		return err
	}
	aligned, err := align.Align(tables, kind)
	if err != nil {
		return err
	}
	for i, tab := range aligned {
		out := outputName(par.args[i], "-aligned.csv", par.outDir)
		if err := writeTable(tab, out, feature.Annotation{}); err != nil {
			return err
		}
		summary.Files[i].Output = out
	}
	return finish(par, summary, t)
}

func newTandemCmd(par *params) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tandem [flags] <file>",
		Short: "Export the MS2 spectra of the features of a file as MGF",
		Long: `Tandem collects the MS2 spectra whose precursor m/z lies within the given
radius of a feature, and writes them to <name>.mgf. The features are read
from <name>-features.csv unless specified otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTandem(par)
		},
	}
	cmd.Flags().StringVar(&par.features, "features", "", "feature table `filename`")
	cmd.Flags().Float64Var(&par.radius, "radius", 0.01, "precursor m/z tolerance")
	return cmd
}

func runTandem(par *params) error {
	t := time.Now()
	file := par.args[0]
	if par.features == "" {
		par.features = outputName(file, "-features.csv", par.outDir)
	}
	tab, err := readTable(par.features)
	if err != nil {
		return err
	}
	tms, err := extract.RetrieveTandem(file, tab, par.radius)
	if err != nil {
		return err
	}
	out := outputName(file, ".mgf", par.outDir)
	if err := writeOutput(out, tms.WriteMGF); err != nil {
		return err
	}
	logger.Info("tandem spectra written", zap.Int("spectra", len(tms.Spectra)), zap.String("output", out))
	summary := runSummary{
		BreathXVersion: outputFormatVersion,
		RunID:          par.runID,
		Command:        "tandem",
		Files:          []fileSummary{{File: file, Output: out, Features: tab.Len()}},
	}
	return finish(par, summary, t)
}

func readTable(path string) (*feature.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tab, err := feature.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tab, nil
}

// readTables reads the feature tables named on the command line
func readTables(par *params, command string) ([]*feature.Table, runSummary, error) {
	summary := runSummary{
		BreathXVersion: outputFormatVersion,
		RunID:          par.runID,
		Command:        command,
	}
	tables := make([]*feature.Table, len(par.args))
	for i, path := range par.args {
		tab, err := readTable(path)
		if err != nil {
			return nil, summary, err
		}
		tables[i] = tab
		summary.Files = append(summary.Files, fileSummary{File: path, Features: tab.Len()})
	}
	return tables, summary, nil
}

// writeOutput creates filename and fills it with write. An error on
// closing the file is returned, as that is where a failed flush shows up.
func writeOutput(filename string, write func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filename, err)
	}
	return nil
}

func writeTable(tab *feature.Table, filename string, ann feature.Annotation) error {
	return writeOutput(filename, func(w io.Writer) error {
		return tab.WriteCSV(w, ann)
	})
}

func writePeakMzML(path string, ex *extract.Extraction, par *params) error {
	src, err := source.Open(path)
	if err != nil {
		return err
	}
	out := outputName(path, "-peak.mzML", par.outDir)
	return writeOutput(out, func(w io.Writer) error {
		return extract.WritePeakMzML(w, src, ex, progName, progVersion)
	})
}

// finish writes the run summary if requested and logs the elapsed time
func finish(par *params, summary runSummary, t time.Time) error {
	if par.summary != "" {
		if err := writeSummary(summary, par.summary); err != nil {
			return err
		}
	}
	logger.Info("done", zap.String("command", summary.Command), zap.Int("files", len(summary.Files)),
		zap.Duration("elapsed", time.Since(t)))
	return nil
}
