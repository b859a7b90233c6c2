package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"hospcost/dataset"
	"hospcost/pipeline"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type options struct {
	names, details, medical string

	pg         string
	configPath string
	plots      string

	convertDir    string
	importPG      bool
	synthesizeDir string
	synthRows     int
	synthSeed     uint64

	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.names, "names", "Names.xlsx", "Patient names source (.xlsx, .csv or .parquet)")
	flag.StringVar(&opts.details, "details", "Hospitalisation details.csv", "Hospitalisation details source")
	flag.StringVar(&opts.medical, "medical", "Medical Examinations.csv", "Medical examinations source")
	flag.StringVar(&opts.pg, "pg", "", "PostgreSQL connection string (read sources from the database)")
	flag.StringVar(&opts.configPath, "config", "", "YAML run configuration")
	flag.StringVar(&opts.plots, "plots", "", "Directory for exploration plots (overrides config)")
	flag.StringVar(&opts.convertDir, "convert", "", "Write the three file sources as Parquet into this directory and exit")
	flag.BoolVar(&opts.importPG, "import", false, "Copy the three file sources into PostgreSQL (-pg) and exit")
	flag.StringVar(&opts.synthesizeDir, "synthesize", "", "Write synthetic source files into this directory and exit")
	flag.IntVar(&opts.synthRows, "rows", 1000, "Customers to synthesize")
	flag.Uint64Var(&opts.synthSeed, "seed", 1, "Seed for -synthesize")
	flag.BoolVar(&opts.verbose, "v", false, "Debug logging")
	flag.Parse()

	log := newLogger(os.Stderr, opts.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout, log); err != nil {
		log.Fatal().Err(err).Msg("costmodel failed")
	}
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Str("run_id", uuid.NewString()).
		Logger()
}

func (o options) fileSource() dataset.FileSource {
	return dataset.FileSource{Names: o.names, Details: o.details, Medical: o.medical}
}

func run(ctx context.Context, opts options, stdout io.Writer, log zerolog.Logger) error {
	switch {
	case opts.synthesizeDir != "":
		return synthesize(opts.synthesizeDir, opts.synthRows, opts.synthSeed, log)
	case opts.convertDir != "":
		return convert(ctx, opts.fileSource(), opts.convertDir, log)
	case opts.importPG:
		if opts.pg == "" {
			return fmt.Errorf("-import requires -pg")
		}
		return importSources(ctx, opts.fileSource(), opts.pg, log)
	}

	cfg := pipeline.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	if opts.plots != "" {
		cfg.PlotDir = opts.plots
	}

	var src dataset.TableSource = opts.fileSource()
	if opts.pg != "" {
		pool, err := dataset.Connect(ctx, opts.pg)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info().Msg("reading sources from PostgreSQL")
		src = dataset.PGSource{Pool: pool}
	}

	_, err := pipeline.Run(ctx, src, cfg, stdout, log)
	return err
}

// convert writes each file source as <base name>.parquet into dir.
func convert(ctx context.Context, src dataset.FileSource, dir string, log zerolog.Logger) error {
	start := time.Now()
	tables, err := dataset.ReadAll(ctx, src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, kind := range dataset.Kinds {
		in := src.Path(kind)
		out := filepath.Join(dir, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))+".parquet")
		if err := dataset.WriteParquet(out, kind, tables[kind]); err != nil {
			return fmt.Errorf("convert %s: %w", in, err)
		}
		log.Info().Str("input", in).Str("output", out).Int("rows", tables[kind].Len()).Msg("converted")
	}
	log.Info().Dur("elapsed", time.Since(start).Round(time.Millisecond)).Msg("convert done")
	return nil
}

func importSources(ctx context.Context, src dataset.FileSource, connStr string, log zerolog.Logger) error {
	tables, err := dataset.ReadAll(ctx, src)
	if err != nil {
		return err
	}
	pool, err := dataset.Connect(ctx, connStr)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Msg("connected to PostgreSQL")
	return dataset.ImportTables(ctx, pool, tables, log)
}

// Synthetic file names match the default source flags.
var synthFiles = map[dataset.Kind]string{
	dataset.Names:   "Names.xlsx",
	dataset.Details: "Hospitalisation details.csv",
	dataset.Medical: "Medical Examinations.csv",
}

func synthesize(dir string, rows int, seed uint64, log zerolog.Logger) error {
	if rows < 1 {
		return fmt.Errorf("-rows must be positive, got %d", rows)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tables := dataset.Synthesize(rows, seed)
	for _, kind := range dataset.Kinds {
		path := filepath.Join(dir, synthFiles[kind])
		var err error
		if filepath.Ext(path) == ".xlsx" {
			err = dataset.WriteXLSX(path, tables[kind])
		} else {
			err = dataset.WriteCSV(path, tables[kind])
		}
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Int("rows", tables[kind].Len()).Msg("synthesized")
	}
	return nil
}
