package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"hospcost/dataset"

	"github.com/rs/zerolog"
)

func synthOptions(t *testing.T, rows int) options {
	t.Helper()
	dir := t.TempDir()
	if err := synthesize(dir, rows, 3, zerolog.Nop()); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	return options{
		names:   filepath.Join(dir, "Names.xlsx"),
		details: filepath.Join(dir, "Hospitalisation details.csv"),
		medical: filepath.Join(dir, "Medical Examinations.csv"),
	}
}

func TestSynthesize_WritesDefaultFiles(t *testing.T) {
	opts := synthOptions(t, 80)
	for _, p := range []string{opts.names, opts.details, opts.medical} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
	if err := synthesize(t.TempDir(), 0, 1, zerolog.Nop()); err == nil {
		t.Error("expected error for zero rows")
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	opts := synthOptions(t, 80)
	out := t.TempDir()
	ctx := context.Background()

	if err := convert(ctx, opts.fileSource(), out, zerolog.Nop()); err != nil {
		t.Fatalf("convert: %v", err)
	}
	pq := dataset.FileSource{
		Names:   filepath.Join(out, "Names.parquet"),
		Details: filepath.Join(out, "Hospitalisation details.parquet"),
		Medical: filepath.Join(out, "Medical Examinations.parquet"),
	}

	want, err := dataset.Load(ctx, opts.fileSource(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	got, err := dataset.Load(ctx, pq, zerolog.Nop())
	if err != nil {
		t.Fatalf("load parquet: %v", err)
	}
	if !reflect.DeepEqual(got.Header, want.Header) || !reflect.DeepEqual(got.Rows, want.Rows) {
		t.Error("parquet sources join differently from the originals")
	}
}

func TestRun_Pipeline(t *testing.T) {
	opts := synthOptions(t, 150)
	cfgPath := filepath.Join(t.TempDir(), "run.yaml")
	cfg := "estimators: 20\nnow: \"2025-01-01\"\ngrid:\n  alpha: [0.0001]\n  penalty: [l2]\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	opts.configPath = cfgPath
	opts.plots = filepath.Join(t.TempDir(), "plots")

	var stdout bytes.Buffer
	if err := run(context.Background(), opts, &stdout, zerolog.Nop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "Predicted hospitalization cost: ") {
		t.Errorf("stdout = %s", stdout.String())
	}
	entries, err := os.ReadDir(opts.plots)
	if err != nil || len(entries) != 3 {
		t.Errorf("plots dir: %d entries, %v", len(entries), err)
	}
}

func TestRun_ImportNeedsPG(t *testing.T) {
	if err := run(context.Background(), options{importPG: true}, &bytes.Buffer{}, zerolog.Nop()); err == nil {
		t.Error("expected error for -import without -pg")
	}
}

func TestNewLogger_RunID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, false)
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	s := buf.String()
	if strings.Contains(s, "hidden") || !strings.Contains(s, "shown") || !strings.Contains(s, "run_id") {
		t.Errorf("log output = %q", s)
	}
}
