package explore

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFriedman_NotebookLiterals(t *testing.T) {
	res, err := Friedman(HypothesisSamples...)
	if err != nil {
		t.Fatalf("Friedman: %v", err)
	}
	if math.Abs(res.Statistic-2) > 1e-12 {
		t.Errorf("stat = %v, want 2", res.Statistic)
	}
	if math.Abs(res.PValue-math.Exp(-1)) > 1e-9 {
		t.Errorf("p = %v, want e^-1", res.PValue)
	}
	if res.Verdict() != "Probably the same distribution" {
		t.Errorf("verdict = %q", res.Verdict())
	}
}

func TestFriedman_Ties(t *testing.T) {
	// Block 1 ranks (1, 2.5, 2.5), block 2 ranks (1, 2, 3), block 3 ranks (3, 1, 2).
	res, err := Friedman(
		[]float64{1, 1, 9},
		[]float64{5, 2, 1},
		[]float64{5, 3, 2},
	)
	if err != nil {
		t.Fatalf("Friedman: %v", err)
	}
	// Rank sums (5, 5.5, 7.5); one tied pair.
	k, n := 3.0, 3.0
	ssbn := 5.0*5 + 5.5*5.5 + 7.5*7.5
	raw := 12/(k*n*(k+1))*ssbn - 3*n*(k+1)
	c := 1 - 6/(k*(k*k-1)*n)
	if want := raw / c; math.Abs(res.Statistic-want) > 1e-12 {
		t.Errorf("stat = %v, want %v", res.Statistic, want)
	}
	if res.PValue <= 0 || res.PValue > 1 {
		t.Errorf("p = %v out of range", res.PValue)
	}
}

func TestFriedman_DifferentDistributions(t *testing.T) {
	n := 20
	a, b, c := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range a {
		a[i] = float64(i)
		b[i] = float64(i) + 100
		c[i] = float64(i) + 200
	}
	res, err := Friedman(a, b, c)
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict() != "Probably different distributions" {
		t.Errorf("p = %v, verdict %q", res.PValue, res.Verdict())
	}
}

func TestFriedman_InvalidInput(t *testing.T) {
	tests := [][][]float64{
		{{1}, {2}},
		{{}, {}, {}},
		{{1, 2}, {1}, {3, 4}},
		{{1}, {1}, {1}},
		{{math.NaN()}, {1}, {2}},
	}
	for i, samples := range tests {
		if _, err := Friedman(samples...); !errors.Is(err, ErrFriedmanInput) {
			t.Errorf("case %d: err = %v, want ErrFriedmanInput", i, err)
		}
	}
}

func TestHypothesisTest_Output(t *testing.T) {
	var buf bytes.Buffer
	if _, err := HypothesisTest(&buf); err != nil {
		t.Fatal(err)
	}
	want := "stat=2.000, p=0.368\nProbably the same distribution\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestPlots_WritePNG(t *testing.T) {
	dir := t.TempDir()
	charges := []float64{1200, 5400, 8000, 15000, 15500, 32000, 61000}
	points := []YearPoint{
		{1970, 30000, 0}, {1970, 32000, 1}, {1970, 29000, 1},
		{1985, 12000, 0}, {1999, 4000, 1},
	}

	check := func(name string, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.HasPrefix(string(data), "\x89PNG") {
			t.Errorf("%s is not a PNG", name)
		}
	}
	check("hist.png", Histogram(charges, filepath.Join(dir, "hist.png")))
	check("box.png", BoxPlot(charges, filepath.Join(dir, "box.png")))
	check("scatter.png", ScatterByYear(points, filepath.Join(dir, "scatter.png")))

	if err := Histogram(nil, filepath.Join(dir, "empty.png")); err == nil {
		t.Error("expected error for empty histogram")
	}
}
