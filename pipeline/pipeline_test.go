package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"hospcost/cleaning"
	"hospcost/dataset"
	"hospcost/ml"

	"github.com/rs/zerolog"
)

func TestFeatureNames(t *testing.T) {
	want := []string{
		"date", "children", "Hospital tier", "City tier", "BMI", "HBA1C",
		"Heart Issues", "Any Transplants", "Cancer history", "NumberOfMajorSurgeries",
		"smoker", "State_ID_R1011", "State_ID_R1012", "State_ID_R1013", "age", "gender",
	}
	if got := FeatureNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("FeatureNames = %q", got)
	}
}

func TestHypotheticalPatient_VectorByName(t *testing.T) {
	h := DefaultPatient()
	x := h.Vector()
	byName := make(map[string]float64)
	for i, name := range FeatureNames() {
		byName[name] = x[i]
	}
	want := map[string]float64{
		"date": 1, "children": 2, "Hospital tier": 1, "City tier": 1,
		"BMI": 29.41, "HBA1C": 5.8, "Heart Issues": 0, "Any Transplants": 0,
		"Cancer history": 0, "NumberOfMajorSurgeries": 0, "smoker": 1,
		"State_ID_R1011": 1, "State_ID_R1012": 0, "State_ID_R1013": 0,
		"age": 34, "gender": 0,
	}
	if !reflect.DeepEqual(byName, want) {
		t.Errorf("vector = %v\nwant %v", byName, want)
	}

	h.Region = "R1020"
	h.Female = false
	x = h.Vector()
	if x[11]+x[12]+x[13] != 0 || x[15] != 1 {
		t.Errorf("vector = %v", x)
	}
}

func TestDefaultPatient_UnshiftedNotebookVector(t *testing.T) {
	// The notebook's new_data literal, with BMI and age filled in. Read
	// against the feature columns it starts one position late.
	notebook := []float64{2, 1, 1, 29.41, 5.8, 0, 0, 0, 0, 1, 1, 0, 0, 34, 0, 1}
	x := DefaultPatient().Vector()
	if reflect.DeepEqual(x, notebook) {
		t.Fatal("default patient equals the shifted literal")
	}
	if !reflect.DeepEqual(x[1:], notebook[:len(notebook)-1]) {
		t.Errorf("default patient %v is not the literal %v moved one column right", x, notebook)
	}
}

func TestFeatureMatrix(t *testing.T) {
	ps := []cleaning.Patient{
		{CustomerID: "Id1", Charges: 100, BMI: 20, Age: 30},
		{CustomerID: "Id2", Charges: 200, BMI: 25, Age: 40, Smoker: 1},
	}
	X, y, err := FeatureMatrix(ps)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := X.Dims(); r != 2 || c != len(FeatureColumns) {
		t.Errorf("dims = %dx%d", r, c)
	}
	if !reflect.DeepEqual(y, []float64{100, 200}) {
		t.Errorf("y = %v", y)
	}
	if X.At(1, 10) != 1 || X.At(1, 14) != 40 {
		t.Errorf("row 1 = %v", X.RawRowView(1))
	}

	ps[1].BMI = math.NaN()
	if _, _, err := FeatureMatrix(ps); !errors.Is(err, ErrNonNumeric) {
		t.Errorf("err = %v, want ErrNonNumeric", err)
	}
	if _, _, err := FeatureMatrix(nil); err == nil {
		t.Error("expected error for no patients")
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.TestSize != 0.2 || cfg.SplitSeed != 10 || cfg.EnsembleSeed != 42 ||
		cfg.Estimators != 1000 || cfg.Folds != 5 || cfg.Sentinel != "?" {
		t.Errorf("defaults = %+v", cfg)
	}
	if n := len(cfg.Grid.Combinations()); n != 39 {
		t.Errorf("grid points = %d, want 39", n)
	}
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	yml := `
estimators: 50
now: "2025-01-01"
grid:
  alpha: [0.1, 1]
  penalty: [l1]
patient:
  children: 0
  smoker: false
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Estimators != 50 || cfg.Folds != 5 || cfg.SplitSeed != 10 {
		t.Errorf("overlay = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Grid.Penalty, []ml.Penalty{ml.PenaltyL1}) || len(cfg.Grid.Alpha) != 2 {
		t.Errorf("grid = %+v", cfg.Grid)
	}
	if cfg.Patient.Children != 0 || cfg.Patient.Smoker || cfg.Patient.BMI != 29.41 {
		t.Errorf("patient = %+v", cfg.Patient)
	}
	clock, err := cfg.Clock()
	if err != nil {
		t.Fatal(err)
	}
	if !clock().Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("clock = %v", clock())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]func(*Config){
		"test size":     func(c *Config) { c.TestSize = 1 },
		"estimators":    func(c *Config) { c.Estimators = 0 },
		"folds":         func(c *Config) { c.Folds = 1 },
		"empty grid":    func(c *Config) { c.Grid.Alpha = nil },
		"penalty":       func(c *Config) { c.Grid.Penalty = []ml.Penalty{"l0"} },
		"learning rate": func(c *Config) { c.BoostLearningRate = 0 },
		"depth":         func(c *Config) { c.BoostMaxDepth = 0 },
		"now":           func(c *Config) { c.Now = "yesterday" },
	}
	for name, mutate := range tests {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

type constPredictor float64

func (c constPredictor) PredictRow([]float64) (float64, error) { return float64(c), nil }

type failPredictor struct{}

func (failPredictor) PredictRow([]float64) (float64, error) { return 0, ml.ErrNotFitted }

func TestPredictMean(t *testing.T) {
	preds, mean, err := PredictMean([3]RowPredictor{constPredictor(10), constPredictor(20), constPredictor(60)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if preds != [3]float64{10, 20, 60} || mean != 30 {
		t.Errorf("preds %v mean %v", preds, mean)
	}
	if _, _, err := PredictMean([3]RowPredictor{constPredictor(1), failPredictor{}, constPredictor(1)}, nil); !errors.Is(err, ml.ErrNotFitted) {
		t.Errorf("err = %v, want ErrNotFitted", err)
	}
}

// writeSynthetic writes seeded synthetic sources as CSV files.
func writeSynthetic(t *testing.T, n int) dataset.FileSource {
	t.Helper()
	dir := t.TempDir()
	tables := dataset.Synthesize(n, 5)
	src := dataset.FileSource{
		Names:   filepath.Join(dir, "Names.csv"),
		Details: filepath.Join(dir, "Hospitalisation details.csv"),
		Medical: filepath.Join(dir, "Medical Examinations.csv"),
	}
	for _, kind := range dataset.Kinds {
		if err := dataset.WriteCSV(src.Path(kind), tables[kind]); err != nil {
			t.Fatal(err)
		}
	}
	return src
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.Estimators = 60
	cfg.Grid = ml.ParamGrid{Alpha: []float64{0.0001, 0.1}, Penalty: []ml.Penalty{ml.PenaltyL2, ml.PenaltyElasticNet}}
	cfg.Now = "2025-01-01"
	cfg.PlotDir = filepath.Join(t.TempDir(), "plots")
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	src := writeSynthetic(t, 240)
	cfg := testConfig(t)

	var out bytes.Buffer
	rep, err := Run(context.Background(), src, cfg, &out, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.Joined >= 240 || rep.Dropped == 0 || rep.Patients != rep.Joined-rep.Dropped {
		t.Errorf("rows joined=%d dropped=%d patients=%d", rep.Joined, rep.Dropped, rep.Patients)
	}
	if len(rep.Plots) != 3 {
		t.Errorf("plots = %v", rep.Plots)
	}
	for _, p := range rep.Plots {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("plot %s: %v", p, err)
		}
	}
	if rep.Friedman.Verdict() != "Probably the same distribution" {
		t.Errorf("friedman = %+v", rep.Friedman)
	}
	if len(rep.Search.Results) != 4 {
		t.Errorf("grid results = %d", len(rep.Search.Results))
	}
	if len(rep.Coefficients) != len(FeatureColumns) || rep.Coefficients[10].Feature != "smoker" {
		t.Errorf("coefficients = %+v", rep.Coefficients)
	}
	if rep.Linear.RMSE != math.Sqrt(rep.Linear.MSE) || rep.Linear.MAE <= 0 {
		t.Errorf("linear metrics = %+v", rep.Linear)
	}
	// Synthetic charges are a near-linear function of the inputs.
	if rep.ForestR2 < 0.5 || rep.BoostingR2 < 0.5 {
		t.Errorf("R2 forest=%v boosting=%v", rep.ForestR2, rep.BoostingR2)
	}

	sum := rep.Predictions[0] + rep.Predictions[1] + rep.Predictions[2]
	if math.Abs(rep.Prediction-sum/3) > 1e-9 {
		t.Errorf("prediction %v is not the mean of %v", rep.Prediction, rep.Predictions)
	}

	text := out.String()
	for _, want := range []string{
		"stat=2.000, p=0.368\nProbably the same distribution\n",
		"MAE: ",
		"Random forest R2: ",
		"Gradient boosting R2: ",
		"Predicted hospitalization cost: ",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	again, err := Run(context.Background(), src, cfg, &bytes.Buffer{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if again.Prediction != rep.Prediction {
		t.Errorf("second run predicted %v, first %v", again.Prediction, rep.Prediction)
	}
}

func TestRun_RawPatientVector(t *testing.T) {
	src := writeSynthetic(t, 120)
	cfg := testConfig(t)
	cfg.PlotDir = ""

	scaled, err := Run(context.Background(), src, cfg, &bytes.Buffer{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	cfg.RawPatientVector = true
	raw, err := Run(context.Background(), src, cfg, &bytes.Buffer{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if scaled.Predictions[0] == raw.Predictions[0] {
		t.Error("raw and scaled patient vectors gave the same linear prediction")
	}
	if len(scaled.Plots) != 0 {
		t.Errorf("plots written without a plot dir: %v", scaled.Plots)
	}
}

func TestRun_StageErrors(t *testing.T) {
	cfg := testConfig(t)

	src := writeSynthetic(t, 60)
	src.Medical = filepath.Join(t.TempDir(), "missing.csv")
	_, err := Run(context.Background(), src, cfg, &bytes.Buffer{}, zerolog.Nop())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageLoad {
		t.Fatalf("err = %v, want load StageError", err)
	}

	src = writeSynthetic(t, 60)
	details, err := dataset.ReadCSV(src.Details)
	if err != nil {
		t.Fatal(err)
	}
	details.Rows[0][6] = "tier - high"
	if err := dataset.WriteCSV(src.Details, details); err != nil {
		t.Fatal(err)
	}
	_, err = Run(context.Background(), src, cfg, &bytes.Buffer{}, zerolog.Nop())
	if !errors.As(err, &se) || se.Stage != StageClean || !errors.Is(err, cleaning.ErrBadTier) {
		t.Fatalf("err = %v, want clean StageError wrapping ErrBadTier", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, writeSynthetic(t, 60), cfg, &bytes.Buffer{}, zerolog.Nop()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
