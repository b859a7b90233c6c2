// Package pipeline runs the charge model end to end: load, clean, explore,
// train and predict, in that order.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"hospcost/cleaning"
	"hospcost/dataset"
	"hospcost/explore"
	"hospcost/ml"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Plot file names written into Config.PlotDir.
const (
	HistogramFile = "charges_histogram.png"
	BoxPlotFile   = "charges_boxplot.png"
	ScatterFile   = "charges_by_year.png"
)

// Coefficient is one linear-model weight with its feature name.
type Coefficient struct {
	Feature string
	Weight  float64
}

// Report collects everything a run computed.
type Report struct {
	Joined   int
	Patients int
	Dropped  int

	Friedman explore.FriedmanResult
	Plots    []string

	Search       ml.SearchResult
	Linear       ml.Metrics
	Coefficients []Coefficient
	Intercept    float64
	ForestR2     float64
	BoostingR2   float64

	// Predictions holds the linear, forest and boosting outputs for the
	// hypothetical patient, in that order.
	Predictions [3]float64
	Prediction  float64
}

// Models are the three fitted regressors used for the final prediction.
type Models struct {
	Scaler   *ml.StandardScaler
	Linear   *ml.SGDRegressor
	Forest   *ml.RandomForest
	Boosting *ml.GradientBoosting
}

// Run executes every stage against src, printing the human-readable results
// to out. The first failure is returned as a *StageError.
func Run(ctx context.Context, src dataset.TableSource, cfg Config, out io.Writer, log zerolog.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	rep := &Report{}

	start := time.Now()
	joined, err := dataset.Load(ctx, src, log)
	if err != nil {
		return nil, stageErr(StageLoad, err)
	}
	rep.Joined = joined.Len()

	patients, err := cleanStage(ctx, joined, cfg, rep, log)
	if err != nil {
		return nil, stageErr(StageClean, err)
	}

	if err := exploreStage(ctx, patients, cfg, out, rep, log); err != nil {
		return nil, stageErr(StageExplore, err)
	}

	models, err := trainStage(ctx, patients, cfg, out, rep, log)
	if err != nil {
		return nil, stageErr(StageTrain, err)
	}

	if err := predictStage(ctx, models, cfg, out, rep); err != nil {
		return nil, stageErr(StagePredict, err)
	}

	log.Info().Float64("prediction", rep.Prediction).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).Msg("run complete")
	return rep, nil
}

func cleanStage(ctx context.Context, joined *dataset.Table, cfg Config, rep *Report, log zerolog.Logger) ([]cleaning.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clock, err := cfg.Clock()
	if err != nil {
		return nil, err
	}
	res, err := cleaning.Clean(joined, cleaning.Options{Sentinel: cfg.Sentinel, Now: clock})
	if err != nil {
		return nil, err
	}
	if len(res.Patients) == 0 {
		return nil, fmt.Errorf("no rows left after cleaning %d joined rows", res.Input)
	}
	rep.Patients, rep.Dropped = len(res.Patients), res.Dropped
	log.Info().Int("rows", len(res.Patients)).Int("dropped", res.Dropped).Msg("cleaned")
	return res.Patients, nil
}

func exploreStage(ctx context.Context, patients []cleaning.Patient, cfg Config, out io.Writer, rep *Report, log zerolog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.PlotDir != "" {
		if err := os.MkdirAll(cfg.PlotDir, 0o755); err != nil {
			return fmt.Errorf("plot dir: %w", err)
		}
		charges := make([]float64, len(patients))
		points := make([]explore.YearPoint, len(patients))
		for i, p := range patients {
			charges[i] = p.Charges
			points[i] = explore.YearPoint{Year: p.Year, Charges: p.Charges, Gender: p.Gender}
		}

		plots := []struct {
			file   string
			render func(path string) error
		}{
			{HistogramFile, func(path string) error { return explore.Histogram(charges, path) }},
			{BoxPlotFile, func(path string) error { return explore.BoxPlot(charges, path) }},
			{ScatterFile, func(path string) error { return explore.ScatterByYear(points, path) }},
		}
		for _, pl := range plots {
			path := filepath.Join(cfg.PlotDir, pl.file)
			if err := pl.render(path); err != nil {
				return err
			}
			rep.Plots = append(rep.Plots, path)
			log.Debug().Str("path", path).Msg("plot written")
		}
	}

	res, err := explore.HypothesisTest(out)
	if err != nil {
		return err
	}
	rep.Friedman = res
	return nil
}

func trainStage(ctx context.Context, patients []cleaning.Patient, cfg Config, out io.Writer, rep *Report, log zerolog.Logger) (*Models, error) {
	X, y, err := FeatureMatrix(patients)
	if err != nil {
		return nil, err
	}
	split, err := ml.TrainTestSplit(len(y), cfg.TestSize, cfg.SplitSeed)
	if err != nil {
		return nil, err
	}
	trainX, trainY := ml.SubsetRows(X, y, split.Train)
	testX, testY := ml.SubsetRows(X, y, split.Test)

	scaler := ml.NewStandardScaler()
	trainZ, err := scaler.FitTransform(trainX)
	if err != nil {
		return nil, err
	}
	testZ, err := scaler.Transform(testX)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("train", len(trainY)).Int("test", len(testY)).Msg("split")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sgdBase := ml.DefaultSGDConfig()
	sgdBase.Seed = cfg.SGDSeed
	started := time.Now()
	search, err := ml.GridSearch{Grid: cfg.Grid, Folds: cfg.Folds, Base: sgdBase}.Run(trainZ, trainY)
	if err != nil {
		return nil, fmt.Errorf("grid search: %w", err)
	}
	rep.Search = search
	log.Info().Stringer("best", search.Best).Float64("mae", search.BestMAE).
		Int("points", len(search.Results)).Dur("elapsed", time.Since(started).Round(time.Millisecond)).
		Msg("grid search done")
	fmt.Fprintf(out, "Best parameters: %v\n", search.Best)

	linCfg := sgdBase
	linCfg.Alpha, linCfg.Penalty = search.Best.Alpha, search.Best.Penalty
	linear := ml.NewSGDRegressor(linCfg)
	if err := linear.Fit(trainZ, trainY); err != nil {
		return nil, fmt.Errorf("linear model: %w", err)
	}
	pred, err := linear.Predict(testZ)
	if err != nil {
		return nil, err
	}
	if rep.Linear, err = ml.Evaluate(testY, pred); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "MAE: %v, MSE: %v, RMSE: %v\n", rep.Linear.MAE, rep.Linear.MSE, rep.Linear.RMSE)

	rep.Intercept = linear.Intercept
	for j, name := range FeatureNames() {
		rep.Coefficients = append(rep.Coefficients, Coefficient{Feature: name, Weight: linear.Coef[j]})
		fmt.Fprintf(out, "%s: %v\n", name, linear.Coef[j])
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	forestCfg := ml.DefaultForestConfig()
	forestCfg.NEstimators = cfg.Estimators
	forestCfg.Seed = cfg.EnsembleSeed
	forest := ml.NewRandomForest(forestCfg)
	if rep.ForestR2, err = fitScore(forest, trainZ, trainY, testZ, testY); err != nil {
		return nil, fmt.Errorf("random forest: %w", err)
	}
	fmt.Fprintf(out, "Random forest R2: %v\n", rep.ForestR2)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	boostCfg := ml.DefaultBoostingConfig()
	boostCfg.NEstimators = cfg.Estimators
	boostCfg.LearningRate = cfg.BoostLearningRate
	boostCfg.MaxDepth = cfg.BoostMaxDepth
	boostCfg.Seed = cfg.EnsembleSeed
	boosting := ml.NewGradientBoosting(boostCfg)
	if rep.BoostingR2, err = fitScore(boosting, trainZ, trainY, testZ, testY); err != nil {
		return nil, fmt.Errorf("gradient boosting: %w", err)
	}
	fmt.Fprintf(out, "Gradient boosting R2: %v\n", rep.BoostingR2)

	log.Info().Float64("mae", rep.Linear.MAE).Float64("forest_r2", rep.ForestR2).
		Float64("boosting_r2", rep.BoostingR2).Msg("trained")
	return &Models{Scaler: scaler, Linear: linear, Forest: forest, Boosting: boosting}, nil
}

func fitScore(m ml.Regressor, trainX *mat.Dense, trainY []float64, testX *mat.Dense, testY []float64) (float64, error) {
	if err := m.Fit(trainX, trainY); err != nil {
		return 0, err
	}
	return ml.Score(m, testX, testY)
}

// RowPredictor predicts a single feature vector.
type RowPredictor interface {
	PredictRow(x []float64) (float64, error)
}

// PredictMean returns the output of each of the three models for x and
// their unweighted mean.
func PredictMean(models [3]RowPredictor, x []float64) ([3]float64, float64, error) {
	var preds [3]float64
	var sum float64
	for i, m := range models {
		p, err := m.PredictRow(x)
		if err != nil {
			return preds, 0, err
		}
		preds[i] = p
		sum += p
	}
	return preds, sum / 3, nil
}

func predictStage(ctx context.Context, models *Models, cfg Config, out io.Writer, rep *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x := cfg.Patient.Vector()
	if !cfg.RawPatientVector {
		scaled, err := models.Scaler.TransformRow(x)
		if err != nil {
			return err
		}
		x = scaled
	}

	preds, mean, err := PredictMean([3]RowPredictor{models.Linear, models.Forest, models.Boosting}, x)
	if err != nil {
		return err
	}
	rep.Predictions, rep.Prediction = preds, mean
	fmt.Fprintf(out, "Predicted hospitalization cost: %v\n", mean)
	return nil
}
