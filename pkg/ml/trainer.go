package ml

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"goeta/internal/features"
)

// Sample is one training example: a feature vector and the observed trip
// duration.
type Sample struct {
	Features      *features.Vector
	ActualSeconds float64
}

// TrainingReport carries the evaluation of a freshly trained model, computed
// on the training set itself.
type TrainingReport struct {
	SampleCount        int
	MAESeconds         float64
	R2                 float64
	AccuracyWithin3Min float64 // percent
	AccuracyWithin5Min float64 // percent
	FeatureImportance  map[string]float64
}

// ridgeLambda keeps the normal equations solvable when features are
// collinear (road distance is a fixed multiple of straight distance).
const ridgeLambda = 1e-3

// Train fits a ridge-regularized linear regression over the fixed feature
// order and returns the artifact with its evaluation. The minimum sample
// check belongs to the caller; this only rejects degenerate input.
func Train(samples []Sample) (*Model, *TrainingReport, error) {
	n := len(samples)
	d := len(features.ModelOrder)
	if n <= d {
		return nil, nil, fmt.Errorf("need more than %d samples to fit %d features, got %d", d, d, n)
	}

	// Design matrix with a leading column of ones for the intercept.
	a := mat.NewDense(n, d+1, nil)
	b := mat.NewVecDense(n, nil)
	for i, s := range samples {
		a.Set(i, 0, 1)
		for j, val := range s.Features.Ordered() {
			a.Set(i, j+1, val)
		}
		b.SetVec(i, s.ActualSeconds)
	}

	// Solve (AᵀA + λI) x = Aᵀb. An ill-conditioned system still yields a
	// usable solution, which gonum reports as a Condition error.
	var ata mat.Dense
	ata.Mul(a.T(), a)
	for i := 0; i <= d; i++ {
		ata.Set(i, i, ata.At(i, i)+ridgeLambda)
	}
	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	var coef mat.VecDense
	if err := coef.SolveVec(&ata, &atb); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, nil, fmt.Errorf("regression solve: %w", err)
		}
	}

	weights := make(map[string]float64, d)
	for j, name := range features.ModelOrder {
		w := coef.AtVec(j + 1)
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, nil, fmt.Errorf("non-finite weight for feature %s", name)
		}
		weights[string(name)] = w
	}

	model := &Model{
		Weights:      weights,
		Intercept:    coef.AtVec(0),
		Version:      time.Now().UTC().Format("v20060102-150405"),
		TrainedAt:    time.Now().UTC(),
		FeatureNames: features.ModelFeatureNames(),
		SampleCount:  n,
	}

	report := evaluate(model, samples)
	return model, report, nil
}

func evaluate(model *Model, samples []Sample) *TrainingReport {
	n := len(samples)
	predicted := make([]float64, n)
	actual := make([]float64, n)

	var absErrSum float64
	var within3, within5 int
	for i, s := range samples {
		p := model.Score(s.Features)
		predicted[i] = p
		actual[i] = s.ActualSeconds

		absErr := math.Abs(p - s.ActualSeconds)
		absErrSum += absErr
		if absErr <= 3*60 {
			within3++
		}
		if absErr <= 5*60 {
			within5++
		}
	}

	return &TrainingReport{
		SampleCount:        n,
		MAESeconds:         absErrSum / float64(n),
		R2:                 stat.RSquaredFrom(predicted, actual, nil),
		AccuracyWithin3Min: float64(within3) / float64(n) * 100,
		AccuracyWithin5Min: float64(within5) / float64(n) * 100,
		FeatureImportance:  featureImportance(model, 10),
	}
}

// featureImportance ranks features by absolute weight and keeps the top ones.
func featureImportance(model *Model, top int) map[string]float64 {
	type fw struct {
		name   string
		weight float64
	}
	ranked := make([]fw, 0, len(model.Weights))
	for name, w := range model.Weights {
		ranked = append(ranked, fw{name, math.Abs(w)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].weight > ranked[j].weight })

	if top > len(ranked) {
		top = len(ranked)
	}
	out := make(map[string]float64, top)
	for _, f := range ranked[:top] {
		out[f.name] = f.weight
	}
	return out
}
