package predictor

import (
	"context"
	"fmt"
	"math/rand"

	"FinTune/internal/domain/models"
)

const nativeArch = "sgd-linear"

// nativeEpochs is fixed so training cost scales only with series length and
// grid size, not with an extra tunable.
const nativeEpochs = 12

// Native is the in-process model backend: a seeded linear model fitted with
// stochastic gradient descent over the normalized feature window. It stands
// in for the GPU sequence backend when the tuning host runs self-contained,
// and is fully deterministic per configuration seed.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

// Train fits weights on every (window, next close) pair in the series.
func (n *Native) Train(ctx context.Context, series models.BarSeries, cfg models.ModelConfig) (*models.TrainedModel, *models.ScalerSet, error) {
	if series.Len() < cfg.WindowSize+1 {
		return nil, nil, &models.InsufficientDataError{
			Symbol: series.Symbol,
			Need:   cfg.WindowSize + 1,
			Have:   series.Len(),
		}
	}

	scalers, err := fitScalers(series, cfg)
	if err != nil {
		return nil, nil, err
	}

	dim := cfg.WindowSize*len(cfg.Features) + 1
	rng := rand.New(rand.NewSource(cfg.Seed))
	weights := make([]float64, dim)
	for i := range weights {
		weights[i] = rng.NormFloat64() * 0.01
	}

	for epoch := 0; epoch < nativeEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		for t := cfg.WindowSize; t < series.Len(); t++ {
			x, err := featureVector(series.Slice(t-cfg.WindowSize, t), cfg, scalers)
			if err != nil {
				return nil, nil, err
			}
			target := scalers.Label.Transform(series.Close(t))
			n.sgdStep(weights, x, target, cfg)
		}
	}

	model := &models.TrainedModel{
		ConfigKey: cfg.Key(),
		Arch:      nativeArch,
		Weights:   weights,
	}
	return model, scalers, nil
}

// sgdStep applies one gradient step for a single example. The last weight is
// the bias term. Elastic-net regularization follows the L1/L2 knobs.
func (n *Native) sgdStep(w []float64, x []float64, target float64, cfg models.ModelConfig) {
	pred := forward(w, x)
	grad := pred - target
	lr := cfg.LearningRate
	for i := range x {
		w[i] -= lr * (grad*x[i] + cfg.L2*w[i] + cfg.L1*sign(w[i]))
	}
	w[len(w)-1] -= lr * grad
}

// PredictNext scores the most recent window with the fitted weights and maps
// the result back to raw price space.
func (n *Native) PredictNext(ctx context.Context, window models.BarSeries, cfg models.ModelConfig, m *models.TrainedModel, sc *models.ScalerSet) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.ConfigKey != cfg.Key() {
		return 0, fmt.Errorf("model trained for %s, configuration is %s", m.ConfigKey, cfg.Key())
	}
	if err := sc.CheckOwner(m.ConfigKey); err != nil {
		return 0, err
	}
	if window.Len() != cfg.WindowSize {
		return 0, fmt.Errorf("window has %d bars, configuration requires %d", window.Len(), cfg.WindowSize)
	}
	want := cfg.WindowSize*len(cfg.Features) + 1
	if len(m.Weights) != want {
		return 0, fmt.Errorf("model has %d weights, expected %d", len(m.Weights), want)
	}

	x, err := featureVector(window, cfg, sc)
	if err != nil {
		return 0, err
	}
	return sc.Label.Inverse(forward(m.Weights, x)), nil
}

// Release is a no-op; the native backend holds no workspace between calls.
func (n *Native) Release() {}

func forward(w []float64, x []float64) float64 {
	y := w[len(w)-1]
	for i, v := range x {
		y += w[i] * v
	}
	return y
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
