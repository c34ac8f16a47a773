package tuning

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"FinTune/internal/domain/models"
)

// Axes enumerates the candidate values per hyperparameter. The generator is
// an explicit odometer over these lists; a tagged ModelConfig replaces any
// reflective sweep construction.
type Axes struct {
	WindowSizes   []int                `yaml:"window_sizes"`
	HiddenUnits   []int                `yaml:"hidden_units"`
	Dropouts      []float64            `yaml:"dropouts"`
	LearningRates []float64            `yaml:"learning_rates"`
	L1s           []float64            `yaml:"l1s"`
	L2s           []float64            `yaml:"l2s"`
	Optimizers    []string             `yaml:"optimizers"`
	Layers        []int                `yaml:"layers"`
	Bidirectional []bool               `yaml:"bidirectional"`
	Attention     []bool               `yaml:"attention"`
	BatchSizes    []int                `yaml:"batch_sizes"`
	Horizons      []int                `yaml:"horizons"`
	FeatureSets   [][]string           `yaml:"feature_sets"`
	SwingTypes    []models.SwingType   `yaml:"swing_types"`
	CVModes       []models.CVMode      `yaml:"cv_modes"`
	Splits        []int                `yaml:"splits"`
	EmbargoBars   []int                `yaml:"embargo_bars"`
	Seeds         []int64              `yaml:"seeds"`
	Business      models.BusinessParams `yaml:"business"`
}

func (a Axes) lengths() []int {
	return []int{
		len(a.WindowSizes), len(a.HiddenUnits), len(a.Dropouts), len(a.LearningRates),
		len(a.L1s), len(a.L2s), len(a.Optimizers), len(a.Layers),
		len(a.Bidirectional), len(a.Attention), len(a.BatchSizes), len(a.Horizons),
		len(a.FeatureSets), len(a.SwingTypes), len(a.CVModes), len(a.Splits),
		len(a.EmbargoBars), len(a.Seeds),
	}
}

var axisNames = []string{
	"window_sizes", "hidden_units", "dropouts", "learning_rates",
	"l1s", "l2s", "optimizers", "layers",
	"bidirectional", "attention", "batch_sizes", "horizons",
	"feature_sets", "swing_types", "cv_modes", "splits",
	"embargo_bars", "seeds",
}

func (a Axes) validate() error {
	for i, n := range a.lengths() {
		if n == 0 {
			return models.NewConfigurationError("empty axis %s", axisNames[i])
		}
	}
	return nil
}

// build assembles the configuration at the given per-axis indices.
func (a Axes) build(idx []int) models.ModelConfig {
	return models.ModelConfig{
		WindowSize:    a.WindowSizes[idx[0]],
		HiddenUnits:   a.HiddenUnits[idx[1]],
		Dropout:       a.Dropouts[idx[2]],
		LearningRate:  a.LearningRates[idx[3]],
		L1:            a.L1s[idx[4]],
		L2:            a.L2s[idx[5]],
		Optimizer:     a.Optimizers[idx[6]],
		Layers:        a.Layers[idx[7]],
		Bidirectional: a.Bidirectional[idx[8]],
		Attention:     a.Attention[idx[9]],
		BatchSize:     a.BatchSizes[idx[10]],
		Horizon:       a.Horizons[idx[11]],
		Features:      a.FeatureSets[idx[12]],
		SwingType:     a.SwingTypes[idx[13]],
		CVMode:        a.CVModes[idx[14]],
		Splits:        a.Splits[idx[15]],
		EmbargoBars:   a.EmbargoBars[idx[16]],
		Seed:          a.Seeds[idx[17]],
		Business:      a.Business,
	}
}

// Cartesian produces the full ordered cartesian product of the axes.
// The last axis varies fastest.
func Cartesian(a Axes) ([]models.ModelConfig, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	lens := a.lengths()
	total := 1
	for _, n := range lens {
		total *= n
	}
	idx := make([]int, len(lens))
	out := make([]models.ModelConfig, 0, total)
	for {
		out = append(out, a.build(idx))
		// odometer increment
		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < lens[pos] {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return out, nil
		}
	}
}

// LoadAxes reads an axes definition from a YAML file.
func LoadAxes(path string) (Axes, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Axes{}, fmt.Errorf("read axes: %w", err)
	}
	var a Axes
	if err := yaml.Unmarshal(b, &a); err != nil {
		return Axes{}, fmt.Errorf("parse axes: %w", err)
	}
	if err := a.validate(); err != nil {
		return Axes{}, err
	}
	return a, nil
}

// Sample draws n configurations, each axis sampled independently from a PRNG
// seeded by the caller. The same seed reproduces the same sequence.
func Sample(a Axes, n int, seed int64) ([]models.ModelConfig, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, models.NewConfigurationError("sample size must be positive, got %d", n)
	}
	rng := rand.New(rand.NewSource(seed))
	lens := a.lengths()
	idx := make([]int, len(lens))
	out := make([]models.ModelConfig, 0, n)
	for i := 0; i < n; i++ {
		for j, l := range lens {
			idx[j] = rng.Intn(l)
		}
		out = append(out, a.build(idx))
	}
	return out, nil
}
