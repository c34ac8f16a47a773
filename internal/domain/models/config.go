package models

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// SwingType tags the trade style a model is tuned for.
type SwingType string

const (
	SwingIntraday SwingType = "intraday"
	SwingMultiDay SwingType = "multiday"
)

// CVMode selects how walk-forward training is performed.
type CVMode string

const (
	// CVSingle trains one model on the first training prefix and reuses it
	// across splits. Faster, slightly optimistic on regime shifts.
	CVSingle CVMode = "single"
	// CVRolling retrains per split on the growing prefix.
	CVRolling CVMode = "rolling"
)

// BusinessParams are the scoring knobs carried on each configuration so
// instrument classes can be recalibrated without code changes.
type BusinessParams struct {
	ProfitFactorCap float64 `json:"profit_factor_cap" yaml:"profit_factor_cap" default:"4.0" validate:"gt=0"`
	DrawdownGamma   float64 `json:"drawdown_gamma" yaml:"drawdown_gamma" default:"1.5" validate:"gt=0"`
}

// ModelConfig is one immutable hyperparameter combination.
type ModelConfig struct {
	WindowSize    int            `json:"window_size" validate:"gte=1"`
	HiddenUnits   int            `json:"hidden_units" validate:"gte=1"`
	Dropout       float64        `json:"dropout" validate:"gte=0,lt=1"`
	LearningRate  float64        `json:"learning_rate" validate:"gt=0"`
	L1            float64        `json:"l1" validate:"gte=0"`
	L2            float64        `json:"l2" validate:"gte=0"`
	Optimizer     string         `json:"optimizer" validate:"required"`
	Layers        int            `json:"layers" validate:"gte=1"`
	Bidirectional bool           `json:"bidirectional"`
	Attention     bool           `json:"attention"`
	BatchSize     int            `json:"batch_size" validate:"gte=1"`
	Horizon       int            `json:"horizon" validate:"gte=1"`
	Features      []string       `json:"features" validate:"min=1,dive,required"`
	SwingType     SwingType      `json:"swing_type" validate:"oneof=intraday multiday"`
	CVMode        CVMode         `json:"cv_mode" validate:"oneof=single rolling"`
	Splits        int            `json:"splits" validate:"gte=1"`
	EmbargoBars   int            `json:"embargo_bars" validate:"gte=0"`
	Seed          int64          `json:"seed"`
	Business      BusinessParams `json:"business"`
}

var configValidate = validator.New()

// Validate applies defaults and checks structural invariants.
func (c *ModelConfig) Validate() error {
	if err := defaults.Set(c); err != nil {
		return NewConfigurationError("apply defaults: %v", err)
	}
	if err := configValidate.Struct(c); err != nil {
		return NewConfigurationError("%v", err)
	}
	known := make(map[string]bool, len(KnownFeatures()))
	for _, f := range KnownFeatures() {
		known[f] = true
	}
	for _, f := range c.Features {
		if !known[f] {
			return NewConfigurationError("feature %q does not resolve to a per-bar value", f)
		}
	}
	return nil
}

// CheckEvaluable verifies the series is long enough to produce at least one
// walk-forward split. Violations fail fast with InsufficientDataError so the
// evaluator never aggregates NaN metrics.
func (c *ModelConfig) CheckEvaluable(symbol string, seriesLen int) error {
	need := c.WindowSize + c.EmbargoBars + 1
	if need > seriesLen {
		return &InsufficientDataError{Symbol: symbol, Need: need, Have: seriesLen}
	}
	return nil
}

// Key is a stable identity for a configuration, used to bind models and
// scalers to the configuration they were produced for.
func (c ModelConfig) Key() string {
	b, _ := json.Marshal(c)
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:8])
}

// Describe is a short human-readable tag for logs.
func (c ModelConfig) Describe() string {
	return fmt.Sprintf("w=%d h=%d lr=%g cv=%s feats=%s",
		c.WindowSize, c.HiddenUnits, c.LearningRate, c.CVMode, strings.Join(c.Features, ","))
}
