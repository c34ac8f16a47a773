package models

import "fmt"

// Scaler is a fitted min-max transform mapping raw values into [0,1],
// paired with its inverse for de-normalizing predictions.
type Scaler struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Transform maps a raw value into the normalized range.
func (s Scaler) Transform(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// Inverse maps a normalized value back into raw space.
func (s Scaler) Inverse(v float64) float64 {
	return v*(s.Max-s.Min) + s.Min
}

// ScalerSet holds per-feature scalers plus the label scaler. A set is owned
// by exactly one (configuration, model) pair; OwnerKey records that binding
// and is checked before prediction.
type ScalerSet struct {
	Features map[string]Scaler `json:"features"`
	Label    Scaler            `json:"label"`
	OwnerKey string            `json:"owner_key"`
}

// CheckOwner fails when the set was fitted for a different model.
func (s *ScalerSet) CheckOwner(configKey string) error {
	if s.OwnerKey != configKey {
		return fmt.Errorf("scaler set owned by %s, model requires %s", s.OwnerKey, configKey)
	}
	return nil
}

// TrainedModel is an opaque trained artifact bound to one configuration and
// one scaler set. Weights are the native backend's flat parameter vector;
// remote backends carry a handle in Ref instead.
type TrainedModel struct {
	ConfigKey string    `json:"config_key"`
	Arch      string    `json:"arch"`
	Weights   []float64 `json:"weights,omitempty"`
	Ref       string    `json:"ref,omitempty"`
}
