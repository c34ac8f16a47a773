package predictor

import (
	"FinTune/internal/domain/models"
)

// fitScalers fits one min-max scaler per configured feature plus the label
// scaler over close prices. The returned set is bound to the configuration
// via OwnerKey so foreign scalers are rejected at prediction time.
func fitScalers(series models.BarSeries, cfg models.ModelConfig) (*models.ScalerSet, error) {
	set := &models.ScalerSet{
		Features: make(map[string]models.Scaler, len(cfg.Features)),
		OwnerKey: cfg.Key(),
	}
	for _, name := range cfg.Features {
		sc, err := fitFeature(series, name)
		if err != nil {
			return nil, err
		}
		set.Features[name] = sc
	}
	set.Label = fitCloses(series)
	return set, nil
}

func fitFeature(series models.BarSeries, name string) (models.Scaler, error) {
	v0, err := series.Feature(name, 0)
	if err != nil {
		return models.Scaler{}, err
	}
	sc := models.Scaler{Min: v0, Max: v0}
	for i := 1; i < series.Len(); i++ {
		v, err := series.Feature(name, i)
		if err != nil {
			return models.Scaler{}, err
		}
		if v < sc.Min {
			sc.Min = v
		}
		if v > sc.Max {
			sc.Max = v
		}
	}
	return sc, nil
}

func fitCloses(series models.BarSeries) models.Scaler {
	sc := models.Scaler{Min: series.Close(0), Max: series.Close(0)}
	for i := 1; i < series.Len(); i++ {
		c := series.Close(i)
		if c < sc.Min {
			sc.Min = c
		}
		if c > sc.Max {
			sc.Max = c
		}
	}
	return sc
}

// featureVector flattens the normalized feature window into the model input.
// Order is bar-major, feature order as configured, so layout is stable.
func featureVector(window models.BarSeries, cfg models.ModelConfig, sc *models.ScalerSet) ([]float64, error) {
	x := make([]float64, 0, window.Len()*len(cfg.Features))
	for i := 0; i < window.Len(); i++ {
		for _, name := range cfg.Features {
			v, err := window.Feature(name, i)
			if err != nil {
				return nil, err
			}
			x = append(x, sc.Features[name].Transform(v))
		}
	}
	return x, nil
}
