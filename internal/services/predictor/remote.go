package predictor

import (
	"context"
	"fmt"
	"time"

	"FinTune/internal/domain/models"
	xhttp "FinTune/pkg/http"
	applogger "FinTune/pkg/logger"
)

const remoteArch = "remote-lstm"

// Remote drives an external training service over HTTP. The service keeps
// trained models in its own workspace; this side only holds opaque handles,
// so the governor's memory budget is not charged for model weights.
type Remote struct {
	client  *xhttp.Client
	baseURL string
	log     *applogger.Logger
}

func NewRemote(baseURL string, timeout time.Duration, log *applogger.Logger) *Remote {
	return &Remote{
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		log:     log,
	}
}

type remoteTrainRequest struct {
	Symbol string             `json:"symbol"`
	Bars   []models.Bar       `json:"bars"`
	Config models.ModelConfig `json:"config"`
}

type remoteTrainResponse struct {
	Ref     string           `json:"ref"`
	Scalers models.ScalerSet `json:"scalers"`
}

type remotePredictRequest struct {
	Ref    string             `json:"ref"`
	Bars   []models.Bar       `json:"bars"`
	Config models.ModelConfig `json:"config"`
}

type remotePredictResponse struct {
	Prediction float64 `json:"prediction"`
}

// Train ships the series and configuration to the service and keeps the
// returned handle. The scaler set comes back fitted service-side; OwnerKey
// is stamped here so the usual ownership check still applies.
func (r *Remote) Train(ctx context.Context, series models.BarSeries, cfg models.ModelConfig) (*models.TrainedModel, *models.ScalerSet, error) {
	var resp remoteTrainResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.baseURL + "/model/train",
		Body: remoteTrainRequest{
			Symbol: series.Symbol,
			Bars:   series.Bars,
			Config: cfg,
		},
	}, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("remote train: %w", err)
	}
	if resp.Ref == "" {
		return nil, nil, fmt.Errorf("remote train: empty model ref")
	}

	scalers := resp.Scalers
	scalers.OwnerKey = cfg.Key()
	model := &models.TrainedModel{
		ConfigKey: cfg.Key(),
		Arch:      remoteArch,
		Ref:       resp.Ref,
	}
	return model, &scalers, nil
}

func (r *Remote) PredictNext(ctx context.Context, window models.BarSeries, cfg models.ModelConfig, m *models.TrainedModel, sc *models.ScalerSet) (float64, error) {
	if m.Ref == "" {
		return 0, fmt.Errorf("remote predict: model has no ref")
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

	var resp remotePredictResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.baseURL + "/model/predict",
		Body: remotePredictRequest{
			Ref:    m.Ref,
			Bars:   window.Bars,
			Config: cfg,
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("remote predict: %w", err)
	}
	return resp.Prediction, nil
}

// Release asks the service to drop its model workspace. Failures are logged
// only; the service evicts stale models on its own TTL anyway.
func (r *Remote) Release() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.baseURL + "/model/release",
	}, nil)
	if err != nil {
		r.log.Warn("remote model release failed", applogger.Error(err))
	}
}
