package models

import (
	"fmt"
	"time"
)

// Bar is one OHLCV candle with venue extras (VWAP, trade count).
type Bar struct {
	Time       time.Time `json:"t"`
	Open       float64   `json:"o"`
	High       float64   `json:"h"`
	Low        float64   `json:"l"`
	Close      float64   `json:"c"`
	Volume     float64   `json:"v"`
	VWAP       float64   `json:"vw"`
	TradeCount int64     `json:"n"`
}

// BarSeries is a time-ascending bar sequence for one instrument.
// It is read-only for the tuning core: slices share the backing array
// and callers must not mutate bars after retrieval.
type BarSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

func (s BarSeries) Len() int { return len(s.Bars) }

// Close returns the close price at index i.
func (s BarSeries) Close(i int) float64 { return s.Bars[i].Close }

// Closes returns the full close-price series.
func (s BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Slice returns the sub-series [from, to) sharing the backing array.
func (s BarSeries) Slice(from, to int) BarSeries {
	return BarSeries{Symbol: s.Symbol, Bars: s.Bars[from:to]}
}

// Feature resolves a named per-bar numeric value at index i.
// Unknown names are a configuration problem and are reported as errors
// rather than silently producing zeros.
func (s BarSeries) Feature(name string, i int) (float64, error) {
	b := s.Bars[i]
	switch name {
	case "open":
		return b.Open, nil
	case "high":
		return b.High, nil
	case "low":
		return b.Low, nil
	case "close":
		return b.Close, nil
	case "volume":
		return b.Volume, nil
	case "vwap":
		return b.VWAP, nil
	case "trades":
		return float64(b.TradeCount), nil
	case "range":
		return b.High - b.Low, nil
	case "change":
		if i == 0 || s.Bars[i-1].Close == 0 {
			return 0, nil
		}
		return b.Close/s.Bars[i-1].Close - 1, nil
	default:
		return 0, fmt.Errorf("unknown feature %q", name)
	}
}

// KnownFeatures lists the resolvable per-bar feature names.
func KnownFeatures() []string {
	return []string{"open", "high", "low", "close", "volume", "vwap", "trades", "range", "change"}
}
