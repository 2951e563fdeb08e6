package model

import (
	"fmt"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PricePoint is one daily close.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// PriceSeries holds daily closes for one symbol, ascending by time.
// It is treated as immutable once a provider has returned it.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Source string       `json:"source"`
	Points []PricePoint `json:"points"`
}

func (s PriceSeries) Len() int { return len(s.Points) }

// Closes returns a fresh slice of the close prices.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Last returns the most recent point. The series must not be empty.
func (s PriceSeries) Last() PricePoint {
	return s.Points[len(s.Points)-1]
}

// Validate checks ordering, uniqueness and positivity of the points.
func (s PriceSeries) Validate() error {
	if len(s.Points) == 0 {
		return fmt.Errorf("%s: empty price series: %w", s.Symbol, ErrInsufficientData)
	}
	for i, p := range s.Points {
		if !(p.Close > 0) {
			return fmt.Errorf("%s: non-positive price %v at %s: %w", s.Symbol, p.Close, p.Time.Format(time.DateOnly), ErrInsufficientData)
		}
		if i > 0 && !p.Time.After(s.Points[i-1].Time) {
			return fmt.Errorf("%s: timestamps not strictly ascending at index %d: %w", s.Symbol, i, ErrInsufficientData)
		}
	}
	return nil
}

// ReturnPoint is the return realised between the previous close and Time.
type ReturnPoint struct {
	Time   time.Time `json:"time"`
	Simple float64   `json:"simple"`
	Log    float64   `json:"log"`
}

// ReturnSeries is derived from a PriceSeries and has one fewer element.
type ReturnSeries struct {
	Symbol string        `json:"symbol"`
	Points []ReturnPoint `json:"points"`
}

func (r ReturnSeries) Len() int { return len(r.Points) }

func (r ReturnSeries) Simple() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Simple
	}
	return out
}

func (r ReturnSeries) Log() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Log
	}
	return out
}
