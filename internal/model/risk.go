package model

import (
	"fmt"
	"strings"
)

// VolatilityResult holds point and rolling volatility for one asset.
type VolatilityResult struct {
	DailyVolatility      float64   `json:"daily_volatility"`
	AnnualizedVolatility float64   `json:"annualized_volatility"`
	RollingVolatility    []float64 `json:"rolling_volatility"`
	Window               int       `json:"window"`
	SpikeDetected        bool      `json:"spike_detected"`
	SpikeMultiplier      Optional  `json:"spike_multiplier"`
}

// CurrentRolling returns the most recent rolling volatility value.
func (v VolatilityResult) CurrentRolling() Optional {
	if len(v.RollingVolatility) == 0 {
		return None()
	}
	return Some(v.RollingVolatility[len(v.RollingVolatility)-1])
}

// PerformanceResult holds the risk-adjusted performance of one asset.
type PerformanceResult struct {
	AnnualizedReturn float64  `json:"annualized_return"`
	SharpeRatio      Optional `json:"sharpe_ratio"`
	Beta             Optional `json:"beta"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	VaR95            float64  `json:"var_95"`
	Skewness         float64  `json:"skewness"`
	Kurtosis         float64  `json:"kurtosis"`
}

// VolatilityBands are ascending upper bounds for Low, Medium and High.
type VolatilityBands struct {
	Low    float64 `yaml:"low" json:"low"`
	Medium float64 `yaml:"medium" json:"medium"`
	High   float64 `yaml:"high" json:"high"`
}

// SharpeBands are descending lower bounds for Excellent, Good and Poor.
type SharpeBands struct {
	Excellent float64 `yaml:"excellent" json:"excellent"`
	Good      float64 `yaml:"good" json:"good"`
	Poor      float64 `yaml:"poor" json:"poor"`
}

// RiskThresholds configures the risk classifier.
type RiskThresholds struct {
	Volatility VolatilityBands `yaml:"volatility" json:"volatility"`
	Sharpe     SharpeBands     `yaml:"sharpe" json:"sharpe"`
}

// Validate rejects thresholds whose boundaries are not strictly ordered.
func (t RiskThresholds) Validate() error {
	v := t.Volatility
	if !(v.Low < v.Medium && v.Medium < v.High) {
		return fmt.Errorf("volatility thresholds must satisfy low < medium < high, got %v/%v/%v: %w",
			v.Low, v.Medium, v.High, ErrInvalidConfiguration)
	}
	s := t.Sharpe
	if !(s.Excellent > s.Good && s.Good > s.Poor) {
		return fmt.Errorf("sharpe thresholds must satisfy excellent > good > poor, got %v/%v/%v: %w",
			s.Excellent, s.Good, s.Poor, ErrInvalidConfiguration)
	}
	return nil
}

// RiskLabel is the discrete risk classification, ordered by severity.
type RiskLabel int

const (
	RiskLow RiskLabel = iota
	RiskMedium
	RiskHigh
	RiskVeryHigh
)

var riskLabelNames = [...]string{"Low", "Medium", "High", "VeryHigh"}

func (l RiskLabel) String() string {
	if l < RiskLow || l > RiskVeryHigh {
		return fmt.Sprintf("RiskLabel(%d)", int(l))
	}
	return riskLabelNames[l]
}

// Severity maps the label onto the alert severity scale.
func (l RiskLabel) Severity() AlertSeverity {
	switch {
	case l >= RiskVeryHigh:
		return SeverityCritical
	case l == RiskHigh:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func (l RiskLabel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *RiskLabel) UnmarshalText(text []byte) error {
	for i, name := range riskLabelNames {
		if strings.EqualFold(name, string(text)) {
			*l = RiskLabel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown risk label %q", text)
}

// SharpeBand grades risk-adjusted performance.
type SharpeBand int

const (
	SharpeExcellent SharpeBand = iota
	SharpeGood
	SharpePoor
	SharpeVeryPoor
	SharpeUndefined
)

var sharpeBandNames = [...]string{"Excellent", "Good", "Poor", "VeryPoor", "Undefined"}

func (b SharpeBand) String() string {
	if b < SharpeExcellent || b > SharpeUndefined {
		return fmt.Sprintf("SharpeBand(%d)", int(b))
	}
	return sharpeBandNames[b]
}

func (b SharpeBand) MarshalText() ([]byte, error) { return []byte(b.String()), nil }
