package strategy

import (
	"RiskSentinel/internal/model"
)

// Override offsets relative to the Sharpe thresholds. With the default
// thresholds these trigger below -2 and above 2.
const (
	veryPoorSharpeOffset  = 1.5
	exceptionalSharpeGain = 0.5
)

// baseLabel maps a volatility figure onto the threshold bands. Each bound
// is inclusive on its own band.
func baseLabel(volatility float64, v model.VolatilityBands) model.RiskLabel {
	switch {
	case volatility <= v.Low:
		return model.RiskLow
	case volatility <= v.Medium:
		return model.RiskMedium
	case volatility <= v.High:
		return model.RiskHigh
	default:
		return model.RiskVeryHigh
	}
}

// Classify labels an asset from its volatility and Sharpe ratio. A very poor
// Sharpe forces VeryHigh; an exceptional Sharpe lowers Medium to Low.
func Classify(volatility, sharpe float64, t model.RiskThresholds) (model.RiskLabel, error) {
	return ClassifyOptional(volatility, model.Some(sharpe), t)
}

// ClassifyOptional is Classify for a Sharpe ratio that may be undefined, in
// which case neither override applies.
func ClassifyOptional(volatility float64, sharpe model.Optional, t model.RiskThresholds) (model.RiskLabel, error) {
	if err := t.Validate(); err != nil {
		return model.RiskLow, err
	}
	base := baseLabel(volatility, t.Volatility)
	if !sharpe.Valid {
		return base, nil
	}

	if sharpe.Value < t.Sharpe.Poor-veryPoorSharpeOffset {
		return model.RiskVeryHigh, nil
	}
	if sharpe.Value > t.Sharpe.Excellent+exceptionalSharpeGain && base == model.RiskMedium {
		return model.RiskLow, nil
	}
	return base, nil
}

// SharpeBandFor grades a Sharpe ratio against the thresholds.
func SharpeBandFor(sharpe model.Optional, t model.SharpeBands) model.SharpeBand {
	if !sharpe.Valid {
		return model.SharpeUndefined
	}
	switch {
	case sharpe.Value >= t.Excellent:
		return model.SharpeExcellent
	case sharpe.Value >= t.Good:
		return model.SharpeGood
	case sharpe.Value >= t.Poor:
		return model.SharpePoor
	default:
		return model.SharpeVeryPoor
	}
}
