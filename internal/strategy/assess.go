package strategy

import (
	"math"

	"RiskSentinel/internal/model"
)

// Risk factor limits.
const (
	highVolatilityLimit = 0.8
	poorSharpeLimit     = -1.0
	highBetaLimit       = 1.5
	recentDeclineLimit  = -0.10
	lowBetaBound        = 0.8
	similarBetaBound    = 1.2
)

const NoSignificantFactors = "No significant risk factors"

// InterpretBeta describes market sensitivity in words.
func InterpretBeta(beta model.Optional) string {
	switch {
	case !beta.Valid:
		return ""
	case beta.Value < lowBetaBound:
		return "Less volatile than market"
	case beta.Value <= similarBetaBound:
		return "Similar volatility to market"
	default:
		return "More volatile than market"
	}
}

// RiskFactors lists the conditions that make an asset risky.
func RiskFactors(a model.AssetAnalysis) []string {
	var factors []string
	if a.Volatility.AnnualizedVolatility > highVolatilityLimit {
		factors = append(factors, "High volatility")
	}
	if s := a.Performance.SharpeRatio; s.Valid && s.Value < poorSharpeLimit {
		factors = append(factors, "Poor risk-adjusted returns")
	}
	if b := a.Performance.Beta; b.Valid && b.Value > highBetaLimit {
		factors = append(factors, "High market sensitivity")
	}
	if a.LastReturn24h < recentDeclineLimit {
		factors = append(factors, "Recent significant decline")
	}
	if len(factors) == 0 {
		factors = append(factors, NoSignificantFactors)
	}
	return factors
}

// RiskScore condenses an analysis into 0..100: volatility up to 40 points,
// negative Sharpe up to 30, beta distance from 1 up to 20 and a 24h drop up
// to 10.
func RiskScore(a model.AssetAnalysis) float64 {
	score := math.Min(a.Volatility.AnnualizedVolatility*100, 40)
	if s := a.Performance.SharpeRatio; s.Valid {
		score += math.Min(math.Max(0, -s.Value*10), 30)
	}
	if b := a.Performance.Beta; b.Valid {
		score += math.Min(math.Abs(b.Value-1)*20, 20)
	}
	score += math.Min(math.Max(0, -a.LastReturn24h*100)*2, 10)
	return math.Min(score, 100)
}

// Guidance is the portfolio suitability line for a label.
func Guidance(l model.RiskLabel) string {
	switch l {
	case model.RiskLow:
		return "Suitable for conservative portfolios"
	case model.RiskMedium:
		return "Suitable for balanced portfolios"
	case model.RiskHigh:
		return "Suitable for aggressive portfolios with proper risk management"
	default:
		return "Highly speculative - only for experienced traders"
	}
}

// Assess fills the classification fields of an analysed asset.
func Assess(a *model.AssetAnalysis, p Profile) error {
	label, err := p.Classify(a.Volatility, a.Performance.SharpeRatio)
	if err != nil {
		return err
	}
	a.Label = label
	a.SharpeBand = SharpeBandFor(a.Performance.SharpeRatio, p.Thresholds.Sharpe)
	a.BetaNote = InterpretBeta(a.Performance.Beta)
	a.RiskFactors = RiskFactors(*a)
	a.RiskScore = RiskScore(*a)
	a.Guidance = Guidance(label)
	return nil
}
