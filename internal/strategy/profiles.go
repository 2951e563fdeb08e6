package strategy

import (
	"fmt"
	"sort"
	"strings"

	"RiskSentinel/internal/model"
)

// VolatilityMetric selects which volatility figure a profile is compared to.
type VolatilityMetric int

const (
	MetricAnnualized VolatilityMetric = iota
	MetricDaily
)

// Profile is a named threshold set together with the volatility figure its
// bands are expressed in.
type Profile struct {
	Name       string
	Metric     VolatilityMetric
	Thresholds model.RiskThresholds
}

var defaultSharpe = model.SharpeBands{Excellent: 1.5, Good: 0.5, Poor: -0.5}

var (
	// ProfileAnnualized bands annualized volatility at 30/60/100%.
	ProfileAnnualized = Profile{
		Name:   "annualized",
		Metric: MetricAnnualized,
		Thresholds: model.RiskThresholds{
			Volatility: model.VolatilityBands{Low: 0.30, Medium: 0.60, High: 1.00},
			Sharpe:     defaultSharpe,
		},
	}

	// ProfileDailyPercent bands daily volatility at 2/4/8%.
	ProfileDailyPercent = Profile{
		Name:   "daily",
		Metric: MetricDaily,
		Thresholds: model.RiskThresholds{
			Volatility: model.VolatilityBands{Low: 0.02, Medium: 0.04, High: 0.08},
			Sharpe:     defaultSharpe,
		},
	}
)

var profiles = map[string]Profile{
	ProfileAnnualized.Name:   ProfileAnnualized,
	ProfileDailyPercent.Name: ProfileDailyPercent,
}

// LookupProfile finds a built-in profile by name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown risk profile %q (have %s): %w",
			name, strings.Join(ProfileNames(), ", "), model.ErrInvalidConfiguration)
	}
	return p, nil
}

func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WithThresholds returns a copy of the profile with custom thresholds.
func (p Profile) WithThresholds(t model.RiskThresholds) Profile {
	p.Thresholds = t
	return p
}

// Volatility picks the figure this profile classifies.
func (p Profile) Volatility(v model.VolatilityResult) float64 {
	if p.Metric == MetricDaily {
		return v.DailyVolatility
	}
	return v.AnnualizedVolatility
}

// Classify labels a volatility result and Sharpe ratio under this profile.
func (p Profile) Classify(v model.VolatilityResult, sharpe model.Optional) (model.RiskLabel, error) {
	return ClassifyOptional(p.Volatility(v), sharpe, p.Thresholds)
}
