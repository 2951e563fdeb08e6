package calculator

import (
	"fmt"
	"math"

	"RiskSentinel/internal/model"
)

const (
	// DaysPerYear annualizes daily figures; crypto trades every day.
	DaysPerYear = 365

	DefaultWindow = 14

	// spike baseline: rolling values from 30 to 7 observations back.
	spikeLookback  = 30
	spikeRecent    = 7
	spikeThreshold = 2.0
)

var annualizationFactor = math.Sqrt(DaysPerYear)

// VolatilityOptions configures ComputeVolatility.
type VolatilityOptions struct {
	Window    int
	Annualize bool
}

func DefaultVolatilityOptions() VolatilityOptions {
	return VolatilityOptions{Window: DefaultWindow, Annualize: true}
}

// ComputeVolatility measures log-return volatility over the whole series and
// over a trailing window, and flags a spike when the latest rolling value is
// more than twice its recent baseline.
func ComputeVolatility(returns model.ReturnSeries, opts VolatilityOptions) (model.VolatilityResult, error) {
	if opts.Window < 2 {
		return model.VolatilityResult{}, fmt.Errorf("rolling window %d must be at least 2: %w",
			opts.Window, model.ErrInvalidConfiguration)
	}
	if returns.Len() < opts.Window {
		return model.VolatilityResult{}, fmt.Errorf("%s: %d returns, window needs %d: %w",
			returns.Symbol, returns.Len(), opts.Window, model.ErrInsufficientData)
	}

	logs := returns.Log()
	daily := sampleStd(logs)
	annual := daily
	if opts.Annualize {
		annual = daily * annualizationFactor
	}

	rolling := RollingStd(logs, opts.Window)
	res := model.VolatilityResult{
		DailyVolatility:      daily,
		AnnualizedVolatility: annual,
		RollingVolatility:    rolling,
		Window:               opts.Window,
	}
	res.SpikeDetected, res.SpikeMultiplier = detectSpike(rolling)
	return res, nil
}

// RollingStd returns the sample standard deviation over each trailing window.
// The first value covers xs[0:window], so the result has len(xs)-window+1
// values, or none when xs is shorter than window.
func RollingStd(xs []float64, window int) []float64 {
	if window < 1 || len(xs) < window {
		return nil
	}
	out := make([]float64, 0, len(xs)-window+1)
	for end := window; end <= len(xs); end++ {
		out = append(out, sampleStd(xs[end-window:end]))
	}
	return out
}

func detectSpike(rolling []float64) (bool, model.Optional) {
	m := len(rolling)
	if m == 0 {
		return false, model.None()
	}
	current := rolling[m-1]

	start := m - spikeLookback
	if start < 0 {
		start = 0
	}
	end := m - spikeRecent
	if end > m-1 {
		end = m - 1
	}
	if end < start {
		return false, model.None()
	}
	baseline := mean(rolling[start : end+1])

	if baseline <= 0 {
		return false, model.None()
	}
	return current > spikeThreshold*baseline, model.Some(current / baseline)
}
