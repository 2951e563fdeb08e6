package alert

import (
	"fmt"
	"sort"
	"strings"

	"RiskSentinel/internal/model"
)

// AssetResult is what the scanner needs to know about one asset.
type AssetResult struct {
	Volatility    model.VolatilityResult
	Performance   model.PerformanceResult
	Label         model.RiskLabel
	LastReturn24h float64
}

// FromAnalysis extracts the scanner input from a full analysis.
func FromAnalysis(a model.AssetAnalysis) AssetResult {
	return AssetResult{
		Volatility:    a.Volatility,
		Performance:   a.Performance,
		Label:         a.Label,
		LastReturn24h: a.LastReturn24h,
	}
}

// Rules are the alert triggers.
type Rules struct {
	PoorSharpe        float64 // PerformanceWarning below this Sharpe
	DropThreshold     float64 // PerformanceWarning below this 24h simple return
	CriticalSpikeMult float64 // VolatilitySpike is critical at or above this multiplier
}

func DefaultRules() Rules {
	return Rules{PoorSharpe: -0.5, DropThreshold: -0.10, CriticalSpikeMult: 3}
}

// Scan emits alerts grouped by kind and, within a kind, ordered by the
// caller's asset order. Symbols missing from order follow in lexical order,
// so the output never depends on map iteration or arrival order.
func Scan(order []string, results map[string]AssetResult, rules Rules) []model.Alert {
	symbols := orderSymbols(order, results)

	var highRisk, spikes, perf []model.Alert
	for _, sym := range symbols {
		r := results[sym]
		if a, ok := highRiskAlert(sym, r); ok {
			highRisk = append(highRisk, a)
		}
		if a, ok := spikeAlert(sym, r, rules); ok {
			spikes = append(spikes, a)
		}
		if a, ok := performanceAlert(sym, r, rules); ok {
			perf = append(perf, a)
		}
	}

	out := make([]model.Alert, 0, len(highRisk)+len(spikes)+len(perf))
	out = append(out, highRisk...)
	out = append(out, spikes...)
	return append(out, perf...)
}

func orderSymbols(order []string, results map[string]AssetResult) []string {
	seen := make(map[string]bool, len(results))
	symbols := make([]string, 0, len(results))
	for _, s := range order {
		if _, ok := results[s]; ok && !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}
	var rest []string
	for s := range results {
		if !seen[s] {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(symbols, rest...)
}

func highRiskAlert(sym string, r AssetResult) (model.Alert, bool) {
	if r.Label < model.RiskHigh {
		return model.Alert{}, false
	}
	return model.Alert{
		Kind:     model.AlertHighRisk,
		Symbol:   sym,
		Severity: r.Label.Severity(),
		Message: fmt.Sprintf("%s classified %s risk (annualized volatility %.1f%%)",
			sym, r.Label, r.Volatility.AnnualizedVolatility*100),
		Metrics: map[string]float64{
			"annualized_volatility": r.Volatility.AnnualizedVolatility,
			"daily_volatility":      r.Volatility.DailyVolatility,
		},
	}, true
}

func spikeAlert(sym string, r AssetResult, rules Rules) (model.Alert, bool) {
	if !r.Volatility.SpikeDetected {
		return model.Alert{}, false
	}
	current := r.Volatility.CurrentRolling().Or(0)
	m := map[string]float64{"current_rolling_volatility": current}
	sev := model.SeverityWarning
	msg := fmt.Sprintf("%s volatility spike: current rolling volatility %.2f%%", sym, current*100)
	if mult := r.Volatility.SpikeMultiplier; mult.Valid {
		m["spike_multiplier"] = mult.Value
		msg = fmt.Sprintf("%s volatility spike: current rolling volatility %.2f%% is %.1fx its recent average",
			sym, current*100, mult.Value)
		if mult.Value >= rules.CriticalSpikeMult {
			sev = model.SeverityCritical
		}
	}
	return model.Alert{
		Kind:     model.AlertVolatilitySpike,
		Symbol:   sym,
		Severity: sev,
		Message:  msg,
		Metrics:  m,
	}, true
}

func performanceAlert(sym string, r AssetResult, rules Rules) (model.Alert, bool) {
	var reasons []string
	m := map[string]float64{"return_24h": r.LastReturn24h}
	if s := r.Performance.SharpeRatio; s.Valid {
		m["sharpe_ratio"] = s.Value
		if s.Value < rules.PoorSharpe {
			reasons = append(reasons, fmt.Sprintf("poor risk-adjusted returns (Sharpe %.3f)", s.Value))
		}
	}
	if r.LastReturn24h < rules.DropThreshold {
		reasons = append(reasons, fmt.Sprintf("significant 24h decline (%+.1f%%)", r.LastReturn24h*100))
	}
	if len(reasons) == 0 {
		return model.Alert{}, false
	}
	return model.Alert{
		Kind:     model.AlertPerformanceWarning,
		Symbol:   sym,
		Severity: model.SeverityWarning,
		Message:  sym + ": " + strings.Join(reasons, ", "),
		Metrics:  m,
	}, true
}
