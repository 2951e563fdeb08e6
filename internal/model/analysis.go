package model

import (
	"time"

	"github.com/google/uuid"
)

// AssetAnalysis is everything computed for one asset in one run.
type AssetAnalysis struct {
	Symbol        string            `json:"symbol"`
	Source        string            `json:"source"`
	CurrentPrice  float64           `json:"current_price"`
	LastReturn24h float64           `json:"last_return_24h"`
	Series        PriceSeries       `json:"-"`
	Returns       ReturnSeries      `json:"-"`
	Volatility    VolatilityResult  `json:"volatility"`
	Performance   PerformanceResult `json:"performance"`
	Label         RiskLabel         `json:"risk_label"`
	SharpeBand    SharpeBand        `json:"sharpe_band"`
	BetaNote      string            `json:"beta_note,omitempty"`
	RiskFactors   []string          `json:"risk_factors,omitempty"`
	RiskScore     float64           `json:"risk_score"`
	Guidance      string            `json:"guidance,omitempty"`
}

// CorrelationMatrix holds pairwise return correlations. Cells[i][j] is
// undefined when the pair shares fewer than two timestamps.
type CorrelationMatrix struct {
	Symbols []string     `json:"symbols"`
	Cells   [][]Optional `json:"cells"`
}

// Get returns the correlation between two symbols.
func (m CorrelationMatrix) Get(a, b string) Optional {
	ia, ib := -1, -1
	for i, s := range m.Symbols {
		if s == a {
			ia = i
		}
		if s == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return None()
	}
	return m.Cells[ia][ib]
}

// Report is the output of one analysis run.
type Report struct {
	RunID       uuid.UUID         `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Benchmark   string            `json:"benchmark,omitempty"`
	HorizonDays int               `json:"horizon_days"`
	Profile     string            `json:"profile"`
	Assets      []AssetAnalysis   `json:"assets"`
	Failures    map[string]string `json:"failures,omitempty"`
	Correlation CorrelationMatrix `json:"correlation"`
	Alerts      []Alert           `json:"alerts"`
}

// Asset looks up an analysed asset by symbol.
func (r *Report) Asset(symbol string) (AssetAnalysis, bool) {
	for _, a := range r.Assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return AssetAnalysis{}, false
}
