package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/model"
)

func TestPrintReport(t *testing.T) {
	r := &model.Report{
		GeneratedAt: time.Date(2024, 6, 1, 0, 5, 0, 0, time.UTC),
		HorizonDays: 30,
		Profile:     "annualized",
		Assets: []model.AssetAnalysis{{
			Symbol:       "ETH",
			CurrentPrice: 3000,
			Performance:  model.PerformanceResult{SharpeRatio: model.Some(1.2), Beta: model.None()},
			Label:        model.RiskMedium,
			RiskFactors:  []string{"High volatility"},
			Guidance:     "Moderate position sizing",
		}},
		Failures: map[string]string{"SOL": "data unavailable", "DOGE": "timeout", "ADA": "data unavailable"},
		Alerts:   []model.Alert{{Kind: model.AlertVolatilitySpike, Severity: model.SeverityWarning, Symbol: "ETH", Message: "ETH volatility spike"}},
	}

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "benchmark none")
	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "1.20")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "High volatility")
	assert.Contains(t, out, "SOL unavailable")
	ada, doge, sol := strings.Index(out, "ADA unavailable"), strings.Index(out, "DOGE unavailable"), strings.Index(out, "SOL unavailable")
	require.GreaterOrEqual(t, ada, 0)
	assert.True(t, ada < doge && doge < sol, "failures are listed by symbol")
	assert.Contains(t, out, "ETH volatility spike")
}
