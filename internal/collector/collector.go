package collector

import (
	"context"
	"math"
	"sync"
	"time"

	"RiskSentinel/internal/model"
)

// MockFetcher serves fixed or generated data for offline runs and tests.
// Points keyed by symbol take precedence; otherwise a deterministic
// oscillating series around Prices[symbol] (or Price) is generated.
type MockFetcher struct {
	Source string
	Price  float64
	Prices map[string]float64
	Points map[string][]model.PricePoint
	Err    error
	// Hang blocks FetchDaily until the context is done.
	Hang bool

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string {
	if m.Source == "" {
		return "mock"
	}
	return m.Source
}

func (m *MockFetcher) FetchDaily(ctx context.Context, symbol string, horizonDays int) ([]model.PricePoint, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if m.Hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if _, err := LookupAsset(symbol); err != nil {
		return nil, err
	}
	if pts, ok := m.Points[symbol]; ok {
		return pts, nil
	}
	base, ok := m.Prices[symbol]
	if !ok {
		base = m.Price
	}
	return generateMockPoints(base, horizonDays+1, time.Now(), assetPhase(symbol)), nil
}

func (m *MockFetcher) Ping(context.Context) error { return m.Err }

// Calls reports how many times symbol was requested.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// offlinePrices are rough reference levels for generated series.
var offlinePrices = map[string]float64{
	"BTC":  60000,
	"ETH":  3000,
	"SOL":  150,
	"ADA":  0.45,
	"DOGE": 0.12,
}

// NewOfflineFetcher returns a network-free source named after source that
// generates plausible daily series for every supported symbol.
func NewOfflineFetcher(source string) *MockFetcher {
	return &MockFetcher{Source: source, Prices: offlinePrices}
}

// assetPhase shifts each symbol's oscillation so generated series are not
// perfectly correlated.
func assetPhase(symbol string) float64 {
	for i, a := range supportedAssets {
		if a.Symbol == symbol {
			return float64(i) * 1.3
		}
	}
	return 0
}

func generateMockPoints(basePrice float64, count int, end time.Time, phase float64) []model.PricePoint {
	if basePrice <= 0 {
		basePrice = 100
	}
	last := truncateDay(end)
	pts := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.03*math.Sin(float64(i)/3+phase) + float64(i-count/2)*0.001)
		pts[i] = model.PricePoint{
			Time:  last.AddDate(0, 0, i-count+1),
			Close: p,
		}
	}
	return pts
}
