package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"RiskSentinel/internal/model"
)

const DefaultCoinGeckoBaseURL = "https://api.coingecko.com"

// CoinGeckoFetcher reads daily prices from the CoinGecko market chart API.
type CoinGeckoFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewCoinGeckoFetcher(baseURL, proxyURL string, timeout time.Duration) *CoinGeckoFetcher {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	return &CoinGeckoFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

// FetchDaily requests the same calendar range as the kline source: a day
// count of horizonDays yields horizonDays+1 daily points.
func (f *CoinGeckoFetcher) FetchDaily(ctx context.Context, symbol string, horizonDays int) ([]model.PricePoint, error) {
	asset, err := LookupAsset(symbol)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/api/v3/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		f.BaseURL, asset.CoinGeckoID, horizonDays)
	body, err := getBody(ctx, f.Client, f.Name(), endpoint)
	if err != nil {
		return nil, err
	}

	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("coingecko decode: %v: %w", err, errMalformedPayload)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("coingecko %s: %w", asset.CoinGeckoID, errEmptyPayload)
	}

	points := make([]model.PricePoint, 0, len(chart.Prices))
	for i, pair := range chart.Prices {
		if len(pair) != 2 {
			return nil, fmt.Errorf("coingecko price %d has %d fields: %w", i, len(pair), errMalformedPayload)
		}
		// A 00:00 UTC snapshot is the close of the previous day; stepping back
		// one millisecond stamps it like a kline's close.
		points = append(points, model.PricePoint{
			Time:  time.UnixMilli(int64(pair[0]) - 1).UTC(),
			Close: pair[1],
		})
	}
	return points, nil
}

func (f *CoinGeckoFetcher) Ping(ctx context.Context) error {
	_, err := getBody(ctx, f.Client, f.Name(), f.BaseURL+"/api/v3/ping")
	return err
}
