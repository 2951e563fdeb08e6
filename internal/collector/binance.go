package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"RiskSentinel/internal/model"
)

const (
	DefaultBinanceBaseURL = "https://api.binance.com"

	// binanceMaxLimit is the largest kline count a single request returns.
	binanceMaxLimit = 1000
)

// BinanceFetcher reads daily klines from the Binance public REST API.
type BinanceFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewBinanceFetcher(baseURL, proxyURL string, timeout time.Duration) *BinanceFetcher {
	if baseURL == "" {
		baseURL = DefaultBinanceBaseURL
	}
	return &BinanceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

func (f *BinanceFetcher) FetchDaily(ctx context.Context, symbol string, horizonDays int) ([]model.PricePoint, error) {
	asset, err := LookupAsset(symbol)
	if err != nil {
		return nil, err
	}
	limit := horizonDays + 1
	if limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}
	endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&limit=%d", f.BaseURL, asset.BinancePair, limit)
	body, err := getBody(ctx, f.Client, f.Name(), endpoint)
	if err != nil {
		return nil, err
	}
	bars, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("binance %s: %w", asset.BinancePair, err)
	}
	points := make([]model.PricePoint, len(bars))
	for i, b := range bars {
		points[i] = model.PricePoint{Time: b.Time, Close: b.Close}
	}
	return points, nil
}

func (f *BinanceFetcher) Ping(ctx context.Context) error {
	_, err := getBody(ctx, f.Client, f.Name(), f.BaseURL+"/api/v3/ping")
	return err
}

// parseKlines decodes the kline payload: an array of heterogeneous arrays
// [openTime, open, high, low, close, volume, closeTime, ...] where prices
// and volume are decimal strings.
func parseKlines(body []byte) ([]model.OHLCV, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid json: %w", errMalformedPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected array, got %s: %w", root.Type, errMalformedPayload)
	}
	rows := root.Array()
	if len(rows) == 0 {
		return nil, errEmptyPayload
	}

	bars := make([]model.OHLCV, 0, len(rows))
	for i, row := range rows {
		fields := row.Array()
		if !row.IsArray() || len(fields) < 6 {
			return nil, fmt.Errorf("kline %d has %d fields: %w", i, len(fields), errMalformedPayload)
		}
		if fields[0].Type != gjson.Number {
			return nil, fmt.Errorf("kline %d open time %q: %w", i, fields[0].Raw, errMalformedPayload)
		}
		var vals [5]float64
		for j := 1; j <= 5; j++ {
			d, err := decimal.NewFromString(fields[j].String())
			if err != nil {
				return nil, fmt.Errorf("kline %d field %d %q: %w", i, j, fields[j].String(), errMalformedPayload)
			}
			vals[j-1] = d.InexactFloat64()
		}
		bars = append(bars, model.OHLCV{
			Time:   time.UnixMilli(fields[0].Int()).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}
