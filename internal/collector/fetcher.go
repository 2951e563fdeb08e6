package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RiskSentinel/internal/model"
)

// Fetcher is one market-data source.
type Fetcher interface {
	Name() string
	// FetchDaily returns raw daily closes covering at least horizonDays of
	// history. Points may be unsorted or sub-daily; the provider normalizes.
	FetchDaily(ctx context.Context, symbol string, horizonDays int) ([]model.PricePoint, error)
	Ping(ctx context.Context) error
}

var (
	errEmptyPayload     = errors.New("empty payload")
	errMalformedPayload = errors.New("malformed payload")
)

// StatusError is a non-2xx response from a source.
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Source, e.Code)
	}
	return fmt.Sprintf("%s: status %d, body: %s", e.Source, e.Code, e.Body)
}

// Asset maps an internal symbol onto each source's identifier.
type Asset struct {
	Symbol      string
	BinancePair string
	CoinGeckoID string
}

var supportedAssets = []Asset{
	{Symbol: "BTC", BinancePair: "BTCUSDT", CoinGeckoID: "bitcoin"},
	{Symbol: "ETH", BinancePair: "ETHUSDT", CoinGeckoID: "ethereum"},
	{Symbol: "SOL", BinancePair: "SOLUSDT", CoinGeckoID: "solana"},
	{Symbol: "ADA", BinancePair: "ADAUSDT", CoinGeckoID: "cardano"},
	{Symbol: "DOGE", BinancePair: "DOGEUSDT", CoinGeckoID: "dogecoin"},
}

// LookupAsset resolves a symbol case-insensitively.
func LookupAsset(symbol string) (Asset, error) {
	s := NormalizeSymbol(symbol)
	for _, a := range supportedAssets {
		if a.Symbol == s {
			return a, nil
		}
	}
	return Asset{}, fmt.Errorf("%q: %w", symbol, model.ErrUnsupportedSymbol)
}

// SupportedSymbols lists the symbols in their canonical order.
func SupportedSymbols() []string {
	out := make([]string, len(supportedAssets))
	for i, a := range supportedAssets {
		out[i] = a.Symbol
	}
	return out
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// getBody performs a GET and returns the body of a 2xx response.
func getBody(ctx context.Context, client *http.Client, source, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "RiskSentinel/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", source, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Source: source, Code: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
