package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/cache"
	"RiskSentinel/internal/model"
)

// funcFetcher adapts a function to Fetcher.
type funcFetcher struct {
	name  string
	fn    func(ctx context.Context, symbol string, horizon int) ([]model.PricePoint, error)
	calls atomic.Int32
}

func (f *funcFetcher) Name() string { return f.name }
func (f *funcFetcher) Ping(context.Context) error { return nil }
func (f *funcFetcher) FetchDaily(ctx context.Context, symbol string, horizon int) ([]model.PricePoint, error) {
	f.calls.Add(1)
	return f.fn(ctx, symbol, horizon)
}

func dailyPoints(n int, start float64) []model.PricePoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]model.PricePoint, n)
	for i := range pts {
		pts[i] = model.PricePoint{Time: base.AddDate(0, 0, i), Close: start + float64(i)}
	}
	return pts
}

func testOptions() FetchOptions {
	o := DefaultFetchOptions()
	o.Timeout = 200 * time.Millisecond
	o.BackoffBase = 0
	o.CacheTTL = 0
	return o
}

func newTestProvider(primary, secondary Fetcher, store cache.Store) *Provider {
	p := NewProvider(primary, secondary, testOptions(), store)
	p.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

func coingeckoServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(`{"prices":[`)
	for i, p := range dailyPoints(n, 40000) {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "[%d,%g]", p.Time.UnixMilli(), p.Close)
	}
	sb.WriteString(`]}`)
	body := sb.String()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
}

func TestProvider_PrimaryFailsSecondaryServes(t *testing.T) {
	var primaryHits atomic.Int32
	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		primaryHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primarySrv.Close()
	secondarySrv := coingeckoServer(t, 91)
	defer secondarySrv.Close()

	p := newTestProvider(
		NewBinanceFetcher(primarySrv.URL, "", time.Second),
		NewCoinGeckoFetcher(secondarySrv.URL, "", time.Second),
		nil,
	)

	out, err := p.FetchOutcome(context.Background(), "BTC", 90)
	require.NoError(t, err)
	assert.Equal(t, "coingecko", out.Source)
	assert.Equal(t, 91, out.Series.Len())
	assert.Equal(t, "BTC", out.Series.Symbol)
	require.NoError(t, out.Series.Validate())

	// every primary retry happens before the fallback, and the recovered
	// failure stays visible
	assert.Equal(t, int32(3), primaryHits.Load())
	var se *StatusError
	require.True(t, errors.As(out.PrimaryErr, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)

	expected := dailyPoints(91, 40000)
	assert.Equal(t, expected[0].Close, out.Series.Points[0].Close)
	assert.Equal(t, expected[90].Close, out.Series.Last().Close)
}

func TestProvider_PrimarySuccessSkipsSecondary(t *testing.T) {
	primary := &funcFetcher{name: "binance", fn: func(context.Context, string, int) ([]model.PricePoint, error) {
		return dailyPoints(11, 100), nil
	}}
	secondary := &funcFetcher{name: "coingecko", fn: func(context.Context, string, int) ([]model.PricePoint, error) {
		t.Error("secondary must not be called")
		return nil, errors.New("unexpected call")
	}}

	series, err := newTestProvider(primary, secondary, nil).Fetch(context.Background(), "btc", 10)
	require.NoError(t, err)
	assert.Equal(t, "binance", series.Source)
	assert.Equal(t, 11, series.Len())
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestProvider_RetryRecoversWithinPrimary(t *testing.T) {
	primary := &funcFetcher{name: "binance"}
	primary.fn = func(context.Context, string, int) ([]model.PricePoint, error) {
		if primary.calls.Load() < 3 {
			return nil, errors.New("connection reset")
		}
		return dailyPoints(5, 10), nil
	}
	secondary := &funcFetcher{name: "coingecko", fn: func(context.Context, string, int) ([]model.PricePoint, error) {
		return nil, errors.New("unused")
	}}

	out, err := newTestProvider(primary, secondary, nil).FetchOutcome(context.Background(), "ETH", 4)
	require.NoError(t, err)
	assert.Equal(t, "binance", out.Source)
	assert.NoError(t, out.PrimaryErr)
	assert.Equal(t, int32(3), primary.calls.Load())
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestProvider_UnknownSymbolNamesBothSources(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { hits.Add(1) }))
	defer srv.Close()

	p := newTestProvider(
		NewBinanceFetcher(srv.URL, "", time.Second),
		NewCoinGeckoFetcher(srv.URL, "", time.Second),
		nil,
	)
	series, err := p.Fetch(context.Background(), "XYZ", 30)
	require.Error(t, err)
	assert.Zero(t, series.Len())
	assert.Zero(t, hits.Load())

	assert.ErrorIs(t, err, model.ErrDataUnavailable)
	assert.ErrorIs(t, err, model.ErrUnsupportedSymbol)
	var due *model.DataUnavailableError
	require.True(t, errors.As(err, &due))
	assert.Equal(t, "binance", due.Primary.Source)
	assert.Equal(t, "coingecko", due.Secondary.Source)
	assert.Contains(t, err.Error(), "binance")
	assert.Contains(t, err.Error(), "coingecko")
}

func TestProvider_BothSourcesFail(t *testing.T) {
	primary := &funcFetcher{name: "binance", fn: func(context.Context, string, int) ([]model.PricePoint, error) {
		return nil, errors.New("dial tcp: timeout")
	}}
	secondary := &funcFetcher{name: "coingecko", fn: func(context.Context, string, int) ([]model.PricePoint, error) {
		return []model.PricePoint{}, nil
	}}

	_, err := newTestProvider(primary, secondary, nil).Fetch(context.Background(), "SOL", 30)
	var due *model.DataUnavailableError
	require.True(t, errors.As(err, &due))
	assert.Contains(t, due.Primary.Err.Error(), "dial tcp")
	assert.ErrorIs(t, due.Secondary.Err, errEmptyPayload)
	assert.Equal(t, int32(3), primary.calls.Load())
	assert.Equal(t, int32(3), secondary.calls.Load())
}

func TestProvider_InvalidHorizon(t *testing.T) {
	p := newTestProvider(&MockFetcher{}, &MockFetcher{}, nil)
	_, err := p.Fetch(context.Background(), "BTC", 0)
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestProvider_CacheHitAvoidsNetwork(t *testing.T) {
	primary := &MockFetcher{Source: "binance", Price: 100}
	store := cache.NewMemoryStore()
	p := newTestProvider(primary, &MockFetcher{Source: "coingecko"}, store)
	p.opts.CacheTTL = time.Minute

	first, err := p.FetchOutcome(context.Background(), "ADA", 20)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := p.FetchOutcome(context.Background(), "ADA", 20)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "binance", second.Source)
	assert.Equal(t, first.Series.Closes(), second.Series.Closes())
	assert.Equal(t, 1, primary.Calls("ADA"))

	// expired entries go back to the network
	p.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = p.FetchOutcome(context.Background(), "ADA", 20)
	require.NoError(t, err)
	assert.Equal(t, 2, primary.Calls("ADA"))
}

func TestProvider_CancelledDuringBackoff(t *testing.T) {
	primary := &funcFetcher{name: "binance", fn: func(context.Context, string, int) ([]model.PricePoint, error) {
		return nil, errors.New("503")
	}}
	p := NewProvider(primary, &MockFetcher{}, testOptions(), nil)
	p.opts.BackoffBase = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := p.Fetch(ctx, "BTC", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), primary.calls.Load())
}

func TestProvider_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	release := make(chan struct{})
	primary := &funcFetcher{name: "binance", fn: func(ctx context.Context, _ string, _ int) ([]model.PricePoint, error) {
		select {
		case <-release:
			return dailyPoints(6, 100), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	p := newTestProvider(primary, &MockFetcher{Err: errors.New("down")}, nil)
	p.opts.Timeout = 5 * time.Second

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := p.Fetch(ctxA, "BTC", 5)
		errA <- err
	}()
	require.Eventually(t, func() bool { return primary.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		series model.PriceSeries
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		s, err := p.Fetch(context.Background(), "BTC", 5)
		resB <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, 6, b.series.Len())
	assert.Equal(t, int32(1), primary.calls.Load())
}

func TestProvider_SharedFetchStopsWhenAllCallersLeave(t *testing.T) {
	stopped := make(chan struct{})
	primary := &funcFetcher{name: "binance", fn: func(ctx context.Context, _ string, _ int) ([]model.PricePoint, error) {
		<-ctx.Done()
		close(stopped)
		return nil, ctx.Err()
	}}
	p := newTestProvider(primary, &MockFetcher{}, nil)
	p.opts.Timeout = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for primary.calls.Load() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()
	_, err := p.Fetch(ctx, "ETH", 5)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("shared fetch kept running after its only caller left")
	}
}

func TestProvider_FetchAllIsolatesHangingAsset(t *testing.T) {
	hang := func(ctx context.Context, symbol string, _ int) ([]model.PricePoint, error) {
		if symbol == "DOGE" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return dailyPoints(15, 50), nil
	}
	primary := &funcFetcher{name: "binance", fn: hang}
	secondary := &funcFetcher{name: "coingecko", fn: hang}

	p := newTestProvider(primary, secondary, nil)
	p.opts.Retries = 1
	p.opts.Timeout = 50 * time.Millisecond

	start := time.Now()
	res := p.FetchAll(context.Background(), []string{"BTC", "eth", "DOGE", "BTC"}, 14)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, res, 3)
	for _, s := range []string{"BTC", "ETH"} {
		require.NoError(t, res[s].Err, s)
		assert.Equal(t, 15, res[s].Series.Len())
	}
	assert.ErrorIs(t, res["DOGE"].Err, model.ErrDataUnavailable)
	assert.ErrorIs(t, res["DOGE"].Err, context.DeadlineExceeded)
}

func TestProvider_OfflineSourcesServeEverySymbol(t *testing.T) {
	p := newTestProvider(NewOfflineFetcher("offline"), NewOfflineFetcher("offline-fallback"), nil)
	res := p.FetchAll(context.Background(), SupportedSymbols(), 30)
	require.Len(t, res, len(SupportedSymbols()))
	for sym, r := range res {
		require.NoError(t, r.Err, sym)
		assert.Equal(t, 31, r.Series.Len(), sym)
		assert.Equal(t, "offline", r.Source, sym)
		require.NoError(t, r.Series.Validate(), sym)
	}
	assert.Greater(t, res["BTC"].Series.Last().Close, res["ETH"].Series.Last().Close)
	assert.NotEqual(t, res["SOL"].Series.Closes()[1]/res["SOL"].Series.Closes()[0],
		res["ADA"].Series.Closes()[1]/res["ADA"].Series.Closes()[0])

	_, err := p.Fetch(context.Background(), "XYZ", 30)
	assert.ErrorIs(t, err, model.ErrUnsupportedSymbol)
}

func TestProvider_Ping(t *testing.T) {
	p := newTestProvider(&MockFetcher{Source: "binance"}, &MockFetcher{Source: "coingecko", Err: errors.New("down")}, nil)
	st := p.Ping(context.Background())
	require.Len(t, st, 2)
	assert.True(t, st[0].Reachable)
	assert.False(t, st[1].Reachable)
	assert.Equal(t, "down", st[1].Error)
}

func TestFetchOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultFetchOptions().Validate())
	o := DefaultFetchOptions()
	o.Retries = 0
	assert.ErrorIs(t, o.Validate(), model.ErrInvalidConfiguration)
}
