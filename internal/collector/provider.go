package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"RiskSentinel/internal/cache"
	"RiskSentinel/internal/metrics"
	"RiskSentinel/internal/model"
)

// FetchOptions bounds how hard the provider tries each source.
type FetchOptions struct {
	Timeout     time.Duration // per request
	Retries     int           // attempts per source
	BackoffBase time.Duration // doubled after every failed attempt
	Concurrency int           // FetchAll worker limit
	CacheTTL    time.Duration // zero disables cache reads
}

func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout:     10 * time.Second,
		Retries:     3,
		BackoffBase: 500 * time.Millisecond,
		Concurrency: 4,
		CacheTTL:    5 * time.Minute,
	}
}

func (o FetchOptions) Validate() error {
	if o.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive: %w", model.ErrInvalidConfiguration)
	}
	if o.Retries < 1 {
		return fmt.Errorf("fetch retries must be at least 1: %w", model.ErrInvalidConfiguration)
	}
	if o.BackoffBase < 0 {
		return fmt.Errorf("fetch backoff must not be negative: %w", model.ErrInvalidConfiguration)
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("fetch concurrency must be at least 1: %w", model.ErrInvalidConfiguration)
	}
	return nil
}

// FetchOutcome records which source served a series. PrimaryErr is set when
// the secondary source recovered a primary failure.
type FetchOutcome struct {
	Series     model.PriceSeries
	Source     string
	PrimaryErr error
	Cached     bool
}

// FetchResult is one entry of a FetchAll call.
type FetchResult struct {
	FetchOutcome
	Err error
}

// SourceStatus is the reachability of one source.
type SourceStatus struct {
	Source    string `json:"source"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// Provider fetches daily price series from a primary source and falls back
// to a secondary source once the primary's retry budget is exhausted.
type Provider struct {
	primary   Fetcher
	secondary Fetcher
	store     cache.Store
	opts      FetchOptions
	group     singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProvider wires the two sources. store may be nil.
func NewProvider(primary, secondary Fetcher, opts FetchOptions, store cache.Store) *Provider {
	return &Provider{
		primary:   primary,
		secondary: secondary,
		store:     store,
		opts:      opts,
		flights:   make(map[string]*flight),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetch returns the daily price series for symbol over horizonDays.
func (p *Provider) Fetch(ctx context.Context, symbol string, horizonDays int) (model.PriceSeries, error) {
	out, err := p.FetchOutcome(ctx, symbol, horizonDays)
	if err != nil {
		return model.PriceSeries{}, err
	}
	return out.Series, nil
}

// FetchOutcome is Fetch with the serving source and any recovered primary
// failure exposed.
func (p *Provider) FetchOutcome(ctx context.Context, symbol string, horizonDays int) (FetchOutcome, error) {
	if horizonDays < 1 {
		return FetchOutcome{}, fmt.Errorf("horizon %d days must be at least 1: %w", horizonDays, model.ErrInvalidConfiguration)
	}
	symbol = NormalizeSymbol(symbol)
	key := cache.Key(symbol, horizonDays)

	if out, ok := p.fromCache(ctx, key); ok {
		return out, nil
	}

	fctx := p.join(ctx, key)
	defer p.leave(key)

	ch := p.group.DoChan(key, func() (interface{}, error) {
		out, err := p.fetchSources(fctx, symbol, horizonDays)
		if err == nil {
			p.toCache(fctx, key, out.Series)
		}
		return out, err
	})
	select {
	case <-ctx.Done():
		return FetchOutcome{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return FetchOutcome{}, res.Err
		}
		return res.Val.(FetchOutcome), nil
	}
}

// flight is the context shared by every caller waiting on one key. It is
// cancelled only when the last waiter leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (p *Provider) join(ctx context.Context, key string) context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.flights == nil {
		p.flights = make(map[string]*flight)
	}
	f, ok := p.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		p.flights[key] = f
	}
	f.waiters++
	return f.ctx
}

func (p *Provider) leave(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.flights[key]
	if !ok {
		return
	}
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	delete(p.flights, key)
	// later callers must not join a call running on the cancelled context
	p.group.Forget(key)
}

func (p *Provider) fromCache(ctx context.Context, key string) (FetchOutcome, bool) {
	if p.store == nil || p.opts.CacheTTL <= 0 {
		return FetchOutcome{}, false
	}
	entry, ok, err := p.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if !ok || !entry.Fresh(p.now(), p.opts.CacheTTL) {
		metrics.CacheMisses.Inc()
		return FetchOutcome{}, false
	}
	metrics.CacheHits.Inc()
	return FetchOutcome{Series: entry.Series, Source: entry.Series.Source, Cached: true}, true
}

func (p *Provider) toCache(ctx context.Context, key string, series model.PriceSeries) {
	if p.store == nil {
		return
	}
	if err := p.store.Put(ctx, key, series); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (p *Provider) fetchSources(ctx context.Context, symbol string, horizonDays int) (FetchOutcome, error) {
	series, primaryErr := p.attempt(ctx, p.primary, symbol, horizonDays)
	if primaryErr == nil {
		return FetchOutcome{Series: series, Source: p.primary.Name()}, nil
	}
	if ctx.Err() != nil {
		return FetchOutcome{}, ctx.Err()
	}
	log.Warn().Err(primaryErr).Str("symbol", symbol).Str("source", p.primary.Name()).
		Msg("primary source failed, trying secondary")

	series, secondaryErr := p.attempt(ctx, p.secondary, symbol, horizonDays)
	if secondaryErr == nil {
		metrics.FetchFallbackTotal.WithLabelValues(symbol).Inc()
		return FetchOutcome{Series: series, Source: p.secondary.Name(), PrimaryErr: primaryErr}, nil
	}
	if ctx.Err() != nil {
		return FetchOutcome{}, ctx.Err()
	}

	err := &model.DataUnavailableError{
		Symbol:    symbol,
		Primary:   model.SourceFailure{Source: p.primary.Name(), Err: primaryErr},
		Secondary: model.SourceFailure{Source: p.secondary.Name(), Err: secondaryErr},
	}
	log.Error().Err(err).Str("symbol", symbol).Msg("all sources failed")
	return FetchOutcome{}, err
}

// attempt runs one source with its retry budget.
func (p *Provider) attempt(ctx context.Context, f Fetcher, symbol string, horizonDays int) (model.PriceSeries, error) {
	var lastErr error
	for i := 0; i < p.opts.Retries; i++ {
		if i > 0 {
			if err := p.sleep(ctx, p.opts.BackoffBase<<(i-1)); err != nil {
				return model.PriceSeries{}, err
			}
		}

		series, err := p.once(ctx, f, symbol, horizonDays)
		if err == nil {
			return series, nil
		}
		lastErr = err
		if errors.Is(err, model.ErrUnsupportedSymbol) || ctx.Err() != nil {
			return model.PriceSeries{}, err
		}
		log.Debug().Err(err).Str("symbol", symbol).Str("source", f.Name()).
			Int("attempt", i+1).Int("of", p.opts.Retries).Msg("fetch attempt failed")
	}
	return model.PriceSeries{}, fmt.Errorf("after %d attempts: %w", p.opts.Retries, lastErr)
}

func (p *Provider) once(ctx context.Context, f Fetcher, symbol string, horizonDays int) (model.PriceSeries, error) {
	actx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := f.FetchDaily(actx, symbol, horizonDays)
	metrics.FetchDuration.WithLabelValues(f.Name()).Observe(time.Since(start).Seconds())

	var series model.PriceSeries
	if err == nil {
		series, err = normalize(symbol, f.Name(), raw, horizonDays)
	}
	if err != nil {
		metrics.FetchTotal.WithLabelValues(f.Name(), metrics.OutcomeError).Inc()
		return model.PriceSeries{}, err
	}
	metrics.FetchTotal.WithLabelValues(f.Name(), metrics.OutcomeSuccess).Inc()
	return series, nil
}

// FetchAll fetches every symbol on a bounded pool. Each symbol is an
// independent unit: a failed or hanging fetch never blocks the others.
func (p *Provider) FetchAll(ctx context.Context, symbols []string, horizonDays int) map[string]FetchResult {
	results := make(map[string]FetchResult, len(symbols))
	var mu sync.Mutex

	limit := p.opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		symbol := NormalizeSymbol(s)
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		g.Go(func() error {
			actx, cancel := context.WithCancel(ctx)
			defer cancel()
			out, err := p.FetchOutcome(actx, symbol, horizonDays)

			mu.Lock()
			results[symbol] = FetchResult{FetchOutcome: out, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Ping checks both sources.
func (p *Provider) Ping(ctx context.Context) []SourceStatus {
	fetchers := []Fetcher{p.primary, p.secondary}
	out := make([]SourceStatus, len(fetchers))

	var wg sync.WaitGroup
	for i, f := range fetchers {
		i, f := i, f
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			st := SourceStatus{Source: f.Name(), Reachable: true}
			if err := f.Ping(pctx); err != nil {
				st.Reachable = false
				st.Error = err.Error()
			}
			out[i] = st
		}()
	}
	wg.Wait()
	return out
}
