package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"RiskSentinel/internal/alert"
	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/metrics"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/strategy"
)

// PriceSource fetches several symbols at once.
type PriceSource interface {
	FetchAll(ctx context.Context, symbols []string, horizonDays int) map[string]collector.FetchResult
}

// Config carries every tunable of the pipeline.
type Config struct {
	Profile     strategy.Profile
	Volatility  calculator.VolatilityOptions
	Performance calculator.PerformanceOptions
	Rules       alert.Rules
}

func DefaultConfig() Config {
	return Config{
		Profile:     strategy.ProfileAnnualized,
		Volatility:  calculator.DefaultVolatilityOptions(),
		Performance: calculator.DefaultPerformanceOptions(),
		Rules:       alert.DefaultRules(),
	}
}

// Request selects what one run analyses.
type Request struct {
	Symbols     []string
	Benchmark   string
	HorizonDays int
}

// Analyzer runs the full pipeline for a set of assets.
type Analyzer struct {
	source PriceSource
	cfg    Config
	now    func() time.Time
}

func New(source PriceSource, cfg Config) *Analyzer {
	return &Analyzer{source: source, cfg: cfg, now: time.Now}
}

// Config returns the pipeline configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Run fetches, measures, classifies and scans every requested asset. Assets
// that fail are listed in Report.Failures; the run itself fails only when
// the benchmark is unusable or no asset could be analysed.
func (a *Analyzer) Run(ctx context.Context, req Request) (*model.Report, error) {
	start := a.now()
	symbols, benchmark, err := a.validate(req)
	if err != nil {
		return nil, err
	}

	want := symbols
	if benchmark != "" && !contains(symbols, benchmark) {
		want = append(append([]string(nil), symbols...), benchmark)
	}
	fetched := a.source.FetchAll(ctx, want, req.HorizonDays)
	for sym, res := range fetched {
		if res.Err == nil && res.PrimaryErr != nil {
			log.Warn().Str("symbol", sym).Str("source", res.Source).Err(res.PrimaryErr).
				Msg("served by fallback source")
		}
	}

	var benchReturns *model.ReturnSeries
	if benchmark != "" {
		r, err := benchmarkReturns(fetched[benchmark], benchmark)
		if err != nil {
			return nil, err
		}
		benchReturns = &r
	}

	report := &model.Report{
		RunID:       uuid.New(),
		GeneratedAt: start.UTC(),
		Benchmark:   benchmark,
		HorizonDays: req.HorizonDays,
		Profile:     a.cfg.Profile.Name,
		Failures:    make(map[string]string),
	}

	var (
		errs    []error
		returns []model.ReturnSeries
		results = make(map[string]alert.AssetResult, len(symbols))
	)
	for _, sym := range symbols {
		res, ok := fetched[sym]
		if !ok {
			res.Err = fmt.Errorf("%s: no fetch result: %w", sym, model.ErrDataUnavailable)
		}
		if res.Err != nil {
			report.Failures[sym] = res.Err.Error()
			errs = append(errs, res.Err)
			log.Error().Err(res.Err).Str("symbol", sym).Msg("fetch failed")
			continue
		}

		asset, err := a.analyze(res.Series, benchReturns)
		if err != nil {
			report.Failures[sym] = err.Error()
			errs = append(errs, err)
			log.Error().Err(err).Str("symbol", sym).Msg("analysis failed")
			continue
		}
		asset.Source = res.Source
		report.Assets = append(report.Assets, asset)
		returns = append(returns, asset.Returns)
		results[sym] = alert.FromAnalysis(asset)
	}

	if len(report.Assets) == 0 {
		return nil, fmt.Errorf("no asset could be analysed: %w", errors.Join(errs...))
	}

	report.Correlation = calculator.Correlation(returns...)
	report.Alerts = alert.Scan(symbols, results, a.cfg.Rules)
	for _, al := range report.Alerts {
		metrics.AlertsTotal.WithLabelValues(al.Kind.String()).Inc()
	}

	elapsed := a.now().Sub(start)
	metrics.AnalysisDuration.Observe(elapsed.Seconds())
	log.Info().
		Str("run_id", report.RunID.String()).
		Int("assets", len(report.Assets)).
		Int("failures", len(report.Failures)).
		Int("alerts", len(report.Alerts)).
		Dur("elapsed", elapsed).
		Msg("analysis complete")
	return report, nil
}

func (a *Analyzer) validate(req Request) ([]string, string, error) {
	if req.HorizonDays < 1 {
		return nil, "", fmt.Errorf("horizon %d days must be at least 1: %w", req.HorizonDays, model.ErrInvalidConfiguration)
	}
	if err := a.cfg.Profile.Thresholds.Validate(); err != nil {
		return nil, "", err
	}
	var symbols []string
	for _, s := range req.Symbols {
		s = collector.NormalizeSymbol(s)
		if s != "" && !contains(symbols, s) {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		return nil, "", fmt.Errorf("no symbols requested: %w", model.ErrInvalidConfiguration)
	}
	return symbols, collector.NormalizeSymbol(req.Benchmark), nil
}

func benchmarkReturns(res collector.FetchResult, benchmark string) (model.ReturnSeries, error) {
	if res.Err != nil {
		return model.ReturnSeries{}, fmt.Errorf("benchmark %s: %w", benchmark, res.Err)
	}
	if res.Series.Len() == 0 {
		return model.ReturnSeries{}, fmt.Errorf("benchmark %s: no data: %w", benchmark, model.ErrDataUnavailable)
	}
	r, err := calculator.ComputeReturns(res.Series)
	if err != nil {
		return model.ReturnSeries{}, fmt.Errorf("benchmark %s: %w", benchmark, err)
	}
	return r, nil
}

// analyze runs the computation stages for one asset.
func (a *Analyzer) analyze(series model.PriceSeries, bench *model.ReturnSeries) (model.AssetAnalysis, error) {
	if err := series.Validate(); err != nil {
		return model.AssetAnalysis{}, err
	}
	returns, err := calculator.ComputeReturns(series)
	if err != nil {
		return model.AssetAnalysis{}, err
	}
	vol, err := calculator.ComputeVolatility(returns, a.cfg.Volatility)
	if err != nil {
		return model.AssetAnalysis{}, err
	}
	perf, err := calculator.ComputePerformance(series, returns, bench, a.cfg.Performance)
	if err != nil {
		return model.AssetAnalysis{}, err
	}

	asset := model.AssetAnalysis{
		Symbol:        series.Symbol,
		CurrentPrice:  series.Last().Close,
		LastReturn24h: returns.Points[returns.Len()-1].Simple,
		Series:        series,
		Returns:       returns,
		Volatility:    vol,
		Performance:   perf,
	}
	if err := strategy.Assess(&asset, a.cfg.Profile); err != nil {
		return model.AssetAnalysis{}, err
	}
	return asset, nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
