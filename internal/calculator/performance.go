package calculator

import (
	"fmt"
	"math"

	"RiskSentinel/internal/model"
)

const DefaultRiskFreeRate = 0.02

// PerformanceOptions configures ComputePerformance.
type PerformanceOptions struct {
	RiskFreeRate float64
	// Annualize scales return by 365 and volatility by sqrt(365). When unset
	// the Sharpe ratio is computed on daily figures with a daily risk-free rate.
	Annualize bool
}

func DefaultPerformanceOptions() PerformanceOptions {
	return PerformanceOptions{RiskFreeRate: DefaultRiskFreeRate, Annualize: true}
}

// ComputePerformance derives risk-adjusted performance. Log returns feed
// volatility and simple returns feed return magnitude, beta, VaR and the
// distribution shape. benchmark is optional; when given it must share at
// least two timestamps with returns.
func ComputePerformance(prices model.PriceSeries, returns model.ReturnSeries, benchmark *model.ReturnSeries, opts PerformanceOptions) (model.PerformanceResult, error) {
	if returns.Len() < 1 {
		return model.PerformanceResult{}, fmt.Errorf("%s: no returns: %w", returns.Symbol, model.ErrInsufficientData)
	}
	drawdown, err := MaxDrawdown(prices.Closes())
	if err != nil {
		return model.PerformanceResult{}, fmt.Errorf("%s: %w", prices.Symbol, err)
	}

	simple := returns.Simple()
	meanReturn := mean(simple)
	vol := sampleStd(returns.Log())
	rf := opts.RiskFreeRate
	ret := meanReturn
	if opts.Annualize {
		ret = meanReturn * DaysPerYear
		vol *= annualizationFactor
	} else {
		rf /= DaysPerYear
	}

	res := model.PerformanceResult{
		AnnualizedReturn: ret,
		MaxDrawdown:      drawdown,
		VaR95:            percentile(simple, 0.05),
		Skewness:         skewness(simple),
		Kurtosis:         excessKurtosis(simple),
	}
	if vol > 0 && !math.IsInf(vol, 0) {
		res.SharpeRatio = model.Some((ret - rf) / vol)
	}

	if benchmark != nil {
		beta, err := Beta(returns, *benchmark)
		if err != nil {
			return model.PerformanceResult{}, err
		}
		res.Beta = beta
	}
	return res, nil
}

// Beta is cov(asset, benchmark) / var(benchmark) over the timestamps both
// series share. Zero benchmark variance yields an undefined beta.
func Beta(asset, benchmark model.ReturnSeries) (model.Optional, error) {
	a, b := alignSimple(asset, benchmark)
	if len(a) < 2 {
		return model.None(), fmt.Errorf("%s vs %s: %d common timestamps: %w: %w",
			asset.Symbol, benchmark.Symbol, len(a), model.ErrAlignmentFailure, model.ErrInsufficientData)
	}
	v := sampleCov(b, b)
	if v == 0 {
		return model.None(), nil
	}
	return model.Some(sampleCov(a, b) / v), nil
}

// alignSimple inner-joins two return series on timestamp and returns the
// paired simple returns in the order of x.
func alignSimple(x, y model.ReturnSeries) ([]float64, []float64) {
	byTime := make(map[int64]float64, y.Len())
	for _, p := range y.Points {
		byTime[p.Time.UnixNano()] = p.Simple
	}
	xs := make([]float64, 0, x.Len())
	ys := make([]float64, 0, x.Len())
	for _, p := range x.Points {
		if v, ok := byTime[p.Time.UnixNano()]; ok {
			xs = append(xs, p.Simple)
			ys = append(ys, v)
		}
	}
	return xs, ys
}

// Correlation returns the pairwise Pearson correlation of simple returns.
// Pairs sharing fewer than two timestamps, or with a flat side, are undefined.
func Correlation(series ...model.ReturnSeries) model.CorrelationMatrix {
	m := model.CorrelationMatrix{
		Symbols: make([]string, len(series)),
		Cells:   make([][]model.Optional, len(series)),
	}
	for i, s := range series {
		m.Symbols[i] = s.Symbol
		m.Cells[i] = make([]model.Optional, len(series))
	}
	for i := range series {
		for j := i; j < len(series); j++ {
			c := pearson(series[i], series[j])
			m.Cells[i][j] = c
			m.Cells[j][i] = c
		}
	}
	return m
}

func pearson(x, y model.ReturnSeries) model.Optional {
	a, b := alignSimple(x, y)
	if len(a) < 2 {
		return model.None()
	}
	sa, sb := sampleStd(a), sampleStd(b)
	if sa == 0 || sb == 0 {
		return model.None()
	}
	r := sampleCov(a, b) / (sa * sb)
	return model.Some(math.Max(-1, math.Min(1, r)))
}
