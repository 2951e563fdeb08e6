package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/model"
)

var annual = ProfileAnnualized.Thresholds

func TestClassify_Scenarios(t *testing.T) {
	got, err := Classify(0.95, 0.1, annual)
	require.NoError(t, err)
	assert.Equal(t, model.RiskHigh, got)

	got, err = Classify(0.45, 2.3, annual)
	require.NoError(t, err)
	assert.Equal(t, model.RiskLow, got)
}

func TestClassify_AllBoundaries(t *testing.T) {
	tests := []struct {
		vol    float64
		sharpe float64
		want   model.RiskLabel
	}{
		{0.00, 0, model.RiskLow},
		{0.30, 0, model.RiskLow},
		{0.3001, 0, model.RiskMedium},
		{0.60, 0, model.RiskMedium},
		{0.6001, 0, model.RiskHigh},
		{1.00, 0, model.RiskHigh},
		{1.0001, 0, model.RiskVeryHigh},
		{3.00, 0, model.RiskVeryHigh},

		// very poor Sharpe override is strict at -2
		{0.10, -2.0, model.RiskLow},
		{0.10, -2.0001, model.RiskVeryHigh},
		{0.50, -5, model.RiskVeryHigh},

		// exceptional Sharpe override is strict at 2 and only lowers Medium
		{0.45, 2.0, model.RiskMedium},
		{0.45, 2.0001, model.RiskLow},
		{0.20, 3, model.RiskLow},
		{0.80, 3, model.RiskHigh},
		{1.50, 3, model.RiskVeryHigh},
	}
	for _, tt := range tests {
		got, err := Classify(tt.vol, tt.sharpe, annual)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Classify(%v, %v)", tt.vol, tt.sharpe)
	}
}

func TestClassify_DailyProfileBoundaries(t *testing.T) {
	daily := ProfileDailyPercent.Thresholds
	tests := []struct {
		vol  float64
		want model.RiskLabel
	}{
		{0.015, model.RiskLow},
		{0.02, model.RiskLow},
		{0.03, model.RiskMedium},
		{0.04, model.RiskMedium},
		{0.05, model.RiskHigh},
		{0.08, model.RiskHigh},
		{0.09, model.RiskVeryHigh},
	}
	for _, tt := range tests {
		got, err := Classify(tt.vol, 0.7, daily)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "vol=%v", tt.vol)
	}
}

func TestClassify_VeryPoorSharpeAlwaysVeryHigh(t *testing.T) {
	for _, vol := range []float64{0, 0.1, 0.3, 0.45, 0.6, 0.99, 1, 5} {
		for _, sharpe := range []float64{-2.01, -3, -10} {
			got, err := Classify(vol, sharpe, annual)
			require.NoError(t, err)
			assert.Equal(t, model.RiskVeryHigh, got, "vol=%v sharpe=%v", vol, sharpe)
		}
	}
}

func TestClassify_MonotonicInVolatility(t *testing.T) {
	vols := []float64{0, 0.1, 0.25, 0.3, 0.31, 0.5, 0.6, 0.7, 0.9, 1.0, 1.2, 2}
	for _, sharpe := range []float64{-2, -1, -0.5, 0, 0.5, 1, 1.5, 2} {
		prev := model.RiskLow
		for _, v := range vols {
			got, err := Classify(v, sharpe, annual)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, prev, "sharpe=%v vol=%v", sharpe, v)
			prev = got
		}
	}
}

func TestClassify_InvalidThresholds(t *testing.T) {
	bad := []model.RiskThresholds{
		{Volatility: model.VolatilityBands{Low: 0.6, Medium: 0.3, High: 1}, Sharpe: defaultSharpe},
		{Volatility: model.VolatilityBands{Low: 0.3, Medium: 0.3, High: 1}, Sharpe: defaultSharpe},
		{Volatility: annual.Volatility, Sharpe: model.SharpeBands{Excellent: 0.5, Good: 1.5, Poor: -0.5}},
		{},
	}
	for _, th := range bad {
		_, err := Classify(0.5, 0, th)
		assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
	}
}

func TestClassifyOptional_UndefinedSharpeSkipsOverrides(t *testing.T) {
	got, err := ClassifyOptional(0.45, model.None(), annual)
	require.NoError(t, err)
	assert.Equal(t, model.RiskMedium, got)
}

func TestSharpeBandFor(t *testing.T) {
	tests := []struct {
		sharpe model.Optional
		want   model.SharpeBand
	}{
		{model.Some(2), model.SharpeExcellent},
		{model.Some(1.5), model.SharpeExcellent},
		{model.Some(1.49), model.SharpeGood},
		{model.Some(0.5), model.SharpeGood},
		{model.Some(0), model.SharpePoor},
		{model.Some(-0.5), model.SharpePoor},
		{model.Some(-0.51), model.SharpeVeryPoor},
		{model.None(), model.SharpeUndefined},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SharpeBandFor(tt.sharpe, defaultSharpe), "%v", tt.sharpe)
	}
}

func TestProfiles(t *testing.T) {
	p, err := LookupProfile(" Daily ")
	require.NoError(t, err)
	assert.Equal(t, MetricDaily, p.Metric)

	_, err = LookupProfile("weekly")
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
	assert.Equal(t, []string{"annualized", "daily"}, ProfileNames())

	v := model.VolatilityResult{DailyVolatility: 0.03, AnnualizedVolatility: 0.57}
	assert.Equal(t, 0.57, ProfileAnnualized.Volatility(v))
	assert.Equal(t, 0.03, ProfileDailyPercent.Volatility(v))

	label, err := ProfileDailyPercent.Classify(v, model.Some(0))
	require.NoError(t, err)
	assert.Equal(t, model.RiskMedium, label)

	for _, prof := range []Profile{ProfileAnnualized, ProfileDailyPercent} {
		assert.NoError(t, prof.Thresholds.Validate(), prof.Name)
	}
}
