package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/model"
)

func sampleSeries() model.PriceSeries {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return model.PriceSeries{
		Symbol: "BTC",
		Source: "binance",
		Points: []model.PricePoint{
			{Time: day, Close: 100},
			{Time: day.AddDate(0, 0, 1), Close: 102.5},
		},
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "BTC|90", Key("btc", 90))
}

func TestEntryFresh(t *testing.T) {
	now := time.Now()
	e := Entry{StoredAt: now.Add(-5 * time.Minute)}
	assert.True(t, e.Fresh(now, 10*time.Minute))
	assert.False(t, e.Fresh(now, 5*time.Minute))
	assert.False(t, e.Fresh(now, 0))
}

func exerciseStore(t *testing.T, s Store, setNow func(time.Time)) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "BTC|1")
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	setNow(base)
	require.NoError(t, s.Put(ctx, "BTC|1", sampleSeries()))

	e, ok, err := s.Get(ctx, "BTC|1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "binance", e.Series.Source)
	require.Len(t, e.Series.Points, 2)
	assert.Equal(t, 102.5, e.Series.Points[1].Close)
	assert.True(t, e.Series.Points[0].Time.Equal(sampleSeries().Points[0].Time))
	assert.True(t, e.StoredAt.Equal(base))

	// overwrite refreshes the timestamp
	setNow(base.Add(time.Hour))
	require.NoError(t, s.Put(ctx, "BTC|1", sampleSeries()))
	e, _, err = s.Get(ctx, "BTC|1")
	require.NoError(t, err)
	assert.True(t, e.StoredAt.Equal(base.Add(time.Hour)))

	setNow(base)
	require.NoError(t, s.Put(ctx, "ETH|1", sampleSeries()))

	n, err := s.Purge(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok, _ = s.Get(ctx, "ETH|1")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "BTC|1")
	assert.True(t, ok)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s, func(ts time.Time) { s.now = func() time.Time { return ts } })
}

func TestMemoryStore_PutCopiesPoints(t *testing.T) {
	s := NewMemoryStore()
	series := sampleSeries()
	require.NoError(t, s.Put(context.Background(), "k", series))
	series.Points[0].Close = -1

	e, _, _ := s.Get(context.Background(), "k")
	assert.Equal(t, 100.0, e.Series.Points[0].Close)
}

func TestMemoryStore_GetCopiesPoints(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(context.Background(), "k", sampleSeries()))

	first, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	first.Series.Points[1].Close = 0
	first.Series.Points = append(first.Series.Points[:1], model.PricePoint{Close: 7})

	again, _, _ := s.Get(context.Background(), "k")
	assert.Equal(t, sampleSeries().Points, again.Series.Points)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s, func(ts time.Time) { s.now = func() time.Time { return ts } })
}
