package collector

import (
	"fmt"
	"sort"
	"time"

	"RiskSentinel/internal/model"
)

// normalize reduces a source payload to a daily PriceSeries: timestamps are
// truncated to the UTC calendar day, the last value of each day wins, and the
// result is trimmed to the most recent horizonDays+1 days.
func normalize(symbol, source string, raw []model.PricePoint, horizonDays int) (model.PriceSeries, error) {
	if len(raw) == 0 {
		return model.PriceSeries{}, errEmptyPayload
	}
	pts := make([]model.PricePoint, len(raw))
	copy(pts, raw)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })

	daily := make([]model.PricePoint, 0, len(pts))
	for _, p := range pts {
		if !(p.Close > 0) {
			return model.PriceSeries{}, fmt.Errorf("non-positive price %v at %s: %w",
				p.Close, p.Time.UTC().Format(time.RFC3339), errMalformedPayload)
		}
		day := truncateDay(p.Time)
		if n := len(daily); n > 0 && daily[n-1].Time.Equal(day) {
			daily[n-1].Close = p.Close
			continue
		}
		daily = append(daily, model.PricePoint{Time: day, Close: p.Close})
	}

	if keep := horizonDays + 1; len(daily) > keep {
		daily = daily[len(daily)-keep:]
	}
	return model.PriceSeries{Symbol: symbol, Source: source, Points: daily}, nil
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
