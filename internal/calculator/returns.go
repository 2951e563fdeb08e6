package calculator

import (
	"fmt"
	"math"

	"RiskSentinel/internal/model"
)

// ComputeReturns derives simple and log returns from consecutive closes.
// The result has one fewer point than the series; each return is stamped
// with the later of its two prices.
func ComputeReturns(series model.PriceSeries) (model.ReturnSeries, error) {
	if series.Len() < 2 {
		return model.ReturnSeries{}, fmt.Errorf("%s: %d prices, need at least 2: %w",
			series.Symbol, series.Len(), model.ErrInsufficientData)
	}
	points := make([]model.ReturnPoint, series.Len()-1)
	for i := 1; i < series.Len(); i++ {
		prev, cur := series.Points[i-1].Close, series.Points[i].Close
		if !(prev > 0) || !(cur > 0) {
			return model.ReturnSeries{}, fmt.Errorf("%s: non-positive price at index %d: %w",
				series.Symbol, i, model.ErrInvalidConfiguration)
		}
		ratio := cur / prev
		points[i-1] = model.ReturnPoint{
			Time:   series.Points[i].Time,
			Simple: ratio - 1,
			Log:    math.Log(ratio),
		}
	}
	return model.ReturnSeries{Symbol: series.Symbol, Points: points}, nil
}
