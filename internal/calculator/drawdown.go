package calculator

import (
	"fmt"

	"RiskSentinel/internal/model"
)

// MaxDrawdown is the deepest decline from a running peak, as a fraction of
// that peak. It is always <= 0 and 0 only for a non-decreasing series.
func MaxDrawdown(prices []float64) (float64, error) {
	if len(prices) == 0 {
		return 0, fmt.Errorf("no prices provided: %w", model.ErrInsufficientData)
	}
	peak := prices[0]
	worst := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if dd := (p - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst, nil
}
