package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceSeriesValidate(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		points []PricePoint
	}{
		{"empty", nil},
		{"zero close", []PricePoint{{Time: day, Close: 10}, {Time: day.AddDate(0, 0, 1), Close: 0}}},
		{"negative close", []PricePoint{{Time: day, Close: -3}}},
		{"repeated day", []PricePoint{{Time: day, Close: 10}, {Time: day, Close: 11}}},
		{"descending", []PricePoint{{Time: day, Close: 10}, {Time: day.AddDate(0, 0, -1), Close: 11}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PriceSeries{Symbol: "BTC", Points: tt.points}.Validate()
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}

	ok := PriceSeries{Symbol: "BTC", Points: []PricePoint{{Time: day, Close: 10}, {Time: day.AddDate(0, 0, 1), Close: 11}}}
	assert.NoError(t, ok.Validate())
}
