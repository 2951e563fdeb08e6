package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Optional is a float that may be mathematically undefined, such as a Sharpe
// ratio over a flat series. An undefined value is not an error.
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps a defined value.
func Some(v float64) Optional { return Optional{Value: v, Valid: true} }

// None is the undefined value.
func None() Optional { return Optional{} }

// Or returns the value, or fallback when undefined.
func (o Optional) Or(fallback float64) float64 {
	if !o.Valid {
		return fallback
	}
	return o.Value
}

func (o Optional) String() string {
	if !o.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(o.Value, 'f', 3, 64)
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
