package model

import "fmt"

// AlertKind groups alerts; the declaration order is the report order.
type AlertKind int

const (
	AlertHighRisk AlertKind = iota
	AlertVolatilitySpike
	AlertPerformanceWarning
)

func (k AlertKind) String() string {
	switch k {
	case AlertHighRisk:
		return "HighRisk"
	case AlertVolatilitySpike:
		return "VolatilitySpike"
	case AlertPerformanceWarning:
		return "PerformanceWarning"
	default:
		return fmt.Sprintf("AlertKind(%d)", int(k))
	}
}

func (k AlertKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// AlertSeverity is the urgency of an alert.
type AlertSeverity int

const (
	SeverityInfo AlertSeverity = iota
	SeverityWarning
	SeverityCritical
)

func (s AlertSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("AlertSeverity(%d)", int(s))
	}
}

func (s AlertSeverity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Alert is a transient warning produced by one analysis run.
type Alert struct {
	Kind     AlertKind          `json:"kind"`
	Symbol   string             `json:"symbol"`
	Severity AlertSeverity      `json:"severity"`
	Message  string             `json:"message"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}
