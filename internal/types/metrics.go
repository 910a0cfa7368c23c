package types

import "time"

type IncidentSeverity string

const (
	IncidentSeverityInfo     IncidentSeverity = "INFO"
	IncidentSeverityWarning  IncidentSeverity = "WARNING"
	IncidentSeverityCritical IncidentSeverity = "CRITICAL"
)

// DailyMetrics is the one-row-per-trading-day summary. Rows are appended
// once per run and never mutated retroactively.
type DailyMetrics struct {
	Date       time.Time `yaml:"date" json:"date"`
	PnL        float64   `yaml:"pnl" json:"pnl"`
	TradeCount int       `yaml:"trade_count" json:"trade_count"`
	// RMultiple is the aggregate realized P&L expressed as a multiple of
	// the total dollars risked across the day's trades.
	RMultiple float64 `yaml:"r_multiple" json:"r_multiple"`
}

// Incident is an append-only audit record for limit breaches and data
// errors.
type Incident struct {
	Timestamp   time.Time        `yaml:"timestamp" json:"timestamp"`
	Severity    IncidentSeverity `yaml:"severity" json:"severity"`
	Description string           `yaml:"description" json:"description"`
}

// RMultiple expresses realized P&L as a multiple of the risked amount.
func RMultiple(pnl, risked float64) float64 {
	if risked == 0 {
		return 0
	}

	return pnl / risked
}
