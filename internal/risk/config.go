package risk

// Config holds the limits the risk engine enforces. Loss limits are
// expressed as a fraction of account equity.
type Config struct {
	// RRFloor is the minimum reward/risk ratio an intent must carry.
	RRFloor float64 `yaml:"rr_floor" json:"rr_floor" jsonschema:"title=RR Floor,description=Minimum reward/risk ratio required at approval,minimum=0" validate:"gt=0"`
	// MaxDailyLossPct halts new risk once the day's realized loss reaches
	// this fraction of equity.
	MaxDailyLossPct float64 `yaml:"max_daily_loss_pct" json:"max_daily_loss_pct" jsonschema:"title=Max Daily Loss,description=Daily realized loss limit as a fraction of equity,minimum=0" validate:"gte=0"`
	// MaxWeeklyLossPct is the weekly analogue of MaxDailyLossPct.
	MaxWeeklyLossPct float64 `yaml:"max_weekly_loss_pct" json:"max_weekly_loss_pct" jsonschema:"title=Max Weekly Loss,description=Weekly realized loss limit as a fraction of equity,minimum=0" validate:"gte=0"`
	// RiskPctPerTrade sizes intents that carry neither a risk amount nor an
	// explicit quantity.
	RiskPctPerTrade float64 `yaml:"risk_pct_per_trade" json:"risk_pct_per_trade" jsonschema:"title=Risk Per Trade,description=Default risk per trade as a fraction of equity,minimum=0" validate:"gte=0"`
	// MinAvgVolume gates symbols with insufficient tradable volume.
	MinAvgVolume float64 `yaml:"min_avg_volume" json:"min_avg_volume" jsonschema:"title=Min Average Volume,minimum=0" validate:"gte=0"`
	// MinPrice rejects sub-threshold symbols.
	MinPrice float64 `yaml:"min_price" json:"min_price" jsonschema:"title=Min Price,minimum=0" validate:"gte=0"`
	// MaxSpread rejects symbols quoted wider than this.
	MaxSpread float64 `yaml:"max_spread" json:"max_spread" jsonschema:"title=Max Spread,minimum=0" validate:"gte=0"`
	// MaxTradesPerDay caps fills per trading day.
	MaxTradesPerDay int `yaml:"max_trades_per_day" json:"max_trades_per_day" jsonschema:"title=Max Trades Per Day,minimum=0" validate:"gte=0"`
	// MaxConsecutiveLosses halts new risk after a losing streak.
	MaxConsecutiveLosses int `yaml:"max_consecutive_losses" json:"max_consecutive_losses" jsonschema:"title=Max Consecutive Losses,minimum=0" validate:"gte=0"`
}

// DefaultConfig mirrors the paper desk's standing limits.
func DefaultConfig() Config {
	return Config{
		RRFloor:              3.0,
		MaxDailyLossPct:      0.01,
		MaxWeeklyLossPct:     0.03,
		RiskPctPerTrade:      0.0025,
		MinAvgVolume:         5_000_000,
		MinPrice:             10.0,
		MaxSpread:            0.03,
		MaxTradesPerDay:      3,
		MaxConsecutiveLosses: 3,
	}
}
