package types

import "time"

// AccountState is the mutable account view the risk engine evaluates
// against. The desk rebuilds it between candidates within a batch so that
// losses realized by earlier fills gate later approvals.
type AccountState struct {
	// Equity is the total account value used for percentage-based limits.
	Equity float64 `json:"equity" yaml:"equity"`
	// SettledCash is cash available for new purchases under T+1 rules.
	SettledCash float64 `json:"settled_cash" yaml:"settled_cash"`
	// UnsettledCash is sale proceeds awaiting settlement.
	UnsettledCash float64 `json:"unsettled_cash" yaml:"unsettled_cash"`
	// DayRealizedPnL is realized profit/loss for the trading day so far.
	DayRealizedPnL float64 `json:"day_realized_pnl" yaml:"day_realized_pnl"`
	// WeekRealizedPnL is realized profit/loss for the trading week so far.
	WeekRealizedPnL float64 `json:"week_realized_pnl" yaml:"week_realized_pnl"`
	// ConsecutiveLosses counts losing trades since the last winner.
	ConsecutiveLosses int `json:"consecutive_losses" yaml:"consecutive_losses"`
	// TradesToday counts fills already executed this trading day.
	TradesToday int `json:"trades_today" yaml:"trades_today"`
}

// PendingSettlement is one unsettled cash credit. Immutable once created
// except for the Settled flag flipped by the ledger sweep.
type PendingSettlement struct {
	Amount     float64   `json:"amount" yaml:"amount"`
	TradeDate  time.Time `json:"trade_date" yaml:"trade_date"`
	SettleDate time.Time `json:"settle_date" yaml:"settle_date"`
	Settled    bool      `json:"settled" yaml:"settled"`
}
