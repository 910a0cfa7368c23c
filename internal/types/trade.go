package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type FillLeg string

type BracketState string

const (
	FillLegEntry  FillLeg = "ENTRY"
	FillLegStop   FillLeg = "STOP"
	FillLegTarget FillLeg = "TARGET"
)

const (
	BracketOpen           BracketState = "OPEN"
	BracketClosedByStop   BracketState = "CLOSED_BY_STOP"
	BracketClosedByTarget BracketState = "CLOSED_BY_TARGET"
)

// Position is a live bracket: the entry has filled and the stop/target legs
// are being watched. Quantity is always positive; Side carries direction.
type Position struct {
	Symbol        string    `yaml:"symbol" json:"symbol"`
	Side          Side      `yaml:"side" json:"side"`
	Quantity      float64   `yaml:"quantity" json:"quantity"`
	EntryPrice    float64   `yaml:"entry_price" json:"entry_price"`
	StopPrice     float64   `yaml:"stop_price" json:"stop_price"`
	TargetPrice   float64   `yaml:"target_price" json:"target_price"`
	OpenTimestamp time.Time `yaml:"open_timestamp" json:"open_timestamp"`
}

// Fill records one simulated execution against a price path. Fills are
// immutable once created and persisted append-only.
type Fill struct {
	OrderID   string    `yaml:"order_id" json:"order_id"`
	Leg       FillLeg   `yaml:"leg" json:"leg"`
	Price     float64   `yaml:"price" json:"price"`
	Quantity  float64   `yaml:"quantity" json:"quantity"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// RealizedPnL is zero for entry fills.
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
}

// Trade is the persisted record of one opened position. Closure is recorded
// with a separate compensating row, never by mutating the trade.
type Trade struct {
	ID          string    `yaml:"id" json:"id"`
	Symbol      string    `yaml:"symbol" json:"symbol"`
	Side        Side      `yaml:"side" json:"side"`
	Quantity    float64   `yaml:"quantity" json:"quantity"`
	EntryPrice  float64   `yaml:"entry_price" json:"entry_price"`
	StopPrice   float64   `yaml:"stop_price" json:"stop_price"`
	TargetPrice float64   `yaml:"target_price" json:"target_price"`
	StrategyTag string    `yaml:"strategy_tag" json:"strategy_tag"`
	OpenedAt    time.Time `yaml:"opened_at" json:"opened_at"`
}

// TradeClosure is the append-only record that closes a trade.
type TradeClosure struct {
	TradeID     string       `yaml:"trade_id" json:"trade_id"`
	State       BracketState `yaml:"state" json:"state"`
	ExitPrice   float64      `yaml:"exit_price" json:"exit_price"`
	RealizedPnL float64      `yaml:"realized_pnl" json:"realized_pnl"`
	ClosedAt    time.Time    `yaml:"closed_at" json:"closed_at"`
}

// RealizedPnL computes the sign-adjusted profit for exiting the position at
// the given price, using decimal arithmetic to keep the cash ledger exact.
func (p *Position) RealizedPnL(exitPrice float64) float64 {
	entryDec := decimal.NewFromFloat(p.EntryPrice)
	exitDec := decimal.NewFromFloat(exitPrice)
	qtyDec := decimal.NewFromFloat(p.Quantity)
	signDec := decimal.NewFromFloat(p.Side.Sign())

	pnl, _ := exitDec.Sub(entryDec).Mul(qtyDec).Mul(signDec).Float64()

	return pnl
}

// Notional returns the entry cash value of the position.
func (p *Position) Notional() float64 {
	notional, _ := decimal.NewFromFloat(p.EntryPrice).Mul(decimal.NewFromFloat(p.Quantity)).Float64()

	return notional
}
