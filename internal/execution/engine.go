// Package execution deterministically resolves approved bracket orders
// against a price path. The entry fills at the first observation; the first
// later observation that touches the stop or the target closes the bracket,
// with the stop winning any same-tick tie.
package execution

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shumlab/papertrade/internal/logger"
	"github.com/shumlab/papertrade/internal/types"
	"github.com/shumlab/papertrade/pkg/errors"
	"go.uber.org/zap"
)

// CashLedger is the slice of the settlement ledger the engine needs: it
// debits the entry notional and credits exit proceeds. The ledger retains
// exclusive ownership of cash state.
type CashLedger interface {
	RecordCashEvent(amount float64, tradeDate time.Time) error
}

// Engine simulates fills for sized bracket orders.
type Engine struct {
	cash CashLedger
	log  *logger.Logger
}

// NewEngine creates a paper execution engine that settles cash through the
// given ledger.
func NewEngine(cash CashLedger, log *logger.Logger) *Engine {
	return &Engine{
		cash: cash,
		log:  log,
	}
}

// FillResult is the outcome of simulating one sized order against a path.
type FillResult struct {
	// Entry is the immediate entry fill.
	Entry types.Fill
	// Exit is the stop or target fill, None while the bracket is open.
	Exit optional.Option[types.Fill]
	// State is the bracket state after the scan.
	State types.BracketState
	// Position is the live position; meaningful while State is BracketOpen
	// so the caller can resume with a continued path.
	Position types.Position
}

// Closed reports whether the bracket reached a terminal state.
func (r FillResult) Closed() bool {
	return r.State != types.BracketOpen
}

// SimulateFill opens the order at the first tick of path and resolves the
// bracket against the remaining ticks. If the path is exhausted with the
// bracket still open, the result carries the open position and no exit fill;
// the caller resumes with Resolve on a continued path.
//
// The entry debit (entry price × quantity) is recorded against the ledger at
// the entry trade date; a closing fill credits entry notional plus realized
// P&L as T+1 proceeds dated at the exit tick.
func (e *Engine) SimulateFill(order types.SizedOrder, path []types.PriceTick) (FillResult, error) {
	if len(path) == 0 {
		return FillResult{}, errors.New(errors.ErrCodeEmptyPricePath, "price path has no observations")
	}

	if err := validatePath(path); err != nil {
		return FillResult{}, err
	}

	entryTick := path[0]
	position := types.Position{
		Symbol:        order.Symbol,
		Side:          order.Side,
		Quantity:      order.Quantity,
		EntryPrice:    entryTick.Price,
		StopPrice:     order.Stop,
		TargetPrice:   order.Target,
		OpenTimestamp: entryTick.Time,
	}

	if err := e.cash.RecordCashEvent(-position.Notional(), entryTick.Time); err != nil {
		return FillResult{}, err
	}

	entryFill := types.Fill{
		OrderID:   order.ID,
		Leg:       types.FillLegEntry,
		Price:     entryTick.Price,
		Quantity:  order.Quantity,
		Timestamp: entryTick.Time,
	}

	e.log.Debug("Entry filled",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.Float64("price", entryTick.Price),
		zap.Float64("quantity", order.Quantity),
	)

	result := FillResult{
		Entry:    entryFill,
		Exit:     optional.None[types.Fill](),
		State:    types.BracketOpen,
		Position: position,
	}

	exit, state, err := e.resolve(order.ID, position, path[1:])
	if err != nil {
		return FillResult{}, err
	}

	result.Exit = exit
	result.State = state

	return result, nil
}

// Resolve continues a still-open bracket against a continued price path and
// returns the exit fill if a leg triggered. The ticks must continue forward
// in time from the position's history.
func (e *Engine) Resolve(orderID string, position types.Position, ticks []types.PriceTick) (optional.Option[types.Fill], types.BracketState, error) {
	if err := validatePath(ticks); err != nil {
		return optional.None[types.Fill](), types.BracketOpen, err
	}

	return e.resolve(orderID, position, ticks)
}

// resolve scans ticks in order and fires on the first observation touching
// the stop or the target. A tick satisfying both resolves to the stop, the
// pessimistic tie-break.
func (e *Engine) resolve(orderID string, position types.Position, ticks []types.PriceTick) (optional.Option[types.Fill], types.BracketState, error) {
	for _, tick := range ticks {
		stopHit := hitStop(position, tick.Price)
		targetHit := hitTarget(position, tick.Price)

		if !stopHit && !targetHit {
			continue
		}

		state := types.BracketClosedByTarget
		exitPrice := position.TargetPrice
		leg := types.FillLegTarget

		if stopHit {
			state = types.BracketClosedByStop
			exitPrice = position.StopPrice
			leg = types.FillLegStop
		}

		pnl := position.RealizedPnL(exitPrice)
		proceeds := position.Notional() + pnl

		if err := e.cash.RecordCashEvent(proceeds, tick.Time); err != nil {
			return optional.None[types.Fill](), types.BracketOpen,
				errors.Wrap(errors.ErrCodeInternalInconsistency, "failed to credit exit proceeds", err)
		}

		fill := types.Fill{
			OrderID:     orderID,
			Leg:         leg,
			Price:       exitPrice,
			Quantity:    position.Quantity,
			Timestamp:   tick.Time,
			RealizedPnL: pnl,
		}

		e.log.Debug("Bracket closed",
			zap.String("order_id", orderID),
			zap.String("leg", string(leg)),
			zap.Float64("exit_price", exitPrice),
			zap.Float64("pnl", pnl),
		)

		return optional.Some(fill), state, nil
	}

	return optional.None[types.Fill](), types.BracketOpen, nil
}

// validatePath rejects paths whose timestamps move backwards. Equal
// timestamps are tolerated; a regression is a fatal data error.
func validatePath(path []types.PriceTick) error {
	for i := 1; i < len(path); i++ {
		if path[i].Time.Before(path[i-1].Time) {
			return errors.Newf(errors.ErrCodeMalformedPricePath,
				"price path timestamp regression at index %d: %s < %s",
				i, path[i].Time.Format(time.RFC3339), path[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

func hitStop(p types.Position, price float64) bool {
	if p.Side == types.SideLong {
		return price <= p.StopPrice
	}

	return price >= p.StopPrice
}

func hitTarget(p types.Position, price float64) bool {
	if p.Side == types.SideLong {
		return price >= p.TargetPrice
	}

	return price <= p.TargetPrice
}
