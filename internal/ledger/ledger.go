// Package ledger models T+1 cash settlement for a paper account. Settled
// cash is the only buying power; sale proceeds sit unsettled until the next
// business day after the trade date.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shumlab/papertrade/internal/logger"
	"github.com/shumlab/papertrade/internal/types"
	"github.com/shumlab/papertrade/pkg/errors"
	"go.uber.org/zap"
)

// Ledger is the exclusive owner of settled/unsettled cash state. No other
// component mutates cash directly. It is single-writer: callers evaluate one
// order end-to-end before touching it again.
type Ledger struct {
	settled decimal.Decimal
	pending []types.PendingSettlement
	log     *logger.Logger
}

// NewLedger creates a ledger holding the given settled opening balance.
func NewLedger(settledCash float64, log *logger.Logger) *Ledger {
	return &Ledger{
		settled: decimal.NewFromFloat(settledCash),
		pending: nil,
		log:     log,
	}
}

// RecordCashEvent applies one cash movement dated tradeDate.
//
// A negative amount (a purchase debit) reduces settled cash immediately and
// fails with ErrCodeInsufficientSettledCash if settled cash would go
// negative; nothing is debited in that case. A positive amount (sale
// proceeds) is credited as an unsettled pending settlement effective the
// next business day after tradeDate.
func (l *Ledger) RecordCashEvent(amount float64, tradeDate time.Time) error {
	if amount == 0 {
		return errors.New(errors.ErrCodeInvalidCashAmount, "cash event amount must be non-zero")
	}

	amountDec := decimal.NewFromFloat(amount)

	if amount < 0 {
		remaining := l.settled.Add(amountDec)
		if remaining.IsNegative() {
			return errors.Newf(errors.ErrCodeInsufficientSettledCash,
				"debit %.2f exceeds settled cash %.2f", -amount, l.AvailableCash())
		}

		l.settled = remaining

		return nil
	}

	settlement := types.PendingSettlement{
		Amount:     amount,
		TradeDate:  Day(tradeDate),
		SettleDate: NextBusinessDay(tradeDate),
		Settled:    false,
	}
	l.pending = append(l.pending, settlement)

	l.log.Debug("Unsettled proceeds recorded",
		zap.Float64("amount", amount),
		zap.Time("trade_date", settlement.TradeDate),
		zap.Time("settle_date", settlement.SettleDate),
	)

	return nil
}

// AdvanceTo sweeps pending settlements whose settle date is on or before
// date into settled cash, in trade-date order so the running balance during
// the sweep is deterministic. Calling it again with the same or an earlier
// date is a no-op.
func (l *Ledger) AdvanceTo(date time.Time) {
	date = Day(date)

	matured := make([]int, 0, len(l.pending))

	for i, p := range l.pending {
		if !p.Settled && !p.SettleDate.After(date) {
			matured = append(matured, i)
		}
	}

	sort.SliceStable(matured, func(a, b int) bool {
		return l.pending[matured[a]].TradeDate.Before(l.pending[matured[b]].TradeDate)
	})

	for _, i := range matured {
		l.settled = l.settled.Add(decimal.NewFromFloat(l.pending[i].Amount))
		l.pending[i].Settled = true

		l.log.Debug("Settlement matured",
			zap.Float64("amount", l.pending[i].Amount),
			zap.Time("settle_date", l.pending[i].SettleDate),
		)
	}
}

// AvailableCash returns settled cash only. Unsettled proceeds are never
// usable for new purchases.
func (l *Ledger) AvailableCash() float64 {
	cash, _ := l.settled.Float64()

	return cash
}

// UnsettledCash returns the total of pending, not yet settled credits.
func (l *Ledger) UnsettledCash() float64 {
	total := decimal.Zero

	for _, p := range l.pending {
		if !p.Settled {
			total = total.Add(decimal.NewFromFloat(p.Amount))
		}
	}

	cash, _ := total.Float64()

	return cash
}

// TotalCash returns settled plus unsettled cash.
func (l *Ledger) TotalCash() float64 {
	return l.AvailableCash() + l.UnsettledCash()
}

// PendingSettlements returns a copy of all settlements recorded so far,
// including already settled ones, for reporting.
func (l *Ledger) PendingSettlements() []types.PendingSettlement {
	out := make([]types.PendingSettlement, len(l.pending))
	copy(out, l.pending)

	return out
}
