// Package desk orchestrates one trading day: it orders candidate intents,
// runs each through the risk gates, simulates approved brackets against
// their price paths, and keeps the settlement ledger and trade records
// consistent between candidates.
package desk

import (
	"fmt"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shumlab/papertrade/internal/execution"
	"github.com/shumlab/papertrade/internal/ledger"
	"github.com/shumlab/papertrade/internal/logger"
	"github.com/shumlab/papertrade/internal/marketdata"
	"github.com/shumlab/papertrade/internal/risk"
	"github.com/shumlab/papertrade/internal/store"
	"github.com/shumlab/papertrade/internal/types"
	"github.com/shumlab/papertrade/pkg/errors"
	"go.uber.org/zap"
)

// Desk wires the settlement ledger, risk engine, and execution engine over
// a market data provider and the record store.
type Desk struct {
	config Config
	ledger *ledger.Ledger
	risk   *risk.Engine
	exec   *execution.Engine
	store  *store.Store
	data   marketdata.Provider
	log    *logger.Logger
}

// DayReport summarizes one RunDay pass.
type DayReport struct {
	Date      time.Time
	Decisions []types.RiskDecision
	Metrics   types.DailyMetrics
	// Open carries positions whose price path was exhausted before either
	// bracket leg triggered.
	Open          []types.Position
	SettledCash   float64
	UnsettledCash float64
	TotalCash     float64
}

func NewDesk(config Config, data marketdata.Provider, records *store.Store, log *logger.Logger) (*Desk, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cashLedger := ledger.NewLedger(config.InitialCapital, log)

	return &Desk{
		config: config,
		ledger: cashLedger,
		risk:   risk.NewEngine(config.Risk, records, log),
		exec:   execution.NewEngine(cashLedger, log),
		store:  records,
		data:   data,
		log:    log,
	}, nil
}

// Ledger exposes the desk's settlement ledger for reporting.
func (d *Desk) Ledger() *ledger.Ledger {
	return d.ledger
}

// RunDay evaluates a batch of intents for one trading date. Candidates are
// processed in priority order (ties broken by symbol) so a batch always
// replays identically; realized losses from earlier fills gate later
// candidates. onCandidate, if non-nil, is invoked after each candidate.
func (d *Desk) RunDay(date time.Time, intents []types.OrderIntent, onCandidate func(done, total int)) (DayReport, error) {
	day := ledger.Day(date)
	d.ledger.AdvanceTo(day)

	account, err := d.loadAccountState(day)
	if err != nil {
		return DayReport{}, err
	}

	candidates := sortCandidates(intents)

	report := DayReport{Date: day}

	var (
		dayPnL    float64
		riskedUSD float64
		executed  int
	)

	for i, intent := range candidates {
		decision, result, evalErr := d.evaluateCandidate(intent, account, day)
		if evalErr != nil {
			return DayReport{}, evalErr
		}

		report.Decisions = append(report.Decisions, decision)

		if result != nil {
			executed++
			account.TradesToday++
			riskedUSD += decision.Risk.RiskedUSD

			if result.Closed() {
				pnl := result.Exit.Unwrap().RealizedPnL
				dayPnL += pnl
				account.DayRealizedPnL += pnl
				account.WeekRealizedPnL += pnl

				if pnl < 0 {
					account.ConsecutiveLosses++
				} else {
					account.ConsecutiveLosses = 0
				}
			} else {
				report.Open = append(report.Open, result.Position)
			}

			d.ledger.AdvanceTo(day)
			account.SettledCash = d.ledger.AvailableCash()
			account.UnsettledCash = d.ledger.UnsettledCash()
		}

		if onCandidate != nil {
			onCandidate(i+1, len(candidates))
		}
	}

	metrics := types.DailyMetrics{
		Date:       day,
		PnL:        dayPnL,
		TradeCount: executed,
		RMultiple:  types.RMultiple(dayPnL, riskedUSD),
	}

	if err := d.store.AppendDailyMetrics(metrics); err != nil {
		return DayReport{}, err
	}

	report.Metrics = metrics
	report.SettledCash = d.ledger.AvailableCash()
	report.UnsettledCash = d.ledger.UnsettledCash()
	report.TotalCash = d.ledger.TotalCash()

	d.log.Info("Trading day complete",
		zap.Time("date", day),
		zap.Int("candidates", len(candidates)),
		zap.Int("executed", executed),
		zap.Float64("pnl", dayPnL),
		zap.Float64("settled_cash", report.SettledCash),
		zap.Float64("unsettled_cash", report.UnsettledCash),
	)

	return report, nil
}

// evaluateCandidate runs one intent through validation, the risk gates, and
// fill simulation. A nil FillResult means the candidate did not execute.
func (d *Desk) evaluateCandidate(intent types.OrderIntent, account types.AccountState, day time.Time) (types.RiskDecision, *execution.FillResult, error) {
	if err := intent.Validate(); err != nil {
		d.recordIncident(day, types.IncidentSeverityWarning,
			fmt.Sprintf("malformed intent for %s dropped: %v", intent.Symbol, err))

		return types.RiskDecision{
			Decision: types.DecisionReject,
			Symbol:   intent.Symbol,
			Side:     intent.Side,
			Reason:   types.RejectInvalidBracket,
		}, nil, nil
	}

	snapshot, err := d.data.GetSnapshot(intent.Symbol)
	if err != nil {
		d.recordIncident(day, types.IncidentSeverityWarning,
			fmt.Sprintf("no market snapshot for %s: %v", intent.Symbol, err))

		return types.RiskDecision{
			Decision: types.DecisionReject,
			Symbol:   intent.Symbol,
			Side:     intent.Side,
			Reason:   types.RejectLowLiquidity,
		}, nil, nil
	}

	decision := d.risk.Evaluate(intent, account, snapshot, d.ledger.AvailableCash())
	if !decision.Approved() {
		return decision, nil, nil
	}

	order := decision.Order.Unwrap()

	path, err := d.data.GetPricePath(order.Symbol)
	if err != nil {
		d.recordIncident(day, types.IncidentSeverityWarning,
			fmt.Sprintf("approved order %s has no price path: %v", order.ID, err))

		return decision, nil, nil
	}

	result, err := d.exec.SimulateFill(order, path)
	if err != nil {
		switch {
		case errors.HasCode(err, errors.ErrCodeInsufficientSettledCash):
			// The path opened away from the intent entry and the actual
			// notional exceeds settled cash. A policy rejection, not a
			// batch failure; the next candidate still runs.
			d.log.Info("Fill rejected for settled cash",
				zap.String("symbol", order.Symbol),
				zap.Error(err),
			)

			return types.RiskDecision{
				Decision: types.DecisionReject,
				Symbol:   order.Symbol,
				Side:     order.Side,
				Reason:   types.RejectInsufficientSettledCash,
				Order:    optional.None[types.SizedOrder](),
				Risk:     decision.Risk,
			}, nil, nil
		case errors.HasCode(err, errors.ErrCodeMalformedPricePath) || errors.HasCode(err, errors.ErrCodeEmptyPricePath):
			d.recordIncident(day, types.IncidentSeverityCritical,
				fmt.Sprintf("price path for %s unusable: %v", order.Symbol, err))

			return decision, nil, nil
		default:
			return decision, nil, err
		}
	}

	if err := d.persistResult(order, result); err != nil {
		return decision, nil, err
	}

	return decision, &result, nil
}

// persistResult appends the trade, its fills, and the compensating closure
// row when the bracket reached a terminal state.
func (d *Desk) persistResult(order types.SizedOrder, result execution.FillResult) error {
	trade := types.Trade{
		ID:          order.ID,
		Symbol:      order.Symbol,
		Side:        order.Side,
		Quantity:    order.Quantity,
		EntryPrice:  result.Entry.Price,
		StopPrice:   order.Stop,
		TargetPrice: order.Target,
		StrategyTag: order.StrategyTag,
		OpenedAt:    result.Entry.Timestamp,
	}

	if err := d.store.InsertTrade(trade); err != nil {
		return err
	}

	if err := d.store.InsertFill(result.Entry); err != nil {
		return err
	}

	if !result.Closed() {
		return nil
	}

	exit := result.Exit.Unwrap()

	if err := d.store.InsertFill(exit); err != nil {
		return err
	}

	return d.store.InsertClosure(types.TradeClosure{
		TradeID:     order.ID,
		State:       result.State,
		ExitPrice:   exit.Price,
		RealizedPnL: exit.RealizedPnL,
		ClosedAt:    exit.Timestamp,
	})
}

// loadAccountState rebuilds the risk view from the record store. Equity is
// initial capital plus all realized P&L to date; loss counters come from
// the closure history.
func (d *Desk) loadAccountState(day time.Time) (types.AccountState, error) {
	allTimePnL, err := d.store.RealizedPnLBetween(time.Time{}, day.AddDate(0, 0, 1))
	if err != nil {
		return types.AccountState{}, err
	}

	dayPnL, err := d.store.DayRealizedPnL(day)
	if err != nil {
		return types.AccountState{}, err
	}

	weekPnL, err := d.store.WeekRealizedPnL(day)
	if err != nil {
		return types.AccountState{}, err
	}

	losses, err := d.store.ConsecutiveLosses()
	if err != nil {
		return types.AccountState{}, err
	}

	tradesToday, err := d.store.TradeCountForDay(day)
	if err != nil {
		return types.AccountState{}, err
	}

	return types.AccountState{
		Equity:            d.config.InitialCapital + allTimePnL,
		SettledCash:       d.ledger.AvailableCash(),
		UnsettledCash:     d.ledger.UnsettledCash(),
		DayRealizedPnL:    dayPnL,
		WeekRealizedPnL:   weekPnL,
		ConsecutiveLosses: losses,
		TradesToday:       tradesToday,
	}, nil
}

func (d *Desk) recordIncident(day time.Time, severity types.IncidentSeverity, description string) {
	incident := types.Incident{
		Timestamp:   day,
		Severity:    severity,
		Description: description,
	}

	if err := d.store.RecordIncident(incident); err != nil {
		d.log.Error("Failed to record incident",
			zap.String("description", description),
			zap.Error(err),
		)
	}
}

// sortCandidates orders a batch by priority, ties broken by symbol, so that
// evaluation order never depends on input order.
func sortCandidates(intents []types.OrderIntent) []types.OrderIntent {
	candidates := make([]types.OrderIntent, len(intents))
	copy(candidates, intents)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}

		return candidates[i].Symbol < candidates[j].Symbol
	})

	return candidates
}
