// Package risk decides whether a trade-intent candidate is approved, sized,
// or rejected. Every decision is a deterministic function of the intent, the
// account state, the market snapshot, and the configured limits. No hidden
// state, so decisions replay exactly in tests.
package risk

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shumlab/papertrade/internal/logger"
	"github.com/shumlab/papertrade/internal/types"
	"go.uber.org/zap"
)

// IncidentRecorder receives audit records for hard limit breaches. The desk
// wires the persistent store here; tests use an in-memory recorder.
type IncidentRecorder interface {
	RecordIncident(incident types.Incident) error
}

// Engine evaluates intents against the configured limits.
type Engine struct {
	config    Config
	incidents IncidentRecorder
	log       *logger.Logger
}

// NewEngine creates a risk engine. incidents may be nil, in which case limit
// breaches are logged but not persisted.
func NewEngine(config Config, incidents IncidentRecorder, log *logger.Logger) *Engine {
	return &Engine{
		config:    config,
		incidents: incidents,
		log:       log,
	}
}

// evalContext carries the working numbers through the gate pipeline.
type evalContext struct {
	intent        types.OrderIntent
	account       types.AccountState
	snapshot      types.MarketSnapshot
	availableCash float64

	stopDistance float64
	rewardRisk   float64
	quantity     float64
	riskedUSD    float64
}

// rejection is a failed gate. limitBreach marks rejections that reflect a
// breached standing limit rather than routine sizing infeasibility; those
// additionally produce an Incident.
type rejection struct {
	reason      types.RejectReason
	message     string
	limitBreach bool
}

// gate is one pure predicate in the pipeline. It returns nil to pass.
type gate func(e *Engine, ctx *evalContext) *rejection

// gates run in order and short-circuit on the first rejection. Sizing runs
// last so the cash gate can re-check the derived notional.
var gates = []gate{
	(*Engine).bracketGate,
	(*Engine).liquidityGate,
	(*Engine).dailyLossGate,
	(*Engine).weeklyLossGate,
	(*Engine).consecutiveLossGate,
	(*Engine).tradesPerDayGate,
	(*Engine).rrFloorGate,
	(*Engine).sizingGate,
	(*Engine).cashGate,
}

// Evaluate runs the intent through the gate pipeline and returns an
// approval with a fully sized order, or a rejection with a reason code.
func (e *Engine) Evaluate(intent types.OrderIntent, account types.AccountState, snapshot types.MarketSnapshot, availableCash float64) types.RiskDecision {
	ctx := evalContext{
		intent:        intent,
		account:       account,
		snapshot:      snapshot,
		availableCash: availableCash,
	}

	for _, g := range gates {
		if rej := g(e, &ctx); rej != nil {
			return e.reject(&ctx, rej)
		}
	}

	order := types.SizedOrder{
		ID:          uuid.New().String(),
		Symbol:      intent.Symbol,
		Side:        intent.Side,
		Quantity:    ctx.quantity,
		Entry:       intent.Entry,
		Stop:        intent.Stop,
		Target:      intent.Target,
		StrategyTag: intent.StrategyTag,
		Timestamp:   intent.Timestamp,
	}

	e.log.Info("Intent approved",
		zap.String("symbol", intent.Symbol),
		zap.String("side", string(intent.Side)),
		zap.Float64("quantity", ctx.quantity),
		zap.Float64("risked_usd", ctx.riskedUSD),
		zap.Float64("reward_risk", ctx.rewardRisk),
	)

	return types.RiskDecision{
		Decision: types.DecisionApprove,
		Symbol:   intent.Symbol,
		Side:     intent.Side,
		Order:    optional.Some(order),
		Risk: types.RiskSummary{
			RiskedUSD:    ctx.riskedUSD,
			StopDistance: ctx.stopDistance,
			RewardRisk:   ctx.rewardRisk,
		},
	}
}

func (e *Engine) reject(ctx *evalContext, rej *rejection) types.RiskDecision {
	e.log.Info("Intent rejected",
		zap.String("symbol", ctx.intent.Symbol),
		zap.String("reason", string(rej.reason)),
		zap.String("detail", rej.message),
	)

	if rej.limitBreach && e.incidents != nil {
		incident := types.Incident{
			Timestamp:   ctx.intent.Timestamp,
			Severity:    types.IncidentSeverityWarning,
			Description: fmt.Sprintf("risk limit breach on %s: %s", ctx.intent.Symbol, rej.message),
		}
		if err := e.incidents.RecordIncident(incident); err != nil {
			e.log.Error("Failed to record incident", zap.Error(err))
		}
	}

	return types.RiskDecision{
		Decision: types.DecisionReject,
		Symbol:   ctx.intent.Symbol,
		Side:     ctx.intent.Side,
		Reason:   rej.reason,
		Order:    optional.None[types.SizedOrder](),
		Risk: types.RiskSummary{
			RiskedUSD:    ctx.riskedUSD,
			StopDistance: ctx.stopDistance,
			RewardRisk:   ctx.rewardRisk,
		},
	}
}

// bracketGate verifies the stop and target sit on the correct sides of the
// entry for the intent's direction and computes the working distances.
func (e *Engine) bracketGate(ctx *evalContext) *rejection {
	in := ctx.intent

	valid := false

	switch in.Side {
	case types.SideLong:
		valid = in.Stop < in.Entry && in.Entry < in.Target
	case types.SideShort:
		valid = in.Target < in.Entry && in.Entry < in.Stop
	}

	if !valid {
		return &rejection{
			reason:  types.RejectInvalidBracket,
			message: fmt.Sprintf("bracket %s entry=%.4f stop=%.4f target=%.4f is inconsistent", in.Side, in.Entry, in.Stop, in.Target),
		}
	}

	ctx.stopDistance = math.Abs(in.Entry - in.Stop)
	ctx.rewardRisk = math.Abs(in.Target-in.Entry) / ctx.stopDistance

	return nil
}

func (e *Engine) liquidityGate(ctx *evalContext) *rejection {
	snap := ctx.snapshot

	if snap.AvgVolume < e.config.MinAvgVolume || snap.Last < e.config.MinPrice || snap.Spread > e.config.MaxSpread {
		return &rejection{
			reason: types.RejectLowLiquidity,
			message: fmt.Sprintf("last=%.2f avg_volume=%.0f spread=%.4f below liquidity floor",
				snap.Last, snap.AvgVolume, snap.Spread),
			limitBreach: true,
		}
	}

	return nil
}

// dailyLossGate halts new risk once the day's realized loss reaches the
// configured fraction of equity. A zero percentage disables the gate, as
// with the count gates below.
func (e *Engine) dailyLossGate(ctx *evalContext) *rejection {
	if e.config.MaxDailyLossPct <= 0 {
		return nil
	}

	limit := -e.config.MaxDailyLossPct * ctx.account.Equity
	if ctx.account.DayRealizedPnL <= limit {
		return &rejection{
			reason:      types.RejectDailyLossLimit,
			message:     fmt.Sprintf("day realized %.2f breaches limit %.2f", ctx.account.DayRealizedPnL, limit),
			limitBreach: true,
		}
	}

	return nil
}

func (e *Engine) weeklyLossGate(ctx *evalContext) *rejection {
	if e.config.MaxWeeklyLossPct <= 0 {
		return nil
	}

	limit := -e.config.MaxWeeklyLossPct * ctx.account.Equity
	if ctx.account.WeekRealizedPnL <= limit {
		return &rejection{
			reason:      types.RejectWeeklyLossLimit,
			message:     fmt.Sprintf("week realized %.2f breaches limit %.2f", ctx.account.WeekRealizedPnL, limit),
			limitBreach: true,
		}
	}

	return nil
}

func (e *Engine) consecutiveLossGate(ctx *evalContext) *rejection {
	if e.config.MaxConsecutiveLosses > 0 && ctx.account.ConsecutiveLosses >= e.config.MaxConsecutiveLosses {
		return &rejection{
			reason:      types.RejectMaxConsecutiveLosses,
			message:     fmt.Sprintf("%d consecutive losses reached the configured halt", ctx.account.ConsecutiveLosses),
			limitBreach: true,
		}
	}

	return nil
}

func (e *Engine) tradesPerDayGate(ctx *evalContext) *rejection {
	if e.config.MaxTradesPerDay > 0 && ctx.account.TradesToday >= e.config.MaxTradesPerDay {
		return &rejection{
			reason:  types.RejectMaxTradesPerDay,
			message: fmt.Sprintf("%d trades already executed today", ctx.account.TradesToday),
		}
	}

	return nil
}

// rrFloorGate enforces the reward/risk floor. The intent is trusted as-is:
// stop and target are never adjusted to force compliance.
func (e *Engine) rrFloorGate(ctx *evalContext) *rejection {
	if ctx.rewardRisk < e.config.RRFloor {
		return &rejection{
			reason:  types.RejectRRBelowFloor,
			message: fmt.Sprintf("reward/risk %.2f below floor %.2f", ctx.rewardRisk, e.config.RRFloor),
		}
	}

	return nil
}

// sizingGate binds the quantity. An explicit quantity wins; otherwise the
// risk amount (from the intent, or equity * RiskPctPerTrade as the default)
// is divided by the stop distance and floored to whole shares.
func (e *Engine) sizingGate(ctx *evalContext) *rejection {
	if ctx.intent.Quantity.IsSome() && ctx.intent.RiskAmount.IsNone() {
		ctx.quantity = math.Floor(ctx.intent.Quantity.Unwrap())
		ctx.riskedUSD = ctx.quantity * ctx.stopDistance
	} else {
		riskAmount := ctx.intent.RiskAmount.TakeOr(ctx.account.Equity * e.config.RiskPctPerTrade)
		ctx.quantity = math.Floor(riskAmount / ctx.stopDistance)
		ctx.riskedUSD = ctx.quantity * ctx.stopDistance
	}

	if ctx.quantity < 1 {
		return &rejection{
			reason:  types.RejectInsufficientSize,
			message: fmt.Sprintf("derived quantity %.0f below one share", ctx.quantity),
		}
	}

	return nil
}

// cashGate checks the final notional against settled cash. It runs after
// sizing so derived quantities are re-checked against buying power.
func (e *Engine) cashGate(ctx *evalContext) *rejection {
	required := ctx.quantity * ctx.intent.Entry
	if required > ctx.availableCash {
		return &rejection{
			reason:  types.RejectInsufficientSettledCash,
			message: fmt.Sprintf("required cash %.2f exceeds settled cash %.2f", required, ctx.availableCash),
		}
	}

	return nil
}

// RewardRisk computes the sign-adjusted reward/risk ratio for a bracket.
// Exported for reporting; the engine itself uses the pipeline's context.
func RewardRisk(side types.Side, entry, stop, target float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}

	reward := (target - entry) * side.Sign()
	if reward < 0 {
		return 0
	}

	return reward / risk
}
