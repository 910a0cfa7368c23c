package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shumlab/papertrade/pkg/errors"
)

type Side string

type Decision string

type RejectReason string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

const (
	RejectLowLiquidity            RejectReason = "LOW_LIQUIDITY"
	RejectDailyLossLimit          RejectReason = "DAILY_LOSS_LIMIT"
	RejectWeeklyLossLimit         RejectReason = "WEEKLY_LOSS_LIMIT"
	RejectInsufficientSettledCash RejectReason = "INSUFFICIENT_SETTLED_CASH"
	RejectRRBelowFloor            RejectReason = "RR_BELOW_FLOOR"
	RejectInvalidBracket          RejectReason = "INVALID_BRACKET"
	RejectInsufficientSize        RejectReason = "INSUFFICIENT_SIZE"
	RejectMaxConsecutiveLosses    RejectReason = "MAX_CONSECUTIVE_LOSSES"
	RejectMaxTradesPerDay         RejectReason = "MAX_TRADES_PER_DAY"
)

// OrderIntent is a trade candidate produced by an external strategy
// collaborator. It is consumed exactly once by the risk engine and always
// becomes either a rejection or a SizedOrder; the intent itself is never
// persisted.
type OrderIntent struct {
	Symbol string  `yaml:"symbol" json:"symbol" validate:"required"`
	Side   Side    `yaml:"side" json:"side" validate:"required,oneof=LONG SHORT"`
	Entry  float64 `yaml:"entry" json:"entry" validate:"required,gt=0"`
	Stop   float64 `yaml:"stop" json:"stop" validate:"required,gt=0"`
	Target float64 `yaml:"target" json:"target" validate:"required,gt=0"`
	// RiskAmount is the dollar amount the strategy wants to put at risk.
	// When set, the risk engine derives the quantity from the stop distance.
	RiskAmount optional.Option[float64] `yaml:"risk_amount" json:"risk_amount"`
	// Quantity is an explicit share count. Ignored when RiskAmount is set.
	Quantity optional.Option[float64] `yaml:"quantity" json:"quantity"`
	// StrategyTag identifies the originating collaborator.
	StrategyTag string `yaml:"strategy_tag" json:"strategy_tag" validate:"required"`
	// Priority orders candidates within a batch; lower evaluates first.
	Priority  int       `yaml:"priority" json:"priority"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" validate:"required"`
}

// SizedOrder is a fully bound bracket order produced by an approval. Its
// quantity, stop, and target are final; execution replays them as-is.
type SizedOrder struct {
	ID          string    `yaml:"id" json:"id" validate:"required,uuid"`
	Symbol      string    `yaml:"symbol" json:"symbol" validate:"required"`
	Side        Side      `yaml:"side" json:"side" validate:"required,oneof=LONG SHORT"`
	Quantity    float64   `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	Entry       float64   `yaml:"entry" json:"entry" validate:"required,gt=0"`
	Stop        float64   `yaml:"stop" json:"stop" validate:"required,gt=0"`
	Target      float64   `yaml:"target" json:"target" validate:"required,gt=0"`
	StrategyTag string    `yaml:"strategy_tag" json:"strategy_tag" validate:"required"`
	Timestamp   time.Time `yaml:"timestamp" json:"timestamp" validate:"required"`
}

// RiskSummary mirrors the numbers the risk engine used to size an order.
type RiskSummary struct {
	RiskedUSD    float64 `yaml:"risked_usd" json:"risked_usd"`
	StopDistance float64 `yaml:"stop_distance" json:"stop_distance"`
	RewardRisk   float64 `yaml:"reward_risk" json:"reward_risk"`
}

// RiskDecision is the immutable outcome of evaluating one intent.
type RiskDecision struct {
	Decision Decision                    `yaml:"decision" json:"decision"`
	Symbol   string                      `yaml:"symbol" json:"symbol"`
	Side     Side                        `yaml:"side" json:"side"`
	Reason   RejectReason                `yaml:"reason,omitempty" json:"reason,omitempty"`
	Order    optional.Option[SizedOrder] `yaml:"order,omitempty" json:"order,omitempty"`
	Risk     RiskSummary                 `yaml:"risk" json:"risk"`
}

// Approved reports whether the decision carries a sized order.
func (d RiskDecision) Approved() bool {
	return d.Decision == DecisionApprove
}

// Validate validates the OrderIntent struct.
func (oi *OrderIntent) Validate() error {
	validate := validator.New()
	if err := validate.Struct(oi); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidIntent, "invalid order intent", err)
	}

	return nil
}

// Validate validates the SizedOrder struct.
func (so *SizedOrder) Validate() error {
	validate := validator.New()
	if err := validate.Struct(so); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSizedOrder, "invalid sized order", err)
	}

	return nil
}

// Sign returns +1 for long and -1 for short, for sign-adjusted P&L and
// bracket arithmetic.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}

	return 1
}
