package risk

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shumlab/papertrade/internal/logger"
	"github.com/shumlab/papertrade/internal/types"
	"github.com/stretchr/testify/suite"
)

// memoryRecorder collects incidents for assertions.
type memoryRecorder struct {
	incidents []types.Incident
}

func (r *memoryRecorder) RecordIncident(incident types.Incident) error {
	r.incidents = append(r.incidents, incident)

	return nil
}

type RiskEngineTestSuite struct {
	suite.Suite
	engine   *Engine
	recorder *memoryRecorder
}

func TestRiskEngineSuite(t *testing.T) {
	suite.Run(t, new(RiskEngineTestSuite))
}

func (suite *RiskEngineTestSuite) SetupTest() {
	suite.recorder = &memoryRecorder{}
	suite.engine = NewEngine(DefaultConfig(), suite.recorder, logger.NewNopLogger())
}

func baseIntent() types.OrderIntent {
	return types.OrderIntent{
		Symbol:      "SPY",
		Side:        types.SideLong,
		Entry:       100.0,
		Stop:        98.0,
		Target:      106.0,
		RiskAmount:  optional.Some(100.0),
		StrategyTag: "trend_follow",
		Timestamp:   time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC),
	}
}

func healthyAccount() types.AccountState {
	return types.AccountState{
		Equity:      100_000,
		SettledCash: 10_000,
	}
}

func liquidSnapshot() types.MarketSnapshot {
	return types.MarketSnapshot{
		Symbol:    "SPY",
		Last:      100.0,
		Spread:    0.01,
		AvgVolume: 6_000_000,
	}
}

func (suite *RiskEngineTestSuite) TestApprovesAndSizesByRiskAmount() {
	// $100 risk over a $2 stop distance sizes to exactly 50 shares
	decision := suite.engine.Evaluate(baseIntent(), healthyAccount(), liquidSnapshot(), 10_000)

	suite.Require().Equal(types.DecisionApprove, decision.Decision)
	suite.Require().True(decision.Order.IsSome())

	order := decision.Order.Unwrap()
	suite.Equal(50.0, order.Quantity)
	suite.Equal(98.0, order.Stop)
	suite.Equal(106.0, order.Target)
	suite.Equal(100.0, decision.Risk.RiskedUSD)
	suite.Equal(3.0, decision.Risk.RewardRisk)
	suite.NotEmpty(order.ID)
	suite.Empty(suite.recorder.incidents)
}

func (suite *RiskEngineTestSuite) TestRejectsRRBelowFloor() {
	intent := baseIntent()
	intent.Target = 101.0 // RR 0.5

	decision := suite.engine.Evaluate(intent, healthyAccount(), liquidSnapshot(), 10_000)

	suite.Equal(types.DecisionReject, decision.Decision)
	suite.Equal(types.RejectRRBelowFloor, decision.Reason)
	suite.True(decision.Order.IsNone())
	// routine sizing rejection, no incident
	suite.Empty(suite.recorder.incidents)
}

func (suite *RiskEngineTestSuite) TestNeverAdjustsBracketToForceCompliance() {
	intent := baseIntent()
	intent.Target = 103.0 // RR 1.5, below the floor of 3

	decision := suite.engine.Evaluate(intent, healthyAccount(), liquidSnapshot(), 10_000)

	// the intent is trusted as-is or rejected; a lowered-RR approval is a bug
	suite.Equal(types.DecisionReject, decision.Decision)
}

func (suite *RiskEngineTestSuite) TestRejectsLowLiquidity() {
	snap := types.MarketSnapshot{Symbol: "SPY", Last: 9.0, Spread: 0.05, AvgVolume: 1_000_000}

	decision := suite.engine.Evaluate(baseIntent(), healthyAccount(), snap, 10_000)

	suite.Equal(types.RejectLowLiquidity, decision.Reason)
	suite.Require().Len(suite.recorder.incidents, 1)
	suite.Equal(types.IncidentSeverityWarning, suite.recorder.incidents[0].Severity)
}

func (suite *RiskEngineTestSuite) TestRejectsDailyLossLimit() {
	account := healthyAccount()
	account.DayRealizedPnL = -1_000 // exactly 1% of equity

	decision := suite.engine.Evaluate(baseIntent(), account, liquidSnapshot(), 10_000)

	suite.Equal(types.RejectDailyLossLimit, decision.Reason)
	suite.Len(suite.recorder.incidents, 1)
}

func (suite *RiskEngineTestSuite) TestRejectsWeeklyLossLimit() {
	account := healthyAccount()
	account.WeekRealizedPnL = -3_500

	decision := suite.engine.Evaluate(baseIntent(), account, liquidSnapshot(), 10_000)

	suite.Equal(types.RejectWeeklyLossLimit, decision.Reason)
}

func (suite *RiskEngineTestSuite) TestZeroLossPctDisablesLossGates() {
	config := DefaultConfig()
	config.MaxDailyLossPct = 0
	config.MaxWeeklyLossPct = 0
	engine := NewEngine(config, suite.recorder, logger.NewNopLogger())

	// A flat account sits exactly at a zero limit; it must not be halted.
	decision := engine.Evaluate(baseIntent(), healthyAccount(), liquidSnapshot(), 10_000)
	suite.Equal(types.DecisionApprove, decision.Decision)

	account := healthyAccount()
	account.DayRealizedPnL = -5_000
	account.WeekRealizedPnL = -5_000

	decision = engine.Evaluate(baseIntent(), account, liquidSnapshot(), 10_000)
	suite.Equal(types.DecisionApprove, decision.Decision)
}

func (suite *RiskEngineTestSuite) TestRejectsInsufficientSettledCash() {
	decision := suite.engine.Evaluate(baseIntent(), healthyAccount(), liquidSnapshot(), 50.0)

	suite.Equal(types.RejectInsufficientSettledCash, decision.Reason)
	// a cash rejection is routine, not a limit breach
	suite.Empty(suite.recorder.incidents)
}

func (suite *RiskEngineTestSuite) TestDerivedQuantityRecheckedAgainstCash() {
	intent := baseIntent()
	intent.RiskAmount = optional.Some(400.0) // 200 shares, $20,000 notional

	decision := suite.engine.Evaluate(intent, healthyAccount(), liquidSnapshot(), 10_000)

	suite.Equal(types.RejectInsufficientSettledCash, decision.Reason)
}

func (suite *RiskEngineTestSuite) TestRejectsInvalidBracket() {
	intent := baseIntent()
	intent.Stop = 101.0 // stop above entry on a long

	decision := suite.engine.Evaluate(intent, healthyAccount(), liquidSnapshot(), 10_000)

	suite.Equal(types.RejectInvalidBracket, decision.Reason)
}

func (suite *RiskEngineTestSuite) TestShortSideBracket() {
	intent := types.OrderIntent{
		Symbol:      "SPY",
		Side:        types.SideShort,
		Entry:       100.0,
		Stop:        102.0,
		Target:      94.0, // RR 3 on the short side
		RiskAmount:  optional.Some(100.0),
		StrategyTag: "mean_revert",
		Timestamp:   time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC),
	}

	decision := suite.engine.Evaluate(intent, healthyAccount(), liquidSnapshot(), 10_000)

	suite.Require().Equal(types.DecisionApprove, decision.Decision)
	suite.Equal(50.0, decision.Order.Unwrap().Quantity)
	suite.Equal(3.0, decision.Risk.RewardRisk)
}

func (suite *RiskEngineTestSuite) TestExplicitQuantityIntent() {
	intent := baseIntent()
	intent.RiskAmount = optional.None[float64]()
	intent.Quantity = optional.Some(25.0)

	decision := suite.engine.Evaluate(intent, healthyAccount(), liquidSnapshot(), 10_000)

	suite.Require().Equal(types.DecisionApprove, decision.Decision)
	suite.Equal(25.0, decision.Order.Unwrap().Quantity)
	suite.Equal(50.0, decision.Risk.RiskedUSD)
}

func (suite *RiskEngineTestSuite) TestDefaultRiskFromEquityWhenIntentUnsized() {
	intent := baseIntent()
	intent.RiskAmount = optional.None[float64]()
	// equity 100k * 0.25% = $250 risk -> 125 shares over a $2 stop
	decision := suite.engine.Evaluate(intent, healthyAccount(), liquidSnapshot(), 100_000)

	suite.Require().Equal(types.DecisionApprove, decision.Decision)
	suite.Equal(125.0, decision.Order.Unwrap().Quantity)
}

func (suite *RiskEngineTestSuite) TestRejectsStreakOfLosses() {
	account := healthyAccount()
	account.ConsecutiveLosses = 3

	decision := suite.engine.Evaluate(baseIntent(), account, liquidSnapshot(), 10_000)

	suite.Equal(types.RejectMaxConsecutiveLosses, decision.Reason)
	suite.Len(suite.recorder.incidents, 1)
}

func (suite *RiskEngineTestSuite) TestRejectsWhenDailyTradeCapReached() {
	account := healthyAccount()
	account.TradesToday = 3

	decision := suite.engine.Evaluate(baseIntent(), account, liquidSnapshot(), 10_000)

	suite.Equal(types.RejectMaxTradesPerDay, decision.Reason)
}

func (suite *RiskEngineTestSuite) TestRejectsSubShareSize() {
	intent := baseIntent()
	intent.RiskAmount = optional.Some(1.0) // floor(1/2) = 0 shares

	decision := suite.engine.Evaluate(intent, healthyAccount(), liquidSnapshot(), 10_000)

	suite.Equal(types.RejectInsufficientSize, decision.Reason)
}

func (suite *RiskEngineTestSuite) TestDecisionIsDeterministic() {
	intent := baseIntent()
	account := healthyAccount()
	snap := liquidSnapshot()

	first := suite.engine.Evaluate(intent, account, snap, 10_000)
	second := suite.engine.Evaluate(intent, account, snap, 10_000)

	suite.Equal(first.Decision, second.Decision)
	suite.Equal(first.Risk, second.Risk)
	suite.Equal(first.Order.Unwrap().Quantity, second.Order.Unwrap().Quantity)
}

func TestRewardRisk(t *testing.T) {
	cases := []struct {
		name   string
		side   types.Side
		entry  float64
		stop   float64
		target float64
		want   float64
	}{
		{"long rr3", types.SideLong, 100, 98, 106, 3},
		{"short rr3", types.SideShort, 100, 102, 94, 3},
		{"zero risk", types.SideLong, 100, 100, 106, 0},
		{"long rr below one", types.SideLong, 100, 98, 101, 0.5},
		{"target behind entry", types.SideLong, 100, 98, 99, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RewardRisk(tc.side, tc.entry, tc.stop, tc.target)
			if got != tc.want {
				t.Fatalf("RewardRisk() = %v, want %v", got, tc.want)
			}
		})
	}
}
