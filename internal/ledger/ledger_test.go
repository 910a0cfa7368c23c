package ledger

import (
	"testing"
	"time"

	"github.com/shumlab/papertrade/internal/logger"
	"github.com/shumlab/papertrade/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
	log *logger.Logger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) SetupSuite() {
	suite.log = logger.NewNopLogger()
}

func (suite *LedgerTestSuite) TestDebitReducesSettledImmediately() {
	l := NewLedger(1000.0, suite.log)

	err := l.RecordCashEvent(-200.0, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.Equal(800.0, l.AvailableCash())
}

func (suite *LedgerTestSuite) TestOverDebitFailsWithoutPartialDebit() {
	l := NewLedger(100.0, suite.log)

	err := l.RecordCashEvent(-100.01, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInsufficientSettledCash))
	// the failed debit must not move any cash
	suite.Equal(100.0, l.AvailableCash())
}

func (suite *LedgerTestSuite) TestExactDebitAllowed() {
	l := NewLedger(100.0, suite.log)

	err := l.RecordCashEvent(-100.0, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.Equal(0.0, l.AvailableCash())
}

func (suite *LedgerTestSuite) TestSaleProceedsExcludedUntilSettleDate() {
	tradeDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) // Tuesday
	l := NewLedger(1000.0, suite.log)

	err := l.RecordCashEvent(300.0, tradeDate)
	suite.Require().NoError(err)

	// same-day repurchase must not see the proceeds
	l.AdvanceTo(tradeDate)
	suite.Equal(1000.0, l.AvailableCash())
	suite.Equal(300.0, l.UnsettledCash())

	l.AdvanceTo(tradeDate.AddDate(0, 0, 1)) // Wednesday
	suite.Equal(1300.0, l.AvailableCash())
	suite.Equal(0.0, l.UnsettledCash())
}

func (suite *LedgerTestSuite) TestFridaySaleSettlesMonday() {
	friday := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	l := NewLedger(1000.0, suite.log)

	suite.Require().NoError(l.RecordCashEvent(300.0, friday))

	l.AdvanceTo(friday.AddDate(0, 0, 1)) // Saturday
	suite.Equal(1000.0, l.AvailableCash())

	l.AdvanceTo(friday.AddDate(0, 0, 2)) // Sunday
	suite.Equal(1000.0, l.AvailableCash())

	l.AdvanceTo(friday.AddDate(0, 0, 3)) // Monday
	suite.Equal(1300.0, l.AvailableCash())
}

func (suite *LedgerTestSuite) TestWeekendTradeDateSettlesMonday() {
	saturday := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	l := NewLedger(0.0, suite.log)

	suite.Require().NoError(l.RecordCashEvent(50.0, saturday))

	l.AdvanceTo(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)) // Sunday
	suite.Equal(0.0, l.AvailableCash())

	l.AdvanceTo(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)) // Monday
	suite.Equal(50.0, l.AvailableCash())
}

func (suite *LedgerTestSuite) TestAdvanceToIsIdempotent() {
	tradeDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	l := NewLedger(1000.0, suite.log)

	suite.Require().NoError(l.RecordCashEvent(300.0, tradeDate))

	settleDate := tradeDate.AddDate(0, 0, 1)
	l.AdvanceTo(settleDate)
	l.AdvanceTo(settleDate)
	l.AdvanceTo(settleDate.AddDate(0, 0, -5)) // earlier date is a no-op too

	suite.Equal(1300.0, l.AvailableCash())
	suite.Equal(0.0, l.UnsettledCash())
}

func (suite *LedgerTestSuite) TestSweepProcessesInTradeDateOrder() {
	l := NewLedger(0.0, suite.log)

	// recorded out of trade-date order on purpose
	suite.Require().NoError(l.RecordCashEvent(20.0, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
	suite.Require().NoError(l.RecordCashEvent(10.0, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))

	l.AdvanceTo(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	suite.Equal(30.0, l.AvailableCash())

	settled := l.PendingSettlements()
	suite.Require().Len(settled, 2)
	suite.True(settled[0].Settled)
	suite.True(settled[1].Settled)
}

func (suite *LedgerTestSuite) TestTotalCashInvariant() {
	tradeDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	l := NewLedger(500.0, suite.log)

	suite.Require().NoError(l.RecordCashEvent(-100.0, tradeDate))
	suite.Require().NoError(l.RecordCashEvent(250.0, tradeDate))

	suite.Equal(400.0, l.AvailableCash())
	suite.Equal(250.0, l.UnsettledCash())
	suite.Equal(650.0, l.TotalCash())
}

func (suite *LedgerTestSuite) TestZeroAmountRejected() {
	l := NewLedger(100.0, suite.log)

	err := l.RecordCashEvent(0, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidCashAmount))
}

func (suite *LedgerTestSuite) TestNextBusinessDay() {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"thursday", time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"friday", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"saturday", time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		suite.Equal(tc.want, NextBusinessDay(tc.in), tc.name)
	}
}
