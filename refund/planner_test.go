package refund_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/booking-engine/ledger"
	"github.com/warp/booking-engine/money"
	"github.com/warp/booking-engine/refund"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

var t0 = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func processorCapture(id string, kind money.Kind, amount float64) ledger.Transaction {
	return ledger.Transaction{
		ID:               id,
		Kind:             kind,
		Status:           money.StatusCaptured,
		RawStatus:        "captured",
		Amount:           money.NewAmount(amount, "USD"),
		AuthorizationRef: "auth-1",
		Provider:         ledger.ProviderProcessor,
		OccurredAt:       t0,
	}
}

func manualCapture(id string, amount float64) ledger.Transaction {
	tx := processorCapture(id, money.KindBalance, amount)
	tx.Provider = ledger.ProviderManual
	return tx
}

func untaggedRefund(id string, amount float64) ledger.Transaction {
	return ledger.Transaction{
		ID:         id,
		Kind:       money.KindRefund,
		Status:     money.StatusSucceeded,
		RawStatus:  "succeeded",
		Amount:     money.NewAmount(amount, "USD"),
		Provider:   ledger.ProviderProcessor,
		OccurredAt: t0.Add(time.Hour),
	}
}

func amountPtr(v float64) *money.Amount {
	a := money.NewAmount(v, "USD")
	return &a
}

// =============================================================================
// REMAINDERS TESTS
// =============================================================================

func TestComputeRemainders_BalanceFirst(t *testing.T) {
	// GIVEN: 80.00 balance + 15.00 tip captured, 30.00 refunded
	// THEN: the refund counts against balance first

	txs := []ledger.Transaction{
		processorCapture("tx-1", money.KindBalance, 80.00),
		processorCapture("tx-2", money.KindTip, 15.00),
		untaggedRefund("tx-3", 30.00),
	}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	rem := refund.ComputeRemainders(s)

	assert.Equal(t, int64(3000), rem.RefundedAgainstBalance.MinorUnits())
	assert.Equal(t, int64(5000), rem.BalanceRemaining.MinorUnits())
	assert.True(t, rem.TipRefundedEstimate.IsZero())
	assert.Equal(t, int64(1500), rem.TipRemaining.MinorUnits())
}

func TestComputeRemainders_RefundExceedingBalanceEatsTip(t *testing.T) {
	txs := []ledger.Transaction{
		processorCapture("tx-1", money.KindBalance, 20.00),
		processorCapture("tx-2", money.KindTip, 15.00),
		untaggedRefund("tx-3", 30.00),
	}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	rem := refund.ComputeRemainders(s)

	assert.Equal(t, int64(2000), rem.RefundedAgainstBalance.MinorUnits())
	assert.True(t, rem.BalanceRemaining.IsZero())
	assert.Equal(t, int64(1000), rem.TipRefundedEstimate.MinorUnits())
	assert.Equal(t, int64(500), rem.TipRemaining.MinorUnits())
}

// =============================================================================
// FULL-SCOPE PLAN TESTS
// =============================================================================

func TestPlan_FullRemainingIncludingTips(t *testing.T) {
	// GIVEN: 80.00 + 15.00 captured and 30.00 already refunded
	// WHEN: planning a full refund including tips
	// THEN: instruction = 50.00 balance + 15.00 tip = 6500 minor units

	txs := []ledger.Transaction{
		processorCapture("tx-1", money.KindBalance, 80.00),
		processorCapture("tx-2", money.KindTip, 15.00),
		untaggedRefund("tx-3", 30.00),
	}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	ins, err := refund.Plan(s, txs, refund.PlanRequest{Scope: refund.ScopeFull, IncludeTips: true})

	require.NoError(t, err)
	assert.Equal(t, refund.ModeProcessor, ins.Mode)
	assert.Equal(t, int64(5000), ins.ServiceMinor)
	assert.Equal(t, int64(1500), ins.TipMinor)
	assert.Equal(t, int64(6500), ins.TotalMinor())
}

func TestPlan_FullWithoutTips(t *testing.T) {
	txs := []ledger.Transaction{
		processorCapture("tx-1", money.KindBalance, 80.00),
		processorCapture("tx-2", money.KindTip, 15.00),
	}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	ins, err := refund.Plan(s, txs, refund.PlanRequest{Scope: refund.ScopeFull})

	require.NoError(t, err)
	assert.Equal(t, int64(8000), ins.ServiceMinor)
	assert.Zero(t, ins.TipMinor)
}

func TestPlan_FullWithNothingLeft(t *testing.T) {
	// Everything already refunded: there is nothing to plan.
	txs := []ledger.Transaction{
		processorCapture("tx-1", money.KindBalance, 80.00),
		untaggedRefund("tx-2", 80.00),
	}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	_, err := refund.Plan(s, txs, refund.PlanRequest{Scope: refund.ScopeFull, IncludeTips: true})

	var vErr *refund.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, refund.CodeNothingToRefund, vErr.Code)
	assert.True(t, refund.IsValidation(err))
}

func TestPlan_ManualModeRequiresExplicitAmount(t *testing.T) {
	// GIVEN: only manual (bookkeeping) captures, nothing processor-refundable
	// WHEN: asking for a full-scope refund
	// THEN: rejected, the caller must supply an explicit amount

	txs := []ledger.Transaction{manualCapture("tx-1", 80.00)}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	_, err := refund.Plan(s, txs, refund.PlanRequest{Scope: refund.ScopeFull})

	var vErr *refund.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, refund.CodeExplicitAmountRequired, vErr.Code)
}

// =============================================================================
// CUSTOM-SCOPE PLAN TESTS
// =============================================================================

func TestPlan_CustomWithinBounds(t *testing.T) {
	txs := []ledger.Transaction{
		processorCapture("tx-1", money.KindBalance, 80.00),
		processorCapture("tx-2", money.KindTip, 15.00),
	}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	ins, err := refund.Plan(s, txs, refund.PlanRequest{
		Scope:         refund.ScopeCustom,
		ServiceAmount: amountPtr(20.00),
		TipAmount:     amountPtr(5.00),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2000), ins.ServiceMinor)
	assert.Equal(t, int64(500), ins.TipMinor)
}

func TestPlan_CustomManualBookkeeping(t *testing.T) {
	// Manual mode accepts explicit amounts: cash refunds are recorded,
	// not executed processor-side.
	txs := []ledger.Transaction{manualCapture("tx-1", 80.00)}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	ins, err := refund.Plan(s, txs, refund.PlanRequest{
		Scope:         refund.ScopeCustom,
		ServiceAmount: amountPtr(25.00),
	})

	require.NoError(t, err)
	assert.Equal(t, refund.ModeManual, ins.Mode)
	assert.Equal(t, int64(2500), ins.ServiceMinor)
}

func TestPlan_CustomEmptyRejected(t *testing.T) {
	txs := []ledger.Transaction{processorCapture("tx-1", money.KindBalance, 80.00)}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	_, err := refund.Plan(s, txs, refund.PlanRequest{Scope: refund.ScopeCustom})

	var vErr *refund.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, refund.CodeEmptyRefund, vErr.Code)
}

func TestPlan_CustomNegativeRejected(t *testing.T) {
	txs := []ledger.Transaction{processorCapture("tx-1", money.KindBalance, 80.00)}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	_, err := refund.Plan(s, txs, refund.PlanRequest{
		Scope:         refund.ScopeCustom,
		ServiceAmount: amountPtr(-5.00),
	})

	var vErr *refund.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, refund.CodeInvalidAmount, vErr.Code)
}

func TestPlan_CustomExceedsBalanceRemaining(t *testing.T) {
	txs := []ledger.Transaction{
		processorCapture("tx-1", money.KindBalance, 80.00),
		untaggedRefund("tx-2", 30.00),
	}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	_, err := refund.Plan(s, txs, refund.PlanRequest{
		Scope:         refund.ScopeCustom,
		ServiceAmount: amountPtr(60.00),
	})

	var vErr *refund.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, refund.CodeExceedsBalanceRemaining, vErr.Code)
	assert.Equal(t, int64(6000), vErr.Requested.MinorUnits())
	assert.Equal(t, int64(5000), vErr.Remaining.MinorUnits())
}

func TestPlan_CustomExceedsTipRemaining(t *testing.T) {
	txs := []ledger.Transaction{
		processorCapture("tx-1", money.KindBalance, 80.00),
		processorCapture("tx-2", money.KindTip, 15.00),
	}
	s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")

	_, err := refund.Plan(s, txs, refund.PlanRequest{
		Scope:     refund.ScopeCustom,
		TipAmount: amountPtr(20.00),
	})

	var vErr *refund.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, refund.CodeExceedsTipRemaining, vErr.Code)
}

func TestPlan_InstructionNeverExceedsRemainders(t *testing.T) {
	// Property: for any accepted plan, total never exceeds what remains.
	cases := []struct {
		name    string
		balance float64
		tip     float64
		refund  float64
	}{
		{"untouched", 100.00, 20.00, 0},
		{"partially refunded", 100.00, 20.00, 40.00},
		{"nearly exhausted", 100.00, 20.00, 119.00},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txs := []ledger.Transaction{
				processorCapture("tx-1", money.KindBalance, tc.balance),
				processorCapture("tx-2", money.KindTip, tc.tip),
			}
			if tc.refund > 0 {
				txs = append(txs, untaggedRefund("tx-3", tc.refund))
			}
			s := ledger.Summarize(txs, ledger.StatusSignals{}, "USD")
			rem := refund.ComputeRemainders(s)

			ins, err := refund.Plan(s, txs, refund.PlanRequest{Scope: refund.ScopeFull, IncludeTips: true})
			require.NoError(t, err)

			maxMinor := rem.BalanceRemaining.MinorUnits() + rem.TipRemaining.MinorUnits()
			assert.LessOrEqual(t, ins.TotalMinor(), maxMinor)
		})
	}
}
