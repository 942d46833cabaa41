/*
Package refund computes safe, validated refund instructions from summarized
ledger state and submits them to the external processor.

PURPOSE:
  Turning "refund the rest" or "refund $20 of service and $5 of tip" into an
  instruction the processor can execute - bounded by what actually remains
  refundable, rounded to integer minor units, and routed through the right
  mode (processor-managed vs. manual bookkeeping).

KEY CONCEPTS IN THIS FILE (planner.go):
  - Remainders: How much balance/tip is still refundable
  - PlanRequest: What the caller asked for (scope, tips toggle, amounts)
  - Instruction: The vetted, dispatch-ready result

REFUND ATTRIBUTION ORDER:
  Refunds are applied to the balance bucket first; only the excess counts
  against tips. This ordering is a design choice that must be reproduced
  exactly for totals to agree with processor-side records:

    refunded_against_balance = min(captured_balance, refunded_total)
    balance_remaining        = captured_balance - refunded_against_balance
    tip_refunded_estimate    = max(0, refunded_total - refunded_against_balance)
    tip_remaining            = max(0, captured_tip - tip_refunded_estimate)

MINOR UNITS:
  All monetary inputs are converted to integer cents via rounding before
  dispatch. The planner never passes fractional minor units downstream.

SEE ALSO:
  - service.go: Submits planned instructions and guards double-submit
  - ledger package: Produces the Summary the planner consumes
*/
package refund

import (
	"github.com/warp/booking-engine/ledger"
	"github.com/warp/booking-engine/money"
)

// =============================================================================
// MODE AND SCOPE
// =============================================================================

type Mode string

const (
	// ModeProcessor executes the refund through the payment processor.
	ModeProcessor Mode = "processor_managed"

	// ModeManual records the refund for bookkeeping only (cash handed back,
	// external POS). Requires an explicit amount.
	ModeManual Mode = "manual"
)

type Scope string

const (
	ScopeFull   Scope = "full"
	ScopeCustom Scope = "custom"
)

// =============================================================================
// REMAINDERS - What is still refundable
// =============================================================================

type Remainders struct {
	RefundedAgainstBalance money.Amount
	BalanceRemaining       money.Amount
	TipRefundedEstimate    money.Amount
	TipRemaining           money.Amount
}

// ComputeRemainders derives the refundable remainders from a summary,
// applying refunds to the balance bucket first.
func ComputeRemainders(s ledger.Summary) Remainders {
	againstBalance := s.CapturedBalance.Min(s.RefundedTotal)
	tipEstimate := s.RefundedTotal.Sub(againstBalance).ClampZero()
	return Remainders{
		RefundedAgainstBalance: againstBalance,
		BalanceRemaining:       s.CapturedBalance.Sub(againstBalance),
		TipRefundedEstimate:    tipEstimate,
		TipRemaining:           s.CapturedTip.Sub(tipEstimate).ClampZero(),
	}
}

// =============================================================================
// PLAN REQUEST AND INSTRUCTION
// =============================================================================

type PlanRequest struct {
	Scope       Scope
	IncludeTips bool

	// Custom-scope amounts. Either may be nil (omitted).
	ServiceAmount *money.Amount
	TipAmount     *money.Amount

	Note                string
	PlatformFeeRefunded bool
}

// Instruction is a vetted, dispatch-ready refund. Amounts are integer minor
// units; a zero component was omitted. Instructions are transient - their
// effect is only observed through the transaction the dispatcher returns.
type Instruction struct {
	Mode                Mode
	ServiceMinor        int64
	TipMinor            int64
	Currency            string
	Note                string
	PlatformFeeRefunded bool
}

// TotalMinor returns the full instruction amount in minor units.
func (i Instruction) TotalMinor() int64 {
	return i.ServiceMinor + i.TipMinor
}

// =============================================================================
// PLANNER
// =============================================================================

// Plan validates a refund request against the summarized ledger state and
// produces a dispatch-ready instruction. The transaction list decides the
// mode: processor-managed requires at least one processor-refundable
// capture, otherwise the plan is forced to manual bookkeeping and the
// caller must supply an explicit amount.
func Plan(summary ledger.Summary, txs []ledger.Transaction, req PlanRequest) (Instruction, error) {
	rem := ComputeRemainders(summary)
	currency := summary.CapturedBalance.Currency

	mode := ModeManual
	for _, tx := range txs {
		if tx.ProcessorRefundable() {
			mode = ModeProcessor
			break
		}
	}

	ins := Instruction{
		Mode:                mode,
		Currency:            currency,
		Note:                req.Note,
		PlatformFeeRefunded: req.PlatformFeeRefunded,
	}

	switch req.Scope {
	case ScopeCustom:
		return planCustom(ins, rem, req)
	default:
		return planFull(ins, rem, req)
	}
}

func planFull(ins Instruction, rem Remainders, req PlanRequest) (Instruction, error) {
	if ins.Mode == ModeManual {
		// Nothing to query processor-side, so there is no "full remaining"
		// shortcut for manual refunds.
		return Instruction{}, &ValidationError{Code: CodeExplicitAmountRequired}
	}

	ins.ServiceMinor = rem.BalanceRemaining.MinorUnits()
	if req.IncludeTips {
		ins.TipMinor = rem.TipRemaining.MinorUnits()
	}
	if ins.TotalMinor() <= 0 {
		return Instruction{}, &ValidationError{Code: CodeNothingToRefund}
	}
	return ins, nil
}

func planCustom(ins Instruction, rem Remainders, req PlanRequest) (Instruction, error) {
	service := req.ServiceAmount
	tip := req.TipAmount

	if (service == nil || service.IsZero()) && (tip == nil || tip.IsZero()) {
		return Instruction{}, &ValidationError{Code: CodeEmptyRefund}
	}

	if service != nil {
		if service.IsNegative() {
			return Instruction{}, &ValidationError{Code: CodeInvalidAmount, Requested: *service}
		}
		if service.GreaterThan(rem.BalanceRemaining) {
			return Instruction{}, &ValidationError{
				Code:      CodeExceedsBalanceRemaining,
				Requested: *service,
				Remaining: rem.BalanceRemaining,
			}
		}
		ins.ServiceMinor = service.MinorUnits()
	}

	if tip != nil {
		if tip.IsNegative() {
			return Instruction{}, &ValidationError{Code: CodeInvalidAmount, Requested: *tip}
		}
		if tip.GreaterThan(rem.TipRemaining) {
			return Instruction{}, &ValidationError{
				Code:      CodeExceedsTipRemaining,
				Requested: *tip,
				Remaining: rem.TipRemaining,
			}
		}
		ins.TipMinor = tip.MinorUnits()
	}

	if ins.TotalMinor() <= 0 {
		return Instruction{}, &ValidationError{Code: CodeEmptyRefund}
	}
	return ins, nil
}
