/*
errors.go - Centralized error types for refund planning and dispatch

PURPOSE:
  All refund error types in one place. Callers classify failures with the
  Is* helpers rather than string matching.

ERROR CATEGORIES:
  1. Validation errors - rejected before any external call, non-retryable,
     carry enough structure (code + amounts) for a precise message
  2. Processor configuration errors - the account is not fully onboarded;
     surfaced distinctly so the caller can route to a remediation flow
  3. Transient I/O errors - feed/dispatch failures; no automatic retry here

SEE ALSO:
  - planner.go: Produces ValidationError
  - service.go: Wraps dispatcher failures
*/
package refund

import (
	"errors"
	"fmt"

	"github.com/warp/booking-engine/money"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all pre-dispatch rejections.
	ErrValidation = errors.New("refund validation failed")

	// ErrProcessorNotOnboarded is returned when the processor account is not
	// fully configured. Callers should route to remediation, not retry.
	ErrProcessorNotOnboarded = errors.New("processor account not fully onboarded")

	// ErrRefundInFlight is returned when a refund for the same booking is
	// already being submitted. Prevents double-submit at the call site.
	ErrRefundInFlight = errors.New("refund already in flight for booking")
)

// Validation error codes.
const (
	CodeNothingToRefund         = "nothing_to_refund"
	CodeEmptyRefund             = "empty_refund"
	CodeExceedsBalanceRemaining = "exceeds_balance_remaining"
	CodeExceedsTipRemaining     = "exceeds_tip_remaining"
	CodeInvalidAmount           = "invalid_amount"
	CodeExplicitAmountRequired  = "explicit_amount_required"
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports a refund request rejected before dispatch.
type ValidationError struct {
	Code      string
	Requested money.Amount
	Remaining money.Amount
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case CodeExceedsBalanceRemaining, CodeExceedsTipRemaining:
		return fmt.Sprintf("%s: requested %s, remaining %s", e.Code, e.Requested, e.Remaining)
	default:
		return e.Code
	}
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether the error is a pre-dispatch rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsProcessorConfig reports whether the error needs an onboarding
// remediation flow rather than a retry.
func IsProcessorConfig(err error) bool {
	return errors.Is(err, ErrProcessorNotOnboarded)
}
