/*
Package ledger turns an append-only list of heterogeneous payment events into
a trustworthy per-booking financial state.

PURPOSE:
  A booking accumulates processor-reported events over its lifetime: captures,
  authorizations, tips, refunds, card-on-file charges. This package reconciles
  that raw history into bucketed totals (captured/pending, split service vs.
  tip), a refundable remainder, and a single human-facing payment status.

KEY CONCEPTS IN THIS FILE (transaction.go):
  - Transaction: One immutable processor event
  - Provider: Whether the event is refundable through the processor's API
  - Feed: The external collaborator that delivers transaction lists

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified; state is always derived
  2. Recompute on demand: no cached ledger state that can drift
  3. Defensiveness: dirty upstream data is clamped or skipped, never fatal
  4. Normalization at the boundary: statuses are folded into closed enums
     (money package) before any logic here runs

SEE ALSO:
  - summary.go: Bucketed totals and payment status derivation
  - grouping.go: Authorization-reference grouping and the "current" view
  - refund package: Plans refund instructions from the summarized state
*/
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/warp/booking-engine/money"
)

// ErrBookingNotFound is returned by feeds for bookings they know nothing
// about.
var ErrBookingNotFound = errors.New("booking not found")

// =============================================================================
// PROVIDER - Who can execute refunds for a transaction
// =============================================================================

type Provider string

const (
	// ProviderProcessor marks transactions created through the payment
	// processor's API. Only these are refundable processor-side.
	ProviderProcessor Provider = "processor"

	// ProviderManual marks bookkeeping-only records (cash, external POS).
	ProviderManual Provider = "manual"
)

// =============================================================================
// TRANSACTION - One immutable processor event
// =============================================================================

type Transaction struct {
	ID     string
	Kind   money.Kind
	Status money.Status

	// RawStatus preserves the processor's original status string for
	// payment-status derivation. Status is the normalized form.
	RawStatus string

	Amount           money.Amount
	AuthorizationRef string

	// RefundBucket is meaningful only when Kind is refund. Unspecified
	// refunds fall back to the balance-first attribution heuristic.
	RefundBucket money.RefundBucket

	Provider   Provider
	OccurredAt time.Time
}

// ProcessorRefundable reports whether this transaction can be refunded
// through the processor's API.
func (t Transaction) ProcessorRefundable() bool {
	return t.Provider == ProviderProcessor && t.Status.IsCaptured() && !t.Kind.IsRefund()
}

// =============================================================================
// FEED - External collaborator delivering transaction lists
// =============================================================================

// Feed is the transaction-list collaborator. Failures are transient and
// surfaced to the caller; the prior ledger state stays displayed-but-stale.
type Feed interface {
	ListTransactions(ctx context.Context, bookingID string) ([]Transaction, error)
}
