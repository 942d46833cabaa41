/*
Package processor provides an in-memory simulation of the external payment
processor and booking backend.

PURPOSE:
  The core only ever talks to collaborators through contracts: a transaction
  feed, a refund/charge dispatcher, and a reservation release notifier. This
  package implements all three in memory so the dev server runs standalone
  and tests exercise the real orchestration paths.

BEHAVIOR:
  - SubmitRefund appends a refund transaction per included bucket, so the
    ledger always receives explicitly-tagged refunds going forward
  - SubmitCharge appends a captured balance transaction (card-on-file)
  - ReleaseHold is idempotent: the second call for the same reference
    returns {released:false, status:"missing"}, never an error
  - SetOnboarded(false) simulates an incompletely-configured processor
    account: dispatches fail with the distinct configuration error

SEE ALSO:
  - ledger/transaction.go: Feed contract
  - refund/service.go: Dispatcher contract
  - cart/release.go: ReleaseNotifier contract
*/
package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/booking-engine/cart"
	"github.com/warp/booking-engine/clock"
	"github.com/warp/booking-engine/ledger"
	"github.com/warp/booking-engine/money"
	"github.com/warp/booking-engine/refund"
)

// =============================================================================
// MEMORY PROCESSOR
// =============================================================================

type Memory struct {
	mu        sync.Mutex
	bookings  map[string][]ledger.Transaction
	released  map[string]bool
	onboarded bool
	clock     clock.Clock
}

func NewMemory(clk clock.Clock) *Memory {
	return &Memory{
		bookings:  make(map[string][]ledger.Transaction),
		released:  make(map[string]bool),
		onboarded: true,
		clock:     clk,
	}
}

// Seed registers a booking with an initial transaction history.
func (m *Memory) Seed(bookingID string, txs ...ledger.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[bookingID] = append(m.bookings[bookingID], txs...)
}

// SetOnboarded toggles the simulated onboarding state of the processor
// account.
func (m *Memory) SetOnboarded(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onboarded = v
}

// =============================================================================
// FEED
// =============================================================================

func (m *Memory) ListTransactions(_ context.Context, bookingID string) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs, ok := m.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrBookingNotFound, bookingID)
	}
	out := make([]ledger.Transaction, len(txs))
	copy(out, txs)
	return out, nil
}

// =============================================================================
// DISPATCHER
// =============================================================================

func (m *Memory) SubmitRefund(_ context.Context, bookingID string, ins refund.Instruction) (ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ins.Mode == refund.ModeProcessor && !m.onboarded {
		return ledger.Transaction{}, fmt.Errorf("submit refund: %w", refund.ErrProcessorNotOnboarded)
	}
	if _, ok := m.bookings[bookingID]; !ok {
		return ledger.Transaction{}, fmt.Errorf("%w: %s", ledger.ErrBookingNotFound, bookingID)
	}

	provider := ledger.ProviderProcessor
	if ins.Mode == refund.ModeManual {
		provider = ledger.ProviderManual
	}

	// The refund references the authorization of the capture it reverses,
	// like a real processor record would.
	authRef := ""
	for _, tx := range m.bookings[bookingID] {
		if tx.ProcessorRefundable() && tx.AuthorizationRef != "" {
			authRef = tx.AuthorizationRef
		}
	}

	// One refund transaction per included bucket keeps attribution explicit.
	var first ledger.Transaction
	appendRefund := func(minor int64, bucket money.RefundBucket) {
		tx := ledger.Transaction{
			ID:               uuid.NewString(),
			Kind:             money.KindRefund,
			Status:           money.StatusSucceeded,
			RawStatus:        "succeeded",
			Amount:           money.NewAmountFromMinor(minor, ins.Currency),
			AuthorizationRef: authRef,
			RefundBucket:     bucket,
			Provider:         provider,
			OccurredAt:       m.clock.Now(),
		}
		m.bookings[bookingID] = append(m.bookings[bookingID], tx)
		if first.ID == "" {
			first = tx
		}
	}

	if ins.ServiceMinor > 0 {
		appendRefund(ins.ServiceMinor, money.BucketService)
	}
	if ins.TipMinor > 0 {
		appendRefund(ins.TipMinor, money.BucketTip)
	}
	return first, nil
}

func (m *Memory) SubmitCharge(_ context.Context, bookingID, paymentMethodRef string, amountMinor int64, currency string) (ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.onboarded {
		return ledger.Transaction{}, fmt.Errorf("submit charge: %w", refund.ErrProcessorNotOnboarded)
	}
	if _, ok := m.bookings[bookingID]; !ok {
		return ledger.Transaction{}, fmt.Errorf("%w: %s", ledger.ErrBookingNotFound, bookingID)
	}

	tx := ledger.Transaction{
		ID:               uuid.NewString(),
		Kind:             money.KindBalance,
		Status:           money.StatusCaptured,
		RawStatus:        "captured",
		Amount:           money.NewAmountFromMinor(amountMinor, currency),
		AuthorizationRef: "auth_" + paymentMethodRef + "_" + uuid.NewString()[:8],
		Provider:         ledger.ProviderProcessor,
		OccurredAt:       m.clock.Now(),
	}
	m.bookings[bookingID] = append(m.bookings[bookingID], tx)
	return tx, nil
}

// =============================================================================
// RELEASE NOTIFIER
// =============================================================================

func (m *Memory) ReleaseHold(_ context.Context, sessionRef, reason string) (cart.ReleaseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released[sessionRef] {
		return cart.ReleaseResult{Released: false, Status: cart.ReleaseStatusMissing}, nil
	}
	m.released[sessionRef] = true
	return cart.ReleaseResult{Released: true, Status: cart.ReleaseStatusReleased}, nil
}
