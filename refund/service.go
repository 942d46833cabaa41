/*
service.go - Refund submission against the external processor

PURPOSE:
  Orchestrates one refund attempt: fetch the booking's transactions, plan,
  dispatch, and hand back the new refund transaction plus the recomputed
  ledger state. On any failure the ledger is untouched - nothing is
  optimistically mutated before the dispatcher confirms success.

DOUBLE-SUBMIT GUARD:
  A request in flight blocks further refund submissions for the SAME booking
  at the call site. There is no global lock: each booking's ledger is
  independent, so submissions for different bookings proceed concurrently.

CANCELLATION:
  A dispatched refund cannot be cancelled. Processor-configuration failures
  (onboarding incomplete) are surfaced distinctly and never retried here;
  retry/backoff policy belongs to the caller.

SEE ALSO:
  - planner.go: Validation and instruction construction
  - processor package: In-memory dispatcher for dev/test
*/
package refund

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/booking-engine/ledger"
)

// =============================================================================
// DISPATCHER - External refund/charge collaborator
// =============================================================================

type Dispatcher interface {
	// SubmitRefund executes a vetted instruction and returns the new refund
	// transaction record.
	SubmitRefund(ctx context.Context, bookingID string, ins Instruction) (ledger.Transaction, error)

	// SubmitCharge charges a saved payment method and returns the new
	// capture transaction record. Amount is integer minor units.
	SubmitCharge(ctx context.Context, bookingID, paymentMethodRef string, amountMinor int64, currency string) (ledger.Transaction, error)
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	feed       ledger.Feed
	dispatcher Dispatcher
	currency   string

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewService(feed ledger.Feed, dispatcher Dispatcher, currency string) *Service {
	return &Service{
		feed:       feed,
		dispatcher: dispatcher,
		currency:   currency,
		inFlight:   make(map[string]bool),
	}
}

// Result is the outcome of a successful submission.
type Result struct {
	Instruction Instruction
	Transaction ledger.Transaction
	Summary     ledger.Summary
}

// SubmitRefund plans and dispatches a refund for one booking.
// The returned summary includes the new refund transaction.
func (s *Service) SubmitRefund(ctx context.Context, bookingID string, signals ledger.StatusSignals, req PlanRequest) (Result, error) {
	if err := s.acquire(bookingID); err != nil {
		return Result{}, err
	}
	defer s.release(bookingID)

	txs, err := s.feed.ListTransactions(ctx, bookingID)
	if err != nil {
		return Result{}, fmt.Errorf("list transactions: %w", err)
	}

	view := ledger.CurrentView(txs, signals, s.currency)
	ins, err := Plan(view.Summary, txs, req)
	if err != nil {
		return Result{}, err
	}

	tx, err := s.dispatcher.SubmitRefund(ctx, bookingID, ins)
	if err != nil {
		return Result{}, err
	}

	// The dispatcher may have appended more than one refund record (one per
	// bucket), so the summary is recomputed from a fresh listing rather than
	// from the single returned transaction.
	after, err := s.feed.ListTransactions(ctx, bookingID)
	if err != nil {
		// The refund went through; fall back to what we know locally.
		after = append(txs, tx)
	}

	recomputed := ledger.CurrentView(after, signals, s.currency)
	return Result{Instruction: ins, Transaction: tx, Summary: recomputed.Summary}, nil
}

// SubmitCharge charges a saved payment method (card on file) and returns
// the new capture transaction.
func (s *Service) SubmitCharge(ctx context.Context, bookingID, paymentMethodRef string, amountMinor int64) (ledger.Transaction, error) {
	if amountMinor <= 0 {
		return ledger.Transaction{}, &ValidationError{Code: CodeInvalidAmount}
	}
	return s.dispatcher.SubmitCharge(ctx, bookingID, paymentMethodRef, amountMinor, s.currency)
}

func (s *Service) acquire(bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[bookingID] {
		return ErrRefundInFlight
	}
	s.inFlight[bookingID] = true
	return nil
}

func (s *Service) release(bookingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, bookingID)
}
