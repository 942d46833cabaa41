package refund_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/booking-engine/clock"
	"github.com/warp/booking-engine/ledger"
	"github.com/warp/booking-engine/money"
	"github.com/warp/booking-engine/processor"
	"github.com/warp/booking-engine/refund"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// The fixed clock sits after the seeded captures so dispatched refunds land
// later in the history.
func newTestService(t *testing.T) (*refund.Service, *processor.Memory) {
	t.Helper()
	proc := processor.NewMemory(clock.NewFixed(t0.Add(time.Hour)))
	return refund.NewService(proc, proc, "USD"), proc
}

func seedCapturedBooking(proc *processor.Memory, bookingID string) {
	proc.Seed(bookingID,
		processorCapture("tx-1", money.KindBalance, 80.00),
		processorCapture("tx-2", money.KindTip, 15.00),
	)
}

// =============================================================================
// SUBMIT REFUND TESTS
// =============================================================================

func TestService_SubmitRefund_FullIncludingTips(t *testing.T) {
	// GIVEN: a booking with 80.00 balance + 15.00 tip captured
	// WHEN: submitting a full refund including tips
	// THEN: the recomputed summary shows everything refunded

	svc, proc := newTestService(t)
	seedCapturedBooking(proc, "bk-1")
	ctx := context.Background()

	res, err := svc.SubmitRefund(ctx, "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
		Scope:       refund.ScopeFull,
		IncludeTips: true,
	})

	require.NoError(t, err)
	assert.Equal(t, refund.ModeProcessor, res.Instruction.Mode)
	assert.Equal(t, int64(9500), res.Instruction.TotalMinor())
	assert.Equal(t, money.KindRefund, res.Transaction.Kind)

	// The dispatcher appends one refund record per bucket; the returned
	// summary must cover both, not just the transaction handed back.
	assert.Equal(t, int64(9500), res.Summary.RefundedTotal.MinorUnits())
	assert.Equal(t, int64(8000), res.Summary.RefundedBalance.MinorUnits())
	assert.Equal(t, int64(1500), res.Summary.RefundedTip.MinorUnits())
	assert.Equal(t, money.PaymentRefunded, res.Summary.Status)
}

func TestService_SubmitRefund_SummaryMatchesFreshListing(t *testing.T) {
	// GIVEN: a refund touching both buckets
	// WHEN: submission succeeds
	// THEN: the returned summary equals one recomputed from the feed

	svc, proc := newTestService(t)
	seedCapturedBooking(proc, "bk-1")
	ctx := context.Background()

	res, err := svc.SubmitRefund(ctx, "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
		Scope:       refund.ScopeFull,
		IncludeTips: true,
	})
	require.NoError(t, err)

	txs, err := proc.ListTransactions(ctx, "bk-1")
	require.NoError(t, err)
	fresh := ledger.CurrentView(txs, ledger.StatusSignals{}, "USD")
	assert.Equal(t, fresh.Summary, res.Summary)
}

func TestService_SubmitRefund_ValidationFailureLeavesLedgerUntouched(t *testing.T) {
	// GIVEN: a booking already fully refunded
	// WHEN: submitting another full refund
	// THEN: rejected, and no new transaction appears in the feed

	svc, proc := newTestService(t)
	seedCapturedBooking(proc, "bk-1")
	ctx := context.Background()

	_, err := svc.SubmitRefund(ctx, "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
		Scope:       refund.ScopeFull,
		IncludeTips: true,
	})
	require.NoError(t, err)

	before, err := proc.ListTransactions(ctx, "bk-1")
	require.NoError(t, err)

	_, err = svc.SubmitRefund(ctx, "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
		Scope:       refund.ScopeFull,
		IncludeTips: true,
	})
	assert.True(t, refund.IsValidation(err))

	after, err := proc.ListTransactions(ctx, "bk-1")
	require.NoError(t, err)
	assert.Len(t, after, len(before), "rejected submission must not mutate the ledger")
}

func TestService_SubmitRefund_ProcessorNotOnboarded(t *testing.T) {
	svc, proc := newTestService(t)
	seedCapturedBooking(proc, "bk-1")
	proc.SetOnboarded(false)

	_, err := svc.SubmitRefund(context.Background(), "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
		Scope: refund.ScopeFull,
	})

	require.Error(t, err)
	assert.True(t, refund.IsProcessorConfig(err))
	assert.False(t, refund.IsValidation(err))
}

func TestService_SubmitRefund_UnknownBooking(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SubmitRefund(context.Background(), "nope", ledger.StatusSignals{}, refund.PlanRequest{
		Scope: refund.ScopeFull,
	})

	assert.ErrorIs(t, err, ledger.ErrBookingNotFound)
}

func TestService_SubmitRefund_InFlightGuard(t *testing.T) {
	// GIVEN: a dispatcher that blocks mid-submission
	// WHEN: a second submission for the same booking arrives
	// THEN: it is rejected with ErrRefundInFlight

	proc := processor.NewMemory(clock.NewFixed(t0))
	seedCapturedBooking(proc, "bk-1")

	release := make(chan struct{})
	slow := &slowDispatcher{inner: proc, entered: make(chan struct{}), release: release}
	svc := refund.NewService(proc, slow, "USD")
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.SubmitRefund(ctx, "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
			Scope:       refund.ScopeFull,
			IncludeTips: true,
		})
		assert.NoError(t, err)
	}()

	<-slow.entered
	_, err := svc.SubmitRefund(ctx, "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
		Scope: refund.ScopeFull,
	})
	assert.ErrorIs(t, err, refund.ErrRefundInFlight)

	close(release)
	wg.Wait()

	// The guard clears after the first submission completes.
	_, err = svc.SubmitRefund(ctx, "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
		Scope: refund.ScopeFull,
	})
	assert.True(t, refund.IsValidation(err), "post-completion failure is nothing-to-refund, not in-flight")
}

// slowDispatcher delegates to the real dispatcher but parks the first
// SubmitRefund until released, to widen the in-flight window.
type slowDispatcher struct {
	inner   refund.Dispatcher
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (d *slowDispatcher) SubmitRefund(ctx context.Context, bookingID string, ins refund.Instruction) (ledger.Transaction, error) {
	d.once.Do(func() {
		close(d.entered)
		<-d.release
	})
	return d.inner.SubmitRefund(ctx, bookingID, ins)
}

func (d *slowDispatcher) SubmitCharge(ctx context.Context, bookingID, paymentMethodRef string, amountMinor int64, currency string) (ledger.Transaction, error) {
	return d.inner.SubmitCharge(ctx, bookingID, paymentMethodRef, amountMinor, currency)
}

// =============================================================================
// SUBMIT CHARGE TESTS
// =============================================================================

func TestService_SubmitCharge_AppendsCapture(t *testing.T) {
	svc, proc := newTestService(t)
	proc.Seed("bk-1")
	ctx := context.Background()

	tx, err := svc.SubmitCharge(ctx, "bk-1", "pm-card-1", 4500)

	require.NoError(t, err)
	assert.Equal(t, money.KindBalance, tx.Kind)
	assert.True(t, tx.Status.IsCaptured())
	assert.Equal(t, int64(4500), tx.Amount.MinorUnits())
	assert.NotEmpty(t, tx.AuthorizationRef)

	txs, err := proc.ListTransactions(ctx, "bk-1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestService_SubmitCharge_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t)

	for _, minor := range []int64{0, -100} {
		_, err := svc.SubmitCharge(context.Background(), "bk-1", "pm-card-1", minor)
		var vErr *refund.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, refund.CodeInvalidAmount, vErr.Code)
	}
}

func TestService_DispatchedRefundCarriesClockTime(t *testing.T) {
	svc, proc := newTestService(t)
	seedCapturedBooking(proc, "bk-1")

	res, err := svc.SubmitRefund(context.Background(), "bk-1", ledger.StatusSignals{}, refund.PlanRequest{
		Scope: refund.ScopeFull,
	})

	require.NoError(t, err)
	assert.True(t, res.Transaction.OccurredAt.Equal(t0.Add(time.Hour)))
}
