/*
summary.go - Bucketed totals and payment status derivation

PURPOSE:
  The central reconciliation: classify each transaction by kind and status,
  accumulate captured/pending totals split into balance and tip buckets,
  accumulate refunds, and derive the one status label the UI displays.

INVARIANT:
  CapturedBalance + CapturedTip - RefundedTotal >= 0. If raw data would
  violate this (double-counted refunds), the excess is clamped rather than
  allowed to go negative.

REFUND BUCKET ATTRIBUTION:
  A refund tagged with a bucket is tracked against that bucket. An untagged
  refund is applied to the balance bucket first, spilling the remainder into
  the tip bucket. This is a documented legacy heuristic, not a precise
  ledger - callers should tag buckets explicitly going forward.

STATUS PRECEDENCE (first match wins, case-insensitive, over every raw
signal: booking flag, order flag, each transaction status, plus the
computed refund totals):
  1. refund evidence      -> partially_refunded / refunded
  2. failure signal       -> failed
     pending signal       -> pending
  3. paid/captured signal -> paid
  4. card-on-file signal  -> card_on_file
  5. any signal at all    -> pending
  6. nothing              -> unpaid

  A booking with ANY refund evidence must never display as fully "paid",
  and a genuine failure signal must not be silently upgraded to "pending".

FAILURE SEMANTICS:
  Malformed amounts are treated as zero. An empty transaction list yields
  all-zero totals and status "unpaid". Summarization never returns an error.
*/
package ledger

import (
	"strings"

	"github.com/warp/booking-engine/money"
)

// =============================================================================
// SUMMARY - Derived ledger state, recomputed on demand, never persisted
// =============================================================================

type Summary struct {
	CapturedBalance money.Amount
	CapturedTip     money.Amount
	PendingBalance  money.Amount
	PendingTip      money.Amount
	RefundedTotal   money.Amount

	// Explicitly-attributed refund portions. Untagged refunds land here via
	// the balance-first heuristic.
	RefundedBalance money.Amount
	RefundedTip     money.Amount

	Status money.PaymentStatus
}

// CapturedTotal returns captured balance plus captured tip.
func (s Summary) CapturedTotal() money.Amount {
	return s.CapturedBalance.Add(s.CapturedTip)
}

// =============================================================================
// STATUS SIGNALS - Raw booking/order-level flags scanned during derivation
// =============================================================================

type StatusSignals struct {
	BookingStatus string
	OrderStatus   string
	CardOnFile    bool
}

// =============================================================================
// SUMMARIZER
// =============================================================================

// Summarize reconciles a booking's transaction list into a Summary.
// The list must already be currency-consistent; currency names the
// currency for zero-valued results.
func Summarize(txs []Transaction, signals StatusSignals, currency string) Summary {
	s := Summary{
		CapturedBalance: money.Zero(currency),
		CapturedTip:     money.Zero(currency),
		PendingBalance:  money.Zero(currency),
		PendingTip:      money.Zero(currency),
		RefundedTotal:   money.Zero(currency),
		RefundedBalance: money.Zero(currency),
		RefundedTip:     money.Zero(currency),
	}

	for _, tx := range txs {
		amount := tx.Amount
		if amount.IsNegative() {
			// Malformed amount: treat as zero, never propagate.
			amount = amount.Zero()
		}

		if tx.Kind.IsRefund() {
			// A refund's own status is assumed settled once reported.
			s.RefundedTotal = s.RefundedTotal.Add(amount)
			switch tx.RefundBucket {
			case money.BucketService:
				s.RefundedBalance = s.RefundedBalance.Add(amount)
			case money.BucketTip:
				s.RefundedTip = s.RefundedTip.Add(amount)
			}
			continue
		}

		switch {
		case tx.Status.IsCaptured():
			if tx.Kind.IsTip() {
				s.CapturedTip = s.CapturedTip.Add(amount)
			} else if tx.Kind.IsBalanceBucket() {
				s.CapturedBalance = s.CapturedBalance.Add(amount)
			}
		case tx.Status.IsPending():
			if tx.Kind.IsTip() {
				s.PendingTip = s.PendingTip.Add(amount)
			} else if tx.Kind.IsBalanceBucket() {
				s.PendingBalance = s.PendingBalance.Add(amount)
			}
		}
	}

	s = s.attributeUntaggedRefunds()
	s = s.clampRefunded()
	s.Status = deriveStatus(signals, txs, s)
	return s
}

// attributeUntaggedRefunds applies the balance-first heuristic to the
// portion of RefundedTotal not covered by explicit bucket tags.
func (s Summary) attributeUntaggedRefunds() Summary {
	tagged := s.RefundedBalance.Add(s.RefundedTip)
	untagged := s.RefundedTotal.Sub(tagged).ClampZero()
	if untagged.IsZero() {
		return s
	}

	balanceRoom := s.CapturedBalance.Sub(s.RefundedBalance).ClampZero()
	toBalance := untagged.Min(balanceRoom)
	s.RefundedBalance = s.RefundedBalance.Add(toBalance)
	s.RefundedTip = s.RefundedTip.Add(untagged.Sub(toBalance))
	return s
}

// clampRefunded enforces CapturedBalance + CapturedTip - RefundedTotal >= 0.
func (s Summary) clampRefunded() Summary {
	captured := s.CapturedTotal()
	if s.RefundedTotal.GreaterThan(captured) {
		s.RefundedTotal = captured
	}
	return s
}

// =============================================================================
// STATUS DERIVATION
// =============================================================================

func deriveStatus(signals StatusSignals, txs []Transaction, s Summary) money.PaymentStatus {
	raw := collectSignals(signals, txs)

	// 1. Refund evidence wins over everything.
	if hasSignal(raw, "partially_refunded") {
		return money.PaymentPartiallyRefunded
	}
	explicitRefunded := hasSignal(raw, "refunded")
	if explicitRefunded || s.RefundedTotal.IsPositive() {
		captured := s.CapturedTotal()
		if s.RefundedTotal.IsPositive() && s.RefundedTotal.LessThan(captured) {
			return money.PaymentPartiallyRefunded
		}
		if explicitRefunded || (captured.IsPositive() && !s.RefundedTotal.LessThan(captured)) {
			return money.PaymentRefunded
		}
		return money.PaymentPartiallyRefunded
	}

	// 2. Failure and in-progress signals. A genuine failure is never
	//    upgraded to pending.
	if hasSignal(raw, "failed") {
		return money.PaymentFailed
	}
	if hasSignal(raw, "pending", "processing", "requires_payment_method", "authorized") {
		return money.PaymentPending
	}

	// 3. Any successful paid/captured/complete signal.
	if hasSignal(raw, "paid", "captured", "succeeded", "complete", "completed") {
		return money.PaymentPaid
	}

	// 4. Card on file.
	if signals.CardOnFile || hasSignal(raw, "card_on_file") {
		return money.PaymentCardOnFile
	}

	// 5. Signals exist but matched nothing recognizable.
	if len(raw) > 0 {
		return money.PaymentPending
	}

	return money.PaymentUnpaid
}

// collectSignals gathers every case-folded raw status signal available for
// the booking. "unpaid" and empty strings carry no information and are
// dropped so they never mask the default.
func collectSignals(signals StatusSignals, txs []Transaction) []string {
	var raw []string
	appendSignal := func(v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && v != "unpaid" {
			raw = append(raw, v)
		}
	}

	appendSignal(signals.BookingStatus)
	appendSignal(signals.OrderStatus)
	for _, tx := range txs {
		if tx.RawStatus != "" {
			appendSignal(tx.RawStatus)
		} else {
			appendSignal(string(tx.Status))
		}
	}
	return raw
}

func hasSignal(raw []string, wanted ...string) bool {
	for _, r := range raw {
		for _, w := range wanted {
			if r == w {
				return true
			}
		}
	}
	return false
}
