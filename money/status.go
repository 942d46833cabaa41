/*
status.go - Closed vocabularies for transaction kinds and statuses

PURPOSE:
  Defines the enumerations the engine branches on, and the normalization
  that folds free-form processor strings into them. No ledger or refund
  code ever branches on a raw provider string.

NORMALIZATION RULES:
  - Case-insensitive, whitespace-trimmed
  - Unrecognized transaction statuses are treated as "pending": an unknown
    signal must never be counted as captured money
  - Payment status derivation precedence lives in the ledger package; this
    file only owns the vocabularies

SEE ALSO:
  - money.go: Amount type
  - ledger/summary.go: Status derivation precedence
*/
package money

import "strings"

// =============================================================================
// TRANSACTION KIND - What a processor event represents
// =============================================================================

type Kind string

const (
	KindBalance Kind = "balance"
	KindService Kind = "service"
	KindProduct Kind = "product"
	KindDeposit Kind = "deposit"
	KindNoShow  Kind = "no_show"
	KindTip     Kind = "tip"
	KindRefund  Kind = "refund"
)

// IsBalanceBucket reports whether the kind accumulates into the balance
// bucket when summarized. Tips and refunds are handled separately.
func (k Kind) IsBalanceBucket() bool {
	switch k {
	case KindBalance, KindService, KindProduct, KindDeposit, KindNoShow:
		return true
	}
	return false
}

func (k Kind) IsTip() bool    { return k == KindTip }
func (k Kind) IsRefund() bool { return k == KindRefund }

// =============================================================================
// TRANSACTION STATUS - Normalized processor status
// =============================================================================

type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusCaptured   Status = "captured"
	StatusSucceeded  Status = "succeeded"
	StatusPaid       Status = "paid"
	StatusRefunded   Status = "refunded"
	StatusFailed     Status = "failed"
)

// NormalizeStatus folds a free-form processor status into the closed set.
// Unrecognized values fold to StatusPending: never count unknown money
// as captured.
func NormalizeStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending
	case StatusAuthorized:
		return StatusAuthorized
	case StatusCaptured:
		return StatusCaptured
	case StatusSucceeded:
		return StatusSucceeded
	case StatusPaid:
		return StatusPaid
	case StatusRefunded:
		return StatusRefunded
	case StatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

// IsCaptured reports whether funds were successfully taken.
func (s Status) IsCaptured() bool {
	return s == StatusCaptured || s == StatusSucceeded || s == StatusPaid
}

// IsPending reports whether funds are reserved but not yet taken.
func (s Status) IsPending() bool {
	return s == StatusPending || s == StatusAuthorized
}

// =============================================================================
// REFUND BUCKET - Which captured bucket a refund reverses
// =============================================================================

type RefundBucket string

const (
	BucketService     RefundBucket = "service"
	BucketTip         RefundBucket = "tip"
	BucketUnspecified RefundBucket = "unspecified"
)

func NormalizeBucket(raw string) RefundBucket {
	switch RefundBucket(strings.ToLower(strings.TrimSpace(raw))) {
	case BucketService:
		return BucketService
	case BucketTip:
		return BucketTip
	default:
		return BucketUnspecified
	}
}

// =============================================================================
// PAYMENT STATUS - Single human-facing label per booking
// =============================================================================

type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentFailed            PaymentStatus = "failed"
	PaymentCardOnFile        PaymentStatus = "card_on_file"
)
