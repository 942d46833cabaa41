/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the domain packages, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/booking-engine/cart"
	"github.com/warp/booking-engine/ledger"
	"github.com/warp/booking-engine/refund"
)

// =============================================================================
// LEDGER TYPES
// =============================================================================

// TransactionDTO represents one processor event.
type TransactionDTO struct {
	ID               string  `json:"id"`
	Kind             string  `json:"kind"`
	Status           string  `json:"status"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	AuthorizationRef string  `json:"authorization_ref,omitempty"`
	RefundBucket     string  `json:"refund_bucket,omitempty"`
	Provider         string  `json:"provider"`
	OccurredAt       string  `json:"occurred_at"`
}

// LedgerDTO is the summarized financial state of one booking.
type LedgerDTO struct {
	BookingID        string  `json:"booking_id"`
	CapturedBalance  float64 `json:"captured_balance"`
	CapturedTip      float64 `json:"captured_tip"`
	PendingBalance   float64 `json:"pending_balance"`
	PendingTip       float64 `json:"pending_tip"`
	RefundedTotal    float64 `json:"refunded_total"`
	BalanceRemaining float64 `json:"balance_remaining"`
	TipRemaining     float64 `json:"tip_remaining"`
	Currency         string  `json:"currency"`
	PaymentStatus    string  `json:"payment_status"`
	AuthorizationRef string  `json:"authorization_ref,omitempty"`
}

// SubmitRefundRequest is the request to refund a booking.
type SubmitRefundRequest struct {
	Scope               string   `json:"scope"` // "full" or "custom"
	IncludeTips         bool     `json:"include_tips"`
	ServiceAmount       *float64 `json:"service_amount,omitempty"`
	TipAmount           *float64 `json:"tip_amount,omitempty"`
	Note                string   `json:"note,omitempty"`
	PlatformFeeRefunded bool     `json:"platform_fee_refunded"`
}

// RefundResultDTO is the outcome of a submitted refund.
type RefundResultDTO struct {
	Mode         string         `json:"mode"`
	ServiceMinor int64          `json:"service_minor_units"`
	TipMinor     int64          `json:"tip_minor_units"`
	Currency     string         `json:"currency"`
	Transaction  TransactionDTO `json:"transaction"`
	Ledger       LedgerDTO      `json:"ledger"`
}

// SubmitChargeRequest charges a saved payment method.
type SubmitChargeRequest struct {
	PaymentMethodRef string `json:"payment_method_ref"`
	AmountMinor      int64  `json:"amount_minor_units"`
}

// =============================================================================
// CART TYPES
// =============================================================================

// LineDTO represents one cart line.
type LineDTO struct {
	ID               string  `json:"id"`
	Type             string  `json:"type"`
	Name             string  `json:"name,omitempty"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency,omitempty"`
	Quantity         int     `json:"quantity"`
	ServiceID        string  `json:"service_id,omitempty"`
	ProviderID       string  `json:"provider_id,omitempty"`
	SlotDate         string  `json:"slot_date,omitempty"`
	SlotStart        string  `json:"slot_start,omitempty"`
	HoldExpiresAt    string  `json:"hold_expires_at,omitempty"`
	RemainingSeconds int64   `json:"remaining_seconds,omitempty"`
}

// CartDTO represents the cart after pruning.
type CartDTO struct {
	SessionRef string    `json:"session_ref"`
	Lines      []LineDTO `json:"lines"`
}

// AddLineRequest is the request to add a line to the cart.
type AddLineRequest struct {
	Type       string  `json:"type"` // "reservation" or "purchase"
	Name       string  `json:"name,omitempty"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity,omitempty"`
	ServiceID  string  `json:"service_id,omitempty"`
	ProviderID string  `json:"provider_id,omitempty"`
	SlotDate   string  `json:"slot_date,omitempty"`
	SlotStart  string  `json:"slot_start,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:               tx.ID,
		Kind:             string(tx.Kind),
		Status:           string(tx.Status),
		Amount:           tx.Amount.Float64(),
		Currency:         tx.Amount.Currency,
		AuthorizationRef: tx.AuthorizationRef,
		RefundBucket:     refundBucketLabel(tx),
		Provider:         string(tx.Provider),
		OccurredAt:       tx.OccurredAt.Format(time.RFC3339),
	}
}

func refundBucketLabel(tx ledger.Transaction) string {
	if !tx.Kind.IsRefund() {
		return ""
	}
	return string(tx.RefundBucket)
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toLedgerDTO(bookingID string, view ledger.View) LedgerDTO {
	rem := refund.ComputeRemainders(view.Summary)
	dto := LedgerDTO{
		BookingID:        bookingID,
		CapturedBalance:  view.Summary.CapturedBalance.Float64(),
		CapturedTip:      view.Summary.CapturedTip.Float64(),
		PendingBalance:   view.Summary.PendingBalance.Float64(),
		PendingTip:       view.Summary.PendingTip.Float64(),
		RefundedTotal:    view.Summary.RefundedTotal.Float64(),
		BalanceRemaining: rem.BalanceRemaining.Float64(),
		TipRemaining:     rem.TipRemaining.Float64(),
		Currency:         view.Summary.CapturedBalance.Currency,
		PaymentStatus:    string(view.Summary.Status),
	}
	if primary := view.Primary(); primary != nil {
		dto.AuthorizationRef = primary.Ref
	}
	return dto
}

func toLineDTO(l cart.Line, now time.Time) LineDTO {
	dto := LineDTO{
		ID:         l.ID,
		Type:       string(l.Type),
		Name:       l.Name,
		Price:      l.Price.Float64(),
		Currency:   l.Price.Currency,
		Quantity:   l.Quantity,
		ServiceID:  l.SlotRef.ServiceID,
		ProviderID: l.SlotRef.ProviderID,
		SlotDate:   l.SlotRef.Date,
		SlotStart:  l.SlotRef.Start,
	}
	if l.Type == cart.LineReservation {
		dto.HoldExpiresAt = l.HoldExpiresAt.Format(time.RFC3339)
		dto.RemainingSeconds = int64(l.Remaining(now).Seconds())
	}
	return dto
}

func toCartDTO(sessionRef string, c cart.Cart, now time.Time) CartDTO {
	dto := CartDTO{SessionRef: sessionRef, Lines: make([]LineDTO, len(c.Lines))}
	for i, l := range c.Lines {
		dto.Lines[i] = toLineDTO(l, now)
	}
	return dto
}
