/*
handlers.go - HTTP handlers for the booking ledger and cart

PURPOSE:
  Connects the HTTP surface to the domain packages: ledger views, refund
  submission, card-on-file charges, and cart/hold operations.

ERROR MAPPING (mirrors the engine's error taxonomy):
  Validation errors          -> 422 (code + amounts in the body)
  Mixed-cart insertion       -> 409 with code "mixed_type_unsupported"
  Refund already in flight   -> 409
  Processor not onboarded    -> 409 with code "processor_not_onboarded"
  Unknown booking            -> 404
  Transient feed/dispatch    -> 502; prior state is left to the client

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router wiring
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/booking-engine/cart"
	"github.com/warp/booking-engine/clock"
	"github.com/warp/booking-engine/config"
	"github.com/warp/booking-engine/ledger"
	"github.com/warp/booking-engine/money"
	"github.com/warp/booking-engine/refund"
)

// =============================================================================
// HANDLER
// =============================================================================

type Handler struct {
	Feed    ledger.Feed
	Refunds *refund.Service
	Cart    *cart.Manager
	Watcher *cart.Watcher
	Config  config.Source
	Clock   clock.Clock
}

func NewHandler(feed ledger.Feed, refunds *refund.Service, cartMgr *cart.Manager, watcher *cart.Watcher, cfg config.Source, clk clock.Clock) *Handler {
	return &Handler{
		Feed:    feed,
		Refunds: refunds,
		Cart:    cartMgr,
		Watcher: watcher,
		Config:  cfg,
		Clock:   clk,
	}
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// GetLedger returns the summarized financial state of a booking.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	cfg := h.Config.Resolve()

	txs, err := h.Feed.ListTransactions(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view := ledger.CurrentView(txs, ledger.StatusSignals{}, cfg.DefaultCurrency())
	h.writeJSON(w, http.StatusOK, toLedgerDTO(bookingID, view))
}

// GetTransactions returns the raw transaction list for a booking.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")

	txs, err := h.Feed.ListTransactions(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// SubmitRefund plans and dispatches a refund for a booking.
func (h *Handler) SubmitRefund(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	cfg := h.Config.Resolve()

	var req SubmitRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	planReq := refund.PlanRequest{
		Scope:               refund.Scope(req.Scope),
		IncludeTips:         req.IncludeTips,
		Note:                req.Note,
		PlatformFeeRefunded: req.PlatformFeeRefunded,
	}
	currency := cfg.DefaultCurrency()
	if req.ServiceAmount != nil {
		a := money.NewAmount(*req.ServiceAmount, currency)
		planReq.ServiceAmount = &a
	}
	if req.TipAmount != nil {
		a := money.NewAmount(*req.TipAmount, currency)
		planReq.TipAmount = &a
	}

	result, err := h.Refunds.SubmitRefund(r.Context(), bookingID, ledger.StatusSignals{}, planReq)
	if err != nil {
		h.writeError(w, err)
		return
	}

	txs, err := h.Feed.ListTransactions(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	view := ledger.CurrentView(txs, ledger.StatusSignals{}, currency)

	h.writeJSON(w, http.StatusCreated, RefundResultDTO{
		Mode:         string(result.Instruction.Mode),
		ServiceMinor: result.Instruction.ServiceMinor,
		TipMinor:     result.Instruction.TipMinor,
		Currency:     result.Instruction.Currency,
		Transaction:  toTransactionDTO(result.Transaction),
		Ledger:       toLedgerDTO(bookingID, view),
	})
}

// SubmitCharge charges a saved payment method for a booking.
func (h *Handler) SubmitCharge(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")

	var req SubmitChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	tx, err := h.Refunds.SubmitCharge(r.Context(), bookingID, req.PaymentMethodRef, req.AmountMinor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// =============================================================================
// CART HANDLERS
// =============================================================================

// GetCart returns the cart after the expiry prune.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cart.Load(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.kickWatcher(c)
	h.writeJSON(w, http.StatusOK, toCartDTO(h.Cart.SessionRef(), c, h.Clock.Now()))
}

// AddLine inserts a line into the cart.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	cfg := h.Config.Resolve()

	var req AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	line := cart.Line{
		Type:     cart.LineType(req.Type),
		Name:     req.Name,
		Price:    money.NewAmount(req.Price, cfg.DefaultCurrency()),
		Quantity: req.Quantity,
		SlotRef: cart.SlotRef{
			ServiceID:  req.ServiceID,
			ProviderID: req.ProviderID,
			Date:       req.SlotDate,
			Start:      req.SlotStart,
		},
	}
	if line.Type != cart.LineReservation && line.Type != cart.LinePurchase {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown line type", Code: "invalid_line_type"})
		return
	}

	c, err := h.Cart.Add(r.Context(), line, cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.kickWatcher(c)
	h.writeJSON(w, http.StatusCreated, toCartDTO(h.Cart.SessionRef(), c, h.Clock.Now()))
}

// RemoveLine deletes a cart line by id.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "id")

	c, err := h.Cart.Remove(r.Context(), lineID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartDTO(h.Cart.SessionRef(), c, h.Clock.Now()))
}

// Checkout empties the cart and releases any held slot.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cart.Checkout(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartDTO(h.Cart.SessionRef(), c, h.Clock.Now()))
}

func (h *Handler) kickWatcher(c cart.Cart) {
	if h.Watcher != nil && c.ReservationCount() > 0 {
		h.Watcher.Kick()
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var mixedErr *cart.MixedTypeError
	if errors.As(err, &mixedErr) {
		h.writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: mixedErr.Error(),
			Code:  cart.MixedTypeCode,
			Details: map[string]string{
				"existing_type":  string(mixedErr.Existing),
				"attempted_type": string(mixedErr.Attempted),
			},
		})
		return
	}

	var validationErr *refund.ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: validationErr.Error(),
			Code:  validationErr.Code,
			Details: map[string]float64{
				"requested": validationErr.Requested.Float64(),
				"remaining": validationErr.Remaining.Float64(),
			},
		})
		return
	}

	switch {
	case refund.IsProcessorConfig(err):
		h.writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "processor_not_onboarded",
		})
	case errors.Is(err, refund.ErrRefundInFlight):
		h.writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "refund_in_flight",
		})
	case errors.Is(err, ledger.ErrBookingNotFound):
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		// Transient collaborator failure: the client keeps its prior state.
		h.writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	}
}
