/*
Package cart manages the shopping cart and the time-boxed reservation holds
living inside it.

PURPOSE:
  A cart line of type "reservation" is a temporary claim on a bookable time
  slot, valid until its expiry timestamp. This package owns that lifecycle:
  stamping the hold window on insertion, pruning expired lines on every read,
  releasing the underlying slot when the last reservation disappears, and
  enforcing that a cart never mixes reservation and immediate-purchase lines.

KEY CONCEPTS IN THIS FILE (cart.go):
  - Line / LineType: One cart entry, either a reservation or a purchase
  - SlotRef: Identity of the held time slot (service+provider+date+start)
  - Cart: Ordered, id-keyed collection of lines
  - Type guard: a non-empty cart holds exactly one line type

INVARIANTS:
  1. Mixed-cart rejection is ATOMIC: a rejected insertion leaves the cart
     byte-for-byte unchanged, whether inserting one line or a batch
  2. Re-adding a slot already in the cart never extends its expiry
     (first-write-wins on timing)
  3. Reservation quantity is always 1

SEE ALSO:
  - manager.go: Read-prune-reconcile lifecycle over the storage tiers
  - watcher.go: Periodic tick while reservations are active
*/
package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/warp/booking-engine/money"
)

// =============================================================================
// LINE - One cart entry
// =============================================================================

type LineType string

const (
	LineReservation LineType = "reservation"
	LinePurchase    LineType = "purchase"
)

// SlotRef identifies the held time slot.
type SlotRef struct {
	ServiceID  string
	ProviderID string
	Date       string // ISO date, e.g. "2026-03-10"
	Start      string // start time, e.g. "14:30"
}

func (r SlotRef) IsZero() bool {
	return r == SlotRef{}
}

type Line struct {
	ID       string
	Type     LineType
	Name     string
	Price    money.Amount
	Quantity int

	// Reservation-only fields. The hold window is stamped at insertion and
	// never refreshed afterwards.
	SlotRef       SlotRef
	HoldStartedAt time.Time
	HoldExpiresAt time.Time
}

// Expired reports whether a reservation line's hold window has passed.
// Purchase lines never expire.
func (l Line) Expired(now time.Time) bool {
	if l.Type != LineReservation {
		return false
	}
	return !l.HoldExpiresAt.After(now)
}

// Remaining returns the hold time left, recomputed fresh from timestamps.
// Never derived from a decrementing counter, so a backgrounded or reloaded
// session reports the correct value.
func (l Line) Remaining(now time.Time) time.Duration {
	if l.Type != LineReservation {
		return 0
	}
	d := l.HoldExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// =============================================================================
// CART - Ordered, id-keyed collection of lines
// =============================================================================

type Cart struct {
	Lines []Line
}

func (c Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// Clone returns a deep copy. Mutating operations work on a clone so a
// rejected insertion leaves the original untouched.
func (c Cart) Clone() Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// Find returns the line with the given id.
func (c Cart) Find(lineID string) (Line, bool) {
	for _, l := range c.Lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

// FindSlot returns the reservation line holding the given slot.
func (c Cart) FindSlot(ref SlotRef) (Line, bool) {
	for _, l := range c.Lines {
		if l.Type == LineReservation && l.SlotRef == ref {
			return l, true
		}
	}
	return Line{}, false
}

// ReservationCount returns the number of reservation lines.
func (c Cart) ReservationCount() int {
	n := 0
	for _, l := range c.Lines {
		if l.Type == LineReservation {
			n++
		}
	}
	return n
}

// lineType returns the type of the cart's lines, or "" when empty.
func (c Cart) lineType() LineType {
	if len(c.Lines) == 0 {
		return ""
	}
	return c.Lines[0].Type
}

// =============================================================================
// TYPE GUARD - A non-empty cart holds exactly one line type
// =============================================================================

// ErrMixedTypes is the sentinel under every MixedTypeError.
var ErrMixedTypes = errors.New("cart cannot mix reservation and purchase lines")

// MixedTypeCode is the machine-readable code carried to API clients.
const MixedTypeCode = "mixed_type_unsupported"

// MixedTypeError reports a rejected insertion that would have mixed line
// types. The cart is left unchanged.
type MixedTypeError struct {
	Existing  LineType
	Attempted LineType
}

func (e *MixedTypeError) Error() string {
	return fmt.Sprintf("%s: cart holds %s lines, cannot add %s line",
		MixedTypeCode, e.Existing, e.Attempted)
}

func (e *MixedTypeError) Unwrap() error { return ErrMixedTypes }

// guardInsert checks the type invariant for a batch of incoming lines
// against the current cart. Checked before any mutation.
func guardInsert(c Cart, incoming []Line) error {
	existing := c.lineType()
	for _, l := range incoming {
		if existing != "" && l.Type != existing {
			return &MixedTypeError{Existing: existing, Attempted: l.Type}
		}
		if existing == "" {
			existing = l.Type
		}
	}
	return nil
}
