/*
manager.go - Reservation hold lifecycle

PURPOSE:
  Decides, purely from stored timestamps, which reservation lines are still
  valid. Every read of the cart - process start, tab focus, periodic tick -
  runs the same read-prune-reconcile cycle:

    1. Load the cart from the tiered storage
    2. Compare each reservation line's HoldExpiresAt against the clock
    3. Remove all expired lines in one batch
    4. If the line count changed, persist the pruned cart
    5. If the cart went from "has reservations" to "none", notify the
       release collaborator (safe to fire redundantly)

WHY WALL-CLOCK TIMESTAMPS:
  The host process can be fully suspended and resumed (a phone backgrounding
  the app), and multiple tabs share the durable tier. A decremented counter
  would freeze or drift; a stored expiry timestamp compared against Now()
  cannot. Pruning is safe to apply speculatively - it is self-healing, so a
  stale write from a racing tab is corrected by the next read anywhere.

CONFIGURATION:
  The hold TTL comes from company configuration, clamped to 1-120 minutes
  with a 3-minute default, resolved once per operation and passed in as a
  value.

SEE ALSO:
  - cart.go: Type guard and line model
  - watcher.go: The periodic tick driving step 1 while holds are active
*/
package cart

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/warp/booking-engine/clock"
	"github.com/warp/booking-engine/config"
)

// =============================================================================
// MANAGER
// =============================================================================

type Manager struct {
	storage    Storage
	clock      clock.Clock
	releaser   ReleaseNotifier
	sessionRef string
}

func NewManager(storage Storage, clk clock.Clock, releaser ReleaseNotifier, sessionRef string) *Manager {
	return &Manager{
		storage:    storage,
		clock:      clk,
		releaser:   releaser,
		sessionRef: sessionRef,
	}
}

// SessionRef returns the session this manager operates on.
func (m *Manager) SessionRef() string { return m.sessionRef }

// Load reads the cart, prunes expired reservation lines, persists the
// result if anything changed, and fires the release notification when the
// last reservation disappeared.
func (m *Manager) Load(ctx context.Context) (Cart, error) {
	return m.loadPruned(ctx)
}

// Add inserts a single line. Reservation lines get their hold window
// stamped from the resolved configuration; re-adding a slot already in the
// cart returns the existing cart without touching the original expiry.
func (m *Manager) Add(ctx context.Context, line Line, cfg config.Config) (Cart, error) {
	return m.AddBatch(ctx, []Line{line}, cfg)
}

// AddBatch inserts several lines atomically. The type guard runs over the
// whole batch before any mutation: a rejected batch leaves the cart
// byte-for-byte unchanged.
func (m *Manager) AddBatch(ctx context.Context, lines []Line, cfg config.Config) (Cart, error) {
	current, err := m.loadPruned(ctx)
	if err != nil {
		return Cart{}, err
	}

	// Drop re-adds of slots already held. First-write-wins on timing.
	incoming := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Type == LineReservation && !l.SlotRef.IsZero() {
			if _, held := current.FindSlot(l.SlotRef); held {
				continue
			}
		}
		incoming = append(incoming, l)
	}
	if len(incoming) == 0 {
		return current, nil
	}

	if err := guardInsert(current, incoming); err != nil {
		return Cart{}, err
	}

	now := m.clock.Now()
	next := current.Clone()
	for _, l := range incoming {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if l.Type == LineReservation {
			l.Quantity = 1
			l.HoldStartedAt = now
			l.HoldExpiresAt = now.Add(cfg.HoldTTL())
		} else if l.Quantity <= 0 {
			l.Quantity = 1
		}
		next.Lines = append(next.Lines, l)
	}

	if err := m.storage.Save(ctx, m.sessionRef, next); err != nil {
		return Cart{}, err
	}
	return next, nil
}

// Remove deletes a line by id. Removing the last reservation line triggers
// the release notification.
func (m *Manager) Remove(ctx context.Context, lineID string) (Cart, error) {
	current, err := m.loadPruned(ctx)
	if err != nil {
		return Cart{}, err
	}

	next := Cart{Lines: make([]Line, 0, len(current.Lines))}
	for _, l := range current.Lines {
		if l.ID != lineID {
			next.Lines = append(next.Lines, l)
		}
	}
	if len(next.Lines) == len(current.Lines) {
		return current, nil
	}

	if err := m.storage.Save(ctx, m.sessionRef, next); err != nil {
		return Cart{}, err
	}
	if current.ReservationCount() > 0 && next.ReservationCount() == 0 {
		m.notifyRelease(ctx, ReleaseReasonRemoved)
	}
	return next, nil
}

// Checkout empties the cart after a completed purchase and releases any
// remaining hold claim.
func (m *Manager) Checkout(ctx context.Context) (Cart, error) {
	current, err := m.loadPruned(ctx)
	if err != nil {
		return Cart{}, err
	}
	if err := m.storage.Clear(ctx, m.sessionRef); err != nil {
		return Cart{}, err
	}
	if current.ReservationCount() > 0 {
		m.notifyRelease(ctx, ReleaseReasonCheckedOut)
	}
	return current, nil
}

// HasActiveReservations reports whether any reservation line still has a
// positive remaining time. Used by the watcher to decide when to stop.
func (m *Manager) HasActiveReservations(ctx context.Context) (bool, error) {
	c, err := m.loadPruned(ctx)
	if err != nil {
		return false, err
	}
	return c.ReservationCount() > 0, nil
}

// =============================================================================
// READ-PRUNE-RECONCILE
// =============================================================================

func (m *Manager) loadPruned(ctx context.Context) (Cart, error) {
	current, ok, err := m.storage.Load(ctx, m.sessionRef)
	if err != nil {
		return Cart{}, err
	}
	if !ok {
		return Cart{}, nil
	}

	now := m.clock.Now()
	pruned := Cart{Lines: make([]Line, 0, len(current.Lines))}
	for _, l := range current.Lines {
		if !l.Expired(now) {
			pruned.Lines = append(pruned.Lines, l)
		}
	}
	if len(pruned.Lines) == len(current.Lines) {
		return current, nil
	}

	if err := m.storage.Save(ctx, m.sessionRef, pruned); err != nil {
		return Cart{}, err
	}
	if current.ReservationCount() > 0 && pruned.ReservationCount() == 0 {
		m.notifyRelease(ctx, ReleaseReasonExpired)
	}
	return pruned, nil
}

// notifyRelease fires the idempotent release collaborator. Failures are
// logged, not propagated: another tab or the next read will retry, and the
// receiver treats redundant calls as a no-op.
func (m *Manager) notifyRelease(ctx context.Context, reason string) {
	if m.releaser == nil {
		return
	}
	res, err := m.releaser.ReleaseHold(ctx, m.sessionRef, reason)
	if err != nil {
		log.Printf("[Cart] release notification failed for %s: %v", m.sessionRef, err)
		return
	}
	if !res.Released && res.Status != ReleaseStatusMissing {
		log.Printf("[Cart] unexpected release status for %s: %s", m.sessionRef, res.Status)
	}
}
