/*
storage.go - Two-tier cart persistence

PURPOSE:
  The cart is mirrored into two storage tiers: a volatile, tab-scoped tier
  and a durable, cross-session tier. Reads prefer the volatile tier when it
  holds a cart; otherwise they fall back to the durable tier and immediately
  re-seed the volatile one.

CONCURRENCY MODEL:
  Writes are last-writer-wins - no transactional merge. That is acceptable
  because every read re-applies the expiry prune before returning data, so
  staleness introduced by a lost write never survives a read: an un-pruned
  expired line from a stale write is simply pruned by the next reader.

IMPLEMENTATIONS:
  - cart/store/memory.go: volatile tier (and test double)
  - store/sqlite/sqlite.go: durable tier

SEE ALSO:
  - manager.go: The read-prune-reconcile cycle running on top of this
*/
package cart

import "context"

// Storage persists carts keyed by session reference.
type Storage interface {
	// Load returns the cart for a session. ok is false when no cart is
	// stored for the session.
	Load(ctx context.Context, sessionRef string) (c Cart, ok bool, err error)

	// Save stores the cart, replacing any previous value. Last-writer-wins.
	Save(ctx context.Context, sessionRef string, c Cart) error

	// Clear removes the session's cart.
	Clear(ctx context.Context, sessionRef string) error
}

// =============================================================================
// TIERED STORAGE - volatile preferred, durable fallback
// =============================================================================

type TieredStorage struct {
	Volatile Storage
	Durable  Storage
}

func NewTieredStorage(volatile, durable Storage) *TieredStorage {
	return &TieredStorage{Volatile: volatile, Durable: durable}
}

// Load prefers the volatile tier; on a miss it falls back to the durable
// tier and re-seeds the volatile tier with whatever it found.
func (t *TieredStorage) Load(ctx context.Context, sessionRef string) (Cart, bool, error) {
	c, ok, err := t.Volatile.Load(ctx, sessionRef)
	if err != nil {
		return Cart{}, false, err
	}
	if ok && !c.IsEmpty() {
		return c, true, nil
	}

	c, ok, err = t.Durable.Load(ctx, sessionRef)
	if err != nil || !ok {
		return Cart{}, false, err
	}
	if err := t.Volatile.Save(ctx, sessionRef, c); err != nil {
		return Cart{}, false, err
	}
	return c, true, nil
}

// Save writes both tiers.
func (t *TieredStorage) Save(ctx context.Context, sessionRef string, c Cart) error {
	if err := t.Volatile.Save(ctx, sessionRef, c); err != nil {
		return err
	}
	return t.Durable.Save(ctx, sessionRef, c)
}

// Clear removes the session's cart from both tiers.
func (t *TieredStorage) Clear(ctx context.Context, sessionRef string) error {
	if err := t.Volatile.Clear(ctx, sessionRef); err != nil {
		return err
	}
	return t.Durable.Clear(ctx, sessionRef)
}
