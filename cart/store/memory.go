// Package store provides cart.Storage implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/booking-engine/cart"
)

// =============================================================================
// MEMORY STORE - Volatile, tab-scoped tier (also used in tests)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	carts map[string]cart.Cart
}

func NewMemory() *Memory {
	return &Memory{carts: make(map[string]cart.Cart)}
}

func (m *Memory) Load(_ context.Context, sessionRef string) (cart.Cart, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.carts[sessionRef]
	if !ok {
		return cart.Cart{}, false, nil
	}
	return c.Clone(), true, nil
}

func (m *Memory) Save(_ context.Context, sessionRef string, c cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionRef] = c.Clone()
	return nil
}

func (m *Memory) Clear(_ context.Context, sessionRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionRef)
	return nil
}
