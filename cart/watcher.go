/*
watcher.go - Periodic expiry tick

PURPOSE:
  While a reservation-bearing cart is open, a ~1s tick re-runs the
  prune-and-persist cycle so expiry is observed promptly even when no user
  action triggers a read. The tick is the only background activity in the
  engine.

LIFECYCLE:
  - Kick() starts the ticker if it is not running (called on every cart
    load/mutation, so ticking resumes on the next load after stopping)
  - The ticker stops itself once no reservation line has positive remaining
    time
  - Correctness never depends on the tick: a fresh read always prunes,
    however long the process was suspended

USAGE:
  watcher := cart.NewWatcher(manager, time.Second)
  watcher.Kick()
  // ... later
  watcher.Stop()

SEE ALSO:
  - manager.go: The prune cycle the tick drives
*/
package cart

import (
	"context"
	"log"
	"sync"
	"time"
)

// =============================================================================
// WATCHER
// =============================================================================

type Watcher struct {
	manager  *Manager
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewWatcher(manager *Manager, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{manager: manager, interval: interval}
}

// Kick starts the tick loop if it is not already running. Safe to call on
// every cart read; a running watcher ignores it.
func (w *Watcher) Kick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.wg.Add(1)
	go w.run(w.stop)
}

// Stop halts the tick loop. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	w.mu.Unlock()
	w.wg.Wait()
}

// Running reports whether the tick loop is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(stop chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.tick() {
				w.mu.Lock()
				if w.stop == stop {
					w.running = false
				}
				w.mu.Unlock()
				return
			}
		case <-stop:
			return
		}
	}
}

// tick runs one prune cycle and reports whether ticking should continue.
func (w *Watcher) tick() bool {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	active, err := w.manager.HasActiveReservations(ctx)
	if err != nil {
		log.Printf("[Watcher] prune cycle failed: %v", err)
		return true
	}
	return active
}
