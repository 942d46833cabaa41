/*
Package sqlite provides the SQLite-backed durable cart storage tier.

PURPOSE:
  The durable, cross-session tier of the two-tier cart persistence. Carts
  written here survive process restarts and are shared by concurrent tabs
  operating on the same session reference.

CONCURRENCY:
  Writes are last-writer-wins by design: Save replaces the whole cart row.
  No transactional merge is attempted - the prune-on-read step in the cart
  manager self-heals any staleness a lost write introduces.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time, better crash
  recovery.

USAGE:
  durable, err := sqlite.New("./data/carts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer durable.Close()
  storage := cart.NewTieredStorage(store.NewMemory(), durable)

SEE ALSO:
  - cart/storage.go: Storage interface and tiered composite
  - cart/store/memory.go: The volatile tier
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/booking-engine/cart"
	"github.com/warp/booking-engine/money"
)

// Store implements cart.Storage using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- One row per session; the cart is replaced wholesale on every save
	-- (last-writer-wins, self-healed by prune-on-read).
	CREATE TABLE IF NOT EXISTS carts (
		session_ref TEXT PRIMARY KEY,
		lines_json  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STORAGE IMPLEMENTATION
// =============================================================================

// lineRecord is the persisted shape of a cart line.
type lineRecord struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Name          string  `json:"name,omitempty"`
	PriceValue    string  `json:"price_value"`
	PriceCurrency string  `json:"price_currency"`
	Quantity      int     `json:"quantity"`
	ServiceID     string  `json:"service_id,omitempty"`
	ProviderID    string  `json:"provider_id,omitempty"`
	SlotDate      string  `json:"slot_date,omitempty"`
	SlotStart     string  `json:"slot_start,omitempty"`
	HoldStartedAt *string `json:"hold_started_at,omitempty"`
	HoldExpiresAt *string `json:"hold_expires_at,omitempty"`
}

func (s *Store) Load(ctx context.Context, sessionRef string) (cart.Cart, bool, error) {
	var linesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT lines_json FROM carts WHERE session_ref = ?`, sessionRef,
	).Scan(&linesJSON)
	if err == sql.ErrNoRows {
		return cart.Cart{}, false, nil
	}
	if err != nil {
		return cart.Cart{}, false, fmt.Errorf("failed to load cart: %w", err)
	}

	var records []lineRecord
	if err := json.Unmarshal([]byte(linesJSON), &records); err != nil {
		return cart.Cart{}, false, fmt.Errorf("failed to decode cart: %w", err)
	}

	c := cart.Cart{Lines: make([]cart.Line, 0, len(records))}
	for _, r := range records {
		c.Lines = append(c.Lines, toLine(r))
	}
	return c, true, nil
}

func (s *Store) Save(ctx context.Context, sessionRef string, c cart.Cart) error {
	records := make([]lineRecord, 0, len(c.Lines))
	for _, l := range c.Lines {
		records = append(records, toRecord(l))
	}
	linesJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO carts (session_ref, lines_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_ref) DO UPDATE SET
			lines_json = excluded.lines_json,
			updated_at = excluded.updated_at
	`, sessionRef, string(linesJSON), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, sessionRef string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM carts WHERE session_ref = ?`, sessionRef)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// =============================================================================
// CONVERSION
// =============================================================================

func toRecord(l cart.Line) lineRecord {
	r := lineRecord{
		ID:            l.ID,
		Type:          string(l.Type),
		Name:          l.Name,
		PriceValue:    l.Price.Value.String(),
		PriceCurrency: l.Price.Currency,
		Quantity:      l.Quantity,
		ServiceID:     l.SlotRef.ServiceID,
		ProviderID:    l.SlotRef.ProviderID,
		SlotDate:      l.SlotRef.Date,
		SlotStart:     l.SlotRef.Start,
	}
	if !l.HoldStartedAt.IsZero() {
		v := l.HoldStartedAt.UTC().Format(time.RFC3339Nano)
		r.HoldStartedAt = &v
	}
	if !l.HoldExpiresAt.IsZero() {
		v := l.HoldExpiresAt.UTC().Format(time.RFC3339Nano)
		r.HoldExpiresAt = &v
	}
	return r
}

func toLine(r lineRecord) cart.Line {
	l := cart.Line{
		ID:       r.ID,
		Type:     cart.LineType(r.Type),
		Name:     r.Name,
		Price:    money.ParseAmount(r.PriceValue, r.PriceCurrency),
		Quantity: r.Quantity,
		SlotRef: cart.SlotRef{
			ServiceID:  r.ServiceID,
			ProviderID: r.ProviderID,
			Date:       r.SlotDate,
			Start:      r.SlotStart,
		},
	}
	if r.HoldStartedAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *r.HoldStartedAt); err == nil {
			l.HoldStartedAt = t
		}
	}
	if r.HoldExpiresAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *r.HoldExpiresAt); err == nil {
			l.HoldExpiresAt = t
		}
	}
	return l
}
