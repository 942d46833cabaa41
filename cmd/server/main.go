/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the booking engine dev server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Resolve config (hold TTL, default currency) from the environment
  3. Initialize the durable SQLite cart tier and the volatile memory tier
  4. Seed the in-memory processor with a demo booking
  5. Wire the refund service, cart manager, and hold watcher
  6. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: booking.db)
            Use ":memory:" for in-memory database
  -session  Cart session reference served by this instance (default: demo-session)

ENVIRONMENT:
  HOLD_TTL_MINUTES   Reservation hold lifetime, clamped to [1, 120] (default 3)
  DEFAULT_CURRENCY   Currency for amounts without one (default USD)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the hold watcher and close the database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Durable cart tier
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/booking-engine/api"
	"github.com/warp/booking-engine/cart"
	"github.com/warp/booking-engine/cart/store"
	"github.com/warp/booking-engine/clock"
	"github.com/warp/booking-engine/config"
	"github.com/warp/booking-engine/ledger"
	"github.com/warp/booking-engine/money"
	"github.com/warp/booking-engine/processor"
	"github.com/warp/booking-engine/refund"
	"github.com/warp/booking-engine/store/sqlite"
)

func main() {
	// .env is optional; real env vars win either way.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "booking.db", "SQLite database path")
	sessionRef := flag.String("session", "demo-session", "cart session reference")
	flag.Parse()

	cfg := config.Load()
	clk := clock.NewSystem()

	// Durable cart tier
	durable, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer durable.Close()

	storage := &cart.TieredStorage{
		Volatile: store.NewMemory(),
		Durable:  durable,
	}

	// In-memory processor simulation, seeded with a demo booking
	proc := processor.NewMemory(clk)
	seedDemoBooking(proc, clk, cfg.DefaultCurrency())

	refunds := refund.NewService(proc, proc, cfg.DefaultCurrency())
	cartMgr := cart.NewManager(storage, clk, proc, *sessionRef)
	watcher := cart.NewWatcher(cartMgr, time.Second)
	defer watcher.Stop()

	handler := api.NewHandler(proc, refunds, cartMgr, watcher, config.Static{Value: cfg}, clk)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// seedDemoBooking gives the dev server a booking with a realistic history:
// a captured service payment with a tip, plus a pending deposit.
func seedDemoBooking(proc *processor.Memory, clk clock.Clock, currency string) {
	now := clk.Now()
	proc.Seed("demo-booking",
		ledger.Transaction{
			ID:               "tx_capture_1",
			Kind:             money.KindService,
			Status:           money.StatusCaptured,
			RawStatus:        "captured",
			Amount:           money.NewAmount(85.00, currency),
			AuthorizationRef: "auth_demo_1",
			Provider:         ledger.ProviderProcessor,
			OccurredAt:       now.Add(-48 * time.Hour),
		},
		ledger.Transaction{
			ID:               "tx_tip_1",
			Kind:             money.KindTip,
			Status:           money.StatusCaptured,
			RawStatus:        "captured",
			Amount:           money.NewAmount(15.00, currency),
			AuthorizationRef: "auth_demo_1",
			Provider:         ledger.ProviderProcessor,
			OccurredAt:       now.Add(-48 * time.Hour),
		},
		ledger.Transaction{
			ID:         "tx_deposit_1",
			Kind:       money.KindDeposit,
			Status:     money.StatusPending,
			RawStatus:  "pending",
			Amount:     money.NewAmount(20.00, currency),
			Provider:   ledger.ProviderProcessor,
			OccurredAt: now.Add(-24 * time.Hour),
		},
	)
}
