package main // Entry point package

import (
	"context"   // cancellation for background workers
	"log"       // Logging library
	"net/http"  // ErrServerClosed sentinel for clean shutdown
	"os"        // signal names
	"os/signal" // SIGINT/SIGTERM wiring
	"syscall"   // SIGTERM constant
	"time"      // shutdown grace period

	"github.com/joho/godotenv" // loads .env into the environment in development
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/config"   // environment config loader
	"github.com/iliyamo/stall-rental/internal/database" // MySQL pool
	"github.com/iliyamo/stall-rental/internal/events"   // SSE broadcast broker
	"github.com/iliyamo/stall-rental/internal/handler"  // HTTP handlers
	"github.com/iliyamo/stall-rental/internal/middleware"
	"github.com/iliyamo/stall-rental/internal/queue" // ledger consumer
	"github.com/iliyamo/stall-rental/internal/repository"
	"github.com/iliyamo/stall-rental/internal/router"
	"github.com/iliyamo/stall-rental/internal/session"
)

func main() {
	// A missing .env is fine in production where real env vars are set.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config; exits on missing keys

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // shared by the rate limiter and response cache

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	sessions := repository.NewSessionRepo(db)
	branches := repository.NewBranchRepo(db)
	stalls := repository.NewStallRepo(db)
	applications := repository.NewApplicationRepo(db)
	leases := repository.NewLeaseRepo(db)
	payments := repository.NewPaymentRepo(db)
	documents := repository.NewDocumentRepo(db)
	auctions := repository.NewAuctionRepo(db)
	inspections := repository.NewInspectionRepo(db)

	tracker := session.NewTracker(sessions, cfg.SessionStale)
	broker := events.NewBroker(16)

	// SIGINT/SIGTERM cancel this context, which stops the sweeper and
	// starts the drain below.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go tracker.RunSweeper(ctx, cfg.SweepInterval) // closes sessions idle past the staleness window
	go func() {
		if err := queue.StartLedgerConsumer(); err != nil {
			log.Printf("ledger consumer: %v", err)
		}
	}()

	// Handlers.
	auth := handler.NewAuthHandler(cfg, users, tokens, tracker)
	admin := handler.NewAdminHandler(cfg, branches, users)
	manager := &handler.ManagerHandler{
		DB:           db,
		Users:        users,
		Stalls:       stalls,
		Applications: applications,
		Leases:       leases,
		Auctions:     auctions,
		Payments:     payments,
		Inspections:  inspections,
		Broker:       broker,
	}
	tenant := &handler.TenantHandler{
		UploadDir:    cfg.UploadDir,
		Stalls:       stalls,
		Applications: applications,
		Documents:    documents,
		Leases:       leases,
		Payments:     payments,
		Auctions:     auctions,
		Broker:       broker,
	}
	collector := &handler.CollectorHandler{Leases: leases, Stalls: stalls, Payments: payments, Broker: broker}
	inspector := &handler.InspectorHandler{Stalls: stalls, Inspections: inspections, Broker: broker}
	public := &handler.PublicHandler{Branches: branches, Stalls: stalls, Auctions: auctions}
	sse := &handler.EventsHandler{Broker: broker}

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret, tracker, limiter)
	// Guest browsing sits behind the per-IP token bucket and the Redis
	// response cache; authenticated surfaces are never cached because a
	// cache hit would skip the session heartbeat.
	router.RegisterPublic(e, public,
		limiter,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterAdmin(e, admin, cfg.JWTSecret, tracker)
	router.RegisterManager(e, manager, cfg.JWTSecret, tracker)
	router.RegisterTenant(e, tenant, cfg.JWTSecret, tracker)
	router.RegisterCollector(e, collector, cfg.JWTSecret, tracker)
	router.RegisterInspector(e, inspector, cfg.JWTSecret, tracker)
	router.RegisterEvents(e, sse, cfg.JWTSecret, tracker)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done() // Block until a shutdown signal arrives

	// Drain in-flight requests before exiting; sessions outlive the
	// process and pick up where they left off on restart.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
