// Package main is the entry point for the Inventra background worker.
// It runs the periodic maintenance sweeps: overdue invoices, expired
// products, stale idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"inventra/internal/domain/invoice"
	"inventra/internal/domain/product"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/internal/infrastructure/storage/postgres/invoice_repo"
	"inventra/internal/infrastructure/storage/postgres/product_repo"
	"inventra/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting inventra worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	sweeper := NewSweeper(
		invoice_repo.NewInvoiceRepo(txManager),
		product_repo.NewProductRepo(txManager),
		postgres.NewIdempotencyStore(txManager, 24*time.Hour),
		getEnvDuration("SWEEP_INTERVAL", 1*time.Hour),
		log,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Sweeper runs the periodic maintenance passes. Every pass is
// idempotent, so overlapping runs or restarts are harmless.
type Sweeper struct {
	invoices    invoice.Repository
	products    product.Repository
	idempotency *postgres.IdempotencyStore
	interval    time.Duration
	log         *logger.Logger
}

func NewSweeper(
	invoices invoice.Repository,
	products product.Repository,
	idempotency *postgres.IdempotencyStore,
	interval time.Duration,
	log *logger.Logger,
) *Sweeper {
	return &Sweeper{
		invoices:    invoices,
		products:    products,
		idempotency: idempotency,
		interval:    interval,
		log:         log.WithComponent("sweeper"),
	}
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := s.invoices.MarkOverdue(ctx, now); err != nil {
		s.log.Errorw("overdue sweep failed", "error", err)
	} else if n > 0 {
		s.log.Infow("marked invoices overdue", "count", n)
	}

	if n, err := s.products.MarkExpired(ctx, now); err != nil {
		s.log.Errorw("expiry sweep failed", "error", err)
	} else if n > 0 {
		s.log.Infow("marked products expired", "count", n)
	}

	if n, err := s.idempotency.CleanupExpired(ctx); err != nil {
		s.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		s.log.Infow("cleaned up idempotency keys", "count", n)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
