package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hoamai/storefront/cmd/storefront/cli"
	"github.com/hoamai/storefront/internal/app"
	"github.com/hoamai/storefront/internal/audit"
	"github.com/hoamai/storefront/internal/auth"
	"github.com/hoamai/storefront/internal/catalog"
	"github.com/hoamai/storefront/internal/checkout"
	"github.com/hoamai/storefront/internal/observability"
	"github.com/hoamai/storefront/internal/platform/cache"
	"github.com/hoamai/storefront/internal/platform/db"
	"github.com/hoamai/storefront/internal/shared"
	"github.com/hoamai/storefront/internal/shipping"
	"github.com/hoamai/storefront/jobs"
)

const usage = `usage: storefront [command]

commands:
  serve                 run the HTTP API (default)
  migrate               apply the database schema and exit
  hash-password <pw>    print the bcrypt hash for ADMIN_PASSWORD_HASH
  jobs stats            show queue counters
  jobs cleanup          enqueue an idempotency key purge
  jobs requeue          retry archived order notifications
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve()
	case "migrate":
		err = migrate()
	case "hash-password":
		err = hashPassword(args)
	case "jobs":
		err = runJobs(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Default().Error(cmd, slog.Any("error", err))
		os.Exit(1)
	}
}

func hashPassword(args []string) error {
	if len(args) != 1 {
		return errors.New("hash-password takes exactly one argument")
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func migrate() error {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	pool, err := db.New(ctx, cfg.PoolOptions("storefront-migrate"))
	if err != nil {
		return err
	}
	defer pool.Close()
	return db.Migrate(ctx, pool)
}

func runJobs(args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	redisAddr := fs.String("redis", os.Getenv("REDIS_ADDR"), "redis address")
	retention := fs.Duration("retention", 48*time.Hour, "idempotency key retention for cleanup")
	if len(args) == 0 {
		return errors.New("jobs: missing subcommand")
	}
	sub := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *redisAddr == "" {
		*redisAddr = "127.0.0.1:6379"
	}

	ops := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: *redisAddr, Password: os.Getenv("REDIS_PASSWORD")})
	defer func() {
		_ = ops.Close()
	}()

	switch sub {
	case "stats":
		for _, queue := range []string{jobs.QueueCritical, jobs.QueueDefault} {
			stats, err := ops.InspectQueue(queue)
			if err != nil {
				fmt.Printf("%s: unavailable (%v)\n", queue, err)
				continue
			}
			fmt.Printf("%s: pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		}
		return nil
	case "cleanup":
		info, err := ops.Trigger(context.Background(), jobs.TaskIdempotencyCleanup, *retention)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s (%s)\n", info.Type, info.ID)
		return nil
	case "requeue":
		n, err := ops.RequeueNotifications()
		if err != nil {
			return err
		}
		fmt.Printf("requeued %d notifications\n", n)
		return nil
	default:
		return fmt.Errorf("jobs: unknown subcommand %q", sub)
	}
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.PoolOptions("storefront-api"))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()
	if err := db.Migrate(ctx, dbpool); err != nil {
		return err
	}

	redisClient, err := cache.New(ctx, cfg.CacheOptions())
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	guard, err := auth.NewGuard(cfg.AdminUser, cfg.AdminPasswordHash, logger)
	if err != nil {
		return err
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	redisOpts := cfg.AsynqRedis()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	catalogService := catalog.NewService(
		catalog.NewRepository(dbpool),
		catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		auditLogger,
		logger,
	)
	shippingService := shipping.NewService(shipping.NewRepository(dbpool), cfg.DefaultShippingFee, auditLogger, logger)
	checkoutService := checkout.NewService(checkout.ServiceDeps{
		Repo:     checkout.NewRepository(dbpool),
		Products: catalogService,
		Fees:     shippingService,
		Notifier: jobClient,
		Audit:    auditLogger,
		Logger:   logger,
	})

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		CatalogHandler:  catalog.NewHandler(logger, catalogService),
		ShippingHandler: shipping.NewHandler(logger, shippingService),
		CheckoutHandler: checkout.NewHandler(logger, checkoutService, idempotencyStore),
		AuditHandler:    audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool))),
		JobHandler:      jobs.NewHandler(inspector, logger),
		AdminAuth:       guard.Middleware,
		Metrics:         metrics,
		Readiness: map[string]app.Check{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
