package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/checkout-flow/internal/checkout"
	"github.com/xenking/checkout-flow/internal/domain/delivery"
	"github.com/xenking/checkout-flow/internal/domain/payment"
	"github.com/xenking/checkout-flow/internal/handler"
	"github.com/xenking/checkout-flow/internal/storage/postgres"
	"github.com/xenking/checkout-flow/internal/storage/session"
	"github.com/xenking/checkout-flow/pkg/health"
	"github.com/xenking/checkout-flow/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis session store.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()
	baskets := session.NewRedisStore(redisClient, cfg.SessionTTL)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Repositories.
	orderRepo := postgres.NewOrderRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)
	refGen := postgres.NewReferenceGenerator(pool)

	// Method provider registries.
	deliveryPool := delivery.NewPool(
		delivery.StandardProvider{},
		delivery.ExpressProvider{Countries: map[string]bool{"FR": true, "DE": true, "NL": true}},
	)

	bankwireMax, err := decimal.NewFromString(cfg.Gateway.BankwireMaxTotal)
	if err != nil {
		return errors.Wrap(err, "parse bankwire max total")
	}
	paymentPool := payment.NewPool(
		payment.NewCardProvider(payment.CardConfig{
			GatewayURL:     cfg.Gateway.CardURL,
			Secret:         []byte(cfg.Gateway.CardSecret),
			CallbackSecret: []byte(cfg.Gateway.CardCallbackSecret),
		}),
		payment.NewBankwireProvider(payment.BankwireConfig{
			ConfirmationURL: cfg.Gateway.BankwireConfirmationURL,
			Secret:          []byte(cfg.Gateway.BankwireSecret),
			MaxTotal:        bankwireMax,
		}),
	)

	// Checkout orchestrator.
	flow := checkout.New(
		checkout.Config{Debug: cfg.Debug, EligibilityTimeout: cfg.EligibilityTimeout},
		baskets,
		addressRepo,
		deliveryPool,
		paymentPool,
		orderRepo,
		refGen,
		transactionRepo,
	)

	// Mux: health endpoints + checkout routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", handler.New(flow).Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("checkout-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
