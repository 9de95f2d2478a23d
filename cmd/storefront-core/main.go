package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rainydayslabs/storefront-core/internal/api/handlers"
	"github.com/rainydayslabs/storefront-core/internal/api/middleware"
	"github.com/rainydayslabs/storefront-core/internal/config"
	"github.com/rainydayslabs/storefront-core/internal/events"
	"github.com/rainydayslabs/storefront-core/internal/health"
	"github.com/rainydayslabs/storefront-core/internal/metrics"
	repository "github.com/rainydayslabs/storefront-core/internal/repositories"
	service "github.com/rainydayslabs/storefront-core/internal/services"
	"github.com/rainydayslabs/storefront-core/internal/store"
	"github.com/rainydayslabs/storefront-core/internal/telemetry"
	"github.com/rainydayslabs/storefront-core/pkg/catalog"
	"github.com/rainydayslabs/storefront-core/pkg/payments"
	"github.com/rainydayslabs/storefront-core/pkg/sendgrid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx := context.Background()

	// Tracing setup
	if cfg.Tracing.Enabled {
		shutdownTracing, err := telemetry.InitTracing(ctx, &cfg.Tracing)
		if err != nil {
			slog.Error("❌ Error initializing tracing", "error", err.Error())
			os.Exit(1)
		}

		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := shutdownTracing(flushCtx); err != nil {
				slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
			}
		}()
	}

	// Storage setup
	var (
		kv          store.Store
		rateLimiter repository.RateLimitRepository
	)

	switch cfg.Storage.Backend {
	case "redis":
		redisClient, err := repository.NewRedisClient(cfg)
		if err != nil {
			slog.Error("❌ Error accessing the redis instance", "error", err.Error())
			os.Exit(1)
		}

		kv = store.NewRedisStore(redisClient, "storefront")
		rateLimiter = repository.NewRateLimitRepo(redisClient, cfg)
	case "memory":
		kv = store.NewMemoryStore()
	default:
		fileStore, err := store.NewFileStore(cfg.Storage.Path)
		if err != nil {
			slog.Error("❌ Error preparing the storage directory", "error", err.Error())
			os.Exit(1)
		}

		kv = fileStore
	}

	defer func() {
		if err := kv.Close(); err != nil {
			slog.Error("⚠️ Error closing storage", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Storage closed")
		}
	}()

	// Catalog and stock ledger
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)

	ledger := service.NewStockLedger(kv, cfg.Stock.Persist)
	ledger.Restore(ctx)

	seedStock(ctx, ledger, catalogClient, cfg.Stock.DefaultLevel)

	// Core services
	cartService := service.NewCartService(ledger, kv)
	cartService.Restore(ctx)

	var processor service.Processor
	if cfg.Checkout.Processor == "stripe" {
		processor = payments.NewStripeProcessor(cfg.Stripe.APIKey, cfg.Stripe.Currency)
	} else {
		processor = &service.SimulatedProcessor{Delay: cfg.Checkout.ProcessingDelay}
	}

	checkoutService := service.NewCheckoutService(cartService, ledger, kv, processor)

	if cfg.Archive.Enabled {
		archive, err := repository.NewOrderArchive(cfg)
		if err != nil {
			slog.Error("❌ Error accessing the archive database", "error", err.Error())
			os.Exit(1)
		}

		defer func() {
			if err := archive.Close(); err != nil {
				slog.Error("⚠️ Error closing archive database connection", slog.String("error", err.Error()))
			}
		}()

		checkoutService.AddSink(archive)
	}

	if cfg.SendGrid.APIKey != "" {
		mailer := sendgrid.NewMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
		checkoutService.AddSink(mailer)
	}

	if cfg.Kafka.Enabled {
		publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

		defer func() {
			if err := publisher.Close(); err != nil {
				slog.Error("⚠️ Error closing event publisher", slog.String("error", err.Error()))
			}
		}()

		checkoutService.AddSink(publisher)
		cartService.Subscribe(publisher.CartObserver())
	}

	jwtKey := []byte(cfg.Security.JWTKey)
	userService := service.NewUserService(kv, rateLimiter, jwtKey)

	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(catalogClient, ledger)
	cartHandler := handlers.NewCartHandler(cartService, catalogClient)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	stockHandler := handlers.NewStockHandler(ledger)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health handler", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart())
	routerMux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("PUT /api/v1/cart/items", cartHandler.UpdateQuantity())
	routerMux.HandleFunc("DELETE /api/v1/cart/items", cartHandler.RemoveItem())
	routerMux.HandleFunc("POST /api/v1/checkout", checkoutHandler.Submit())
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(checkoutHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/stock/{id}", stockHandler.GetStock())
	routerMux.HandleFunc("PUT /api/v1/stock/{id}", authMiddleware.RequireAdmin(stockHandler.UpdateStock()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = metrics.Middleware(handler)

	if cfg.Tracing.Enabled {
		handler = otelhttp.NewHandler(handler, "storefront-core")
	}

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

}

// seedStock gives every catalog product a starting stock level. Products the
// ledger already tracks keep their levels. A failed catalog call leaves the
// ledger as restored; availability then fails closed until the next start.
func seedStock(ctx context.Context, ledger *service.StockLedger, catalogClient catalog.Client, level int) {

	listCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	products, err := catalogClient.ListProducts(listCtx)
	if err != nil {
		slog.Warn("⚠️ Failed to load catalog for stock seeding", slog.String("error", err.Error()))

		return
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}

	ledger.SeedMissing(ctx, ids, level)

	slog.Info("✅ Stock ledger seeded", slog.Int("products", len(ids)))
}
