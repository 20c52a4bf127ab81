package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/app"
	"github.com/garagehub/garagehub/internal/auth"
	"github.com/garagehub/garagehub/internal/catalog/products"
	"github.com/garagehub/garagehub/internal/catalog/services"
	"github.com/garagehub/garagehub/internal/catalog/suppliers"
	"github.com/garagehub/garagehub/internal/clients"
	"github.com/garagehub/garagehub/internal/finance"
	"github.com/garagehub/garagehub/internal/observability"
	"github.com/garagehub/garagehub/internal/orders"
	"github.com/garagehub/garagehub/internal/platform/cache"
	"github.com/garagehub/garagehub/internal/platform/db"
	"github.com/garagehub/garagehub/internal/shared"
	"github.com/garagehub/garagehub/internal/stockimport"
	"github.com/garagehub/garagehub/internal/vehicles"
	"github.com/garagehub/garagehub/migrations"
)

func main() {
	_ = godotenv.Load()

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN, migrations.FS); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "garagehub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	clientService := clients.NewService(clients.NewRepository(pool))
	clientHandler := clients.NewHandler(logger, clientService)

	productService := products.NewService(products.NewRepository(pool))
	productHandler := products.NewHandler(logger, productService)

	serviceCatalog := services.NewCatalog(services.NewRepository(pool))
	serviceHandler := services.NewHandler(logger, serviceCatalog)

	supplierService := suppliers.NewService(suppliers.NewRepository(pool))
	supplierHandler := suppliers.NewHandler(logger, supplierService)

	orderService := orders.NewService(orders.NewRepository(pool), orders.CatalogLookup{
		Product: func(ctx context.Context, scope shared.Scope, id int64) (string, decimal.Decimal, error) {
			p, err := productService.Get(ctx, scope, id)
			return p.Name, p.SellingPrice, err
		},
		Service: func(ctx context.Context, scope shared.Scope, id int64) (string, decimal.Decimal, error) {
			s, err := serviceCatalog.Get(ctx, scope, id)
			return s.Name, s.Price, err
		},
	}, auditLogger, metrics, logger)
	orderHandler := orders.NewHandler(logger, orderService)

	financeService := finance.NewService(finance.NewRepository(pool))
	financeHandler := finance.NewHandler(logger, financeService)

	importService := stockimport.NewService(stockimport.NewRepository(pool), cfg.DefaultMargin(), auditLogger, metrics, logger).
		WithIdempotencyStore(shared.NewIdempotencyStore(pool))
	importHandler := stockimport.NewHandler(logger, importService)

	vehicleHandler := vehicles.NewHandler(logger, vehicles.NewStaticProvider(300*time.Millisecond))

	router := app.NewRouter(app.RouterConfig{
		Middleware: app.MiddlewareConfig{
			Logger:         logger,
			Config:         cfg,
			SessionManager: sessionManager,
			CSRFManager:    csrfManager,
			Metrics:        metrics,
		},
		Metrics:     metrics,
		Auth:        authHandler,
		Clients:     clientHandler,
		Products:    productHandler,
		Services:    serviceHandler,
		Suppliers:   supplierHandler,
		Orders:      orderHandler,
		Finance:     financeHandler,
		StockImport: importHandler,
		Vehicles:    vehicleHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
