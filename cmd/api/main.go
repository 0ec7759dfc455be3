package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/fulfillment"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/stock"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/cache"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/events"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/postgres"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/fourpx"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/httpx"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/shipbob"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/token"
	httpRouter "github.com/Mark-Lasfar/mgzonapk-sub002/internal/interfaces/http"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/config"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Cache compartido: Redis si está configurado, memoria si no.
	var tokenStore token.Store
	var invalidator interface {
		InvalidateProduct(ctx context.Context, productID string)
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		tokenStore = cache.NewRedisTokenStore(rdb)
		invalidator = cache.NewRedisViewInvalidator(rdb, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("cache Redis conectado")
	} else {
		tokenStore = cache.NewMemoryTokenStore()
		invalidator = cache.NopViewInvalidator{}
		log.Warn().Msg("sin REDIS_ADDR: tokens en memoria, solo para desarrollo")
	}

	// Bus de eventos: Kafka si hay brokers, solo log si no.
	var notifier fulfillment.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier := events.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("notificador Kafka activo")
	} else {
		notifier = events.NewLogNotifier(log)
	}

	// Ejecutor compartido de llamadas a proveedores.
	httpClient := &http.Client{Timeout: time.Duration(cfg.Sync.RequestTimeoutSeconds) * time.Second}
	executor := httpx.New(httpClient, log,
		httpx.WithMaxRetries(cfg.Sync.MaxRetries),
		httpx.WithBaseDelay(time.Duration(cfg.Sync.BaseDelayMS)*time.Millisecond),
		httpx.WithWarnRemaining(cfg.Sync.RateLimitWarnThreshold),
	)

	// Clientes de proveedor.
	shipbobTokens := token.NewManager(provider.CodeShipBob, token.Endpoint{
		TokenURL:     cfg.ShipBob.TokenURL,
		ClientID:     cfg.ShipBob.ClientID,
		ClientSecret: cfg.ShipBob.ClientSecret,
	}, tokenStore, executor, log,
		token.WithSafetyMargin(time.Duration(cfg.Sync.TokenSafetyMarginSeconds)*time.Second))
	shipbobClient := shipbob.New(cfg.ShipBob.APIBaseURL, shipbobTokens, executor, log)
	fourpxClient := fourpx.New(cfg.FourPX.APIBaseURL, cfg.FourPX.AppKey, cfg.FourPX.AppSecret, executor, log)
	registry := provider.NewRegistry(shipbobClient, fourpxClient)

	// Repositorios y casos de uso.
	productRepo := postgres.NewProductRepository(pool)
	sellerRepo := postgres.NewSellerRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	stockRepo := postgres.NewWarehouseStockRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	fulfillmentTx := postgres.NewFulfillmentTxRunner(pool)

	updateStockUC := stock.NewUpdateStockUseCase(registry, txRunner, invalidator, log)
	syncUC := stock.NewSyncUseCase(registry, txRunner, productRepo, sellerRepo, invalidator, log)
	dispatcher := fulfillment.NewDispatcher(registry, orderRepo, sellerRepo, stockRepo,
		fulfillment.HighestAvailableSelector{}, fulfillmentTx, notifier, invalidator, log)
	tracker := fulfillment.NewTracker(registry, sellerRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "MGZon Fulfillment API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		UpdateStockUC: updateStockUC,
		SyncUC:        syncUC,
		Dispatcher:    dispatcher,
		Tracker:       tracker,
		TokenManagers: map[provider.Code]*token.Manager{
			provider.CodeShipBob: shipbobTokens,
		},
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
