package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maremio_backend/internal/adapters"
	"maremio_backend/internal/adapters/storage"
	"maremio_backend/internal/assistant"
	"maremio_backend/internal/catalog"
	"maremio_backend/internal/catalog/cache"
	"maremio_backend/internal/customers"
	"maremio_backend/internal/drafts"
	draftshandler "maremio_backend/internal/drafts/handler"
	"maremio_backend/internal/email"
	"maremio_backend/internal/events"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/internal/http/router"
	"maremio_backend/internal/notification"
	"maremio_backend/internal/orders"
	"maremio_backend/internal/public"
	"maremio_backend/internal/reservations"
	"maremio_backend/internal/scheduler"
	"maremio_backend/internal/whatsapp"
	"maremio_backend/migrations"
	"maremio_backend/platform/ai/gateway"
	"maremio_backend/platform/config"
	"maremio_backend/platform/db"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	backupQueue, closeQueue := initBackupQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for backups and archived menu photos (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "backups", cfg.GetMinioBucketBackups())
	ensureBucket(ctx, log, storageSvc, "menu-photos", cfg.GetMinioBucketMenuPhotos())
	log.Info(
		"storage service initialized",
		"backupsBucket", cfg.GetMinioBucketBackups(),
		"menuPhotosBucket", cfg.GetMinioBucketMenuPhotos(),
	)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	catalogModule := catalog.NewModule(pool, val, log)
	if cfg.GetRedisURL() != "" {
		redisClient, err := cache.NewClient(cfg)
		if err != nil {
			log.Warn("catalog cache disabled", "error", err)
		} else {
			defer func() { _ = redisClient.Close() }()
			catalogModule.SetCache(cache.NewRedis(redisClient, cfg.GetCatalogCacheTTL()))
			log.Info("catalog cache enabled", "ttl", cfg.GetCatalogCacheTTL().String())
		}
	}

	customersModule := customers.NewModule(pool, val, log)
	customerDirectory := adapters.NewCustomersAdapter(customersModule.Service())

	ordersModule := orders.NewModule(pool, eventBus, val, log)
	ordersModule.SetCustomerResolver(customerDirectory)

	// Anti-Corruption Layer: drafts only see their own ports
	catalogProvider := adapters.NewDraftsCatalogProvider(catalogModule.Service())
	orderSink := adapters.NewDraftsOrderSink(ordersModule.Service())

	draftsModule := drafts.NewModule(catalogProvider, orderSink, cfg, log)
	draftsModule.SetCustomerLookup(customerDirectory)

	whatsappModule := whatsapp.NewModule(pool, cfg, eventBus, val, log)
	whatsappModule.Service().SetCustomerLookup(customerDirectory)

	reservationsModule := reservations.NewModule(pool, eventBus, val, log)

	publicModule := public.NewModule(catalogModule.Service(), catalogProvider, orderSink, cfg, val, log)

	if cfg.IsAIGatewayEnabled() {
		llm := gateway.NewModel(gateway.Config{
			APIKey:      cfg.GetAIGatewayAPIKey(),
			BaseURL:     cfg.GetAIGatewayURL(),
			Model:       cfg.GetAIGatewayModel(),
			Temperature: cfg.GetAIGatewayTemperature(),
		})

		transcripts := adapters.NewConversationTranscriptAdapter(whatsappModule.Service())
		conversationAssistant, err := assistant.NewConversationAssistant(llm, transcripts, catalogProvider, cfg.GetRestaurantName(), log)
		if err != nil {
			log.Error("failed to initialize conversation assistant", "error", err)
			panic("failed to initialize conversation assistant: " + err.Error())
		}
		draftsModule.SetConversationParser(conversationAssistant)
		whatsappModule.Service().SetAssistant(conversationAssistant)

		photoAnalyzer, err := assistant.NewPhotoAnalyzer(llm, log)
		if err != nil {
			log.Error("failed to initialize photo analyzer", "error", err)
			panic("failed to initialize photo analyzer: " + err.Error())
		}
		photoAnalyzer.SetArchive(storageSvc, cfg.GetMinioBucketMenuPhotos())
		draftsModule.SetPhotoAnalyzer(photoAnalyzer)

		chatAssistant, err := assistant.NewChatAssistant(llm, catalogProvider, cfg.GetRestaurantName(), log)
		if err != nil {
			log.Error("failed to initialize chat assistant", "error", err)
			panic("failed to initialize chat assistant: " + err.Error())
		}
		publicModule.SetAssistant(chatAssistant)
		log.Info("ai assistant enabled", "model", llm.Name())
	} else {
		log.Warn("AI gateway not configured; conversation import, photo import and menu chat disabled")
	}

	// Notification module subscribes to domain events
	var sender email.Sender = email.NoopSender{}
	if cfg.IsSMTPEnabled() {
		sender = email.NewSMTPSender(cfg)
	}
	notificationModule := notification.New(sender, cfg, log)
	if whatsappModule.Client() != nil {
		notificationModule.SetWhatsApp(whatsappModule.Service())
	}
	notificationModule.RegisterHandlers(eventBus)
	defer notificationModule.Feed().Close()

	backupsModule := scheduler.NewBackupsModule(backupQueue, storageSvc, cfg.GetMinioBucketBackups())
	go draftsModule.Start(ctx)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			catalogModule,
			customersModule,
			ordersModule,
			reservationsModule,
			draftshandler.New(draftsModule.Registry(), val),
			whatsappModule,
			notificationModule,
			backupsModule,
			publicModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initBackupQueue returns a nil queue when Redis is not configured, so the
// backups API answers 503 for on-demand runs.
func initBackupQueue(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.BackupQueue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; on-demand backups disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize backup queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
