package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrtag-service/config"
	"qrtag-service/internal/api"
	"qrtag-service/internal/broker"
	"qrtag-service/internal/gateway"
	"qrtag-service/internal/notify"
	"qrtag-service/internal/qrcode"
	"qrtag-service/internal/redisclient"
	"qrtag-service/internal/service"
	"qrtag-service/internal/store"
	"qrtag-service/internal/util"
	"qrtag-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "qrtag-service",
		Usage: "QR asset tags: sticker orders, tag creation fees and partner commissions",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP API and background workers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP port (overrides PORT)"},
					&cli.BoolFlag{Name: "migrate", Usage: "Apply the schema before serving"},
					&cli.BoolFlag{Name: "no-workers", Usage: "Do not start Kafka consumers or the reconciler"},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply the database schema",
				Action: migrate,
			},
			{
				Name:  "reconcile",
				Usage: "Attribute commissions for paid orders that missed attribution",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "batch", Usage: "Orders per pass (overrides RECONCILE_BATCH)"},
				},
				Action: reconcile,
			},
			{
				Name:  "create-admin",
				Usage: "Create an administrator account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "Administrator"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: createAdmin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// bootstrap loads configuration and initialises logging
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Observ.LogLevel); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, util.GetLogger(), nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Database connected")
	return db, nil
}

func migrate(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer util.SyncLogger()

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(c.Context); err != nil {
		return err
	}
	logger.Info("Schema applied")
	return nil
}

func reconcile(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer util.SyncLogger()

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	batch := cfg.Reconcile.Batch
	if c.IsSet("batch") {
		batch = c.Int("batch")
	}

	// a one-off pass publishes nothing; the commissions are in the database
	attributor := service.NewAttributor(db, nil)
	result, err := service.NewReconciler(db, attributor, cfg.Reconcile.Grace, batch).Run(c.Context)
	if err != nil {
		return err
	}

	logger.Info("Reconciliation finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("attributed", result.Attributed),
		zap.Int("failed", result.Failed),
		zap.Int("commissions", result.Commissions))
	if result.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d orders failed attribution", result.Failed), 1)
	}
	return nil
}

func createAdmin(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer util.SyncLogger()

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := service.NewAccountService(db, service.AuthSettings{
		JWTSecret:   cfg.Auth.JWTSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
		DefaultRate: cfg.Commission.DefaultRate,
	})

	admin, err := accounts.CreateAdmin(c.Context, c.String("name"), c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	logger.Info("Admin created", zap.Int64("account_id", admin.ID), zap.String("email", admin.Email))
	return nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer util.SyncLogger()

	if c.IsSet("port") {
		cfg.Server.Port = c.String("port")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("Starting qrtag service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint, cfg.Observ.TraceSampleRatio)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("migrate") {
		if err := db.Migrate(c.Context); err != nil {
			return err
		}
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	renderer := qrcode.NewRenderer(cfg.Media.Dir, cfg.Server.PublicBaseURL, cfg.Media.CardTemplate)
	gatewayClient := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.Timeout)
	verifier := gateway.NewVerifier(cfg.Gateway.KeySecret)

	attributor := service.NewAttributor(db, eventPublisher)
	tagService := service.NewTagService(db, redisClient, renderer, eventPublisher)
	orderService := service.NewOrderService(db, gatewayClient, verifier, redisClient, eventPublisher, attributor, tagService,
		service.PaymentSettings{
			SkipPayment: cfg.Payment.SkipPayment,
			KeyID:       cfg.Gateway.KeyID,
			TagClaimTTL: cfg.Payment.TagClaimTTL,
		})
	commissionService := service.NewCommissionService(db)
	accountService := service.NewAccountService(db, service.AuthSettings{
		JWTSecret:   cfg.Auth.JWTSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
		DefaultRate: cfg.Commission.DefaultRate,
	})
	reconciler := service.NewReconciler(db, attributor, cfg.Reconcile.Grace, cfg.Reconcile.Batch)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var workers errgroup.Group
	var stoppers []func() error

	if !c.Bool("no-workers") {
		attributionConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.AttributionGroup)
		attributionWorker := worker.NewAttributionWorker(attributionConsumer, attributor)

		notificationConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.NotificationGroup)
		mailer := notify.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
		notificationWorker := worker.NewNotificationWorker(notificationConsumer, db, mailer)

		reconcileWorker := worker.NewReconcileWorker(reconciler, cfg.Reconcile.Interval)

		runners := map[string]func(context.Context) error{
			"attribution":  attributionWorker.Start,
			"notification": notificationWorker.Start,
			"reconcile":    reconcileWorker.Start,
		}
		for name, start := range runners {
			name, start := name, start
			workers.Go(func() error {
				if err := start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Worker stopped", zap.String("worker", name), zap.Error(err))
					return err
				}
				return nil
			})
		}
		stoppers = append(stoppers, attributionWorker.Stop, notificationWorker.Stop)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Dependencies{
		Orders:      orderService,
		Tags:        tagService,
		Commissions: commissionService,
		Accounts:    accountService,
		Reconciler:  reconciler,
		Probes: map[string]api.Probe{
			"database": db.Ping,
			"redis":    redisClient.Ping,
		},
		MediaDir: cfg.Media.Dir,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	for _, stop := range stoppers {
		if err := stop(); err != nil {
			logger.Warn("Error stopping worker", zap.Error(err))
		}
	}
	if err := workers.Wait(); err != nil {
		logger.Warn("Workers exited with error", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}
