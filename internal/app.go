package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"file-vault-api/config"
	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/application/services"
	"file-vault-api/internal/infrastructure/db/memory"
	"file-vault-api/internal/infrastructure/db/postgres"
	pgstore "file-vault-api/internal/infrastructure/db/postgres/store"
	"file-vault-api/internal/infrastructure/localfs"
	"file-vault-api/internal/infrastructure/metrics"
	"file-vault-api/internal/infrastructure/mq"
	"file-vault-api/internal/infrastructure/ratelimit"
	"file-vault-api/internal/infrastructure/s3"
	"file-vault-api/internal/interface/api/rest"
	"file-vault-api/internal/interface/api/rest/middleware"
	"file-vault-api/pkg/rmqconsumer"
)

type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	redis      *redis.Client
	store      ports.Store
	blobs      ports.BlobStore
	limiter    ports.RateLimiter
	httpSrv    *http.Server
	router     *gin.Engine
	mCounter   *prometheus.CounterVec
	mq         ports.RabbitMQ
	events     ports.EventPublisher
	mqConsumer ports.RMQConsumer
}

func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		logger: logger,
		cfg:    cfg,
		events: mq.Nop{},
	}

	// metrics
	a.mCounter = metrics.NewCounter(prometheus.DefaultRegisterer)

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	a.router = gin.New()
	a.router.Use(gin.Recovery())
	a.router.Use(middleware.RequestLogGin(logger, a.mCounter))

	// httpServer
	a.httpSrv = &http.Server{
		Addr:              cfg.App.Host + ":" + cfg.App.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// the rest may fail half way; Close releases whatever was opened
	if err := a.initStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initBlobs(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initLimiter(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initMQ(ctx); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	if a.cfg.DB.Driver == config.DriverMemory {
		a.logger.Warn("using in-memory metadata store, data is lost on restart")
		a.store = memory.New()
		return nil
	}

	pool, err := OpenDB(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.db = pool
	a.store = pgstore.New(pool)

	return nil
}

func (a *App) initBlobs(ctx context.Context) error {
	var err error
	switch a.cfg.Blob.Driver {
	case config.DriverMinio:
		a.blobs, err = s3.New(ctx, a.logger, a.cfg.Blob)
		if err != nil {
			return fmt.Errorf("failed to connect to S3: %w", err)
		}
	default:
		a.blobs, err = localfs.New(a.cfg.Blob.Dir, a.logger)
		if err != nil {
			return fmt.Errorf("failed to open blob dir: %w", err)
		}
	}

	return nil
}

func (a *App) initLimiter(ctx context.Context) error {
	v := a.cfg.Vault
	if v.RateLimitDriver != config.DriverRedis {
		a.limiter = ratelimit.NewMemory(v.RateLimitCalls, v.RateLimitWindow)
		return nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.limiter = ratelimit.NewRedis(a.redis, v.RateLimitCalls, v.RateLimitWindow)
	a.logger.Info("redis connected successfully", zap.String("addr", a.cfg.Redis.Addr))

	return nil
}

func (a *App) initMQ(ctx context.Context) error {
	if !a.cfg.MQEnabled() {
		a.logger.Info("RABBITMQ_HOST not set, file events are not published")
		return nil
	}

	rabbitDsn, err := a.cfg.AMQPDSN()
	if err != nil {
		return fmt.Errorf("RabbitMQ config error: %w", err)
	}
	rbMQ := mq.New(a.cfg.MQ, a.logger, a.mCounter)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		return fmt.Errorf("failed to connect to rabbitMQ: %w", err)
	}
	a.mq = rbMQ
	if err = rbMQ.Init(); err != nil {
		return fmt.Errorf("failed init rabbitMQ: %w", err)
	}
	a.events = rbMQ

	// rmqConsumer
	rmqConsumer := rmqconsumer.New(a.cfg.MQ, a.logger, rbMQ.GetConn(), a.mCounter)
	if err = rmqConsumer.Connect(rabbitDsn); err != nil {
		return fmt.Errorf("failed to connect rabbitMQ consumer: %w", err)
	}
	if err = rmqConsumer.Init(); err != nil {
		return fmt.Errorf("failed to init rabbitMQ consumer: %w", err)
	}
	a.mqConsumer = rmqConsumer

	return nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		_ = a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.httpSrv.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	if a.mq != nil {
		g.Go(func() error {
			a.mq.PublisherWorker(ctx)
			return nil
		})
	}

	if a.mqConsumer != nil {
		g.Go(func() error {
			a.mqConsumer.DeliveryWorker(ctx)
			return nil
		})
	}

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
		return err
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	v := a.cfg.Vault

	// services
	ledger := services.NewQuotaLedger(v.QuotaBytes)
	contents := services.NewContentStore(a.store, a.blobs, a.logger)
	fileService := services.NewFileService(a.store, contents, ledger, a.events, v, a.logger, a.mCounter)
	statsService := services.NewStatsService(a.store, ledger, a.mCounter)

	// controllers, every file route is owner scoped and rate limited
	gated := a.router.Group("", middleware.Owner(), middleware.RateLimit(a.limiter, a.logger, a.mCounter))
	rest.NewFileController(gated, fileService, a.logger, v.MaxUploadBytes)
	rest.NewStatsController(gated, statsService, a.logger)

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

func (a *App) Logger() *zap.Logger { return a.logger }

// OpenDB connects to Postgres with the configured DSN.
func OpenDB(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		return nil, fmt.Errorf("DB config error: %w", err)
	}
	pool, err := postgres.New(ctx, logger, dbDsn, cfg.App.Name)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// Migrate applies the embedded schema; it is idempotent.
func Migrate(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	pool, err := OpenDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return postgres.Migrate(ctx, logger, pool)
}
