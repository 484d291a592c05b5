package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hrnicek/rezio-cz-sub000/internal/api"
	"github.com/hrnicek/rezio-cz-sub000/internal/api/handler"
	apimiddleware "github.com/hrnicek/rezio-cz-sub000/internal/api/middleware"
	"github.com/hrnicek/rezio-cz-sub000/internal/application"
	"github.com/hrnicek/rezio-cz-sub000/internal/config"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/availability"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/event"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/policy"
	"github.com/hrnicek/rezio-cz-sub000/internal/infrastructure/postgres"
	"github.com/hrnicek/rezio-cz-sub000/internal/infrastructure/rabbitmq"
	redisinfra "github.com/hrnicek/rezio-cz-sub000/internal/infrastructure/redis"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/logger"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/metrics"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/retry"
	"github.com/hrnicek/rezio-cz-sub000/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// .env はローカル開発用（無ければ無視）
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(log)
	defer logger.Sync()

	// データベース
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := postgres.RunMigrations(db.DB, path); err != nil {
			logger.Fatal("マイグレーションに失敗", zap.Error(err))
		}
	}

	// Redis（任意: 無ければ分散ロックなしで動く）
	var lockManager *redisinfra.LockManager
	redisClient := redisinfra.NewClient(&cfg.Redis)
	if err := redisinfra.Ping(context.Background(), redisClient); err != nil {
		logger.Warn("Redisに接続できないため分散ロックを無効化", zap.Error(err))
	} else {
		lockManager = redisinfra.NewLockManager(redisClient)
		defer redisClient.Close()
	}

	// RabbitMQ（任意: URL未設定ならイベント発行なし）
	var publisher event.Publisher
	if cfg.AMQP.URL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Fatal("RabbitMQ接続に失敗", zap.Error(err))
		}
		defer p.Close()
		publisher = p
	}

	// リポジトリ
	propertyRepo := postgres.NewPropertyRepository(db)
	seasonRepo := postgres.NewSeasonRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	txManager := postgres.NewTxManager(db)

	// ドメインコンポーネント
	checker := availability.NewChecker(reservationRepo, propertyRepo)
	rules := policy.NewChain(
		&policy.MinStayRule{DefaultMinStay: cfg.Booking.DefaultMinStay},
		&policy.MinPersonsRule{},
		&policy.FullSeasonBookingRule{},
		&policy.CheckInDayRule{},
	)
	executor := retry.NewExecutor(cfg.Booking.RetryMaxAttempts, cfg.Booking.RetryBaseDelay)

	reservationService, err := application.NewReservationService(
		txManager, propertyRepo, seasonRepo, customerRepo, reservationRepo,
		checker, rules, publisher, executor, lockManager, cfg.Booking,
	)
	if err != nil {
		logger.Fatal("サービス初期化に失敗", zap.Error(err))
	}

	// 滞留予約ワーカー
	workerCtx, workerCancel := context.WithCancel(context.Background())
	expirer := worker.NewStalePendingExpirer(reservationService, time.Hour, cfg.Booking.PendingExpiry)
	go expirer.Start(workerCtx)

	// HTTPサーバー
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	apimiddleware.SetupMiddleware(e)

	m := metrics.Init()
	e.Use(apimiddleware.PrometheusMiddleware(m))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), apimiddleware.MetricsBasicAuth())

	healthHandler := handler.NewHealthHandler()
	reservationHandler := handler.NewReservationHandler(reservationService)

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)
	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.GET("/reservations/code/:code", reservationHandler.GetByCode)
	v1.POST("/reservations/:id/:action", reservationHandler.UpdateStatus)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	workerCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
