package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/buyerleads/api/handler"
	"github.com/fastygo/buyerleads/internal/config"
	"github.com/fastygo/buyerleads/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/buyerleads/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/buyerleads/internal/infrastructure/redis"
	"github.com/fastygo/buyerleads/internal/infrastructure/reports"
	"github.com/fastygo/buyerleads/internal/middleware"
	"github.com/fastygo/buyerleads/internal/router"
	"github.com/fastygo/buyerleads/internal/services"
	"github.com/fastygo/buyerleads/internal/services/lifecycle"
	"github.com/fastygo/buyerleads/pkg/httpcontext"
	"github.com/fastygo/buyerleads/pkg/logger"
	"github.com/fastygo/buyerleads/repository/postgres"
	redisRepo "github.com/fastygo/buyerleads/repository/redis"
	authUC "github.com/fastygo/buyerleads/usecase/auth"
	buyerUC "github.com/fastygo/buyerleads/usecase/buyer"
	profileUC "github.com/fastygo/buyerleads/usecase/profile"
	transferUC "github.com/fastygo/buyerleads/usecase/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.Listen(context.Background())
	defer cancel()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient)

	reportStore, err := reports.Open(cfg.Import.ReportPath)
	if err != nil {
		zapLogger.Fatal("failed to open import report store", zap.Error(err))
	}
	manager.RegisterCloser("import_reports", reportStore)

	mon := monitor.New(pool, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}, reportStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	janitor := services.NewReportJanitor(reportStore, zapLogger, services.JanitorConfig{
		Interval:  cfg.Import.ReportSweepEvery,
		Retention: cfg.Import.ReportRetention,
	})
	janitor.Start()
	manager.Register("report_janitor", func(ctx context.Context) error {
		janitor.Stop(ctx)
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	buyerRepo := postgres.NewBuyerRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Redis.KeyPrefix, cfg.Auth.SessionTTL)

	authUseCase := authUC.New(userRepo, sessionRepo, authUC.Options{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		SessionTTL: cfg.Auth.SessionTTL,
		DemoLogin:  cfg.Auth.DemoLogin,
		IsAdmin:    cfg.IsAdminEmail,
	}, zapLogger)
	profileUseCase := profileUC.New(userRepo, zapLogger)
	buyerUseCase := buyerUC.New(buyerRepo, historyRepo, buyerUC.Options{
		OwnerScoped:     cfg.Buyers.Visibility == config.VisibilityOwner,
		HistoryLimit:    cfg.Buyers.HistoryLimit,
		MaxHistoryLimit: cfg.Buyers.MaxHistoryLimit,
	}, zapLogger)
	transferUseCase := transferUC.New(buyerUseCase, reportStore, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:  apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Buyer:    apiHandler.NewBuyerHandler(buyerUseCase, ctxAdapter, zapLogger),
		Transfer: apiHandler.NewTransferHandler(transferUseCase, ctxAdapter, zapLogger, cfg.Import.MaxFileSize),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.Authenticate(authUseCase, cfg.Context.RequestTimeout, zapLogger)
	importLimiter := middleware.NewRateLimiter(cfg.Import.RequestsPerMin, cfg.Import.Burst, zapLogger)
	r := router.New(handlers, authMiddleware, importLimiter.Limit)

	server := &fasthttp.Server{
		Handler:            middleware.AccessLog(zapLogger)(r.Handler),
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
		Name:               cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("visibility", cfg.Buyers.Visibility))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
