package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/config"
	"github.com/iliyamo/visa-portal/internal/database"
	"github.com/iliyamo/visa-portal/internal/handler"
	"github.com/iliyamo/visa-portal/internal/logger"
	"github.com/iliyamo/visa-portal/internal/mail"
	"github.com/iliyamo/visa-portal/internal/middleware"
	"github.com/iliyamo/visa-portal/internal/queue"
	"github.com/iliyamo/visa-portal/internal/repository"
	"github.com/iliyamo/visa-portal/internal/router"
	"github.com/iliyamo/visa-portal/internal/service"
	"github.com/iliyamo/visa-portal/internal/upload"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("schema migration failed", zap.Error(err))
	}

	rl := config.LoadRateLimitConfig()
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.Warn("redis unavailable, using in-process rate limiter", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	sender, closeSender := otpSender(ctx, cfg, log)
	defer closeSender()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("upload dir", zap.String("dir", cfg.UploadDir), zap.Error(err))
	}
	uploads := upload.NewStore(cfg.UploadDir, cfg.PublicBaseURL)

	users := repository.NewUserRepo(db)
	authSvc := service.NewAuthService(users, repository.NewTokenRepo(db), sender, service.AuthConfig{
		Secret:             cfg.JWTSecret,
		AccessTTL:          cfg.AccessTTL,
		RefreshTTL:         cfg.RefreshTTL,
		OTPTokenTTL:        cfg.OTPTokenTTL,
		OTPTTL:             cfg.OTPTTL,
		BcryptCost:         cfg.BcryptCost,
		ExposeOTP:          cfg.ExposeOTP,
		RequireOTPVerified: cfg.RequireOTPAuth,
	}, log)
	userSvc := service.NewUserService(users, cfg.BcryptCost)
	appSvc := service.NewApplicationService(repository.NewApplicationRepo(db))

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "refresh_token"},
	}))
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, router.Deps{
		Auth:         handler.NewAuthHandler(authSvc, uploads, log),
		Users:        handler.NewUserHandler(userSvc, log),
		Applications: handler.NewApplicationHandler(appSvc, uploads, log),
		JWTSecret:    cfg.JWTSecret,
		RateLimit:    middleware.NewTokenBucket(rl, rdb, log),
		UploadDir:    cfg.UploadDir,
		Log:          log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// otpSender picks how OTP mails leave the process: through RabbitMQ when a
// broker is configured, straight over SMTP, or only into the log.
func otpSender(ctx context.Context, cfg config.Config, log *zap.Logger) (service.OTPSender, func()) {
	var direct service.OTPSender = mail.LogSender{Log: log}
	if cfg.SMTP.Host != "" {
		direct = mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
	}
	if cfg.RabbitURL == "" {
		return direct, func() {}
	}

	pub := queue.NewPublisher(cfg.RabbitURL, log)
	go func() {
		if err := queue.StartOTPConsumer(ctx, cfg.RabbitURL, direct, log); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("otp consumer exited", zap.Error(err))
		}
	}()
	return pub, pub.Close
}
