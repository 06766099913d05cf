package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"catalance/api/handler"
	apiMiddleware "catalance/api/middleware"
	"catalance/api/routes"
	"catalance/config"
	"catalance/internal/migrations"
	"catalance/internal/repository"
	"catalance/internal/service"
	"catalance/internal/utils"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v9"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectionDb(cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	if cfg.RunMigrations {
		sqlDB, err := db.DB()
		if err != nil {
			logger.WithError(err).Fatal("database handle unavailable")
		}
		if err := migrations.Up(ctx, sqlDB); err != nil {
			logger.WithError(err).Fatal("migrations failed")
		}
	}
	validate := validator.New()

	accessManager := utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.JWTExpiresIn,
	}
	accessIssuer := service.JWTAccessIssuer{Manager: &accessManager}

	userRepo := repository.NewUserRepository(db)
	securityRepo := repository.NewSecurityLogRepository(db)

	passwordPolicy := service.NewPasswordPolicy(
		service.Argon2idHasher{
			Memory:  cfg.Argon2MemoryKiB,
			Time:    cfg.Argon2Iterations,
			Threads: cfg.Argon2Parallelism,
		},
		service.BcryptPasswordVerifier{},
	)

	authService := service.NewAuthService(
		userRepo,
		securityRepo,
		newEmailSender(ctx, cfg, logger),
		passwordPolicy,
		accessIssuer,
		service.RealClock{},
		logger,
		service.AuthConfig{
			ResetTokenTTL: cfg.ResetTokenTTL,
			FrontendURL:   cfg.FrontendURL,
			AppName:       cfg.AppName,
		},
	)
	go authService.RunResetTokenSweep(ctx, cfg.ResetTokenSweepInterval)

	authRate, closeRedis := newAuthRateLimiter(cfg, logger)
	defer closeRedis()

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    redactToken(v.URI),
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &accessManager}
	router := routes.NewRouter(
		app,
		handler.NewAuthHandler(authService, validate, logger),
		handler.NewUserHandler(authService, validate, logger),
		authMiddleware,
		authRate,
	)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("server shutdown")
		}
	}()

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
}

func newEmailSender(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) service.EmailSender {
	var sender service.EmailSender
	switch cfg.EmailProvider {
	case config.EmailProviderSES:
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.SESRegion))
		if err != nil {
			logger.WithError(err).Warn("aws config unavailable, email disabled")
			return service.NoopEmailSender{}
		}
		sender = service.NewSESEmailSender(awsCfg, cfg.SESFromEmail)
	default:
		sender = service.NewResendEmailSender(cfg.ResendAPIKey, cfg.ResendFromEmail)
	}
	if !sender.Available() {
		logger.WithField("provider", cfg.EmailProvider).Warn("email transport not configured")
	}
	return sender
}

// newAuthRateLimiter shares counters through Redis when REDIS_URL is set.
func newAuthRateLimiter(cfg *config.Config, logger logrus.FieldLogger) (apiMiddleware.Limiter, func()) {
	if cfg.RedisURL == "" {
		return nil, func() {}
	}
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Fatal("invalid REDIS_URL")
	}
	client := redis.NewClient(redisOpt)
	limiter := apiMiddleware.NewRedisRateLimiter(client, logger, cfg.AuthRateLimit, time.Minute)
	return limiter, func() {
		if err := client.Close(); err != nil {
			logger.WithError(err).Warn("redis client close")
		}
	}
}

func redactToken(uri string) string {
	if i := strings.Index(uri, "token="); i >= 0 {
		return uri[:i] + "token=REDACTED"
	}
	return uri
}
