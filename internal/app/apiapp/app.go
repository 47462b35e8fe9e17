package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/config"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/infra/httpclient"
	s3infra "github.com/Tanmay692004/techwithtim-tutorial/internal/infra/s3"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/infra/tracing"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/jobs/cleanup"
	pgrepo "github.com/Tanmay692004/techwithtim-tutorial/internal/repo/postgres"
	redrepo "github.com/Tanmay692004/techwithtim-tutorial/internal/repo/redis"
	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/services/mediahost"
	postssvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/posts"
	ratesvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/rate"
	userssvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/users"
)

type App struct {
	cfg             config.Config
	logger          *zap.Logger
	server          *http.Server
	postgres        *pgxpool.Pool
	redis           *goredis.Client
	shutdownTracing tracing.ShutdownFunc
	httpRouter      http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		log.Warn("tracing init failed, continuing without spans", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.HTTP.RequestTimeout)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else if err := pgrepo.EnsureSchema(ctx, p); err != nil {
		p.Close()
		log.Warn("postgres schema init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient, err := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("redis tracing instrumentation failed", zap.Error(err))
	}

	userRepo := pgrepo.NewUserRepo(pool)
	postRepo := pgrepo.NewPostRepo(pool)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL, cfg.Auth.VerifyTokenTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, userRepo, authsvc.Config{
		RefreshTTL: cfg.Auth.RefreshTTL,
		Password: authsvc.PasswordPolicy{
			MinSize: cfg.Auth.MinPasswordSize,
			Cost:    cfg.Auth.BcryptCost,
		},
	})
	authService.AttachVerifySender(authsvc.NewLogVerifySender(log.Named("verify")))
	userService := userssvc.NewService(userRepo, postRepo, authService)

	if cfg.Uploads.TempDir == "" {
		cfg.Uploads.TempDir = config.DefaultUploadDir()
	}
	if err := os.MkdirAll(cfg.Uploads.TempDir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload temp dir: %w", err)
	}
	sweep := cleanup.NewTempUploadSweep(cfg.Uploads.TempDir, postssvc.TempFilePattern, cfg.Uploads.StaleAfter, log)
	if err := sweep.Run(ctx); err != nil {
		log.Warn("temp upload sweep failed", zap.Error(err))
	}

	postService := postssvc.NewService(postRepo, userRepo, newMediaHost(ctx, cfg, log), postssvc.Config{
		TempDir: cfg.Uploads.TempDir,
		Tag:     cfg.Uploads.Tag,
	})
	postService.AttachRateLimiter(ratesvc.NewLimiter(
		rateRepo,
		cfg.Uploads.RatePerMinute,
		cfg.Uploads.RatePer10Seconds,
	))

	RegisterRoutes(r, Dependencies{
		AuthService:   authService,
		UserService:   userService,
		PostService:   postService,
		MaxUploadSize: cfg.Uploads.MaxSizeBytes,
		Logger:        log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(r, "http.server"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:             cfg,
		logger:          log,
		server:          server,
		postgres:        pool,
		redis:           redisClient,
		shutdownTracing: shutdownTracing,
		httpRouter:      r,
	}, nil
}

// newMediaHost builds the configured upload target. A nil result leaves the
// service running with uploads failing upstream.
func newMediaHost(ctx context.Context, cfg config.Config, log *zap.Logger) mediahost.Host {
	switch cfg.MediaHost.Provider {
	case config.MediaProviderS3:
		client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
			return nil
		}
		store := mediahost.NewObjectStore(client, cfg.S3.Bucket, cfg.S3.PublicURL)
		if err := store.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed", zap.Error(err))
		}
		return store
	default:
		ik, err := mediahost.NewImageKit(mediahost.ImageKitConfig{
			PrivateKey:  cfg.MediaHost.ImageKit.PrivateKey,
			PublicKey:   cfg.MediaHost.ImageKit.PublicKey,
			URLEndpoint: cfg.MediaHost.ImageKit.URLEndpoint,
			UploadURL:   cfg.MediaHost.ImageKit.UploadURL,
		}, httpclient.New(cfg.MediaHost.Timeout))
		if err != nil {
			log.Warn("imagekit init failed, uploads are disabled", zap.Error(err))
			return nil
		}
		return ik
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
