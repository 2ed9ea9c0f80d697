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

	"github.com/contractdesk/contractdesk/backend/go-services/handlers"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/cache"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/config"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	contracthandler "github.com/contractdesk/contractdesk/backend/go-services/internal/contract/handler"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/repository"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/service"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/database"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/oidc"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/seed"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/sessions"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/storage"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/tokens"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/users"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/metrics"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// backends collects the connections made at startup so readiness and
// shutdown can see them.
type backends struct {
	redis    *redis.Client
	mongo    *mongo.Client
	store    *repository.Store
	objects  storage.ObjectStore
	verifier middleware.Verifier
	idp      handlers.IdentityProvider
	users    *users.Service
	sessions *sessions.Service
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: store=%s keycloak=%v redis=%v minio=%v", cfg.Store.Backend, cfg.Keycloak.URL != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &backends{}
	b.redis = connectRedis(ctx, cfg)
	if err := openStore(ctx, cfg, b); err != nil {
		logger.Fatalf("failed to open store: %v", err)
	}
	if b.mongo != nil {
		defer func() { _ = b.mongo.Disconnect(context.Background()) }()
	}
	b.objects = openObjects(ctx, cfg)
	setupAuth(ctx, cfg, b)

	var c cache.Cache = cache.Noop{}
	if b.redis != nil {
		c = cache.NewRedisCache(b.redis, "contractdesk:cache:", cfg.Redis.CacheTTL)
	}
	svc := service.New(b.store, b.objects, c, service.Options{
		Dashboard: contract.SummaryOptions{
			ExpiringWithin: cfg.Dashboard.ExpiringWithin,
			UpcomingLimit:  cfg.Dashboard.UpcomingLimit,
		},
		FileURLTTL: cfg.MinIO.URLTTL,
	})
	seedCategories(ctx, cfg, svc)

	r := newRouter(cfg, b, svc)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting contract service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// connectRedis returns a live client, or nil when Redis is not configured or
// unreachable. Redis backs the revocation list, sessions, the rate limiter and
// the collection cache; all of them degrade without it.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	addr := cfg.Redis.Addr()
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		_ = client.Close()
		return nil
	}
	sessions.SetBlacklistClient(client)
	logger.Infof("Connected to Redis: %s", addr)
	return client
}

func openStore(ctx context.Context, cfg *config.Config, b *backends) error {
	switch cfg.Store.Backend {
	case config.BackendMongo:
		client, err := connectMongoWithRetry(ctx, cfg)
		if err != nil {
			return err
		}
		b.mongo = client
		db := client.Database(cfg.MongoDB.Database)
		store, err := repository.NewMongoStore(ctx, db)
		if err != nil {
			return err
		}
		b.store = store
		logger.Infof("Using MongoDB store (%s)", cfg.MongoDB.Database)
	case config.BackendPostgres:
		db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN, 10*time.Second)
		if err != nil {
			return err
		}
		store, err := repository.NewGormStore(db)
		if err != nil {
			return err
		}
		b.store = store
		logger.Infof("Using PostgreSQL store")
	case config.BackendMemory:
		b.store = repository.NewMemoryStore()
		logger.Warnf("Using in-memory store; data is lost on restart")
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	return nil
}

// connectMongoWithRetry tolerates startup races with the database container.
func connectMongoWithRetry(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	const maxAttempts = 5
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", maxAttempts, lastErr)
}

func openObjects(ctx context.Context, cfg *config.Config) storage.ObjectStore {
	if cfg.MinIO.Endpoint == "" {
		logger.Warnf("MINIO_ENDPOINT not set; contract files are kept in memory")
		return storage.NewMemoryStorage()
	}
	s, err := storage.NewMinIOStorage(ctx, &storage.MinIOConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		UseSSL:    cfg.MinIO.UseSSL,
		Bucket:    cfg.MinIO.Bucket,
	})
	if err != nil {
		logger.Warnf("failed to initialize MinIO (%s): %v; falling back to memory", cfg.MinIO.Endpoint, err)
		return storage.NewMemoryStorage()
	}
	logger.Infof("Using MinIO bucket %s", cfg.MinIO.Bucket)
	return s
}

// setupAuth builds the token verifiers, the identity provider and the user
// and session services.
func setupAuth(ctx context.Context, cfg *config.Config, b *backends) {
	var userRepo users.UserRepository = users.NewMemoryUserRepository()
	var sessRepo sessions.Repository = sessions.NewMemoryRepository()
	if b.mongo != nil {
		db := b.mongo.Database(cfg.MongoDB.Database)
		userRepo = users.NewMongoUserRepository(db.Collection("users"))
		sessRepo = sessions.NewMongoRepository(db.Collection("sessions"))
	}
	if b.redis != nil {
		sessRepo = sessions.NewRedisRepository(b.redis, "contractdesk:session:")
		logger.Infof("Using Redis for session storage")
	}
	b.users = users.NewService(userRepo, cfg.Admin.Subjects, cfg.Admin.Emails)
	b.sessions = sessions.NewService(sessRepo)

	var verifiers []middleware.Verifier
	if cfg.JWT.Secret != "" {
		verifiers = append(verifiers, tokens.NewVerifier(cfg.JWT.Secret))
	}
	if issuer := cfg.Keycloak.Issuer(); issuer != "" && cfg.Keycloak.ClientID != "" {
		access, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID, true)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifiers = append(verifiers, access)
		}
		idTokens, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID, false)
		if err != nil {
			logger.Warnf("sign-in disabled, ID token verifier unavailable: %v", err)
		} else {
			b.idp = oidc.NewKeycloak(issuer, cfg.Keycloak.ClientID, cfg.Keycloak.ClientSecret, idTokens)
		}
	}
	if cfg.Keycloak.AllowInsecure {
		logger.Warn("enabling insecure token verifier (integration mode)")
		verifiers = append(verifiers, oidc.NewInsecureVerifier())
	}
	if len(verifiers) > 0 {
		b.verifier = middleware.FirstOf(verifiers...)
	}
}

func seedCategories(ctx context.Context, cfg *config.Config, svc *service.Service) {
	if cfg.Seed.CategoriesFile == "" {
		return
	}
	cats, err := seed.LoadCategories(cfg.Seed.CategoriesFile)
	if err != nil {
		logger.Warnf("category seed skipped: %v", err)
		return
	}
	n, err := svc.EnsureCategories(ctx, cats)
	if err != nil {
		logger.Errorf("category seed failed: %v", err)
		return
	}
	logger.Infof("category seed: %d created, %d listed", n, len(cats))
}

func newRouter(cfg *config.Config, b *backends, svc *service.Service) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), cors())

	// The limiter runs on the auth routes (keyed by client IP) and after the
	// token check on the API (keyed by subject).
	var limit []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && b.redis != nil {
			limit = append(limit, middleware.RedisRateLimitMiddleware(b.redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window))
		} else {
			limit = append(limit, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"store":  b.store != nil,
			"tokens": b.verifier != nil,
			"redis":  cfg.Redis.Host == "" || b.redis != nil,
		}
		if b.mongo != nil {
			pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			deps["mongo"] = b.mongo.Ping(pingCtx, nil) == nil
			cancel()
		}
		status, code := "ready", http.StatusOK
		for _, ok := range deps {
			if !ok {
				status, code = "not_ready", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	auth := handlers.NewAuthHandler(cfg, b.idp, b.users, b.sessions)
	auth.Register(r.Group("/", limit...))

	api := r.Group("/api/v1")
	if b.verifier == nil {
		logger.Warnf("no token verifier configured (set JWT_SECRET or KEYCLOAK_*); the API rejects every request")
	}
	api.Use(middleware.AuthMiddleware(middleware.FirstOf(b.verifier)))
	api.Use(limit...)
	auth.RegisterMe(api)
	contracthandler.New(svc, b.users).Register(api)
	return r
}

// cors is permissive for the browser frontend served from another origin.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		h.Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
