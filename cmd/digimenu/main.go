package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/digimenu/internal/config"
	httpserver "github.com/tendant/digimenu/internal/http"
	"github.com/tendant/digimenu/internal/http/features/account"
	"github.com/tendant/digimenu/internal/metrics"
	"github.com/tendant/digimenu/internal/notification"
	"github.com/tendant/digimenu/pkg/auth"
	"github.com/tendant/digimenu/pkg/cache"
	"github.com/tendant/digimenu/pkg/catalog"
	"github.com/tendant/digimenu/pkg/media"
	"github.com/tendant/digimenu/pkg/repository"
	"github.com/tendant/digimenu/pkg/repository/memstore"
)

// stores is the persistence backend picked by STORE_DRIVER.
type stores struct {
	users       auth.UserStore
	credentials auth.CredentialStore
	accounts    auth.AccountStore
	sessions    auth.SessionStore
	restaurants catalog.RestaurantStore
	categories  catalog.CategoryStore
	items       catalog.ItemStore
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence
	var st stores
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := memstore.New()
		st = stores{
			users:       mem.Users(),
			credentials: mem.Credentials(),
			accounts:    mem.Accounts(),
			sessions:    mem.Sessions(),
			restaurants: mem.Restaurants(),
			categories:  mem.Categories(),
			items:       mem.Items(),
		}
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		db, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		st = stores{
			users:       repository.NewUsersRepository(db),
			credentials: repository.NewCredentialsRepository(db),
			accounts:    repository.NewAccountsRepository(db),
			sessions:    repository.NewSessionsRepository(db),
			restaurants: repository.NewRestaurantsRepository(db),
			categories:  repository.NewCategoriesRepository(db),
			items:       repository.NewItemsRepository(db),
		}
	}

	// Asset storage
	var assets media.Store
	var mediaRoot string
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		assets, err = media.NewS3Store(ctx, media.S3Config{
			Bucket:          cfg.Storage.S3Bucket,
			Region:          cfg.Storage.S3Region,
			Endpoint:        cfg.Storage.S3Endpoint,
			AccessKeyID:     cfg.Storage.S3AccessKeyID,
			SecretAccessKey: cfg.Storage.S3SecretAccessKey,
			PublicBaseURL:   cfg.Storage.S3PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("storing media in S3", "bucket", cfg.Storage.S3Bucket)
	default:
		local, err := media.NewLocalStore(cfg.Storage.MediaRoot, cfg.Storage.MediaURL)
		if err != nil {
			logger.Error("failed to initialize media directory", "error", err)
			os.Exit(1)
		}
		assets = local
		mediaRoot = local.Root()
		logger.Info("storing media on disk", "root", mediaRoot)
	}

	m := metrics.New()

	// Public menu cache (optional)
	var menuCache catalog.MenuCache
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		menuCache = metrics.InstrumentMenuCache(cache.NewMenuCache(client, cfg.Redis.MenuCacheTTL), m)
		logger.Info("menu cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.MenuCacheTTL)
	}

	// Initialize services
	passwordService := auth.NewPasswordService(
		st.users,
		st.credentials,
		st.accounts,
		st.restaurants,
		auth.NewPasswordPolicy(cfg.PasswordPolicy),
		auth.NewEmailPolicy(cfg.Validation),
	)
	sessionService := auth.NewSessionService(auth.SessionConfig{
		AccessTokenTTL:     cfg.AccessTokenTTL,
		RefreshTokenTTL:    cfg.RefreshTokenTTL,
		JWTSecret:          []byte(cfg.JWTSecret),
		Issuer:             cfg.JWTIssuer,
		FingerprintEnabled: cfg.Session.FingerprintEnabled,
	}, st.sessions, st.users)
	catalogService := catalog.NewService(st.categories, st.items, assets, menuCache, logger)
	restaurantService := catalog.NewRestaurantService(st.restaurants, st.items, assets, menuCache, logger)
	menuService := catalog.NewMenuService(st.restaurants, st.categories, st.items, menuCache, logger)

	// Initialize email service if configured
	var mailer account.WelcomeMailer
	if cfg.SMTP.Enabled() {
		mailer = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		})
		logger.Info("email service enabled")
	}

	// Create router
	router, err := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:            logger,
		PasswordService:   passwordService,
		SessionService:    sessionService,
		CatalogService:    catalogService,
		RestaurantService: restaurantService,
		MenuService:       menuService,
		Assets:            assets,
		Mailer:            mailer,
		Metrics:           m,
		AppBaseURL:        cfg.AppBaseURL,
		CookieSecure:      cfg.CookieSecure,
		MediaRoot:         mediaRoot,
		MediaURL:          cfg.Storage.MediaURL,
		RateLimitConfig:   cfg.RateLimit,
		SecurityHeaders:   cfg.SecurityHeaders,
		Validation:        cfg.Validation,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	go purgeSessions(ctx, sessionService, cfg.Session, logger)

	// Create HTTP server
	addr := cfg.ListenAddr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr, "base_url", cfg.AppBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if cfg.RunMigrations {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database schema up to date")
	}
	return db, nil
}

// purgeSessions deletes long-expired and revoked sessions until ctx ends.
func purgeSessions(ctx context.Context, sessions *auth.SessionService, cfg config.SessionSecurityConfig, logger *slog.Logger) {
	if cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx, cfg.Retention)
			if err != nil {
				logger.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged sessions", "count", n)
			}
		}
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
