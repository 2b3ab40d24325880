package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/AnshRaj112/contacts-backend/internal/auth"
	"github.com/AnshRaj112/contacts-backend/internal/config"
	"github.com/AnshRaj112/contacts-backend/internal/database"
	"github.com/AnshRaj112/contacts-backend/internal/handlers"
	"github.com/AnshRaj112/contacts-backend/internal/middleware"
	"github.com/AnshRaj112/contacts-backend/internal/repository"
	"github.com/AnshRaj112/contacts-backend/internal/routes"
	"github.com/AnshRaj112/contacts-backend/internal/services"
	"github.com/AnshRaj112/contacts-backend/pkg/clientip"
)

const (
	shutdownTimeout = 15 * time.Second
	meRateLimit     = 10
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Apply pending migrations, then serve the API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
	return cmd
}

// runServe serves with migrations enabled. It backs the bare root command.
func runServe(cmd *cobra.Command, _ []string) error {
	return serve(cmd, false)
}

func serve(cmd *cobra.Command, skipMigrations bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	ctx := cmd.Context()

	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	if !skipMigrations {
		if err := database.Migrate(ctx, db); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		return oops.Code("REDIS_CONNECT_FAILED").With("operation", "connect to redis").Wrap(err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	codec, err := auth.NewTokenCodec(cfg)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	hasher, err := auth.NewHasher(cfg.PasswordHasher)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	// An unconfigured provider stays a nil interface so uploads answer 502.
	var avatars services.AvatarStore
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Warn("cloudinary disabled", "error", err)
		} else {
			avatars = cld
		}
	} else {
		logger.Warn("cloudinary credentials not set, avatar uploads disabled")
	}

	cache := services.NewIdentityCache(services.NewCacheService(rdb, ""), cfg.IdentityCacheTTL, logger)
	accounts := services.NewAccountService(repository.NewUserRepository(db), cache)
	notifier := services.NewNotifier(services.NewMailer(cfg.Mail, logger), codec, logger)
	authSvc := services.NewAuthService(accounts, hasher, codec, notifier, avatars, logger)
	contacts := services.NewContactService(repository.NewContactRepository(db), services.PostgresTx(db))
	resolver := auth.NewResolver(codec, cache, accounts, logger)

	r := newRouter(ctx, cfg, logger, handlers.New(authSvc, accounts, contacts, db, cfg.PublicURL, logger), resolver, rdb)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("contacts API listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	notifier.Wait()
	return nil
}

func newRouter(ctx context.Context, cfg *config.Config, logger *slog.Logger, h *handlers.Handler,
	resolver *auth.Resolver, rdb *redis.Client) *chi.Mux {
	ipOf := clientip.Func(cfg.TrustProxy)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		global := middleware.NewGlobalLimiter(ipOf)
		login := middleware.NewLoginLimiter(ipOf)
		go global.Run(ctx)
		go login.Run(ctx)
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost, global, login) {
			r.Use(mw)
		}
		logger.Info("production security enabled")
	}

	routes.SetupRoutes(r, h, routes.Guards{
		RequireUser: middleware.RequireUser(resolver),
		MeLimit:     middleware.NewRedisRateLimit(rdb, meRateLimit, time.Minute, "me", ipOf).Middleware,
	})
	return r
}
