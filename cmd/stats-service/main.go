package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ticket-stats/internal/auth"
	"ms-ticket-stats/internal/config"
	"ms-ticket-stats/internal/database/migrations"
	"ms-ticket-stats/internal/logger"
	"ms-ticket-stats/internal/models"
	"ms-ticket-stats/internal/stats"
	stats_api "ms-ticket-stats/internal/stats/api"
	statsdb "ms-ticket-stats/internal/stats/db"
)

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	if cfg.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		sqldb.Close()
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func runMigrations(cfg config.DatabaseConfig, log *logger.Logger) {
	opts := migrations.DefaultOptions()
	opts.AutoMigrate = cfg.AutoMigrate
	if !opts.AutoMigrate {
		log.Info("MIGRATE", "AUTO_MIGRATE disabled, skipping schema migrations")
		return
	}

	// The runner closes its connection, so it gets its own.
	sqldb, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to open PostgreSQL for migrations: %v", err))
	}
	runner := migrations.NewRunner(sqldb, opts, log)
	if err := runner.RunMigrations(); err != nil {
		runner.Close()
		log.Fatal("MIGRATE", fmt.Sprintf("Migrations failed: %v", err))
	}
	if err := runner.Close(); err != nil {
		log.Warn("MIGRATE", fmt.Sprintf("Failed to close migrator: %v", err))
	}
}

func buildVerifier(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) auth.Verifier {
	switch {
	case cfg.OIDCIssuer != "":
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
		if err != nil {
			log.Fatal("AUTH", err.Error())
		}
		log.Info("AUTH", fmt.Sprintf("Verifying bearer tokens against OIDC issuer %s", cfg.OIDCIssuer))
		return v
	case cfg.JWTSecret != "":
		log.Info("AUTH", "Verifying bearer tokens with the shared HS256 secret")
		return auth.NewHS256Verifier(cfg.JWTSecret)
	default:
		log.Warn("AUTH", "Neither OIDC_ISSUER nor JWT_SECRET set, stats endpoints are unauthenticated")
		return nil
	}
}

func buildOwnership(ctx context.Context, cfg *config.Config, verifier auth.Verifier, log *logger.Logger) (stats_api.OwnershipChecker, *redis.Client) {
	if cfg.Auth.EventServiceURL == "" {
		log.Info("AUTH", "EVENT_SERVICE_URL not set, event ownership is not verified")
		return nil, nil
	}
	if verifier == nil {
		log.Fatal("CONFIG", "EVENT_SERVICE_URL requires OIDC_ISSUER or JWT_SECRET")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	tokens := &auth.TokenSource{
		Config: models.KeycloakConfig{
			KeycloakURL:   cfg.Auth.KeycloakURL,
			KeycloakRealm: cfg.Auth.KeycloakRealm,
			ClientID:      cfg.Auth.ClientID,
			ClientSecret:  cfg.Auth.ClientSecret,
		},
		Client: client,
		Logger: log,
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		rc, err := auth.InitializeTokenCache(ctx, cfg.Redis.Addr, log)
		if err != nil {
			log.Warn("AUTH", fmt.Sprintf("Token cache unavailable, tokens will not be cached: %v", err))
		} else {
			redisClient = rc
			tokens.Cache = auth.NewRedisTokenCache(rc)
		}
	}

	return &auth.OwnershipVerifier{
		BaseURL: cfg.Auth.EventServiceURL,
		Tokens:  tokens,
		Client:  client,
		Logger:  log,
	}, redisClient
}

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	envErr := config.LoadEnvFile(flags.EnvFile)

	cfg := config.Load()
	flags.Apply(cfg)

	log := logger.NewLogger(cfg.Log.Dir, "ticket-stats")
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))

	log.Info("APP", "Starting Ticket Stats Service initialization")
	if envErr != nil {
		log.Warn("CONFIG", fmt.Sprintf("Failed to load %s: %v", flags.EnvFile, envErr))
	}

	loc, err := time.LoadLocation(cfg.Stats.Timezone)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid STATS_TIMEZONE %q: %v", cfg.Stats.Timezone, err))
	}

	ctx := context.Background()

	runMigrations(cfg.Database, log)
	bunDB := openPostgres(ctx, cfg.Database, log)
	defer bunDB.Close()

	service := stats.NewService(&statsdb.DB{Bun: bunDB},
		stats.WithLocation(loc),
		stats.WithMaxPageSize(cfg.Stats.MaxPageSize),
	)

	verifier := buildVerifier(ctx, cfg.Auth, log)
	ownership, redisClient := buildOwnership(ctx, cfg, verifier, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	handler := stats_api.NewHandler(service, ownership, log)
	handler.DefaultPageSize = cfg.Stats.DefaultPageSize

	log.Info("HTTP", "Setting up router and middleware")
	router := stats_api.NewRouter(stats_api.RouterConfig{
		Handler:        handler,
		Logger:         log,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Verifier:       verifier,
		RequestTimeout: cfg.Server.WriteTimeout,
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Ticket Stats Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Ticket Stats Service shutdown complete")
	}
}
