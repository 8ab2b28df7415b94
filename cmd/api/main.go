package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/safar/cafe-pos/internal/api"
	"github.com/safar/cafe-pos/internal/auth"
	"github.com/safar/cafe-pos/internal/config"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/logger"
	"github.com/safar/cafe-pos/internal/store"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logg := logger.New(cfg.Log)
	slog.SetDefault(logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *slog.Logger) error {
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	logg.Info("connected to database")

	if cfg.App.SeedMenu {
		n, err := store.SeedMenu(ctx, db)
		if err != nil {
			return fmt.Errorf("seed menu: %w", err)
		}
		logg.Info("menu seeded", "inserted", n)
	}

	verifier, err := credentialVerifier(ctx, cfg, db, logg)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticators := []auth.Authenticator{tokens}
	if cfg.Auth.OIDCIssuer != "" {
		oidcAuth, err := auth.NewOIDCAuthenticator(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID, cfg.Auth.OIDCRoleClaim)
		if err != nil {
			return fmt.Errorf("configure oidc: %w", err)
		}
		authenticators = append(authenticators, oidcAuth)
		logg.Info("oidc authentication enabled", "issuer", cfg.Auth.OIDCIssuer)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := &api.Handler{
		DB:            db,
		Verifier:      verifier,
		Tokens:        tokens,
		Authenticator: auth.NewGate(authenticators...),
		Location:      cfg.Location(),
		Logger:        logg,
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logg.Info("server starting", "port", cfg.Server.Port, "env", cfg.Env, "auth_mode", cfg.Auth.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logg.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// credentialVerifier picks the login backend. In database mode the
// configured users are created as accounts on first start.
func credentialVerifier(ctx context.Context, cfg *config.Config, db *sql.DB, logg *slog.Logger) (auth.CredentialVerifier, error) {
	if cfg.Auth.Mode != config.AuthModeDatabase {
		return auth.NewStaticVerifier(cfg.Auth.StaticUsers)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}

	accounts := auth.NewAccountStore(gdb)
	if len(cfg.Auth.StaticUsers) == 0 {
		logg.Info("no staff accounts configured, using stored accounts only")
	}
	for _, u := range cfg.Auth.StaticUsers {
		created, err := accounts.EnsureAccount(ctx, u.Username, u.Password, u.Role, u.Name)
		if err != nil {
			return nil, fmt.Errorf("ensure account %q: %w", u.Username, err)
		}
		if created {
			logg.Info("staff account created", "username", u.Username, "role", u.Role)
		}
	}

	return accounts, nil
}
