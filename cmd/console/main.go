package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/console/handler"
	"github.com/xela07ax/loyalty-ordering/internal/console/server"
	"github.com/xela07ax/loyalty-ordering/internal/console/service"
	"github.com/xela07ax/loyalty-ordering/internal/infra"
	"github.com/xela07ax/loyalty-ordering/internal/infra/auth"
	"github.com/xela07ax/loyalty-ordering/internal/policy"
	"github.com/xela07ax/loyalty-ordering/internal/repository/postgres"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("console failed", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Ресурсы
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()

	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		return err
	}
	privKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		return err
	}

	// 2. Слои (Dependency Injection)
	repo := postgres.NewLoyaltyRepo(pool)
	exprs, err := policy.NewEngine(logger)
	if err != nil {
		return err
	}

	policyService := service.NewPolicyService(repo, rdb, exprs, logger)
	authService := service.NewAuthService(repo, privKey, cfg.Auth.TokenTTL)
	auditService := service.NewAuditService(postgres.NewAuditRepo(pool))

	console := server.NewConsoleServer(
		logger,
		auth.NewRSAValidator(pubKey),
		handler.NewAuthHandler(authService, logger),
		handler.NewPolicyHandler(policyService, logger),
		handler.NewAuditHandler(auditService),
	)

	// 3. Сервер
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Console.Port),
		Handler:      console,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("console API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("console listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
