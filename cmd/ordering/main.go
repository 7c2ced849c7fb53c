package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/xela07ax/loyalty-ordering/internal/audit"
	"github.com/xela07ax/loyalty-ordering/internal/cart"
	"github.com/xela07ax/loyalty-ordering/internal/connectors"
	"github.com/xela07ax/loyalty-ordering/internal/engine"
	"github.com/xela07ax/loyalty-ordering/internal/infra"
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
		logger.Fatal("ordering service failed", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	// Контекст жизненного цикла фоновых горутин, отменяется по SIGINT/SIGTERM
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Инфраструктура
	pool, err := postgres.NewPool(appCtx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	repo := postgres.NewLoyaltyRepo(pool)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(appCtx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := engine.NewMetrics(reg)

	// 2. Журнал сделок: пакетная запись в Postgres
	journal := audit.NewJournal(postgres.NewAuditRepo(pool), audit.Options{
		BufferSize:    cfg.Journal.BufferSize,
		BatchSize:     cfg.Journal.BatchSize,
		FlushInterval: cfg.Journal.FlushInterval,
		OnFill:        func(n int) { metrics.JournalBufferFill.Set(float64(n)) },
	}, logger)
	journal.Start()
	defer journal.Stop()

	// 3. Control plane: политики в RAM и kill switch
	cache := policy.NewCache(repo, logger)
	if err := cache.Refresh(appCtx); err != nil {
		return fmt.Errorf("initial policy load: %w", err)
	}
	go cache.StartListener(appCtx, rdb)

	pauses := engine.NewPauseManager(rdb, repo, logger)
	if err := pauses.Init(appCtx); err != nil {
		return fmt.Errorf("pause manager init: %w", err)
	}
	go pauses.StartListener(appCtx)

	evaluator, err := policy.NewEngine(logger)
	if err != nil {
		return err
	}

	// 4. Ядро
	core := engine.NewOrderingCore(engine.Deps{
		Restaurants: repo,
		Policies:    cache,
		Pauses:      pauses,
		Bundles:     repo,
		Passes:      repo,
		Evaluator:   evaluator,
		Carts:       cart.NewRedisStore(rdb, cfg.Cart.TTL),
		Auditor:     journal,
		Metrics:     metrics,
		Logger:      logger,
	})

	verifier, closeVerifier, err := newVerifier(cfg.Verifier, core, metrics, logger)
	if err != nil {
		return err
	}
	defer closeVerifier()
	core.SetVerifier(verifier)

	// 5. HTTP и gRPC
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine.NewRouter(engine.NewOrderingHandler(core, logger), metrics, reg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("ordering HTTP server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http listen: %w", err)
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(engine.UnaryTracingInterceptor(logger)))
		engine.RegisterDealEngineServer(grpcSrv, engine.NewGRPCDealServer(core))

		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		go func() {
			logger.Info("ordering gRPC server started", zap.String("addr", lis.Addr().String()))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	// 6. Graceful Shutdown
	select {
	case <-appCtx.Done():
		logger.Info("ordering service stopping")
	case err := <-errCh:
		logger.Error("server failed, stopping", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	logger.Info("ordering service exited properly")
	return nil
}

// newVerifier подключает сервис заказов по verifier.mode. Удаленные режимы оборачиваются в ReliabilityWrapper.
func newVerifier(cfg infra.VerifierConfig, core *engine.OrderingCore, metrics *engine.Metrics, logger *zap.Logger) (cart.Verifier, func(), error) {
	settings := engine.DefaultReliabilitySettings()
	settings.RateLimit = cfg.RateLimit
	settings.Burst = cfg.Burst
	settings.Attempts = cfg.Attempts
	settings.CallTimeout = cfg.CallTimeout
	settings.CBMaxRequests = cfg.CBMaxRequests
	settings.CBInterval = cfg.CBInterval
	settings.CBTimeout = cfg.CBTimeout
	settings.CBMaxFailures = cfg.CBMaxFailures

	switch cfg.Mode {
	case infra.VerifierModeHTTP:
		remote := connectors.NewHTTPVerifier(cfg.URL, &http.Client{Timeout: cfg.CallTimeout})
		return engine.NewReliabilityWrapper(remote, settings, metrics, logger), func() {}, nil

	case infra.VerifierModeGRPC:
		conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to order service: %w", err)
		}
		remote := connectors.NewGRPCVerifier(conn)
		return engine.NewReliabilityWrapper(remote, settings, metrics, logger), func() { _ = conn.Close() }, nil

	default:
		logger.Warn("order verifier runs in local mode, orders are confirmed by own pricing")
		return connectors.NewLocalVerifier(core), func() {}, nil
	}
}
