package server

import (
	"context"
	"net/http"
	"time"

	"greenwallet-service/internal/config"
	hrest "greenwallet-service/internal/handler/rest"
	publisher "greenwallet-service/internal/pub"
	"greenwallet-service/internal/repository"
	"greenwallet-service/internal/service"
	"greenwallet-service/internal/usecase"
	"greenwallet-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// WalletServer owns the process-wide resources: the connection pool,
// redis client, kafka writer and the HTTP listener.
type WalletServer struct {
	cfg    config.AppConfig
	logger *zap.Logger

	httpServer  *http.Server
	rdb         *redis.Client
	kafkaWriter *kafka.Writer
	closePool   func()
}

func NewWalletServer(cfg config.AppConfig, logger *zap.Logger) (*WalletServer, error) {
	// --- DB connection ---
	dbpool, err := config.ConnectDB(logger)
	if err != nil {
		return nil, err
	}

	if err := service.RunMigrations(dbpool, logger); err != nil {
		dbpool.Close()
		return nil, err
	}

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	// --- Kafka writer ---
	kafkaWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}

	// --- Repositories ---
	walletRepo := repository.NewWalletRepo(dbpool)
	batchRepo := repository.NewBatchRepo(dbpool)
	txnRepo := repository.NewTransactionRepo(dbpool)

	// --- Usecases ---
	events := publisher.NewWalletEventPublisher(rdb, logger)
	walletUC := usecase.NewWalletUsecase(
		walletRepo, batchRepo, txnRepo,
		utils.NewWalletNumberGenerator(), rdb, events, logger,
	)
	ledgerUC := usecase.NewLedgerUsecase(
		walletRepo, batchRepo, txnRepo,
		utils.NewReferenceGenerator(), rdb, kafkaWriter, events, logger,
	)

	// --- REST handler ---
	walletHandler := hrest.NewWalletRestHandler(walletUC, ledgerUC)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Mount("/wallets", walletHandler.Routes())

	return &WalletServer{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		rdb:         rdb,
		kafkaWriter: kafkaWriter,
		closePool:   dbpool.Close,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully and releases the pool, redis and kafka resources.
func (s *WalletServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("wallet HTTP server listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.close()
	return err
}

func (s *WalletServer) close() {
	if err := s.kafkaWriter.Close(); err != nil {
		s.logger.Warn("failed to close kafka writer", zap.Error(err))
	}
	if err := s.rdb.Close(); err != nil {
		s.logger.Warn("failed to close redis client", zap.Error(err))
	}
	s.closePool()
}
