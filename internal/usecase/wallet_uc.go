package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"greenwallet-service/internal/domain"
	publisher "greenwallet-service/internal/pub"
	"greenwallet-service/internal/repository"
	"greenwallet-service/pkg/utils"
	"greenwallet-service/pkg/xerrors"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletUsecase handles wallet lifecycle and read projections. Balance
// mutations live in LedgerUsecase; the only balance write here is the
// optional initial-credit seed at creation, which deliberately bypasses
// batch provenance.
type WalletUsecase struct {
	walletRepo repository.WalletRepository
	batchRepo  repository.BatchRepository
	txnRepo    repository.TransactionRepository

	numberGen   *utils.WalletNumberGenerator
	redisClient *redis.Client
	events      *publisher.WalletEventPublisher
	logger      *zap.Logger
}

func NewWalletUsecase(
	walletRepo repository.WalletRepository,
	batchRepo repository.BatchRepository,
	txnRepo repository.TransactionRepository,
	numberGen *utils.WalletNumberGenerator,
	redisClient *redis.Client,
	events *publisher.WalletEventPublisher,
	logger *zap.Logger,
) *WalletUsecase {
	return &WalletUsecase{
		walletRepo:  walletRepo,
		batchRepo:   batchRepo,
		txnRepo:     txnRepo,
		numberGen:   numberGen,
		redisClient: redisClient,
		events:      events,
		logger:      logger,
	}
}

// CreateWallet creates a wallet with a unique 6-digit number, generating
// one when the request does not carry it.
func (uc *WalletUsecase) CreateWallet(ctx context.Context, req *domain.WalletCreate) (*domain.Wallet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	initial := req.InitialCredits
	if initial.Sign() < 0 {
		initial = decimal.Zero
	}

	var walletNumber int
	if req.WalletNumber != nil {
		taken, err := uc.walletRepo.NumberExists(ctx, *req.WalletNumber)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, xerrors.ErrDuplicateWalletNumber
		}
		walletNumber = *req.WalletNumber
	} else {
		var err error
		walletNumber, err = uc.numberGen.Generate(ctx, uc.walletRepo.NumberExists)
		if err != nil {
			return nil, fmt.Errorf("failed to generate wallet number: %w", err)
		}
	}

	wallet := &domain.Wallet{
		WalletNumber:     walletNumber,
		Name:             req.Name,
		OwnerType:        req.OwnerType,
		OwnerID:          req.OwnerID,
		AvailableCredits: initial,
		RetiredCredits:   decimal.Zero,
	}
	if err := uc.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	invalidateWalletCaches(ctx, uc.redisClient)

	if err := uc.events.Publish(ctx, &publisher.WalletEvent{
		EventType:    "wallet.created",
		WalletID:     wallet.ID,
		WalletNumber: wallet.WalletNumber,
	}); err != nil {
		uc.logger.Warn("failed to publish wallet event", zap.Error(err), zap.Int64("wallet_id", wallet.ID))
	}

	uc.logger.Info("wallet created",
		zap.Int64("wallet_id", wallet.ID),
		zap.Int("wallet_number", wallet.WalletNumber),
		zap.String("owner_type", string(wallet.OwnerType)),
	)
	return wallet, nil
}

// GetAllWallets lists all wallets, newest first, with a short-lived cache.
func (uc *WalletUsecase) GetAllWallets(ctx context.Context) ([]*domain.Wallet, error) {
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, walletListCacheKey).Result(); err == nil {
			var wallets []*domain.Wallet
			if jsonErr := json.Unmarshal([]byte(val), &wallets); jsonErr == nil {
				return wallets, nil
			}
		}
	}

	wallets, err := uc.walletRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(wallets); err == nil {
			_ = uc.redisClient.Set(ctx, walletListCacheKey, data, walletListTTL).Err()
		}
	}
	return wallets, nil
}

// GetWalletByID returns a snapshot of one wallet.
func (uc *WalletUsecase) GetWalletByID(ctx context.Context, walletID int64) (*domain.Wallet, error) {
	cacheKey := walletCacheKeyFor(walletID)
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var w domain.Wallet
			if jsonErr := json.Unmarshal([]byte(val), &w); jsonErr == nil {
				return &w, nil
			}
		}
	}

	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(wallet); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, walletCacheTTL).Err()
		}
	}
	return wallet, nil
}

// GetWalletByNumber looks a wallet up by its human-facing number.
func (uc *WalletUsecase) GetWalletByNumber(ctx context.Context, walletNumber int) (*domain.Wallet, error) {
	return uc.walletRepo.GetByNumber(ctx, walletNumber)
}

// UpdateWallet renames or retypes a wallet; balances are never touched.
func (uc *WalletUsecase) UpdateWallet(ctx context.Context, walletID int64, u *domain.WalletUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := uc.walletRepo.Update(ctx, walletID, u); err != nil {
		return err
	}
	invalidateWalletCaches(ctx, uc.redisClient, walletID)
	return nil
}

// DeleteWallet removes a wallet that never held credits, cascading its
// transactions and batches in the same database transaction.
func (uc *WalletUsecase) DeleteWallet(ctx context.Context, walletID int64) error {
	tx, err := uc.walletRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDTx(ctx, walletID, tx)
	if err != nil {
		return err
	}
	if wallet.TotalCredits().Sign() > 0 {
		return xerrors.ErrNonZeroBalance
	}

	// Transactions reference batches, so they go first.
	if err := uc.txnRepo.DeleteByWallet(ctx, walletID, tx); err != nil {
		return err
	}
	if err := uc.batchRepo.DeleteByWallet(ctx, walletID, tx); err != nil {
		return err
	}
	if err := uc.walletRepo.Delete(ctx, walletID, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit wallet delete: %w", err)
	}

	invalidateWalletCaches(ctx, uc.redisClient, walletID)

	if err := uc.events.Publish(ctx, &publisher.WalletEvent{
		EventType:    "wallet.deleted",
		WalletID:     walletID,
		WalletNumber: wallet.WalletNumber,
	}); err != nil {
		uc.logger.Warn("failed to publish wallet event", zap.Error(err), zap.Int64("wallet_id", walletID))
	}

	uc.logger.Info("wallet deleted", zap.Int64("wallet_id", walletID))
	return nil
}
