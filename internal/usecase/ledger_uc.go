package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"greenwallet-service/internal/domain"
	publisher "greenwallet-service/internal/pub"
	"greenwallet-service/internal/repository"
	"greenwallet-service/pkg/utils"
	"greenwallet-service/pkg/xerrors"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerUsecase is the single authority for balance-affecting operations.
// Every mutation runs inside one pgx transaction: wallet rows are locked
// first (FOR UPDATE, ascending id order to avoid deadlocks), balances and
// batches are updated, the audit record is appended, then the whole unit
// commits or rolls back.
type LedgerUsecase struct {
	walletRepo repository.WalletRepository
	batchRepo  repository.BatchRepository
	txnRepo    repository.TransactionRepository

	refGen      *utils.ReferenceGenerator
	redisClient *redis.Client
	kafkaWriter *kafka.Writer
	events      *publisher.WalletEventPublisher
	logger      *zap.Logger
}

func NewLedgerUsecase(
	walletRepo repository.WalletRepository,
	batchRepo repository.BatchRepository,
	txnRepo repository.TransactionRepository,
	refGen *utils.ReferenceGenerator,
	redisClient *redis.Client,
	kafkaWriter *kafka.Writer,
	events *publisher.WalletEventPublisher,
	logger *zap.Logger,
) *LedgerUsecase {
	return &LedgerUsecase{
		walletRepo:  walletRepo,
		batchRepo:   batchRepo,
		txnRepo:     txnRepo,
		refGen:      refGen,
		redisClient: redisClient,
		kafkaWriter: kafkaWriter,
		events:      events,
		logger:      logger,
	}
}

// ===============================
// LEDGER OPERATIONS
// ===============================

// IssueCredits creates a new credit batch from a project and credits the
// wallet's available balance, atomically with the audit record.
func (uc *LedgerUsecase) IssueCredits(ctx context.Context, walletID, projectID int64, amount decimal.Decimal, note string) (*domain.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, xerrors.ErrInvalidAmount
	}
	if projectID <= 0 {
		return nil, xerrors.ErrValidation
	}

	tx, err := uc.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDTx(ctx, walletID, tx)
	if err != nil {
		return nil, err
	}

	batch := &domain.CreditBatch{
		ProjectID:       projectID,
		WalletID:        walletID,
		TotalAmount:     amount,
		RemainingAmount: amount,
		Status:          domain.BatchStatusAvailable,
	}
	if err := uc.batchRepo.Create(ctx, batch, tx); err != nil {
		return nil, err
	}

	if err := uc.walletRepo.ApplyBalanceChange(ctx, tx, walletID, amount, decimal.Zero); err != nil {
		return nil, err
	}

	rec, err := uc.txnRepo.Create(ctx, &domain.TransactionCreate{
		WalletID:      walletID,
		BatchID:       &batch.ID,
		Type:          domain.OperationIssue,
		Amount:        amount,
		Reference:     uc.refGen.NewReference(),
		ReferenceNote: note,
	}, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit issue: %w", err)
	}

	uc.afterCommit(ctx, "wallet.issued", rec, wallet.WalletNumber, 0)
	return rec, nil
}

// QuickIssueCredits credits the wallet without batch provenance
// (administrative top-up). The credits do not participate in FIFO
// retirement accounting.
func (uc *LedgerUsecase) QuickIssueCredits(ctx context.Context, walletID int64, amount decimal.Decimal, note string) (*domain.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, xerrors.ErrInvalidAmount
	}

	tx, err := uc.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDTx(ctx, walletID, tx)
	if err != nil {
		return nil, err
	}

	if err := uc.walletRepo.ApplyBalanceChange(ctx, tx, walletID, amount, decimal.Zero); err != nil {
		return nil, err
	}

	rec, err := uc.txnRepo.Create(ctx, &domain.TransactionCreate{
		WalletID:      walletID,
		Type:          domain.OperationIssue,
		Amount:        amount,
		Reference:     uc.refGen.NewReference(),
		ReferenceNote: note,
	}, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quick issue: %w", err)
	}

	uc.afterCommit(ctx, "wallet.issued", rec, wallet.WalletNumber, 0)
	return rec, nil
}

// RetireCredits permanently consumes available credits, drawing down the
// wallet's batches oldest first. The wallet balance moves by the full
// amount even when the open batches cover less (quick-issued credits have
// no batch to draw from).
func (uc *LedgerUsecase) RetireCredits(ctx context.Context, walletID int64, amount decimal.Decimal, note string) (*domain.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, xerrors.ErrInvalidAmount
	}
	if strings.TrimSpace(note) == "" {
		return nil, xerrors.ErrNoteRequired
	}

	tx, err := uc.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDTx(ctx, walletID, tx)
	if err != nil {
		return nil, err
	}
	if wallet.AvailableCredits.LessThan(amount) {
		return nil, xerrors.ErrInsufficientBalance
	}

	batches, err := uc.batchRepo.ListOpenTx(ctx, walletID, tx)
	if err != nil {
		return nil, err
	}
	for _, step := range planDrawdown(batches, amount) {
		if err := uc.batchRepo.ApplyDrawdown(ctx, tx, step.BatchID, step.Consumed, step.NewStatus); err != nil {
			return nil, err
		}
	}

	if err := uc.walletRepo.ApplyBalanceChange(ctx, tx, walletID, amount.Neg(), amount); err != nil {
		return nil, err
	}

	rec, err := uc.txnRepo.Create(ctx, &domain.TransactionCreate{
		WalletID:      walletID,
		Type:          domain.OperationRetire,
		Amount:        amount,
		Reference:     uc.refGen.NewReference(),
		ReferenceNote: note,
	}, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit retire: %w", err)
	}

	uc.afterCommit(ctx, "wallet.retired", rec, wallet.WalletNumber, 0)
	return rec, nil
}

// TransferCredits moves available balance between two wallets. Batch
// provenance stays with the source wallet; only the abstract balance moves.
func (uc *LedgerUsecase) TransferCredits(ctx context.Context, fromWalletID, toWalletID int64, amount decimal.Decimal, note string) (*domain.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, xerrors.ErrInvalidAmount
	}
	if strings.TrimSpace(note) == "" {
		return nil, xerrors.ErrNoteRequired
	}
	if fromWalletID == toWalletID {
		return nil, xerrors.ErrSameWallet
	}

	tx, err := uc.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock both wallets in ascending id order to prevent deadlocks
	// between concurrent opposite-direction transfers.
	lockOrder := []int64{fromWalletID, toWalletID}
	if toWalletID < fromWalletID {
		lockOrder[0], lockOrder[1] = toWalletID, fromWalletID
	}
	locked := make(map[int64]*domain.Wallet, 2)
	for _, id := range lockOrder {
		w, err := uc.walletRepo.GetByIDTx(ctx, id, tx)
		if err != nil {
			return nil, err
		}
		locked[id] = w
	}
	from, to := locked[fromWalletID], locked[toWalletID]

	if from.AvailableCredits.LessThan(amount) {
		return nil, xerrors.ErrInsufficientBalance
	}

	if err := uc.walletRepo.ApplyBalanceChange(ctx, tx, fromWalletID, amount.Neg(), decimal.Zero); err != nil {
		return nil, err
	}
	if err := uc.walletRepo.ApplyBalanceChange(ctx, tx, toWalletID, amount, decimal.Zero); err != nil {
		return nil, err
	}

	// Both audit records share one reference code.
	reference := uc.refGen.NewReference()

	outRec, err := uc.txnRepo.Create(ctx, &domain.TransactionCreate{
		WalletID:      fromWalletID,
		Type:          domain.OperationTransferOut,
		Amount:        amount,
		Reference:     reference,
		ReferenceNote: fmt.Sprintf("%s (Transfer to Wallet #%d)", note, to.WalletNumber),
	}, tx)
	if err != nil {
		return nil, err
	}
	if _, err := uc.txnRepo.Create(ctx, &domain.TransactionCreate{
		WalletID:      toWalletID,
		Type:          domain.OperationTransferIn,
		Amount:        amount,
		Reference:     reference,
		ReferenceNote: fmt.Sprintf("%s (Transfer from Wallet #%d)", note, from.WalletNumber),
	}, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	uc.afterCommit(ctx, "wallet.transferred", outRec, from.WalletNumber, toWalletID)
	return outRec, nil
}

// ===============================
// HISTORY QUERIES
// ===============================

// GetWalletTransactions returns the wallet's audit trail, newest first.
func (uc *LedgerUsecase) GetWalletTransactions(ctx context.Context, walletID int64) ([]*domain.Transaction, error) {
	cacheKey := walletTxnsCacheKey(walletID)
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var txns []*domain.Transaction
			if jsonErr := json.Unmarshal([]byte(val), &txns); jsonErr == nil {
				return txns, nil
			}
		}
	}

	txns, err := uc.txnRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(txns); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, walletHistoryTTL).Err()
		}
	}
	return txns, nil
}

// GetWalletBatches returns the wallet's credit batches, newest first.
func (uc *LedgerUsecase) GetWalletBatches(ctx context.Context, walletID int64) ([]*domain.CreditBatch, error) {
	cacheKey := walletBatchesCacheKey(walletID)
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var batches []*domain.CreditBatch
			if jsonErr := json.Unmarshal([]byte(val), &batches); jsonErr == nil {
				return batches, nil
			}
		}
	}

	batches, err := uc.batchRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet batches: %w", err)
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(batches); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, walletHistoryTTL).Err()
		}
	}
	return batches, nil
}

// ===============================
// POST-COMMIT FANOUT
// ===============================

// afterCommit handles everything that must not influence the outcome of
// the committed operation: cache invalidation, events, logging.
func (uc *LedgerUsecase) afterCommit(ctx context.Context, eventType string, rec *domain.Transaction, walletNumber int, otherWalletID int64) {
	walletIDs := []int64{rec.WalletID}
	if otherWalletID != 0 {
		walletIDs = append(walletIDs, otherWalletID)
	}
	invalidateWalletCaches(ctx, uc.redisClient, walletIDs...)

	uc.publishLedgerEvent(ctx, eventType, rec)

	if err := uc.events.Publish(ctx, &publisher.WalletEvent{
		EventType:    eventType,
		WalletID:     rec.WalletID,
		WalletNumber: walletNumber,
		ToWalletID:   otherWalletID,
		Reference:    rec.Reference,
		Amount:       rec.Amount.String(),
		Note:         rec.ReferenceNote,
	}); err != nil {
		uc.logger.Warn("failed to publish wallet event", zap.Error(err), zap.String("reference", rec.Reference))
	}

	uc.logger.Info("ledger operation committed",
		zap.String("type", string(rec.Type)),
		zap.Int64("wallet_id", rec.WalletID),
		zap.String("amount", rec.Amount.String()),
		zap.String("reference", rec.Reference),
	)
}

// LedgerEvent is the kafka payload emitted after every committed operation.
type LedgerEvent struct {
	EventType string    `json:"event_type"`
	Reference string    `json:"reference"`
	WalletID  int64     `json:"wallet_id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (uc *LedgerUsecase) publishLedgerEvent(ctx context.Context, eventType string, rec *domain.Transaction) {
	if uc.kafkaWriter == nil {
		return
	}

	event := LedgerEvent{
		EventType: eventType,
		Reference: rec.Reference,
		WalletID:  rec.WalletID,
		Type:      string(rec.Type),
		Amount:    rec.Amount.String(),
		Note:      rec.ReferenceNote,
		Timestamp: time.Now(),
	}
	eventBytes, _ := json.Marshal(event)

	err := uc.kafkaWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.Reference),
		Value: eventBytes,
		Time:  time.Now(),
	})
	if err != nil {
		uc.logger.Warn("failed to publish ledger event", zap.Error(err), zap.String("reference", rec.Reference))
	}
}
