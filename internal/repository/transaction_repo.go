package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greenwallet-service/internal/domain"
	"greenwallet-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionRepository appends and reads wallet audit records.
// There is deliberately no update method: transactions are append-only.
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.TransactionCreate, tx pgx.Tx) (*domain.Transaction, error)
	GetByReference(ctx context.Context, reference string) ([]*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID int64) ([]*domain.Transaction, error)
	DeleteByWallet(ctx context.Context, walletID int64, tx pgx.Tx) error
}

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepo(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

const transactionColumns = `id, wallet_id, batch_id, type, amount, reference, reference_note, created_at`

// Create appends one audit record inside a transaction.
func (r *transactionRepo) Create(ctx context.Context, t *domain.TransactionCreate, tx pgx.Tx) (*domain.Transaction, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}

	rec := &domain.Transaction{
		WalletID:      t.WalletID,
		BatchID:       t.BatchID,
		Type:          t.Type,
		Amount:        t.Amount,
		Reference:     t.Reference,
		ReferenceNote: t.ReferenceNote,
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO wallet_transactions (wallet_id, batch_id, type, amount, reference, reference_note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, t.WalletID, t.BatchID, t.Type, t.Amount.String(), t.Reference, t.ReferenceNote, time.Now(),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	return rec, nil
}

// GetByReference fetches the audit records sharing one reference code
// (a transfer writes two rows under the same reference).
func (r *transactionRepo) GetByReference(ctx context.Context, reference string) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE reference = $1
		ORDER BY id ASC
	`, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions by reference: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return txns, nil
}

func (r *transactionRepo) ListByWallet(ctx context.Context, walletID int64) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// DeleteByWallet cascades the audit trail when a zero-balance wallet is removed.
func (r *transactionRepo) DeleteByWallet(ctx context.Context, walletID int64, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	_, err := tx.Exec(ctx, `DELETE FROM wallet_transactions WHERE wallet_id = $1`, walletID)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var amount string
		if err := rows.Scan(&t.ID, &t.WalletID, &t.BatchID, &t.Type, &amount, &t.Reference, &t.ReferenceNote, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		var err error
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount for transaction %d: %w", t.ID, err)
		}
		txns = append(txns, &t)
	}
	return txns, rows.Err()
}
