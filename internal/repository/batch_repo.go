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

// BatchRepository defines persistence operations for credit batches.
type BatchRepository interface {
	Create(ctx context.Context, b *domain.CreditBatch, tx pgx.Tx) error
	GetByID(ctx context.Context, id int64) (*domain.CreditBatch, error)
	ListByWallet(ctx context.Context, walletID int64) ([]*domain.CreditBatch, error)
	// ListOpenTx fetches all batches with remaining credits in FIFO order
	// (issued_at ascending, id ascending on ties), locked for the enclosing
	// transaction so retirement drawdowns cannot race.
	ListOpenTx(ctx context.Context, walletID int64, tx pgx.Tx) ([]*domain.CreditBatch, error)
	// ApplyDrawdown decrements remaining_amount and stores the recomputed status.
	ApplyDrawdown(ctx context.Context, tx pgx.Tx, batchID int64, consumed decimal.Decimal, status domain.BatchStatus) error
	DeleteByWallet(ctx context.Context, walletID int64, tx pgx.Tx) error
}

type batchRepo struct {
	db *pgxpool.Pool
}

func NewBatchRepo(db *pgxpool.Pool) BatchRepository {
	return &batchRepo{db: db}
}

const batchColumns = `id, project_id, wallet_id, total_amount, remaining_amount, status, issued_at`

// Create inserts a new credit batch inside a transaction.
func (r *batchRepo) Create(ctx context.Context, b *domain.CreditBatch, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO credit_batches (project_id, wallet_id, total_amount, remaining_amount, status, issued_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, issued_at
	`, b.ProjectID, b.WalletID, b.TotalAmount.String(), b.RemainingAmount.String(), b.Status, time.Now(),
	).Scan(&b.ID, &b.IssuedAt)
	if err != nil {
		return fmt.Errorf("failed to create credit batch: %w", err)
	}
	return nil
}

func (r *batchRepo) GetByID(ctx context.Context, id int64) (*domain.CreditBatch, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+batchColumns+`
		FROM credit_batches
		WHERE id = $1
	`, id)
	return scanBatch(row)
}

func (r *batchRepo) ListByWallet(ctx context.Context, walletID int64) ([]*domain.CreditBatch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+batchColumns+`
		FROM credit_batches
		WHERE wallet_id = $1
		ORDER BY issued_at DESC
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

func (r *batchRepo) ListOpenTx(ctx context.Context, walletID int64, tx pgx.Tx) ([]*domain.CreditBatch, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	rows, err := tx.Query(ctx, `
		SELECT `+batchColumns+`
		FROM credit_batches
		WHERE wallet_id = $1 AND remaining_amount > 0
		ORDER BY issued_at ASC, id ASC
		FOR UPDATE
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open batches: %w", err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

func (r *batchRepo) ApplyDrawdown(ctx context.Context, tx pgx.Tx, batchID int64, consumed decimal.Decimal, status domain.BatchStatus) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	cmdTag, err := tx.Exec(ctx, `
		UPDATE credit_batches
		SET remaining_amount = remaining_amount - $1,
		    status = $2
		WHERE id = $3 AND remaining_amount >= $1
	`, consumed.String(), status, batchID)
	if err != nil {
		return fmt.Errorf("failed to draw down batch %d: %w", batchID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("batch %d: %w", batchID, xerrors.ErrNotFound)
	}
	return nil
}

func (r *batchRepo) DeleteByWallet(ctx context.Context, walletID int64, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	_, err := tx.Exec(ctx, `DELETE FROM credit_batches WHERE wallet_id = $1`, walletID)
	if err != nil {
		return fmt.Errorf("failed to delete batches: %w", err)
	}
	return nil
}

func collectBatches(rows pgx.Rows) ([]*domain.CreditBatch, error) {
	var batches []*domain.CreditBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func scanBatch(row pgx.Row) (*domain.CreditBatch, error) {
	var b domain.CreditBatch
	var total, remaining string
	err := row.Scan(&b.ID, &b.ProjectID, &b.WalletID, &total, &remaining, &b.Status, &b.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan batch: %w", err)
	}
	if b.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("bad total_amount for batch %d: %w", b.ID, err)
	}
	if b.RemainingAmount, err = decimal.NewFromString(remaining); err != nil {
		return nil, fmt.Errorf("bad remaining_amount for batch %d: %w", b.ID, err)
	}
	return &b, nil
}
