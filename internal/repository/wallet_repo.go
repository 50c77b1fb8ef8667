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

// WalletRepository defines persistence operations for wallets.
// Write methods that participate in a multi-statement operation take a
// pgx.Tx; the ledger usecase owns begin/commit/rollback.
type WalletRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	Create(ctx context.Context, w *domain.Wallet) error
	GetByID(ctx context.Context, id int64) (*domain.Wallet, error)
	// GetByIDTx fetches the wallet row with a pessimistic lock (FOR UPDATE).
	GetByIDTx(ctx context.Context, id int64, tx pgx.Tx) (*domain.Wallet, error)
	GetByNumber(ctx context.Context, walletNumber int) (*domain.Wallet, error)
	GetAll(ctx context.Context) ([]*domain.Wallet, error)
	NumberExists(ctx context.Context, walletNumber int) (bool, error)

	Update(ctx context.Context, id int64, u *domain.WalletUpdate) error
	// ApplyBalanceChange adjusts available/retired credits by the given deltas.
	ApplyBalanceChange(ctx context.Context, tx pgx.Tx, walletID int64, availableDelta, retiredDelta decimal.Decimal) error
	Delete(ctx context.Context, walletID int64, tx pgx.Tx) error
}

type walletRepo struct {
	db *pgxpool.Pool
}

func NewWalletRepo(db *pgxpool.Pool) WalletRepository {
	return &walletRepo{db: db}
}

func (r *walletRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const walletColumns = `id, wallet_number, name, owner_type, owner_id, available_credits, retired_credits, created_at`

func (r *walletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO wallets (wallet_number, name, owner_type, owner_id, available_credits, retired_credits, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, w.WalletNumber, w.Name, w.OwnerType, w.OwnerID,
		w.AvailableCredits.String(), w.RetiredCredits.String(), time.Now(),
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == "23505" {
			return xerrors.ErrDuplicateWalletNumber
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1
	`, id)
	return scanWallet(row)
}

func (r *walletRepo) GetByIDTx(ctx context.Context, id int64, tx pgx.Tx) (*domain.Wallet, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	row := tx.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanWallet(row)
}

func (r *walletRepo) GetByNumber(ctx context.Context, walletNumber int) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE wallet_number = $1
	`, walletNumber)
	return scanWallet(row)
}

func (r *walletRepo) GetAll(ctx context.Context) ([]*domain.Wallet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func (r *walletRepo) NumberExists(ctx context.Context, walletNumber int) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM wallets WHERE wallet_number = $1
	`, walletNumber).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check wallet number: %w", err)
	}
	return count > 0, nil
}

func (r *walletRepo) Update(ctx context.Context, id int64, u *domain.WalletUpdate) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE wallets SET name = $1, owner_type = $2 WHERE id = $3
	`, u.Name, u.OwnerType, id)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrWalletNotFound
	}
	return nil
}

func (r *walletRepo) ApplyBalanceChange(ctx context.Context, tx pgx.Tx, walletID int64, availableDelta, retiredDelta decimal.Decimal) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	cmdTag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET available_credits = available_credits + $1,
		    retired_credits   = retired_credits + $2
		WHERE id = $3
	`, availableDelta.String(), retiredDelta.String(), walletID)
	if err != nil {
		return fmt.Errorf("failed to apply balance change: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrWalletNotFound
	}
	return nil
}

func (r *walletRepo) Delete(ctx context.Context, walletID int64, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	cmdTag, err := tx.Exec(ctx, `DELETE FROM wallets WHERE id = $1`, walletID)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrWalletNotFound
	}
	return nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	var available, retired string
	err := row.Scan(
		&w.ID, &w.WalletNumber, &w.Name, &w.OwnerType, &w.OwnerID,
		&available, &retired, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	if w.AvailableCredits, err = decimal.NewFromString(available); err != nil {
		return nil, fmt.Errorf("bad available_credits for wallet %d: %w", w.ID, err)
	}
	if w.RetiredCredits, err = decimal.NewFromString(retired); err != nil {
		return nil, fmt.Errorf("bad retired_credits for wallet %d: %w", w.ID, err)
	}
	return &w, nil
}
