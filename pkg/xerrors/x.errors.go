package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ParsePGErrorCode extracts the SQLSTATE code from a postgres error.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
)

// Wallet / ledger
var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientBalance   = errors.New("insufficient available credits")
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrNonZeroBalance        = errors.New("wallet has outstanding credits")
	ErrDuplicateWalletNumber = errors.New("wallet number already in use")
	ErrNoteRequired          = errors.New("reference note required")
	ErrSameWallet            = errors.New("source and destination wallets must differ")
)
