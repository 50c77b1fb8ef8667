package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType represents the type of ledger operation recorded on a wallet.
type OperationType string

const (
	OperationIssue       OperationType = "ISSUE"
	OperationRetire      OperationType = "RETIRE"
	OperationTransferOut OperationType = "TRANSFER_OUT"
	OperationTransferIn  OperationType = "TRANSFER_IN"
)

// Transaction is one append-only audit record. Every balance-changing
// operation writes its transaction rows in the same database transaction
// as the balance mutation; rows are never updated or deleted afterwards
// (the wallet-delete cascade is the only exception).
type Transaction struct {
	ID            int64           `json:"id"`
	WalletID      int64           `json:"wallet_id"`
	BatchID       *int64          `json:"batch_id,omitempty"`
	Type          OperationType   `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
	ReferenceNote string          `json:"reference_note"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransactionCreate represents data needed to append one audit record.
type TransactionCreate struct {
	WalletID      int64
	BatchID       *int64
	Type          OperationType
	Amount        decimal.Decimal
	Reference     string
	ReferenceNote string
}
