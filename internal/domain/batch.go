package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is a pure function of remaining vs total amount.
type BatchStatus string

const (
	BatchStatusAvailable        BatchStatus = "AVAILABLE"
	BatchStatusPartiallyRetired BatchStatus = "PARTIALLY_RETIRED"
	BatchStatusFullyRetired     BatchStatus = "FULLY_RETIRED"
)

// BatchStatusFor derives the status from the remaining/total relation.
func BatchStatusFor(remaining, total decimal.Decimal) BatchStatus {
	switch {
	case remaining.Sign() <= 0:
		return BatchStatusFullyRetired
	case remaining.LessThan(total):
		return BatchStatusPartiallyRetired
	default:
		return BatchStatusAvailable
	}
}

// CreditBatch is a provenance-tracked lot of credits issued from one
// project into one wallet. Immutable except for remaining_amount and
// the status derived from it; never deleted outside a wallet cascade.
type CreditBatch struct {
	ID              int64           `json:"id"`
	ProjectID       int64           `json:"project_id"`
	WalletID        int64           `json:"wallet_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          BatchStatus     `json:"status"`
	IssuedAt        time.Time       `json:"issued_at"`
}
