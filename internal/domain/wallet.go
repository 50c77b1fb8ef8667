package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"greenwallet-service/pkg/xerrors"
)

// OwnerType identifies the kind of entity a wallet belongs to.
type OwnerType string

const (
	OwnerTypeEnterprise OwnerType = "ENTERPRISE"
	OwnerTypeBank       OwnerType = "BANK"
	OwnerTypeNGO        OwnerType = "NGO"
	OwnerTypeGovernment OwnerType = "GOVERNMENT"
)

// IsValid reports whether the owner type is one of the enumerated values.
func (t OwnerType) IsValid() bool {
	switch t {
	case OwnerTypeEnterprise, OwnerTypeBank, OwnerTypeNGO, OwnerTypeGovernment:
		return true
	}
	return false
}

// Wallet holds carbon credit balances for one owner entity.
// Instances returned by the repository are snapshots; mutations only
// happen through ledger operations.
type Wallet struct {
	ID               int64           `json:"id"`
	WalletNumber     int             `json:"wallet_number"`
	Name             string          `json:"name"`
	OwnerType        OwnerType       `json:"owner_type"`
	OwnerID          int64           `json:"owner_id"`
	AvailableCredits decimal.Decimal `json:"available_credits"`
	RetiredCredits   decimal.Decimal `json:"retired_credits"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TotalCredits is the lifetime sum of credits ever issued to the wallet.
func (w *Wallet) TotalCredits() decimal.Decimal {
	return w.AvailableCredits.Add(w.RetiredCredits)
}

// WalletCreate represents data needed to create a new wallet.
type WalletCreate struct {
	WalletNumber   *int            `json:"wallet_number,omitempty"`
	Name           string          `json:"name"`
	OwnerType      OwnerType       `json:"owner_type"`
	OwnerID        int64           `json:"owner_id"`
	InitialCredits decimal.Decimal `json:"initial_credits"`
}

// Validate checks the create request before any write happens.
func (c *WalletCreate) Validate() error {
	if !c.OwnerType.IsValid() {
		return xerrors.ErrValidation
	}
	if c.OwnerID <= 0 {
		return xerrors.ErrValidation
	}
	return nil
}

// WalletUpdate renames or retypes a wallet. Balances are never touched here.
type WalletUpdate struct {
	Name      string    `json:"name"`
	OwnerType OwnerType `json:"owner_type"`
}

func (u *WalletUpdate) Validate() error {
	if !u.OwnerType.IsValid() {
		return xerrors.ErrValidation
	}
	if u.Name == "" {
		return xerrors.ErrValidation
	}
	return nil
}
