package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"greenwallet-service/pkg/xerrors"
)

func TestOwnerTypeIsValid(t *testing.T) {
	for _, ot := range []OwnerType{OwnerTypeEnterprise, OwnerTypeBank, OwnerTypeNGO, OwnerTypeGovernment} {
		assert.True(t, ot.IsValid(), string(ot))
	}
	assert.False(t, OwnerType("CHARITY").IsValid())
	assert.False(t, OwnerType("enterprise").IsValid())
	assert.False(t, OwnerType("").IsValid())
}

func TestWalletCreateValidate(t *testing.T) {
	valid := WalletCreate{Name: "Acme", OwnerType: OwnerTypeEnterprise, OwnerID: 1}
	assert.NoError(t, valid.Validate())

	badType := valid
	badType.OwnerType = "PERSON"
	assert.ErrorIs(t, badType.Validate(), xerrors.ErrValidation)

	badOwner := valid
	badOwner.OwnerID = 0
	assert.ErrorIs(t, badOwner.Validate(), xerrors.ErrValidation)
}

func TestWalletUpdateValidate(t *testing.T) {
	valid := WalletUpdate{Name: "Renamed", OwnerType: OwnerTypeBank}
	assert.NoError(t, valid.Validate())

	noName := WalletUpdate{Name: "", OwnerType: OwnerTypeBank}
	assert.ErrorIs(t, noName.Validate(), xerrors.ErrValidation)

	badType := WalletUpdate{Name: "Renamed", OwnerType: "UNKNOWN"}
	assert.ErrorIs(t, badType.Validate(), xerrors.ErrValidation)
}

func TestWalletTotalCredits(t *testing.T) {
	w := Wallet{
		AvailableCredits: decimal.RequireFromString("40.5"),
		RetiredCredits:   decimal.RequireFromString("59.5"),
	}
	assert.True(t, w.TotalCredits().Equal(decimal.NewFromInt(100)))

	empty := Wallet{AvailableCredits: decimal.Zero, RetiredCredits: decimal.Zero}
	assert.True(t, empty.TotalCredits().IsZero())
}
