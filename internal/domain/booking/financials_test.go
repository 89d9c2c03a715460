package booking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fleetride/internal/domain/shared/money"
)

func TestFleetOwnerPayoutNet(t *testing.T) {
	total := money.Must("1000", "NGN")

	// Standard 20% commission leaves 800.
	assert.Equal(t, "800", DefaultFleetOwnerPayoutNet(total).Amount.String())

	// A negotiated 15% rate leaves 850.
	assert.Equal(t, "850", FleetOwnerPayoutNet(total, decimal.NewFromInt(15)).Amount.String())

	// Fractional totals stay exact.
	owed := FleetOwnerPayoutNet(money.Must("999.99", "NGN"), DefaultCommissionPercent)
	assert.Equal(t, "799.992", owed.Amount.String())
	assert.Equal(t, "799.99", owed.Display().String())
}

func TestFinancialsValidate(t *testing.T) {
	f := testFinancials()
	assert.NoError(t, f.Validate())

	f.VATAmount = money.Money{Amount: decimal.NewFromInt(-1), Currency: "NGN"}
	assert.ErrorIs(t, f.Validate(), ErrNegativeFinancials)
}
