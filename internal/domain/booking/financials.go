package booking

import (
	"errors"

	"github.com/shopspring/decimal"

	"fleetride/internal/domain/shared/money"
)

// DefaultCommissionPercent is the platform's cut of the total amount.
var DefaultCommissionPercent = decimal.NewFromInt(20)

var ErrNegativeFinancials = errors.New("booking: financial amounts must not be negative")

// Financials is the immutable monetary snapshot taken when a booking is
// priced. All fields are exact decimals.
type Financials struct {
	TotalAmount         money.Money
	NetTotal            money.Money
	PlatformServiceFee  money.Money
	VATAmount           money.Money
	FleetOwnerPayoutNet money.Money
	SecurityDetailCost  money.Money
}

// Validate rejects negative amounts anywhere in the snapshot.
func (f Financials) Validate() error {
	for _, m := range []money.Money{
		f.TotalAmount, f.NetTotal, f.PlatformServiceFee,
		f.VATAmount, f.FleetOwnerPayoutNet, f.SecurityDetailCost,
	} {
		if m.Amount.IsNegative() {
			return ErrNegativeFinancials
		}
	}
	return nil
}

// FleetOwnerPayoutNet derives the owner's share of a total after platform
// commission: total * (1 - percent/100), exact decimal arithmetic.
func FleetOwnerPayoutNet(total money.Money, commissionPercent decimal.Decimal) money.Money {
	keep := decimal.NewFromInt(100).Sub(commissionPercent)
	return total.Percent(keep)
}

// DefaultFleetOwnerPayoutNet applies the standard commission.
func DefaultFleetOwnerPayoutNet(total money.Money) money.Money {
	return FleetOwnerPayoutNet(total, DefaultCommissionPercent)
}
