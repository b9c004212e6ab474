package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// INR is the storefront's default currency.
var INR = currency.MustParseISO("INR")

const rupeeSign = "₹"

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func New(amount decimal.Decimal, unit currency.Unit) Money {
	return Money{Amount: amount, Currency: unit}
}

func Zero(unit currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: unit}
}

// String formats the amount with exactly two decimals behind the currency symbol.
func (m Money) String() string {
	return Symbol(m.Currency) + m.Amount.StringFixed(2)
}

// MinorUnits converts to the smallest currency unit (paise, cents).
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(2).Truncate(0).IntPart()
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// Symbol is the rupee sign for INR and the ISO code plus a space for any
// other currency.
func Symbol(unit currency.Unit) string {
	if unit == INR {
		return rupeeSign
	}
	return unit.String() + " "
}
