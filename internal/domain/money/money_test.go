package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestMoney_String(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
		unit   currency.Unit
		want   string
	}{
		{name: "rupees whole", amount: decimal.NewFromInt(1300), unit: INR, want: "₹1300.00"},
		{name: "rupees fraction", amount: decimal.RequireFromString("599.5"), unit: INR, want: "₹599.50"},
		{name: "zero", amount: decimal.Zero, unit: INR, want: "₹0.00"},
		{name: "rounds half up", amount: decimal.RequireFromString("10.005"), unit: currency.USD, want: "USD 10.01"},
		{name: "euro uses code", amount: decimal.NewFromInt(20), unit: currency.EUR, want: "EUR 20.00"},
		{name: "pound uses code", amount: decimal.RequireFromString("3.5"), unit: currency.GBP, want: "GBP 3.50"},
		{name: "yen uses code", amount: decimal.NewFromInt(5), unit: currency.JPY, want: "JPY 5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, New(tt.amount, tt.unit).String())
		})
	}
}

func TestMoney_MinorUnits(t *testing.T) {
	require.Equal(t, int64(130000), New(decimal.NewFromInt(1300), INR).MinorUnits())
	require.Equal(t, int64(59950), New(decimal.RequireFromString("599.50"), INR).MinorUnits())
	require.Equal(t, int64(1), New(decimal.RequireFromString("0.019"), INR).MinorUnits())
	require.Equal(t, int64(0), Zero(INR).MinorUnits())
}
