package payment

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// CreateOrderRequest asks the gateway for an order the widget can charge.
type CreateOrderRequest struct {
	Amount        decimal.Decimal
	UserID        int64
	OrderID       int64
	CustomerEmail string
	CustomerName  string
	Description   string
}

// GatewayOrder is the gateway-side order returned by create.
type GatewayOrder struct {
	KeyID          string
	Amount         decimal.Decimal
	Currency       currency.Unit
	GatewayOrderID string
}

// Result is what the widget reports after a successful payment.
type Result struct {
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}

func (r Result) Validate() error {
	if r.GatewayOrderID == "" || r.GatewayPaymentID == "" || r.GatewaySignature == "" {
		return ErrIncompleteResult
	}
	return nil
}

// Failure is what the widget reports when the payment did not go through.
type Failure struct {
	GatewayOrderID string
	Description    string
}

type VerifyRequest struct {
	Result
	CustomerEmail string
}
