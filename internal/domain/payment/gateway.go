package payment

import "context"

type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error)
	VerifyPayment(ctx context.Context, req VerifyRequest) error
}
