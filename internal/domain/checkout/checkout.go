package checkout

import (
	"time"

	"example.com/storefront/internal/domain/money"
)

type State string

const (
	StateIdle                  State = "IDLE"
	StateAwaitingOrderCreation State = "AWAITING_ORDER_CREATION"
	StateAwaitingUserPayment   State = "AWAITING_USER_PAYMENT"
	StateAwaitingVerification  State = "AWAITING_VERIFICATION"
	StateCompleted             State = "COMPLETED"
	// StatePending means the payment went through but verification could
	// not be reached; the cart is kept until the gateway confirms.
	StatePending State = "PENDING"
	StateFailed  State = "FAILED"
)

// IsTerminal reports whether the attempt has been settled.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StatePending, StateFailed:
		return true
	default:
		return false
	}
}

// Attempt is one run through the checkout flow, keyed by the gateway order id
// once the order exists.
type Attempt struct {
	SessionID      string
	OrderID        int64
	GatewayOrderID string
	Amount         money.Money
	CustomerEmail  string
	State          State
	Message        string
	PaymentID      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

// WidgetConfig is handed to the hosted payment widget.
type WidgetConfig struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	OrderID     string            `json:"order_id"`
	Prefill     Prefill           `json:"prefill"`
	Notes       map[string]string `json:"notes"`
	Theme       Theme             `json:"theme"`
}

// Redirect asks the front end to navigate after a delay.
type Redirect struct {
	Target string
	After  time.Duration
}
