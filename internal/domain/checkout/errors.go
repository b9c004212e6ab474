package checkout

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTotal      = errors.New("invalid total amount")
	ErrNotLoggedIn       = errors.New("login required before checkout")
	ErrUnknownAttempt    = errors.New("checkout attempt not found")
	ErrAttemptClosed     = errors.New("checkout attempt already finished")
	ErrWidgetUnavailable = errors.New("payment widget unavailable")
)
