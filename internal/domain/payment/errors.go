package payment

import (
	"errors"
	"fmt"
)

var (
	ErrTransport        = errors.New("payment gateway unreachable")
	ErrIncompleteResult = errors.New("payment result is incomplete")
	ErrInvalidResponse  = errors.New("payment gateway returned an invalid response")
)

// StatusError carries a non-2xx gateway reply; Body is the raw response text.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("payment gateway responded %d", e.StatusCode)
	}
	return e.Body
}
