package cart

import "errors"

var (
	ErrLineNotFound   = errors.New("cart line not found")
	ErrInvalidProduct = errors.New("invalid product id")
	ErrNegativePrice  = errors.New("price must not be negative")

	ErrQuantityOutOfRange = errors.New("quantity out of range")
)
