package product

import "errors"

var (
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidPrice       = errors.New("invalid product price")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
