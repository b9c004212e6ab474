package product

import "context"

// Source lists the products offered by the remote catalog service.
type Source interface {
	List(ctx context.Context) ([]Product, error)
}
