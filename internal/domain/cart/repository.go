package cart

import "context"

// Repository persists one cart per session. Load never fails: a missing or
// unreadable cart comes back empty.
type Repository interface {
	Load(ctx context.Context, sessionID string) Cart
	Save(ctx context.Context, sessionID string, c Cart) error
}
