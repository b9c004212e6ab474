// Package widget adapts the hosted payment widget to the checkout service.
// Bridge serves browser clients through the HTTP API; Terminal drives the
// flow from a CLI.
package widget

import (
	"context"
	"errors"
	"sync"
	"time"

	domcheckout "example.com/storefront/internal/domain/checkout"
	dompayment "example.com/storefront/internal/domain/payment"
	checkoutuc "example.com/storefront/internal/usecase/checkout"
)

// DefaultTTL is how long an opened widget waits for the browser.
const DefaultTTL = 30 * time.Minute

type pending struct {
	sessionID string
	cfg       domcheckout.WidgetConfig
	onSuccess checkoutuc.SuccessHandler
	onFailure checkoutuc.FailureHandler
	openedAt  time.Time
}

// Bridge holds opened widgets until the browser reports back. A widget is
// settled by the first callback its handler accepts and is forgotten after
// the TTL if the shopper walks away.
type Bridge struct {
	mu   sync.Mutex
	open map[string]pending
	ttl  time.Duration
	now  func() time.Time
}

func NewBridge(ttl time.Duration) *Bridge {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Bridge{open: make(map[string]pending), ttl: ttl, now: time.Now}
}

func (b *Bridge) Open(ctx context.Context, sessionID string, cfg domcheckout.WidgetConfig, onSuccess checkoutuc.SuccessHandler, onFailure checkoutuc.FailureHandler) error {
	if cfg.OrderID == "" || cfg.Key == "" {
		return domcheckout.ErrWidgetUnavailable
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.sweep(now)
	b.open[cfg.OrderID] = pending{
		sessionID: sessionID,
		cfg:       cfg,
		onSuccess: onSuccess,
		onFailure: onFailure,
		openedAt:  now,
	}
	return nil
}

// Config returns the widget options for a still-open order.
func (b *Bridge) Config(sessionID, orderID string) (domcheckout.WidgetConfig, error) {
	p, err := b.lookup(sessionID, orderID)
	if err != nil {
		return domcheckout.WidgetConfig{}, err
	}
	return p.cfg, nil
}

func (b *Bridge) Succeed(ctx context.Context, sessionID, orderID string, r dompayment.Result) (checkoutuc.Outcome, error) {
	p, err := b.lookup(sessionID, orderID)
	if err != nil {
		return checkoutuc.Outcome{}, err
	}
	out, err := p.onSuccess(ctx, r)
	b.settle(orderID, err)
	return out, err
}

func (b *Bridge) Fail(ctx context.Context, sessionID, orderID string, f dompayment.Failure) (checkoutuc.Outcome, error) {
	p, err := b.lookup(sessionID, orderID)
	if err != nil {
		return checkoutuc.Outcome{}, err
	}
	if f.GatewayOrderID == "" {
		f.GatewayOrderID = orderID
	}
	out, err := p.onFailure(ctx, f)
	b.settle(orderID, err)
	return out, err
}

func (b *Bridge) lookup(sessionID, orderID string) (pending, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.open[orderID]
	if !ok || p.sessionID != sessionID {
		return pending{}, domcheckout.ErrUnknownAttempt
	}
	if b.now().Sub(p.openedAt) >= b.ttl {
		delete(b.open, orderID)
		return pending{}, domcheckout.ErrUnknownAttempt
	}
	return p, nil
}

// settle drops the widget unless the handler rejected the callback payload,
// in which case the browser may report again.
func (b *Bridge) settle(orderID string, err error) {
	if errors.Is(err, dompayment.ErrIncompleteResult) {
		return
	}
	b.mu.Lock()
	delete(b.open, orderID)
	b.mu.Unlock()
}

// sweep must be called with b.mu held.
func (b *Bridge) sweep(now time.Time) {
	for id, p := range b.open {
		if now.Sub(p.openedAt) >= b.ttl {
			delete(b.open, id)
		}
	}
}
