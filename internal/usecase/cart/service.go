package cart

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/text/currency"

	domcart "example.com/storefront/internal/domain/cart"
	domsession "example.com/storefront/internal/domain/session"
)

type CartRepository interface {
	domcart.Repository
}

// Recorder observes cart mutations; the metrics package implements it.
type Recorder interface {
	CartMutation(op string)
}

type noopRecorder struct{}

func (noopRecorder) CartMutation(string) {}

// Service owns the cart of every session. Each mutation loads the stored
// cart, applies the change, saves it and returns the re-rendered view.
type Service struct {
	repo     CartRepository
	unit     currency.Unit
	logger   *slog.Logger
	recorder Recorder

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serialises one session's mutations; refs counts the callers
// holding or waiting on it so idle sessions leave nothing behind.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(repo CartRepository, unit currency.Unit, logger *slog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		repo:     repo,
		unit:     unit,
		logger:   logger,
		recorder: recorder,
		locks:    make(map[string]*sessionLock),
	}
}

func (s *Service) Currency() currency.Unit {
	return s.unit
}

func (s *Service) Get(ctx context.Context, sessionID string) (domcart.Cart, error) {
	if sessionID == "" {
		return domcart.Cart{}, domsession.ErrMissingSession
	}
	return s.repo.Load(ctx, sessionID), nil
}

func (s *Service) View(ctx context.Context, sessionID string) (View, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return Render(c, s.unit), nil
}

func (s *Service) AddItem(ctx context.Context, sessionID string, in domcart.AddInput) (View, error) {
	return s.mutate(ctx, sessionID, "add", func(c *domcart.Cart) error {
		return c.Add(in)
	})
}

func (s *Service) ChangeQuantity(ctx context.Context, sessionID string, index, delta int) (View, error) {
	return s.mutate(ctx, sessionID, "change_quantity", func(c *domcart.Cart) error {
		return c.ChangeQuantity(index, delta)
	})
}

func (s *Service) ChangeQuantityByProduct(ctx context.Context, sessionID string, productID int64, delta int) (View, error) {
	return s.mutate(ctx, sessionID, "change_quantity", func(c *domcart.Cart) error {
		return c.ChangeQuantityByProduct(productID, delta)
	})
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, index int) (View, error) {
	return s.mutate(ctx, sessionID, "remove", func(c *domcart.Cart) error {
		return c.Remove(index)
	})
}

func (s *Service) RemoveByProduct(ctx context.Context, sessionID string, productID int64) (View, error) {
	return s.mutate(ctx, sessionID, "remove", func(c *domcart.Cart) error {
		return c.RemoveByProduct(productID)
	})
}

func (s *Service) Clear(ctx context.Context, sessionID string) (View, error) {
	return s.mutate(ctx, sessionID, "clear", func(c *domcart.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, sessionID, op string, fn func(c *domcart.Cart) error) (View, error) {
	if sessionID == "" {
		return View{}, domsession.ErrMissingSession
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	c := s.repo.Load(ctx, sessionID)
	if err := fn(&c); err != nil {
		return View{}, err
	}
	if err := s.repo.Save(ctx, sessionID, c); err != nil {
		return View{}, err
	}

	s.recorder.CartMutation(op)
	s.logger.DebugContext(ctx, "cart updated", "session_id", sessionID, "op", op, "lines", len(c.Items))
	return Render(c, s.unit), nil
}

func (s *Service) lockSession(sessionID string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
