package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/currency"

	domcart "example.com/storefront/internal/domain/cart"
	domcheckout "example.com/storefront/internal/domain/checkout"
	"example.com/storefront/internal/domain/money"
	dompayment "example.com/storefront/internal/domain/payment"
	domsession "example.com/storefront/internal/domain/session"
	"example.com/storefront/internal/infra/telemetry"
	cartuc "example.com/storefront/internal/usecase/cart"
)

// Messages shown to the shopper.
const (
	MsgEmptyCart          = "Your cart is empty!"
	MsgInvalidTotal       = "Invalid total amount!"
	MsgLoginRequired      = "Please login first before checkout!"
	MsgInitFailedPrefix   = "Payment initialization failed: "
	MsgPaymentFailed      = "Payment failed: "
	MsgPaymentSuccessful  = "Payment successful! A confirmation email has been sent."
	MsgVerificationFailed = "Payment verification failed: "
	MsgVerificationDelay  = "Payment received, verification may be delayed."
)

type CartService interface {
	Get(ctx context.Context, sessionID string) (domcart.Cart, error)
	Clear(ctx context.Context, sessionID string) (cartuc.View, error)
	Currency() currency.Unit
}

type IdentityReader interface {
	Identity(ctx context.Context, sessionID string) (domsession.Identity, error)
}

// SuccessHandler and FailureHandler are the callbacks a PaymentUI invokes
// once the shopper finishes with the widget.
type (
	SuccessHandler func(ctx context.Context, r dompayment.Result) (Outcome, error)
	FailureHandler func(ctx context.Context, f dompayment.Failure) (Outcome, error)
)

// PaymentUI opens the hosted payment widget. Implementations may call the
// handlers before Open returns.
type PaymentUI interface {
	Open(ctx context.Context, sessionID string, cfg domcheckout.WidgetConfig, onSuccess SuccessHandler, onFailure FailureHandler) error
}

// Presenter shows alerts and performs navigation for a session.
type Presenter interface {
	Alert(ctx context.Context, sessionID, message string)
	Redirect(ctx context.Context, sessionID string, r domcheckout.Redirect)
}

type Recorder interface {
	CheckoutOutcome(state string)
}

type noopPresenter struct{}

func (noopPresenter) Alert(context.Context, string, string)                  {}
func (noopPresenter) Redirect(context.Context, string, domcheckout.Redirect) {}

type noopRecorder struct{}

func (noopRecorder) CheckoutOutcome(string) {}

// Options carries the widget presentation and order defaults.
type Options struct {
	StoreName         string
	WidgetDescription string
	OrderDescription  string
	Contact           string
	NotesAddress      string
	ThemeColor        string
	DefaultUserID     int64
	DefaultCustomer   string
	LoginPath         string
	HomePath          string
	HomeDelay         time.Duration
	// AttemptTTL bounds how long an unfinished attempt waits for the widget.
	AttemptTTL time.Duration
	// Retention is how long a finished attempt stays readable.
	Retention time.Duration
}

func DefaultOptions() Options {
	return Options{
		StoreName:         "Shoplane",
		WidgetDescription: "Order Payment",
		OrderDescription:  "Payment for shopping order",
		Contact:           "9999999999",
		NotesAddress:      "Shoplane Office",
		ThemeColor:        "#ff6600",
		DefaultUserID:     1,
		DefaultCustomer:   "Customer",
		LoginPath:         "login.html",
		HomePath:          "index.html",
		HomeDelay:         2 * time.Second,
		AttemptTTL:        30 * time.Minute,
		Retention:         10 * time.Minute,
	}
}

type Dependencies struct {
	Cart      CartService
	Identity  IdentityReader
	Gateway   dompayment.Gateway
	PaymentUI PaymentUI
	Presenter Presenter
	Recorder  Recorder
	Logger    *slog.Logger
	Now       func() time.Time
}

// Outcome is the result of one step of the checkout flow.
type Outcome struct {
	State    domcheckout.State
	Alert    string
	Redirect *domcheckout.Redirect
	Widget   *domcheckout.WidgetConfig
	Attempt  *domcheckout.Attempt
}

// Service drives the checkout state machine. Attempts are tracked by the
// gateway order id.
type Service struct {
	deps   Dependencies
	opts   Options
	tracer trace.Tracer

	mu       sync.Mutex
	attempts map[string]*domcheckout.Attempt
}

func NewService(deps Dependencies, opts Options) *Service {
	if deps.Presenter == nil {
		deps.Presenter = noopPresenter{}
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	defaults := DefaultOptions()
	if opts.AttemptTTL <= 0 {
		opts.AttemptTTL = defaults.AttemptTTL
	}
	if opts.Retention <= 0 {
		opts.Retention = defaults.Retention
	}
	return &Service{
		deps:     deps,
		opts:     opts,
		tracer:   telemetry.Tracer("storefront/checkout"),
		attempts: make(map[string]*domcheckout.Attempt),
	}
}

// Start validates the cart and identity, creates the gateway order and
// opens the payment widget. Precondition failures return an error together
// with an Idle outcome carrying the alert; no gateway call is made.
func (s *Service) Start(ctx context.Context, sessionID string) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Start")
	defer span.End()

	if sessionID == "" {
		return Outcome{State: domcheckout.StateIdle}, domsession.ErrMissingSession
	}

	c, err := s.deps.Cart.Get(ctx, sessionID)
	if err != nil {
		return Outcome{State: domcheckout.StateIdle}, err
	}
	if c.IsEmpty() {
		return s.abort(ctx, sessionID, MsgEmptyCart, nil, domcheckout.ErrEmptyCart)
	}
	total := c.Total()
	if !total.IsPositive() {
		return s.abort(ctx, sessionID, MsgInvalidTotal, nil, domcheckout.ErrInvalidTotal)
	}

	who, err := s.deps.Identity.Identity(ctx, sessionID)
	if err != nil {
		return Outcome{State: domcheckout.StateIdle}, err
	}
	if !who.LoggedIn() {
		return s.abort(ctx, sessionID, MsgLoginRequired,
			&domcheckout.Redirect{Target: s.opts.LoginPath}, domcheckout.ErrNotLoggedIn)
	}

	now := s.deps.Now()
	attempt := &domcheckout.Attempt{
		SessionID:     sessionID,
		OrderID:       now.UnixMilli(),
		Amount:        money.New(total, s.deps.Cart.Currency()),
		CustomerEmail: who.Email,
		State:         domcheckout.StateAwaitingOrderCreation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	span.SetAttributes(attribute.Int64("order.id", attempt.OrderID))
	customer := who.DisplayName(s.opts.DefaultCustomer)

	order, err := s.deps.Gateway.CreateOrder(ctx, dompayment.CreateOrderRequest{
		Amount:        total,
		UserID:        who.NumericUserID(s.opts.DefaultUserID),
		OrderID:       attempt.OrderID,
		CustomerEmail: who.Email,
		CustomerName:  customer,
		Description:   s.opts.OrderDescription,
	})
	if err != nil {
		span.RecordError(err)
		s.deps.Logger.ErrorContext(ctx, "create payment order failed", "session_id", sessionID, "order_id", attempt.OrderID, "error", err)
		return s.finish(ctx, attempt, domcheckout.StateFailed, MsgInitFailedPrefix+err.Error(), nil), nil
	}

	attempt.GatewayOrderID = order.GatewayOrderID
	attempt.Amount = money.New(order.Amount, order.Currency)
	cfg := domcheckout.WidgetConfig{
		Key:         order.KeyID,
		Amount:      attempt.Amount.MinorUnits(),
		Currency:    order.Currency.String(),
		Name:        s.opts.StoreName,
		Description: s.opts.WidgetDescription,
		OrderID:     order.GatewayOrderID,
		Prefill: domcheckout.Prefill{
			Name:    customer,
			Email:   who.Email,
			Contact: s.opts.Contact,
		},
		Notes: map[string]string{"address": s.opts.NotesAddress},
		Theme: domcheckout.Theme{Color: s.opts.ThemeColor},
	}

	s.mu.Lock()
	s.sweep(now)
	s.transition(attempt, domcheckout.StateAwaitingUserPayment, "")
	s.attempts[attempt.GatewayOrderID] = attempt
	s.mu.Unlock()
	s.deps.Logger.InfoContext(ctx, "payment order created",
		"session_id", sessionID, "order_id", attempt.OrderID, "gateway_order_id", attempt.GatewayOrderID)

	gatewayOrderID := attempt.GatewayOrderID
	onSuccess := func(ctx context.Context, r dompayment.Result) (Outcome, error) {
		return s.Complete(ctx, gatewayOrderID, r)
	}
	onFailure := func(ctx context.Context, f dompayment.Failure) (Outcome, error) {
		return s.Fail(ctx, gatewayOrderID, f)
	}
	if err := s.deps.PaymentUI.Open(ctx, sessionID, cfg, onSuccess, onFailure); err != nil {
		span.RecordError(err)
		s.deps.Logger.ErrorContext(ctx, "open payment widget failed", "gateway_order_id", gatewayOrderID, "error", err)
		s.mu.Lock()
		closed := attempt.State != domcheckout.StateAwaitingUserPayment
		s.mu.Unlock()
		if !closed {
			return s.finish(ctx, attempt, domcheckout.StateFailed, MsgInitFailedPrefix+err.Error(), nil), nil
		}
	}

	s.mu.Lock()
	out := Outcome{State: attempt.State, Alert: attempt.Message, Widget: &cfg, Attempt: snapshot(attempt)}
	s.mu.Unlock()
	return out, nil
}

// Complete handles the widget's success callback: it verifies the payment
// and settles the attempt.
func (s *Service) Complete(ctx context.Context, gatewayOrderID string, r dompayment.Result) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Complete", trace.WithAttributes(
		attribute.String("gateway.order_id", gatewayOrderID),
	))
	defer span.End()

	if r.GatewayOrderID == "" {
		r.GatewayOrderID = gatewayOrderID
	}
	if r.GatewayOrderID != gatewayOrderID {
		return Outcome{}, fmt.Errorf("%w: order id %q does not match %q", dompayment.ErrIncompleteResult, r.GatewayOrderID, gatewayOrderID)
	}
	if err := r.Validate(); err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	attempt, err := s.openAttempt(gatewayOrderID)
	if err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	attempt.PaymentID = r.GatewayPaymentID
	s.transition(attempt, domcheckout.StateAwaitingVerification, "")
	s.mu.Unlock()

	err = s.deps.Gateway.VerifyPayment(ctx, dompayment.VerifyRequest{
		Result:        r,
		CustomerEmail: attempt.CustomerEmail,
	})

	var statusErr *dompayment.StatusError
	switch {
	case err == nil:
		if _, clearErr := s.deps.Cart.Clear(ctx, attempt.SessionID); clearErr != nil {
			s.deps.Logger.ErrorContext(ctx, "clear cart after payment failed", "session_id", attempt.SessionID, "error", clearErr)
		}
		return s.finish(ctx, attempt, domcheckout.StateCompleted, MsgPaymentSuccessful,
			&domcheckout.Redirect{Target: s.opts.HomePath, After: s.opts.HomeDelay}), nil
	case errors.As(err, &statusErr):
		span.RecordError(err)
		return s.finish(ctx, attempt, domcheckout.StateFailed, MsgVerificationFailed+statusErr.Error(), nil), nil
	default:
		span.RecordError(err)
		s.deps.Logger.WarnContext(ctx, "payment verification unreachable", "gateway_order_id", gatewayOrderID, "error", err)
		return s.finish(ctx, attempt, domcheckout.StatePending, MsgVerificationDelay, nil), nil
	}
}

// Fail handles the widget's failure callback.
func (s *Service) Fail(ctx context.Context, gatewayOrderID string, f dompayment.Failure) (Outcome, error) {
	s.mu.Lock()
	attempt, err := s.openAttempt(gatewayOrderID)
	s.mu.Unlock()
	if err != nil {
		return Outcome{}, err
	}
	return s.finish(ctx, attempt, domcheckout.StateFailed, MsgPaymentFailed+f.Description, nil), nil
}

// Attempt returns a copy of the attempt for gatewayOrderID if it belongs to
// sessionID.
func (s *Service) Attempt(ctx context.Context, sessionID, gatewayOrderID string) (domcheckout.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[gatewayOrderID]
	if !ok || a.SessionID != sessionID {
		return domcheckout.Attempt{}, domcheckout.ErrUnknownAttempt
	}
	return *a, nil
}

func (s *Service) abort(ctx context.Context, sessionID, msg string, redirect *domcheckout.Redirect, err error) (Outcome, error) {
	s.deps.Presenter.Alert(ctx, sessionID, msg)
	if redirect != nil {
		s.deps.Presenter.Redirect(ctx, sessionID, *redirect)
	}
	s.deps.Logger.InfoContext(ctx, "checkout rejected", "session_id", sessionID, "reason", err)
	return Outcome{State: domcheckout.StateIdle, Alert: msg, Redirect: redirect}, err
}

// finish moves attempt to a terminal state and tells the shopper.
func (s *Service) finish(ctx context.Context, attempt *domcheckout.Attempt, state domcheckout.State, msg string, redirect *domcheckout.Redirect) Outcome {
	s.mu.Lock()
	s.transition(attempt, state, msg)
	out := Outcome{State: state, Alert: msg, Redirect: redirect, Attempt: snapshot(attempt)}
	s.mu.Unlock()

	s.deps.Recorder.CheckoutOutcome(string(state))
	s.deps.Presenter.Alert(ctx, attempt.SessionID, msg)
	if redirect != nil {
		s.deps.Presenter.Redirect(ctx, attempt.SessionID, *redirect)
	}
	s.deps.Logger.InfoContext(ctx, "checkout finished",
		"session_id", attempt.SessionID, "order_id", attempt.OrderID,
		"gateway_order_id", attempt.GatewayOrderID, "state", state)
	return out
}

// sweep drops finished attempts past the retention window and open attempts
// the shopper abandoned. It must be called with s.mu held.
func (s *Service) sweep(now time.Time) {
	for id, a := range s.attempts {
		age := now.Sub(a.UpdatedAt)
		if (a.State.IsTerminal() && age >= s.opts.Retention) || (!a.State.IsTerminal() && age >= s.opts.AttemptTTL) {
			delete(s.attempts, id)
		}
	}
}

// openAttempt must be called with s.mu held.
func (s *Service) openAttempt(gatewayOrderID string) (*domcheckout.Attempt, error) {
	a, ok := s.attempts[gatewayOrderID]
	if !ok {
		return nil, domcheckout.ErrUnknownAttempt
	}
	if a.State != domcheckout.StateAwaitingUserPayment {
		return nil, domcheckout.ErrAttemptClosed
	}
	return a, nil
}

func (s *Service) transition(a *domcheckout.Attempt, state domcheckout.State, msg string) {
	a.State = state
	a.Message = msg
	a.UpdatedAt = s.deps.Now()
}

func snapshot(a *domcheckout.Attempt) *domcheckout.Attempt {
	cp := *a
	return &cp
}
