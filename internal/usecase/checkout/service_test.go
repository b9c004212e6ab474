package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	domcart "example.com/storefront/internal/domain/cart"
	domcheckout "example.com/storefront/internal/domain/checkout"
	"example.com/storefront/internal/domain/money"
	dompayment "example.com/storefront/internal/domain/payment"
	domsession "example.com/storefront/internal/domain/session"
	cartuc "example.com/storefront/internal/usecase/cart"
)

const testSession = "sess-1"

type mockCartService struct {
	cart     domcart.Cart
	unit     currency.Unit
	getErr   error
	clearErr error
	cleared  int
}

func (m *mockCartService) Currency() currency.Unit {
	if m.unit == (currency.Unit{}) {
		return money.INR
	}
	return m.unit
}

func (m *mockCartService) Get(ctx context.Context, sessionID string) (domcart.Cart, error) {
	if m.getErr != nil {
		return domcart.Cart{}, m.getErr
	}
	return m.cart, nil
}

func (m *mockCartService) Clear(ctx context.Context, sessionID string) (cartuc.View, error) {
	if m.clearErr != nil {
		return cartuc.View{}, m.clearErr
	}
	m.cleared++
	m.cart = domcart.Cart{}
	return cartuc.Render(m.cart, m.Currency()), nil
}

type mockIdentity struct {
	identity domsession.Identity
}

func (m *mockIdentity) Identity(ctx context.Context, sessionID string) (domsession.Identity, error) {
	return m.identity, nil
}

type mockGateway struct {
	order     *dompayment.GatewayOrder
	createErr error
	verifyErr error

	createCalls []dompayment.CreateOrderRequest
	verifyCalls []dompayment.VerifyRequest
}

func (m *mockGateway) CreateOrder(ctx context.Context, req dompayment.CreateOrderRequest) (*dompayment.GatewayOrder, error) {
	m.createCalls = append(m.createCalls, req)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.order, nil
}

func (m *mockGateway) VerifyPayment(ctx context.Context, req dompayment.VerifyRequest) error {
	m.verifyCalls = append(m.verifyCalls, req)
	return m.verifyErr
}

type mockPaymentUI struct {
	openErr   error
	cfg       domcheckout.WidgetConfig
	onSuccess SuccessHandler
	onFailure FailureHandler
}

func (m *mockPaymentUI) Open(ctx context.Context, sessionID string, cfg domcheckout.WidgetConfig, onSuccess SuccessHandler, onFailure FailureHandler) error {
	m.cfg = cfg
	m.onSuccess = onSuccess
	m.onFailure = onFailure
	return m.openErr
}

type mockPresenter struct {
	mu        sync.Mutex
	alerts    []string
	redirects []domcheckout.Redirect
}

func (m *mockPresenter) Alert(ctx context.Context, sessionID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, message)
}

func (m *mockPresenter) Redirect(ctx context.Context, sessionID string, r domcheckout.Redirect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redirects = append(m.redirects, r)
}

type mockRecorder struct {
	outcomes []string
}

func (m *mockRecorder) CheckoutOutcome(state string) {
	m.outcomes = append(m.outcomes, state)
}

type fixture struct {
	cart      *mockCartService
	identity  *mockIdentity
	gateway   *mockGateway
	ui        *mockPaymentUI
	presenter *mockPresenter
	recorder  *mockRecorder
	svc       *Service
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		cart: &mockCartService{cart: domcart.Cart{Items: []domcart.LineItem{
			{ProductID: 1, Name: "Tee", Price: decimal.NewFromInt(500), Quantity: 2},
			{ProductID: 2, Name: "Cap", Price: decimal.NewFromInt(300), Quantity: 1},
		}}},
		identity: &mockIdentity{identity: domsession.Identity{Email: "asha@example.com", UserID: "42", Name: "Asha"}},
		gateway: &mockGateway{order: &dompayment.GatewayOrder{
			KeyID:          "rzp_test_key",
			Amount:         decimal.NewFromInt(1300),
			Currency:       money.INR,
			GatewayOrderID: "order_abc",
		}},
		ui:        &mockPaymentUI{},
		presenter: &mockPresenter{},
		recorder:  &mockRecorder{},
	}
	f.svc = NewService(Dependencies{
		Cart:      f.cart,
		Identity:  f.identity,
		Gateway:   f.gateway,
		PaymentUI: f.ui,
		Presenter: f.presenter,
		Recorder:  f.recorder,
		Now:       func() time.Time { return fixedNow },
	}, DefaultOptions())
	return f
}

func TestStart_PreconditionsSkipGateway(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture)
		wantErr  error
		wantMsg  string
		redirect bool
	}{
		{
			name:    "empty cart",
			setup:   func(f *fixture) { f.cart.cart = domcart.Cart{} },
			wantErr: domcheckout.ErrEmptyCart,
			wantMsg: MsgEmptyCart,
		},
		{
			name: "zero total",
			setup: func(f *fixture) {
				f.cart.cart = domcart.Cart{Items: []domcart.LineItem{{ProductID: 9, Name: "Free", Price: decimal.Zero, Quantity: 3}}}
			},
			wantErr: domcheckout.ErrInvalidTotal,
			wantMsg: MsgInvalidTotal,
		},
		{
			name:     "not logged in",
			setup:    func(f *fixture) { f.identity.identity = domsession.Identity{UserID: "42"} },
			wantErr:  domcheckout.ErrNotLoggedIn,
			wantMsg:  MsgLoginRequired,
			redirect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			out, err := f.svc.Start(context.Background(), testSession)

			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, domcheckout.StateIdle, out.State)
			require.Equal(t, tt.wantMsg, out.Alert)
			require.Empty(t, f.gateway.createCalls)
			require.Equal(t, []string{tt.wantMsg}, f.presenter.alerts)
			if tt.redirect {
				require.Equal(t, []domcheckout.Redirect{{Target: "login.html"}}, f.presenter.redirects)
			} else {
				require.Empty(t, f.presenter.redirects)
			}
		})
	}
}

func TestStart_MissingSession(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Start(context.Background(), "")
	require.ErrorIs(t, err, domsession.ErrMissingSession)
}

func TestStart_OpensWidget(t *testing.T) {
	f := newFixture()

	out, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)
	require.Equal(t, domcheckout.StateAwaitingUserPayment, out.State)

	require.Len(t, f.gateway.createCalls, 1)
	req := f.gateway.createCalls[0]
	require.True(t, req.Amount.Equal(decimal.NewFromInt(1300)))
	require.Equal(t, int64(42), req.UserID)
	require.Equal(t, fixedNow.UnixMilli(), req.OrderID)
	require.Equal(t, "asha@example.com", req.CustomerEmail)
	require.Equal(t, "Asha", req.CustomerName)
	require.Equal(t, "Payment for shopping order", req.Description)

	want := domcheckout.WidgetConfig{
		Key:         "rzp_test_key",
		Amount:      130000,
		Currency:    "INR",
		Name:        "Shoplane",
		Description: "Order Payment",
		OrderID:     "order_abc",
		Prefill:     domcheckout.Prefill{Name: "Asha", Email: "asha@example.com", Contact: "9999999999"},
		Notes:       map[string]string{"address": "Shoplane Office"},
		Theme:       domcheckout.Theme{Color: "#ff6600"},
	}
	require.Equal(t, want, f.ui.cfg)
	require.Equal(t, &want, out.Widget)

	attempt, err := f.svc.Attempt(context.Background(), testSession, "order_abc")
	require.NoError(t, err)
	require.Equal(t, domcheckout.StateAwaitingUserPayment, attempt.State)
}

func TestStart_IdentityDefaults(t *testing.T) {
	f := newFixture()
	f.identity.identity = domsession.Identity{Email: "anon@example.com"}

	_, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)
	require.Equal(t, int64(1), f.gateway.createCalls[0].UserID)
	require.Equal(t, "Customer", f.gateway.createCalls[0].CustomerName)
	require.Equal(t, "Customer", f.ui.cfg.Prefill.Name)
}

func TestStart_CreateOrderFails(t *testing.T) {
	f := newFixture()
	f.gateway.createErr = &dompayment.StatusError{StatusCode: 500, Body: "Authentication failed"}

	out, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)
	require.Equal(t, domcheckout.StateFailed, out.State)
	require.Equal(t, "Payment initialization failed: Authentication failed", out.Alert)
	require.Nil(t, f.ui.onSuccess)
	require.Equal(t, []string{"FAILED"}, f.recorder.outcomes)
	require.Zero(t, f.cart.cleared)
}

func TestStart_AttemptUsesCartCurrency(t *testing.T) {
	f := newFixture()
	f.cart.unit = currency.USD
	f.gateway.createErr = &dompayment.StatusError{StatusCode: 502, Body: "bad gateway"}

	out, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)
	require.Equal(t, currency.USD, out.Attempt.Amount.Currency)
	require.True(t, decimal.NewFromInt(1300).Equal(out.Attempt.Amount.Amount))
}

func TestStart_WidgetFails(t *testing.T) {
	f := newFixture()
	f.ui.openErr = domcheckout.ErrWidgetUnavailable

	out, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)
	require.Equal(t, domcheckout.StateFailed, out.State)
	require.Equal(t, "Payment initialization failed: "+domcheckout.ErrWidgetUnavailable.Error(), out.Alert)
}

func TestComplete_Verified(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)

	out, err := f.ui.onSuccess(context.Background(), dompayment.Result{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_1",
		GatewaySignature: "sig",
	})
	require.NoError(t, err)
	require.Equal(t, domcheckout.StateCompleted, out.State)
	require.Equal(t, MsgPaymentSuccessful, out.Alert)
	require.Equal(t, &domcheckout.Redirect{Target: "index.html", After: 2 * time.Second}, out.Redirect)
	require.Equal(t, 1, f.cart.cleared)
	require.Equal(t, "asha@example.com", f.gateway.verifyCalls[0].CustomerEmail)
	require.Equal(t, "pay_1", out.Attempt.PaymentID)
	require.Equal(t, []string{"COMPLETED"}, f.recorder.outcomes)
}

func TestComplete_VerificationRejected(t *testing.T) {
	f := newFixture()
	f.gateway.verifyErr = &dompayment.StatusError{StatusCode: 400, Body: "signature mismatch"}
	_, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)

	out, err := f.ui.onSuccess(context.Background(), dompayment.Result{GatewayPaymentID: "pay_1", GatewaySignature: "bad"})
	require.NoError(t, err)
	require.Equal(t, domcheckout.StateFailed, out.State)
	require.Equal(t, "Payment verification failed: signature mismatch", out.Alert)
	require.Zero(t, f.cart.cleared)
	require.Nil(t, out.Redirect)
}

func TestComplete_VerificationUnreachable(t *testing.T) {
	f := newFixture()
	f.gateway.verifyErr = errors.Join(dompayment.ErrTransport, errors.New("connection refused"))
	_, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)

	out, err := f.ui.onSuccess(context.Background(), dompayment.Result{GatewayPaymentID: "pay_1", GatewaySignature: "sig"})
	require.NoError(t, err)
	require.Equal(t, domcheckout.StatePending, out.State)
	require.Equal(t, MsgVerificationDelay, out.Alert)
	require.Zero(t, f.cart.cleared)
}

func TestComplete_Rejections(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), "order_missing", dompayment.Result{GatewayPaymentID: "p", GatewaySignature: "s"})
	require.ErrorIs(t, err, domcheckout.ErrUnknownAttempt)

	_, err = f.svc.Complete(context.Background(), "order_abc", dompayment.Result{GatewayPaymentID: "p"})
	require.ErrorIs(t, err, dompayment.ErrIncompleteResult)

	_, err = f.svc.Complete(context.Background(), "order_abc", dompayment.Result{GatewayOrderID: "order_other", GatewayPaymentID: "p", GatewaySignature: "s"})
	require.ErrorIs(t, err, dompayment.ErrIncompleteResult)

	_, err = f.svc.Complete(context.Background(), "order_abc", dompayment.Result{GatewayPaymentID: "p", GatewaySignature: "s"})
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), "order_abc", dompayment.Result{GatewayPaymentID: "p", GatewaySignature: "s"})
	require.ErrorIs(t, err, domcheckout.ErrAttemptClosed)
	require.Len(t, f.gateway.verifyCalls, 1)
}

func TestFail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)

	out, err := f.ui.onFailure(context.Background(), dompayment.Failure{GatewayOrderID: "order_abc", Description: "Card declined"})
	require.NoError(t, err)
	require.Equal(t, domcheckout.StateFailed, out.State)
	require.Equal(t, "Payment failed: Card declined", out.Alert)
	require.Empty(t, f.gateway.verifyCalls)

	_, err = f.ui.onSuccess(context.Background(), dompayment.Result{GatewayPaymentID: "p", GatewaySignature: "s"})
	require.ErrorIs(t, err, domcheckout.ErrAttemptClosed)
}

func TestAttempt_ScopedToSession(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)

	_, err = f.svc.Attempt(context.Background(), "someone-else", "order_abc")
	require.ErrorIs(t, err, domcheckout.ErrUnknownAttempt)
}

func TestStart_WidgetCompletesSynchronously(t *testing.T) {
	f := newFixture()
	f.svc.deps.PaymentUI = paymentUIFunc(func(ctx context.Context, sessionID string, cfg domcheckout.WidgetConfig, onSuccess SuccessHandler, onFailure FailureHandler) error {
		_, err := onSuccess(ctx, dompayment.Result{GatewayPaymentID: "pay_9", GatewaySignature: "sig"})
		return err
	})

	out, err := f.svc.Start(context.Background(), testSession)
	require.NoError(t, err)
	require.Equal(t, domcheckout.StateCompleted, out.State)
	require.Equal(t, MsgPaymentSuccessful, out.Alert)
}

type paymentUIFunc func(ctx context.Context, sessionID string, cfg domcheckout.WidgetConfig, onSuccess SuccessHandler, onFailure FailureHandler) error

func (fn paymentUIFunc) Open(ctx context.Context, sessionID string, cfg domcheckout.WidgetConfig, onSuccess SuccessHandler, onFailure FailureHandler) error {
	return fn(ctx, sessionID, cfg, onSuccess, onFailure)
}

func TestStart_SweepsFinishedAndAbandonedAttempts(t *testing.T) {
	f := newFixture()
	now := fixedNow
	f.svc.deps.Now = func() time.Time { return now }
	ctx := context.Background()

	for i := range 50 {
		f.gateway.order.GatewayOrderID = fmt.Sprintf("order_%d", i)
		_, err := f.svc.Start(ctx, testSession)
		require.NoError(t, err)
		if i%2 == 0 {
			_, err = f.svc.Fail(ctx, f.gateway.order.GatewayOrderID, dompayment.Failure{Description: "Card declined"})
			require.NoError(t, err)
		}
	}
	require.Len(t, f.svc.attempts, 50)

	// Finished attempts go after the retention window.
	now = now.Add(f.svc.opts.Retention)
	f.gateway.order.GatewayOrderID = "order_next"
	_, err := f.svc.Start(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, f.svc.attempts, 26)
	_, err = f.svc.Attempt(ctx, testSession, "order_0")
	require.ErrorIs(t, err, domcheckout.ErrUnknownAttempt)
	_, err = f.svc.Attempt(ctx, testSession, "order_1")
	require.NoError(t, err)

	// Unfinished attempts go once the shopper has abandoned the widget.
	now = now.Add(f.svc.opts.AttemptTTL)
	f.gateway.order.GatewayOrderID = "order_last"
	_, err = f.svc.Start(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, f.svc.attempts, 1)
	_, err = f.svc.Attempt(ctx, testSession, "order_last")
	require.NoError(t, err)
}

func TestNewService_ZeroLifetimesUseDefaults(t *testing.T) {
	svc := NewService(Dependencies{}, Options{})
	require.Equal(t, DefaultOptions().AttemptTTL, svc.opts.AttemptTTL)
	require.Equal(t, DefaultOptions().Retention, svc.opts.Retention)
}
