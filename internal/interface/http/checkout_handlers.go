package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domcheckout "example.com/storefront/internal/domain/checkout"
	dompayment "example.com/storefront/internal/domain/payment"
)

var errOrderMismatch = errors.New("razorpay_order_id does not match the checkout")

type paymentSuccessRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

type paymentFailureRequest struct {
	Description string `json:"description" validate:"required"`
}

func (a *API) handleStartCheckout(w http.ResponseWriter, r *http.Request) {
	out, err := a.checkoutSvc.Start(r.Context(), getSessionID(r.Context()))
	switch {
	case errors.Is(err, domcheckout.ErrEmptyCart),
		errors.Is(err, domcheckout.ErrInvalidTotal):
		writeJSON(w, http.StatusUnprocessableEntity, mapOutcome(out))
		return
	case errors.Is(err, domcheckout.ErrNotLoggedIn):
		writeJSON(w, http.StatusUnauthorized, mapOutcome(out))
		return
	case err != nil:
		handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if out.State == domcheckout.StateAwaitingUserPayment {
		status = http.StatusCreated
	}
	writeJSON(w, status, mapOutcome(out))
}

func (a *API) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	sid := getSessionID(r.Context())
	orderID := chi.URLParam(r, "orderID")

	attempt, err := a.checkoutSvc.Attempt(r.Context(), sid, orderID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := map[string]any{"attempt": mapAttempt(&attempt)}
	if cfg, err := a.widget.Config(sid, orderID); err == nil {
		resp["widget"] = cfg
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	var req paymentSuccessRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.RazorpayOrderID != orderID {
		respondError(w, http.StatusBadRequest, errOrderMismatch)
		return
	}

	out, err := a.widget.Succeed(r.Context(), getSessionID(r.Context()), orderID, dompayment.Result{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		GatewaySignature: req.RazorpaySignature,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOutcome(out))
}

func (a *API) handlePaymentFailure(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	var req paymentFailureRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	out, err := a.widget.Fail(r.Context(), getSessionID(r.Context()), orderID, dompayment.Failure{
		GatewayOrderID: orderID,
		Description:    req.Description,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOutcome(out))
}
