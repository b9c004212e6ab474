package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/currency"

	"example.com/storefront/internal/domain/money"
	dompayment "example.com/storefront/internal/domain/payment"
	"example.com/storefront/internal/infra/telemetry"
)

const (
	createPath = "/api/payments/create"
	verifyPath = "/api/payments/verify"
	// maxErrorBody caps how much of an error reply is surfaced to the shopper.
	maxErrorBody = 4 << 10
)

// Client talks to the payment service that fronts Razorpay.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tracer:  telemetry.Tracer("storefront/gateway"),
	}
}

type createRequest struct {
	Amount        json.Number `json:"amount"`
	UserID        int64       `json:"userId"`
	OrderID       int64       `json:"orderId"`
	CustomerEmail string      `json:"customerEmail"`
	CustomerName  string      `json:"customerName"`
	Description   string      `json:"description"`
}

type createResponse struct {
	KeyID           string          `json:"keyId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	RazorpayOrderID string          `json:"razorpayOrderId"`
}

type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
	CustomerEmail     string `json:"customerEmail"`
}

func (c *Client) CreateOrder(ctx context.Context, req dompayment.CreateOrderRequest) (_ *dompayment.GatewayOrder, err error) {
	ctx, span := c.tracer.Start(ctx, "gateway.CreateOrder", trace.WithAttributes(
		attribute.Int64("order.id", req.OrderID),
		attribute.String("order.amount", req.Amount.String()),
	))
	defer endSpan(span, &err)

	var resp createResponse
	err = c.post(ctx, createPath, createRequest{
		Amount:        json.Number(req.Amount.String()),
		UserID:        req.UserID,
		OrderID:       req.OrderID,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		Description:   req.Description,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.RazorpayOrderID == "" || resp.KeyID == "" {
		return nil, fmt.Errorf("%w: missing order id or key", dompayment.ErrInvalidResponse)
	}
	unit := money.INR
	if resp.Currency != "" {
		unit, err = currency.ParseISO(resp.Currency)
		if err != nil {
			return nil, fmt.Errorf("%w: currency[%s] is not valid: %w", dompayment.ErrInvalidResponse, resp.Currency, err)
		}
	}
	span.SetAttributes(attribute.String("gateway.order_id", resp.RazorpayOrderID))

	return &dompayment.GatewayOrder{
		KeyID:          resp.KeyID,
		Amount:         resp.Amount,
		Currency:       unit,
		GatewayOrderID: resp.RazorpayOrderID,
	}, nil
}

func (c *Client) VerifyPayment(ctx context.Context, req dompayment.VerifyRequest) (err error) {
	ctx, span := c.tracer.Start(ctx, "gateway.VerifyPayment", trace.WithAttributes(
		attribute.String("gateway.order_id", req.GatewayOrderID),
	))
	defer endSpan(span, &err)

	return c.post(ctx, verifyPath, verifyRequest{
		RazorpayOrderID:   req.GatewayOrderID,
		RazorpayPaymentID: req.GatewayPaymentID,
		RazorpaySignature: req.GatewaySignature,
		CustomerEmail:     req.CustomerEmail,
	}, nil)
}

// post sends body as JSON. A non-2xx reply becomes *dompayment.StatusError
// carrying the reply text; a transport failure wraps dompayment.ErrTransport.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", dompayment.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", dompayment.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &dompayment.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", dompayment.ErrInvalidResponse, err)
	}
	return nil
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
