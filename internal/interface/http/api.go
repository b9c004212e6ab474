package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	domcart "example.com/storefront/internal/domain/cart"
	domcheckout "example.com/storefront/internal/domain/checkout"
	dompayment "example.com/storefront/internal/domain/payment"
	domsession "example.com/storefront/internal/domain/session"
	"example.com/storefront/internal/infra/widget"
	authuc "example.com/storefront/internal/usecase/auth"
	cartuc "example.com/storefront/internal/usecase/cart"
	cataloguc "example.com/storefront/internal/usecase/catalog"
	checkoutuc "example.com/storefront/internal/usecase/checkout"
)

const headerCartCount = "X-Cart-Count"

type API struct {
	authSvc      *authuc.Service
	cartSvc      *cartuc.Service
	catalogSvc   *cataloguc.Service
	checkoutSvc  *checkoutuc.Service
	widget       *widget.Bridge
	metrics      http.Handler
	validator    *validator.Validate
	secureCookie bool
}

type Dependencies struct {
	AuthService     *authuc.Service
	CartService     *cartuc.Service
	CatalogService  *cataloguc.Service
	CheckoutService *checkoutuc.Service
	Widget          *widget.Bridge
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

func NewAPI(deps Dependencies) *API {
	validate := validator.New()
	return &API{
		authSvc:      deps.AuthService,
		cartSvc:      deps.CartService,
		catalogSvc:   deps.CatalogService,
		checkoutSvc:  deps.CheckoutService,
		widget:       deps.Widget,
		metrics:      deps.Metrics,
		validator:    validate,
		secureCookie: deps.SecureCookie,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/storefront", a.handleStorefront)

		r.Group(func(sr chi.Router) {
			sr.Use(a.sessionMiddleware)

			sr.Get("/session", a.handleGetSession)
			sr.Post("/session", a.handleLogin)
			sr.Delete("/session", a.handleLogout)

			sr.Route("/cart", func(cr chi.Router) {
				cr.Get("/", a.handleGetCart)
				cr.Delete("/", a.handleClearCart)
				cr.Post("/items", a.handleAddCartItem)
				cr.Patch("/items/{index}", a.handleChangeQuantity)
				cr.Delete("/items/{index}", a.handleRemoveItem)
				cr.Patch("/products/{productID}", a.handleChangeQuantityByProduct)
				cr.Delete("/products/{productID}", a.handleRemoveByProduct)
			})

			sr.Route("/checkout", func(kr chi.Router) {
				kr.Post("/", a.handleStartCheckout)
				kr.Get("/{orderID}", a.handleGetCheckout)
				kr.Post("/{orderID}/success", a.handlePaymentSuccess)
				kr.Post("/{orderID}/failure", a.handlePaymentFailure)
			})
		})
	})

	return r
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	return strconv.ParseInt(idStr, 10, 64)
}

func mapView(v cartuc.View) map[string]any {
	lines := make([]map[string]any, 0, v.Len())
	for l := range v.Lines() {
		lines = append(lines, map[string]any{
			"index":      l.Index,
			"product_id": l.ProductID,
			"image_url":  l.ImageURL,
			"name":       l.Name,
			"unit_price": l.UnitPrice,
			"quantity":   l.Quantity,
			"subtotal":   l.Subtotal,
			"controls":   l.Controls,
		})
	}

	resp := map[string]any{
		"lines":            lines,
		"total":            v.Total,
		"item_count":       v.ItemCount,
		"empty":            v.Empty,
		"checkout_enabled": v.CheckoutEnabled,
	}
	if v.Empty {
		resp["placeholder"] = v.Placeholder
	}
	return resp
}

func mapIdentity(id domsession.Identity) map[string]any {
	return map[string]any{
		"email":     id.Email,
		"user_id":   id.UserID,
		"name":      id.Name,
		"logged_in": id.LoggedIn(),
	}
}

func mapAttempt(at *domcheckout.Attempt) map[string]any {
	return map[string]any{
		"order_id":         at.OrderID,
		"gateway_order_id": at.GatewayOrderID,
		"amount":           at.Amount.String(),
		"state":            at.State,
		"message":          at.Message,
		"payment_id":       at.PaymentID,
		"created_at":       at.CreatedAt,
		"updated_at":       at.UpdatedAt,
	}
}

func mapOutcome(out checkoutuc.Outcome) map[string]any {
	resp := map[string]any{
		"state": out.State,
		"alert": out.Alert,
	}
	if out.Redirect != nil {
		resp["redirect"] = map[string]any{
			"target":   out.Redirect.Target,
			"after_ms": out.Redirect.After.Milliseconds(),
		}
	}
	if out.Widget != nil {
		resp["widget"] = out.Widget
	}
	if out.Attempt != nil {
		resp["attempt"] = mapAttempt(out.Attempt)
	}
	return resp
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcart.ErrInvalidProduct),
		errors.Is(err, domcart.ErrNegativePrice),
		errors.Is(err, domcart.ErrQuantityOutOfRange),
		errors.Is(err, dompayment.ErrIncompleteResult):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domcart.ErrLineNotFound),
		errors.Is(err, domcheckout.ErrUnknownAttempt):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, domsession.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domsession.ErrMissingSession):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, domcheckout.ErrAttemptClosed):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, domcheckout.ErrWidgetUnavailable):
		respondError(w, http.StatusBadGateway, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
