package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domcart "example.com/storefront/internal/domain/cart"
	cartuc "example.com/storefront/internal/usecase/cart"
)

type addCartItemRequest struct {
	ID       int64           `json:"id" validate:"required,gt=0"`
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := a.cartSvc.View(r.Context(), getSessionID(r.Context()))
	a.respondCart(w, http.StatusOK, view, err)
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	view, err := a.cartSvc.AddItem(r.Context(), getSessionID(r.Context()), domcart.AddInput{
		ProductID: req.ID,
		Name:      req.Name,
		Price:     req.Price,
		ImageURL:  req.ImageURL,
	})
	a.respondCart(w, http.StatusCreated, view, err)
}

func (a *API) handleChangeQuantity(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req changeQuantityRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	view, err := a.cartSvc.ChangeQuantity(r.Context(), getSessionID(r.Context()), index, req.Delta)
	a.respondCart(w, http.StatusOK, view, err)
}

func (a *API) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	view, err := a.cartSvc.RemoveItem(r.Context(), getSessionID(r.Context()), index)
	a.respondCart(w, http.StatusOK, view, err)
}

func (a *API) handleChangeQuantityByProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req changeQuantityRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	view, err := a.cartSvc.ChangeQuantityByProduct(r.Context(), getSessionID(r.Context()), id, req.Delta)
	a.respondCart(w, http.StatusOK, view, err)
}

func (a *API) handleRemoveByProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	view, err := a.cartSvc.RemoveByProduct(r.Context(), getSessionID(r.Context()), id)
	a.respondCart(w, http.StatusOK, view, err)
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := a.cartSvc.Clear(r.Context(), getSessionID(r.Context()))
	a.respondCart(w, http.StatusOK, view, err)
}

func (a *API) respondCart(w http.ResponseWriter, status int, view cartuc.View, err error) {
	if err != nil {
		handleDomainError(w, err)
		return
	}
	w.Header().Set(headerCartCount, strconv.Itoa(view.ItemCount))
	writeJSON(w, status, mapView(view))
}
