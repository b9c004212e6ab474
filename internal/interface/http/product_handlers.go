package http

import (
	"net/http"

	cataloguc "example.com/storefront/internal/usecase/catalog"
)

func (a *API) handleStorefront(w http.ResponseWriter, r *http.Request) {
	sf := a.catalogSvc.LoadProducts(r.Context())

	buckets := make([]map[string]any, 0, len(sf.Buckets))
	for _, b := range sf.Buckets {
		buckets = append(buckets, mapBucket(b))
	}

	resp := map[string]any{
		"buckets": buckets,
		"demo":    sf.Demo,
	}
	if sf.Error != "" {
		resp["error"] = sf.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

func mapBucket(b cataloguc.Bucket) map[string]any {
	cards := make([]map[string]any, 0, len(b.Cards))
	for _, c := range b.Cards {
		cards = append(cards, map[string]any{
			"id":          c.ProductID,
			"name":        c.Name,
			"description": c.Description,
			"category":    c.Category,
			"image_url":   c.ImageURL,
			"price":       c.Price,
			"price_label": c.PriceLabel,
		})
	}

	resp := map[string]any{
		"name":  b.Name,
		"title": b.Title,
		"icon":  b.Icon,
		"cards": cards,
		"empty": b.Empty,
		"retry": b.Retry,
	}
	if b.Empty {
		resp["empty_message"] = b.EmptyMessage
	}
	if b.Notice != "" {
		resp["notice"] = b.Notice
	}
	return resp
}
