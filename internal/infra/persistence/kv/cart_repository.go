package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	domcart "example.com/storefront/internal/domain/cart"
	domsession "example.com/storefront/internal/domain/session"
)

// BadgeFunc is told the cart's unit count after every save.
type BadgeFunc func(ctx context.Context, sessionID string, count int)

// CartRepository stores the cart as a JSON array under the shoplane_cart
// session key, in the same shape the storefront page keeps in localStorage.
type CartRepository struct {
	storage domsession.Storage
	logger  *slog.Logger
	badges  []BadgeFunc
}

func NewCartRepository(storage domsession.Storage, logger *slog.Logger, badges ...BadgeFunc) *CartRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartRepository{storage: storage, logger: logger, badges: badges}
}

type lineItemJSON struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	ImageURL string      `json:"imageUrl"`
	Quantity int         `json:"quantity"`
}

func (r *CartRepository) Load(ctx context.Context, sessionID string) domcart.Cart {
	raw, ok, err := r.storage.Get(ctx, sessionID, domsession.KeyCart)
	if err != nil {
		r.logger.WarnContext(ctx, "cart load failed, starting empty", "session_id", sessionID, "error", err)
		return domcart.Cart{}
	}
	if !ok || raw == "" {
		return domcart.Cart{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		r.logger.WarnContext(ctx, "stored cart is malformed, starting empty", "session_id", sessionID, "error", err)
		return domcart.Cart{}
	}

	rows, dropped := decodeRows(entries)
	c, rejected := mapRowsToDomain(rows)
	dropped += rejected
	if dropped > 0 {
		r.logger.WarnContext(ctx, "dropped malformed cart lines", "session_id", sessionID, "dropped", dropped)
	}
	return c
}

func (r *CartRepository) Save(ctx context.Context, sessionID string, c domcart.Cart) error {
	rows := make([]lineItemJSON, 0, len(c.Items))
	for _, item := range c.Items {
		rows = append(rows, lineItemJSON{
			ID:       item.ProductID,
			Name:     item.Name,
			Price:    json.Number(item.Price.String()),
			ImageURL: item.ImageURL,
			Quantity: item.Quantity,
		})
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	if err := r.storage.Set(ctx, sessionID, domsession.KeyCart, string(raw)); err != nil {
		return fmt.Errorf("storage.Set: %w", err)
	}

	count := c.ItemCount()
	for _, badge := range r.badges {
		badge(ctx, sessionID, count)
	}
	return nil
}

// decodeRows decodes each stored line on its own so that one badly typed
// entry costs only that line.
func decodeRows(entries []json.RawMessage) ([]lineItemJSON, int) {
	rows := make([]lineItemJSON, 0, len(entries))
	dropped := 0
	for _, entry := range entries {
		var row lineItemJSON
		if err := json.Unmarshal(entry, &row); err != nil {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped
}

// mapRowsToDomain keeps valid lines, merges repeated product ids and reports
// how many rows were rejected.
func mapRowsToDomain(rows []lineItemJSON) (domcart.Cart, int) {
	var (
		c       domcart.Cart
		dropped int
	)
	for _, row := range rows {
		item, ok := mapRowToDomain(row)
		if !ok {
			dropped++
			continue
		}
		if i := c.IndexOf(item.ProductID); i >= 0 {
			if item.Quantity > math.MaxInt-c.Items[i].Quantity {
				dropped++
				continue
			}
			c.Items[i].Quantity += item.Quantity
			continue
		}
		c.Items = append(c.Items, item)
	}
	return c, dropped
}

func mapRowToDomain(row lineItemJSON) (domcart.LineItem, bool) {
	if row.ID <= 0 || row.Quantity < 1 || row.Price == "" {
		return domcart.LineItem{}, false
	}
	price, err := decimal.NewFromString(row.Price.String())
	if err != nil || price.IsNegative() {
		return domcart.LineItem{}, false
	}
	imageURL := row.ImageURL
	if imageURL == "" {
		imageURL = domcart.DefaultImageURL
	}
	return domcart.LineItem{
		ProductID: row.ID,
		Name:      row.Name,
		Price:     price,
		ImageURL:  imageURL,
		Quantity:  row.Quantity,
	}, true
}
