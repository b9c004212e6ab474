package catalogclient

import (
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

	domproduct "example.com/storefront/internal/domain/product"
	"example.com/storefront/internal/infra/telemetry"
)

const productsPath = "/api/products"

// Client reads products from the catalog service.
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
		tracer:  telemetry.Tracer("storefront/catalogclient"),
	}
}

type productJSON struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description"`
}

// List returns the catalog. Every failure, whether transport, status or
// decoding, wraps domproduct.ErrCatalogUnavailable.
func (c *Client) List(ctx context.Context) (_ []domproduct.Product, err error) {
	ctx, span := c.tracer.Start(ctx, "catalog.List")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+productsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domproduct.ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domproduct.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: HTTP error! status: %d", domproduct.ErrCatalogUnavailable, resp.StatusCode)
	}

	var rows []productJSON
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: decode products: %w", domproduct.ErrCatalogUnavailable, err)
	}

	products := mapProductsToDomain(rows)
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	return products, nil
}

// mapProductsToDomain drops entries that fail validation.
func mapProductsToDomain(rows []productJSON) []domproduct.Product {
	products := make([]domproduct.Product, 0, len(rows))
	for _, row := range rows {
		p := domproduct.Product{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Price:       row.Price,
			Category:    row.Category,
			ImageURL:    row.ImageURL,
		}
		if err := p.Validate(); err != nil {
			continue
		}
		products = append(products, p)
	}
	return products
}
