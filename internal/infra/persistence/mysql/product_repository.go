package mysql

import (
	"context"
	"database/sql"
	"fmt"

	domproduct "example.com/storefront/internal/domain/product"
)

const productSchema = `
CREATE TABLE IF NOT EXISTS products (
    id          BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
    name        VARCHAR(255)  NOT NULL,
    description TEXT          NULL,
    price       DECIMAL(12,2) NOT NULL,
    category    VARCHAR(128)  NULL,
    image_url   VARCHAR(512)  NULL,
    is_active   BOOLEAN       NOT NULL DEFAULT TRUE
)`

// ProductRepository serves the catalog straight from a products table. It
// satisfies domproduct.Source.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, productSchema)
	return err
}

func (r *ProductRepository) Create(ctx context.Context, p *domproduct.Product) (*domproduct.Product, error) {
	if p.Name == "" {
		return nil, domproduct.ErrInvalidProduct
	}
	if p.Price.IsNegative() {
		return nil, domproduct.ErrInvalidPrice
	}
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO products (name, description, price, category, image_url)
        VALUES (?, ?, ?, ?, ?)
    `, p.Name, nullString(p.Description), p.Price, nullString(p.Category), nullString(p.ImageURL))
	if err != nil {
		return nil, err
	}
	p.ID, _ = res.LastInsertId()
	return p, nil
}

// List returns active products in id order.
func (r *ProductRepository) List(ctx context.Context) ([]domproduct.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, description, price, category, image_url
        FROM products
        WHERE is_active = TRUE
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domproduct.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	products := make([]domproduct.Product, 0)
	for rows.Next() {
		var (
			p                               domproduct.Product
			description, category, imageURL sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.Price, &category, &imageURL); err != nil {
			return nil, err
		}
		p.Description = description.String
		p.Category = category.String
		p.ImageURL = imageURL.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domproduct.ErrCatalogUnavailable, err)
	}
	return products, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
