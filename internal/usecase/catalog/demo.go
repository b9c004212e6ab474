package catalog

import (
	"github.com/shopspring/decimal"

	domproduct "example.com/storefront/internal/domain/product"
)

// DemoProducts is shown when the catalog service cannot be reached.
func DemoProducts() []domproduct.Product {
	return []domproduct.Product{
		{
			ID:          1,
			Name:        "Classic Cotton T-Shirt",
			Price:       decimal.NewFromInt(599),
			Category:    "Clothing",
			ImageURL:    "img/img1.png",
			Description: "Comfortable 100% cotton t-shirt for everyday wear",
		},
		{
			ID:          2,
			Name:        "Wireless Headphones",
			Price:       decimal.NewFromInt(2499),
			Category:    "Electronics",
			ImageURL:    "img/img2.png",
			Description: "High-quality wireless headphones with noise cancellation",
		},
		{
			ID:          3,
			Name:        "Running Sports Shoes",
			Price:       decimal.NewFromInt(2999),
			Category:    "Trending",
			ImageURL:    "img/img3.png",
			Description: "Lightweight running shoes with extra cushioning",
		},
	}
}
