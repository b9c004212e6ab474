package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
}

// HasCategory reports whether the category contains any of the given
// keywords, ignoring case. Products without a category match nothing.
func (p Product) HasCategory(keywords ...string) bool {
	if p.Category == "" {
		return false
	}
	category := strings.ToLower(p.Category)
	for _, kw := range keywords {
		if strings.Contains(category, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (p Product) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidProduct
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}
