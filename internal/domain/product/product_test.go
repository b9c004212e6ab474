package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestHasCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		keywords []string
		want     bool
	}{
		{name: "exact", category: "Clothing", keywords: []string{"clothing"}, want: true},
		{name: "substring", category: "Men's CLOTHING & Shoes", keywords: []string{"clothing"}, want: true},
		{name: "any keyword", category: "Home Audio", keywords: []string{"electronics", "computers", "audio"}, want: true},
		{name: "no match", category: "Books", keywords: []string{"clothing"}, want: false},
		{name: "absent category", category: "", keywords: []string{"trending"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{ID: 1, Category: tt.category}
			require.Equal(t, tt.want, p.HasCategory(tt.keywords...))
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Product{ID: 1, Price: decimal.Zero}.Validate())
	require.ErrorIs(t, Product{ID: 0}.Validate(), ErrInvalidProduct)
	require.ErrorIs(t, Product{ID: 2, Price: decimal.NewFromInt(-1)}.Validate(), ErrInvalidPrice)
}
