package cart

import (
	"slices"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domcart "example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/money"
)

func TestRender_Scenario(t *testing.T) {
	c := domcart.Cart{Items: []domcart.LineItem{
		{ProductID: 1, Name: "Shirt", Price: decimal.NewFromInt(500), ImageURL: "img/img1.png", Quantity: 2},
		{ProductID: 2, Name: "Cap", Price: decimal.NewFromInt(300), ImageURL: "img/img2.png", Quantity: 1},
	}}

	view := Render(c, money.INR)

	require.False(t, view.Empty)
	require.True(t, view.CheckoutEnabled)
	require.Equal(t, "₹1300.00", view.Total)

	lines := slices.Collect(view.Lines())
	require.Len(t, lines, 2)
	require.Equal(t, "₹500.00", lines[0].UnitPrice)
	require.Equal(t, "₹1000.00", lines[0].Subtotal)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, "₹300.00", lines[1].Subtotal)
	require.Equal(t, []string{ActionDecrement, ActionIncrement, ActionRemove}, lines[1].Controls)
	require.Equal(t, 1, lines[1].Index)
}

func TestRender_Empty(t *testing.T) {
	view := Render(domcart.Cart{}, money.INR)

	require.True(t, view.Empty)
	require.False(t, view.CheckoutEnabled)
	require.Equal(t, EmptyPlaceholder, view.Placeholder)
	require.Equal(t, "₹0.00", view.Total)
	require.Equal(t, 0, view.Len())
	require.Contains(t, view.Text(), EmptyPlaceholder)
}

func TestRender_LinesAreRestartable(t *testing.T) {
	c := domcart.Cart{Items: []domcart.LineItem{
		{ProductID: 1, Name: "A", Price: decimal.NewFromInt(1), Quantity: 1},
		{ProductID: 2, Name: "B", Price: decimal.NewFromInt(2), Quantity: 1},
		{ProductID: 3, Name: "C", Price: decimal.NewFromInt(3), Quantity: 1},
	}}
	view := Render(c, money.INR)

	first := slices.Collect(view.Lines())
	second := slices.Collect(view.Lines())
	require.Equal(t, first, second)

	var names []string
	for l := range view.Lines() {
		names = append(names, l.Name)
		if len(names) == 2 {
			break
		}
	}
	require.Equal(t, []string{"A", "B"}, names)
}

func TestRender_DoesNotAliasCart(t *testing.T) {
	c := domcart.Cart{Items: []domcart.LineItem{
		{ProductID: 1, Name: "A", Price: decimal.NewFromInt(10), Quantity: 1},
	}}
	view := Render(c, money.INR)

	c.Items[0].Quantity = 9
	c.Items[0].Name = "changed"

	line := slices.Collect(view.Lines())[0]
	require.Equal(t, 1, line.Quantity)
	require.Equal(t, "A", line.Name)
	require.Equal(t, "₹10.00", view.Total)
}

func TestView_Text(t *testing.T) {
	c := domcart.Cart{Items: []domcart.LineItem{
		{ProductID: 1, Name: "Shirt", Price: decimal.NewFromInt(500), ImageURL: "img/img1.png", Quantity: 2},
	}}

	text := Render(c, money.INR).Text()

	require.Contains(t, text, "Shirt")
	require.Contains(t, text, "₹1000.00")
	require.Contains(t, text, "-2+")
	require.True(t, strings.HasSuffix(text, "Total: ₹1000.00\n"))
}
