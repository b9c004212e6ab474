package cart

import (
	"fmt"
	"iter"
	"strings"

	"golang.org/x/text/currency"

	domcart "example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/money"
)

const EmptyPlaceholder = "Your cart is empty. Add products from the shop."

// Control actions offered on every rendered line.
const (
	ActionDecrement = "decrement"
	ActionIncrement = "increment"
	ActionRemove    = "remove"
)

type LineView struct {
	Index     int
	ProductID int64
	ImageURL  string
	Name      string
	UnitPrice string
	Quantity  int
	Subtotal  string
	Controls  []string
}

// View is a snapshot of the cart as shown to the shopper. It holds no
// reference to the cart it was rendered from.
type View struct {
	Total           string
	ItemCount       int
	Empty           bool
	Placeholder     string
	CheckoutEnabled bool

	lines []LineView
}

// Render builds a fresh view of c. It has no side effects.
func Render(c domcart.Cart, unit currency.Unit) View {
	total := money.New(c.Total(), unit)
	if c.IsEmpty() {
		return View{
			Total:       money.Zero(unit).String(),
			Empty:       true,
			Placeholder: EmptyPlaceholder,
		}
	}

	lines := make([]LineView, 0, len(c.Items))
	for i, item := range c.Items {
		lines = append(lines, LineView{
			Index:     i,
			ProductID: item.ProductID,
			ImageURL:  item.ImageURL,
			Name:      item.Name,
			UnitPrice: money.New(item.Price, unit).String(),
			Quantity:  item.Quantity,
			Subtotal:  money.New(item.Subtotal(), unit).String(),
			Controls:  []string{ActionDecrement, ActionIncrement, ActionRemove},
		})
	}

	return View{
		Total:           total.String(),
		ItemCount:       c.ItemCount(),
		CheckoutEnabled: true,
		lines:           lines,
	}
}

// Lines yields the rendered lines in cart order. The sequence can be
// ranged over any number of times.
func (v View) Lines() iter.Seq[LineView] {
	return func(yield func(LineView) bool) {
		for _, l := range v.lines {
			if !yield(l) {
				return
			}
		}
	}
}

func (v View) Len() int {
	return len(v.lines)
}

// Text renders the view as a plain-text table.
func (v View) Text() string {
	var b strings.Builder
	if v.Empty {
		b.WriteString(v.Placeholder)
		b.WriteString("\n")
		fmt.Fprintf(&b, "Total: %s\n", v.Total)
		return b.String()
	}

	fmt.Fprintf(&b, "%-3s %-28s %12s %5s %12s  %s\n", "#", "Item", "Price", "Qty", "Subtotal", "Image")
	for l := range v.Lines() {
		fmt.Fprintf(&b, "%-3d %-28s %12s %5s %12s  %s\n",
			l.Index+1, truncate(l.Name, 28), l.UnitPrice, fmt.Sprintf("-%d+", l.Quantity), l.Subtotal, l.ImageURL)
	}
	fmt.Fprintf(&b, "Total: %s\n", v.Total)
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
