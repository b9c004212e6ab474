package cart

import (
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultImageURL is shown for products that come without an image.
const DefaultImageURL = "img/img1.png"

type LineItem struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	ImageURL  string
	Quantity  int
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type AddInput struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	ImageURL  string
}

func (in AddInput) Validate() error {
	if in.ProductID <= 0 {
		return ErrInvalidProduct
	}
	if in.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Cart keeps line items in insertion order with at most one line per product.
type Cart struct {
	Items []LineItem
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount is the number of units across all lines (the cart badge).
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IndexOf(productID int64) int {
	return slices.IndexFunc(c.Items, func(l LineItem) bool { return l.ProductID == productID })
}

func (c *Cart) Add(in AddInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if i := c.IndexOf(in.ProductID); i >= 0 {
		q, err := addQuantity(c.Items[i].Quantity, 1)
		if err != nil {
			return err
		}
		c.Items[i].Quantity = q
		return nil
	}

	imageURL := in.ImageURL
	if imageURL == "" {
		imageURL = DefaultImageURL
	}
	c.Items = append(c.Items, LineItem{
		ProductID: in.ProductID,
		Name:      in.Name,
		Price:     in.Price,
		ImageURL:  imageURL,
		Quantity:  1,
	})
	return nil
}

// ChangeQuantity adds delta to the line at index. A line whose quantity
// drops to zero or below is removed rather than kept at zero.
func (c *Cart) ChangeQuantity(index, delta int) error {
	if index < 0 || index >= len(c.Items) {
		return ErrLineNotFound
	}
	q, err := addQuantity(c.Items[index].Quantity, delta)
	if err != nil {
		return err
	}
	if q <= 0 {
		c.Items = slices.Delete(c.Items, index, index+1)
		return nil
	}
	c.Items[index].Quantity = q
	return nil
}

// addQuantity reports ErrQuantityOutOfRange instead of wrapping around.
func addQuantity(q, delta int) (int, error) {
	if (delta > 0 && q > math.MaxInt-delta) || (delta < 0 && q < math.MinInt-delta) {
		return q, ErrQuantityOutOfRange
	}
	return q + delta, nil
}

func (c *Cart) ChangeQuantityByProduct(productID int64, delta int) error {
	return c.ChangeQuantity(c.IndexOf(productID), delta)
}

func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.Items) {
		return ErrLineNotFound
	}
	c.Items = slices.Delete(c.Items, index, index+1)
	return nil
}

func (c *Cart) RemoveByProduct(productID int64) error {
	return c.Remove(c.IndexOf(productID))
}

func (c *Cart) Clear() {
	c.Items = nil
}
