package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrInvalidProduct  = errors.New("cart: product id is required")
)

// Item is one line of a cart. Prices are minor currency units (cents).
type Item struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"image_ref"`
}

// Cart holds the line items of one browsing session. It is a plain
// aggregate; persistence happens in the repository after every mutation.
type Cart struct {
	SessionID string    `json:"session_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(sessionID string) *Cart {
	return &Cart{
		SessionID: sessionID,
		UpdatedAt: time.Now().UTC(),
	}
}

// Add merges the item into an existing line when the product id matches,
// otherwise appends a new line.
func (c *Cart) Add(item Item) error {
	if item.ProductID <= 0 {
		return ErrInvalidProduct
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			c.touch()
			return nil
		}
	}

	c.Items = append(c.Items, item)
	c.touch()
	return nil
}

// Remove drops the line with the given product id. Removing an absent
// product is a no-op.
func (c *Cart) Remove(productID int64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch()
			return
		}
	}
}

// SetQuantity replaces a line's quantity. Quantities below one are clamped
// to one; a line never drops to zero through this path.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			c.touch()
			return
		}
	}
}

// Total returns the sum of unit price times quantity over all lines, in cents.
func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// Count returns the sum of quantities over all lines.
func (c *Cart) Count() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Clear empties the cart. Called exactly once, right after a successful
// order submission.
func (c *Cart) Clear() {
	c.Items = nil
	c.touch()
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	return &clone
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
