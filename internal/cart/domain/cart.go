package domain

import (
	"github.com/shopspring/decimal"
)

// LineKey identifies a cart line. Two adds with the same key merge into one line.
type LineKey struct {
	ProductID int64
	Size      string
	Color     string
}

// CartLine is one product variant in the cart together with the display fields
// copied from the catalog when it was added.
type CartLine struct {
	ProductID     int64           `json:"id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"price"`
	ImageRef      string          `json:"image"`
	SelectedSize  string          `json:"selectedSize"`
	SelectedColor string          `json:"selectedColor"`
	Quantity      int             `json:"quantity"`
}

// Key returns the identity key of the line.
func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.SelectedSize, Color: l.SelectedColor}
}

// Subtotal is UnitPrice * Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered collection of lines. At most one line exists per LineKey
// and every line has Quantity >= 1.
type Cart struct {
	lines []CartLine
}

// New builds a cart from lines, merging duplicate keys and dropping lines
// whose quantity is not positive.
func New(lines ...CartLine) *Cart {
	c := &Cart{}
	for _, line := range lines {
		c.Add(line)
	}
	return c
}

// Add merges line into the cart. When a line with the same key exists its
// quantity grows by line.Quantity; otherwise line is appended. Adding a
// non-positive quantity changes nothing. Reports whether the cart changed.
func (c *Cart) Add(line CartLine) bool {
	if line.Quantity <= 0 {
		return false
	}

	if i := c.indexOf(line.Key()); i >= 0 {
		c.lines[i].Quantity += line.Quantity
		return true
	}

	c.lines = append(c.lines, line)
	return true
}

// UpdateQuantity sets the quantity of the line with key. A quantity <= 0
// removes the line. Unknown keys are ignored.
func (c *Cart) UpdateQuantity(key LineKey, quantity int) bool {
	i := c.indexOf(key)
	if i < 0 {
		return false
	}

	if quantity <= 0 {
		c.removeAt(i)
		return true
	}

	if c.lines[i].Quantity == quantity {
		return false
	}
	c.lines[i].Quantity = quantity
	return true
}

// Remove deletes the line with key if present.
func (c *Cart) Remove(key LineKey) bool {
	i := c.indexOf(key)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() bool {
	if len(c.lines) == 0 {
		return false
	}
	c.lines = nil
	return true
}

// Find returns the line with key.
func (c *Cart) Find(key LineKey) (CartLine, bool) {
	if i := c.indexOf(key); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount is the sum of quantities over all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// TotalPrice is the sum of line subtotals, computed from the current lines on
// every call.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Clone returns an independent copy of the cart.
func (c *Cart) Clone() *Cart {
	return &Cart{lines: c.Lines()}
}

func (c *Cart) indexOf(key LineKey) int {
	for i, line := range c.lines {
		if line.Key() == key {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	if len(c.lines) == 0 {
		c.lines = nil
	}
}
