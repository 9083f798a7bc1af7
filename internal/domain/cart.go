package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine is one product line in a cart. Price is the unit price captured when the
// product was added.
type CartLine struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// MarshalJSON writes price as a JSON number so browsers and the backend read it as one.
func (l CartLine) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string      `json:"id"`
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
		Quantity int         `json:"quantity"`
		Image    string      `json:"image,omitempty"`
	}{
		ID:       l.ID,
		Name:     l.Name,
		Price:    json.Number(l.Price.String()),
		Quantity: l.Quantity,
		Image:    l.Image,
	})
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds lines keyed by product id. Line order is insertion order.
type Cart struct {
	Lines []CartLine `json:"items"`
}

// NewCart builds a cart from raw lines, merging duplicates and dropping empty lines.
func NewCart(lines []CartLine) Cart {
	c := Cart{Lines: make([]CartLine, 0, len(lines))}
	for _, l := range lines {
		c.merge(l)
	}
	return c
}

func (c *Cart) merge(l CartLine) {
	l.ID = strings.TrimSpace(l.ID)
	if l.ID == "" || l.Quantity <= 0 {
		return
	}
	if i := c.index(l.ID); i >= 0 {
		c.Lines[i].Quantity += l.Quantity
		return
	}
	c.Lines = append(c.Lines, l)
}

func (c Cart) index(id string) int {
	for i, l := range c.Lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Line returns the line for id.
func (c Cart) Line(id string) (CartLine, bool) {
	if i := c.index(id); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

// Add puts line into the cart under its trimmed id. An existing line with the same id
// keeps its name and price and has its quantity increased; a non-positive quantity
// counts as one. It returns the resulting line.
func (c *Cart) Add(line CartLine) CartLine {
	line.ID = strings.TrimSpace(line.ID)
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	if i := c.index(line.ID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return c.Lines[i]
	}
	c.Lines = append(c.Lines, line)
	return line
}

// SetQuantity replaces the quantity of line id. Quantities below one and unknown ids
// leave the cart unchanged; the return value reports whether anything changed.
func (c *Cart) SetQuantity(id string, qty int) bool {
	if qty <= 0 {
		return false
	}
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.Lines[i].Quantity = qty
	return true
}

// Remove deletes line id and reports whether it was present.
func (c *Cart) Remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// Total is the sum of price times quantity over all lines.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the sum of quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Clone returns a deep copy so callers can hold a snapshot.
func (c Cart) Clone() Cart {
	out := Cart{Lines: make([]CartLine, len(c.Lines))}
	copy(out.Lines, c.Lines)
	return out
}
