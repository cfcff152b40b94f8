package domain

import "github.com/shopspring/decimal"

// AttributePair is one (name, value) tag on a variant or cart line,
// e.g. ("Color", "Red"). Order matters for display only.
type AttributePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CartLine is one distinct purchasable line in a session's cart. The ID is
// server-assigned and stable; UnitPrice is snapshotted by the backend at
// add time, so repricing a product never moves lines already in a cart.
type CartLine struct {
	ID          int64           `json:"id"`
	VariantID   int64           `json:"variant_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	ImageURL    string          `json:"image_url"`
	Attributes  []AttributePair `json:"attributes"`
}

// Subtotal returns Quantity × UnitPrice for this line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is the derived view of a cart: the line sequence plus its
// aggregates. It is recomputed wholesale from the lines on every mutation,
// never incrementally, so the aggregates cannot drift from the lines.
type CartSnapshot struct {
	Lines      []CartLine      `json:"lines"`
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// NewSnapshot derives a snapshot from the given lines.
func NewSnapshot(lines []CartLine) CartSnapshot {
	s := CartSnapshot{
		Lines:      lines,
		TotalPrice: decimal.Zero,
	}
	for _, l := range lines {
		s.ItemCount += l.Quantity
		s.TotalPrice = s.TotalPrice.Add(l.Subtotal())
	}
	return s
}
