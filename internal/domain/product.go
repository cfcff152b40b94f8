package domain

import "github.com/shopspring/decimal"

// Variant is one purchasable SKU of a product. Its attribute pairs must
// uniquely identify it among the product's variants; the backend owns that
// guarantee, it is not enforced here.
type Variant struct {
	ID         int64           `json:"id"`
	SKU        string          `json:"sku"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Active     bool            `json:"active"`
	ImageURL   string          `json:"image_url"`
	Attributes []AttributePair `json:"attributes"`
}

// AttributeValue returns the value this variant carries for the named
// attribute, or "" when the variant is not tagged with it.
func (v Variant) AttributeValue(name string) string {
	for _, p := range v.Attributes {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// Product as served by the catalog endpoints. A product with no variants is
// sold directly: its own price, stock and image are the sellable unit.
type Product struct {
	ID          int64           `json:"id"`
	StoreID     int64           `json:"store_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	Variants    []Variant       `json:"variants"`
}

// BuyerDetails travels with both checkout modes. Validation of consequence
// (email shape, phone format) is backend-owned.
type BuyerDetails struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Notes    string `json:"notes"`
}

// Order is the record the backend returns from an online checkout.
type Order struct {
	ID     int64           `json:"id"`
	Code   string          `json:"code"`
	Status string          `json:"status"`
	Total  decimal.Decimal `json:"total"`
}
