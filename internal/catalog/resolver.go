// Package catalog turns a product's variant list into UI-drivable
// attribute choice groups and resolves an in-progress, possibly partial
// selection to at most one concrete SKU.
package catalog

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/JoseEM26/StoreCollection-sub000/internal/domain"
)

// AttributeGroup is one choice control: an attribute name and the distinct
// values any variant uses for it, sorted for stable display order.
type AttributeGroup struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Resolver holds the selection state for one loaded product. It is a plain
// per-view value, reset whenever a new product loads; not safe for
// concurrent use and not meant to be shared.
type Resolver struct {
	product  domain.Product
	groups   []AttributeGroup
	selected map[string]string // every group name present; "" means unselected
	resolved *domain.Variant
}

// NewResolver builds the attribute groups for a product and pre-selects a
// sensible default: the first variant in declared order that is active and
// in stock, else the first active one, else none. A zero-variant product
// yields no groups and no resolved variant; its own price, stock and image
// are the sellable unit.
func NewResolver(p domain.Product) *Resolver {
	r := &Resolver{
		product:  p,
		selected: make(map[string]string),
	}

	byName := make(map[string]map[string]struct{})
	for _, v := range p.Variants {
		for _, pair := range v.Attributes {
			if byName[pair.Name] == nil {
				byName[pair.Name] = make(map[string]struct{})
			}
			byName[pair.Name][pair.Value] = struct{}{}
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := make([]string, 0, len(byName[name]))
		for v := range byName[name] {
			values = append(values, v)
		}
		sort.Strings(values)
		r.groups = append(r.groups, AttributeGroup{Name: name, Values: values})

		r.selected[name] = ""
		if len(values) == 1 {
			// nothing to choose
			r.selected[name] = values[0]
		}
	}

	if def := defaultVariant(p.Variants); def != nil {
		for _, pair := range def.Attributes {
			r.selected[pair.Name] = pair.Value
		}
		r.resolved = def
	}
	return r
}

// defaultVariant prefers the first active in-stock variant in declared
// order, falling back to the first active one.
func defaultVariant(variants []domain.Variant) *domain.Variant {
	var firstActive *domain.Variant
	for i := range variants {
		v := &variants[i]
		if !v.Active {
			continue
		}
		if v.Stock > 0 {
			return v
		}
		if firstActive == nil {
			firstActive = v
		}
	}
	return firstActive
}

// Groups returns the choice controls in display order.
func (r *Resolver) Groups() []AttributeGroup {
	return r.groups
}

// Selected returns a copy of the selection state. Unselected attributes are
// present with an empty value so the UI can render them as
// present-but-unselected.
func (r *Resolver) Selected() map[string]string {
	out := make(map[string]string, len(r.selected))
	for k, v := range r.selected {
		out[k] = v
	}
	return out
}

// Resolved returns the single variant fully determined by the current
// selection, or nil.
func (r *Resolver) Resolved() *domain.Variant {
	return r.resolved
}

// ToggleValue selects value for the named attribute, or clears the
// selection when value is already selected, then re-resolves.
func (r *Resolver) ToggleValue(name, value string) {
	if _, ok := r.selected[name]; !ok {
		return
	}
	if r.selected[name] == value {
		r.selected[name] = ""
	} else {
		r.selected[name] = value
	}
	r.resolve()
}

// resolve re-derives the matched variant. A variant matches iff its tag
// count equals the count of non-empty selections and every tag equals the
// selection for that name; the cardinality check keeps a variant from
// partially matching a superset of selected attributes.
func (r *Resolver) resolve() {
	chosen := 0
	for _, v := range r.selected {
		if v != "" {
			chosen++
		}
	}

	var match *domain.Variant
	matches := 0
	for i := range r.product.Variants {
		v := &r.product.Variants[i]
		if len(v.Attributes) != chosen {
			continue
		}
		ok := true
		for _, pair := range v.Attributes {
			if r.selected[pair.Name] != pair.Value {
				ok = false
				break
			}
		}
		if ok {
			match = v
			matches++
		}
	}

	if matches == 1 {
		r.resolved = match
	} else {
		r.resolved = nil
	}
}

// IsValueSelectable reports whether offering value for the named attribute
// is still consistent with the other selections already made. It is a soft
// feasibility check over attribute tags only; stock is deliberately not
// consulted, so a selectable combination may still resolve to an
// unavailable variant.
func (r *Resolver) IsValueSelectable(name, value string) bool {
	othersSelected := false
	for n, v := range r.selected {
		if n != name && v != "" {
			othersSelected = true
			break
		}
	}
	if !othersSelected {
		return true
	}

	for _, v := range r.product.Variants {
		if v.AttributeValue(name) != value {
			continue
		}
		ok := true
		for _, pair := range v.Attributes {
			if pair.Name == name {
				continue
			}
			if sel := r.selected[pair.Name]; sel != "" && sel != pair.Value {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// ImageURL returns the resolved variant's image when it has one, falling
// back to the product's primary image.
func (r *Resolver) ImageURL() string {
	if r.resolved != nil && r.resolved.ImageURL != "" {
		return r.resolved.ImageURL
	}
	return r.product.ImageURL
}

// Price returns the sellable unit price: the resolved variant's, or the
// product's own for a single-SKU product.
func (r *Resolver) Price() decimal.Decimal {
	if r.resolved != nil {
		return r.resolved.Price
	}
	return r.product.Price
}

// Stock returns the sellable stock: the resolved variant's, or the
// product's own for a single-SKU product.
func (r *Resolver) Stock() int {
	if r.resolved != nil {
		return r.resolved.Stock
	}
	return r.product.Stock
}

// ClampQuantity bounds a requested quantity to [1, stock]. The second
// return is false when the request had to be clamped (or nothing is
// sellable at all), so the UI can surface a warning instead of silently
// accepting an overshoot.
func (r *Resolver) ClampQuantity(q int) (int, bool) {
	stock := r.Stock()
	if stock < 1 {
		return 0, false
	}
	if q < 1 {
		return 1, false
	}
	if q > stock {
		return stock, false
	}
	return q, true
}
