package domain

// ProductKind classifies a menu product. The kind decides which optional
// configuration fields are meaningful: StuffedCrust for pizzas, AddOns for
// beverages.
type ProductKind string

const (
	KindPizza        ProductKind = "pizza"
	KindSavoryPastry ProductKind = "savory-pastry"
	KindBeverage     ProductKind = "beverage"
)

// LineItem is one configured product line in a cart or a finalized order.
//
// While it lives in a cart its Quantity is mutable; once captured into an
// Order it is a frozen snapshot.
type LineItem struct {
	ProductID    int
	Kind         ProductKind
	Name         string
	Quantity     int
	UnitPrice    float64
	Note         string
	StuffedCrust string   // pizza only
	AddOns       []string // beverage only; selection order matters
}

// Subtotal is the line value at the current quantity.
func (i LineItem) Subtotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// SameConfiguration reports whether two line items represent the same
// configured product: same product, same kind, same note and the same
// pizza/beverage options. Two lines with the same configuration are merged
// in the cart instead of duplicated; quantity is deliberately excluded.
func (i LineItem) SameConfiguration(other LineItem) bool {
	if i.ProductID != other.ProductID || i.Kind != other.Kind {
		return false
	}
	if i.Note != other.Note || i.StuffedCrust != other.StuffedCrust {
		return false
	}
	if len(i.AddOns) != len(other.AddOns) {
		return false
	}
	for n, a := range i.AddOns {
		if other.AddOns[n] != a {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. Needed when snapshotting a cart into an order
// so the order's items never alias the live cart.
func (i LineItem) Clone() LineItem {
	out := i
	if i.AddOns != nil {
		out.AddOns = make([]string, len(i.AddOns))
		copy(out.AddOns, i.AddOns)
	}
	return out
}
