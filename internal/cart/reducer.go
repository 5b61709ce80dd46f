package cart

import "github.com/angelmondragon/storefront/internal/products"

// Reduce applies action to items and reports whether the collection changed.
// items is never modified; a changed result is always a fresh slice.
func Reduce(items []LineItem, action Action) ([]LineItem, bool) {
	switch a := action.(type) {
	case AddToCart:
		if indexOf(items, a.Product.ID) >= 0 {
			return items, false
		}
		next := Clone(items)
		// the catalog's cart listing carries its own quantity; a fresh add always starts at 1
		return append(next, LineItem{Product: a.Product.Without(fieldQuantity), Quantity: 1}), true

	case RemoveFromCart:
		idx := indexOf(items, a.ID)
		if idx < 0 {
			return items, false
		}
		next := make([]LineItem, 0, len(items)-1)
		next = append(next, Clone(items[:idx])...)
		next = append(next, Clone(items[idx+1:])...)
		return next, true

	case UpdateQuantity:
		idx := indexOf(items, a.ID)
		if idx < 0 || items[idx].Quantity == a.Quantity {
			return items, false
		}
		next := Clone(items)
		next[idx].Quantity = a.Quantity
		return next, true

	case SetCart:
		return Clone(a.Items), true
	}
	return items, false
}

func indexOf(items []LineItem, id products.ID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
