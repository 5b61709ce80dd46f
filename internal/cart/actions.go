package cart

import "github.com/angelmondragon/storefront/internal/products"

// Action is a cart transition. The set of actions is closed; Reduce treats
// anything it does not recognise as a no-op.
type Action interface {
	Kind() string
	isCartAction()
}

// AddToCart appends the product with quantity 1 unless its id is already in
// the cart.
type AddToCart struct {
	Product products.Product
}

// RemoveFromCart drops the line item with the given id.
type RemoveFromCart struct {
	ID products.ID
}

// UpdateQuantity replaces the quantity of the matching line item. Bounds are
// the caller's concern.
type UpdateQuantity struct {
	ID       products.ID
	Quantity int
}

// SetCart replaces the whole collection.
type SetCart struct {
	Items []LineItem
}

func (AddToCart) Kind() string      { return "ADD_TO_CART" }
func (RemoveFromCart) Kind() string { return "REMOVE_FROM_CART" }
func (UpdateQuantity) Kind() string { return "UPDATE_QUANTITY" }
func (SetCart) Kind() string        { return "SET_CART" }

func (AddToCart) isCartAction()      {}
func (RemoveFromCart) isCartAction() {}
func (UpdateQuantity) isCartAction() {}
func (SetCart) isCartAction()        {}
