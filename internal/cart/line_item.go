package cart

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/angelmondragon/storefront/internal/products"
)

const fieldQuantity = "quantity"

// LineItem is a product in the cart. On the wire it is the product object with
// a quantity field merged in.
type LineItem struct {
	products.Product
	Quantity int
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	fields, err := li.Product.Fields()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(li.Quantity)
	if err != nil {
		return nil, err
	}
	fields[fieldQuantity] = raw
	return json.Marshal(fields)
}

func (li *LineItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	quantity := 0
	if raw, ok := fields[fieldQuantity]; ok {
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("decode quantity: %w", err)
		}
		if n != math.Trunc(n) {
			return fmt.Errorf("decode quantity: %v is not an integer", n)
		}
		quantity = int(n)
		delete(fields, fieldQuantity)
	}

	product, err := products.FromFields(fields)
	if err != nil {
		return err
	}
	*li = LineItem{Product: product, Quantity: quantity}
	return nil
}

// Clone returns a deep copy of items. The result is never nil.
func Clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = LineItem{Product: item.Product.Clone(), Quantity: item.Quantity}
	}
	return out
}
