package products

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ID identifies a product. The catalog emits numeric ids while locally built
// products may carry string ids, so the JSON kind is kept as it was read.
// Numeric ids are canonicalized, so 1, 1.0 and 1e0 are the same product.
type ID struct {
	value   string
	numeric bool
}

// NumericID builds an id that encodes as a JSON number.
func NumericID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10), numeric: true}
}

// StringID builds an id that encodes as a JSON string.
func StringID(s string) ID {
	return ID{value: s}
}

func (id ID) String() string {
	return id.value
}

func (id ID) IsZero() bool {
	return id.value == "" && !id.numeric
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ID{value: d.String(), numeric: true}
	return nil
}
