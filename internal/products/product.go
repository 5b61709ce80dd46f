// Package products holds the product shape shared by the cart, wishlist and
// catalog. Fields the client does not model are carried through untouched so
// persisted records keep whatever the catalog sent.
package products

import (
	"encoding/json"
	"fmt"
)

const (
	fieldID          = "id"
	fieldTitle       = "title"
	fieldPrice       = "price"
	fieldCategory    = "category"
	fieldThumbnail   = "thumbnail"
	fieldDescription = "description"
)

// Product is a catalog product as seen by the client.
type Product struct {
	ID          ID
	Title       string
	Price       float64
	Category    string
	Thumbnail   string
	Description string

	// Attributes holds every other field of the source object, keyed by JSON name.
	Attributes map[string]json.RawMessage
}

// Clone returns a copy that shares no attribute map with p.
func (p Product) Clone() Product {
	out := p
	if p.Attributes != nil {
		out.Attributes = make(map[string]json.RawMessage, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// Without returns a copy with the named attributes dropped.
func (p Product) Without(names ...string) Product {
	out := p.Clone()
	for _, name := range names {
		delete(out.Attributes, name)
	}
	if len(out.Attributes) == 0 {
		out.Attributes = nil
	}
	return out
}

// Fields flattens the product into one JSON object keyed by field name.
func (p Product) Fields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(p.Attributes)+6)
	for k, v := range p.Attributes {
		fields[k] = v
	}

	known := []struct {
		name  string
		value any
		keep  bool
	}{
		{fieldID, p.ID, true},
		{fieldTitle, p.Title, true},
		{fieldPrice, p.Price, true},
		{fieldCategory, p.Category, p.Category != ""},
		{fieldThumbnail, p.Thumbnail, p.Thumbnail != ""},
		{fieldDescription, p.Description, p.Description != ""},
	}
	for _, f := range known {
		if !f.keep {
			continue
		}
		raw, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.name, err)
		}
		fields[f.name] = raw
	}
	return fields, nil
}

// FromFields rebuilds a product from a flattened JSON object. Unknown fields
// land in Attributes.
func FromFields(fields map[string]json.RawMessage) (Product, error) {
	var p Product
	targets := map[string]any{
		fieldID:          &p.ID,
		fieldTitle:       &p.Title,
		fieldPrice:       &p.Price,
		fieldCategory:    &p.Category,
		fieldThumbnail:   &p.Thumbnail,
		fieldDescription: &p.Description,
	}
	for name, raw := range fields {
		target, ok := targets[name]
		if !ok {
			if p.Attributes == nil {
				p.Attributes = make(map[string]json.RawMessage)
			}
			p.Attributes[name] = append(json.RawMessage(nil), raw...)
			continue
		}
		if string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return Product{}, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return p, nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	fields, err := p.Fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	decoded, err := FromFields(fields)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
