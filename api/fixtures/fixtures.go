// Package fixtures serves the embedded catalog data behind the development
// stub. Payloads mirror the public dummyjson catalog.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/storefront/internal/products"
)

//go:embed data/*.json
var files embed.FS

// Catalog is an immutable in-memory copy of the fixtures.
type Catalog struct {
	carts    []json.RawMessage
	products []products.Product
}

// Load parses the embedded fixtures.
func Load() (*Catalog, error) {
	var c Catalog
	if err := decode("data/carts.json", &c.carts); err != nil {
		return nil, err
	}
	if err := decode("data/products.json", &c.products); err != nil {
		return nil, err
	}
	return &c, nil
}

func decode(name string, dest any) error {
	raw, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode fixture %s: %w", name, err)
	}
	return nil
}

// Carts returns every cart exactly as stored.
func (c *Catalog) Carts() []json.RawMessage {
	out := make([]json.RawMessage, len(c.carts))
	copy(out, c.carts)
	return out
}

// ProductsInCategory returns the products whose category matches, ignoring case.
func (c *Catalog) ProductsInCategory(category string) []products.Product {
	out := []products.Product{}
	for _, p := range c.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Categories lists the distinct categories in sorted order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	for _, p := range c.products {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}
