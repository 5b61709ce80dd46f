package products

// IndexOf returns the position of the product with id, or -1.
func IndexOf(list []Product, id ID) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// ExcludeAndCap drops the product with id from list and keeps at most limit
// entries. A non-positive limit keeps everything.
func ExcludeAndCap(list []Product, id ID, limit int) []Product {
	out := make([]Product, 0, len(list))
	for _, p := range list {
		if p.ID == id {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, p)
	}
	return out
}
