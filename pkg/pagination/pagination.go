package pagination

import (
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	// DefaultLimit is the page size when a limit is not provided.
	DefaultLimit = 30
	// MaxLimit caps how many items a single page may carry.
	MaxLimit = 100
)

// Params holds offset pagination inputs. A Limit of zero means every item.
type Params struct {
	Limit int
	Skip  int
}

// FromQuery reads `limit` and `skip` the way the public catalog accepts them.
func FromQuery(values url.Values) (Params, error) {
	p := Params{Limit: DefaultLimit}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return Params{}, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer")
		}
		p.Limit = NormalizeLimit(limit)
	}
	if raw := strings.TrimSpace(values.Get("skip")); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return Params{}, pkgerrors.New(pkgerrors.CodeValidation, "skip must be a non-negative integer")
		}
		p.Skip = skip
	}
	return p, nil
}

// NormalizeLimit enforces the maximum. Zero is kept as "all".
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Window returns the half-open [start, end) slice bounds for total items.
func (p Params) Window(total int) (int, int) {
	start := p.Skip
	if start > total {
		start = total
	}
	end := total
	if p.Limit > 0 && start+p.Limit < total {
		end = start + p.Limit
	}
	return start, end
}

// Page slices items according to p. The result is never nil.
func Page[T any](items []T, p Params) []T {
	start, end := p.Window(len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
