// Package paging provides bounded-cost enumeration over capped collections.
//
// Every growing collection in the system enforces a hard per-key cap, so a
// full scan of one key's items is O(cap) at worst. Queries whose cost would
// scale with global state size are not expressible through this package.
package paging

// MaxPageLimit bounds the number of items a single page may return.
const MaxPageLimit = 500

// Page is the result of one bounded enumeration step.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
}

// GetPage returns items[offset : offset+limit) in insertion order together
// with the collection's total size. When offset >= total the page is empty
// and Total still reports the collection size. A limit above MaxPageLimit is
// clamped; a limit of zero returns an empty page.
func GetPage[T any](items []T, offset, limit int) Page[T] {
	total := len(items)
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 || limit <= 0 || offset >= total {
		return Page[T]{Items: []T{}, Total: total, Offset: offset}
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return Page[T]{Items: out, Total: total, Offset: offset}
}

// Filter returns the elements of items matching keep, preserving order.
// Callers must only pass per-key capped slices; the scan cost is then a
// design-time constant.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// FilterPage scans the capped slice once, applies keep, and pages the result.
func FilterPage[T any](items []T, keep func(T) bool, offset, limit int) Page[T] {
	return GetPage(Filter(items, keep), offset, limit)
}
