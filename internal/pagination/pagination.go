// Package pagination slices listings into fixed-size pages for inline
// keyboards. Page indexes are zero-based and every operation clamps,
// so stale navigation buttons can never step outside the list.
package pagination

// DefaultPageSize is the number of rows shown per keyboard page.
const DefaultPageSize = 5

// Window is one visible page of a larger list.
type Window[T any] struct {
	Items []T
	Page  int
	Pages int
}

// HasPrev reports whether a page exists before this one.
func (w Window[T]) HasPrev() bool { return w.Page > 0 }

// HasNext reports whether a page exists after this one.
func (w Window[T]) HasNext() bool { return w.Page < w.Pages-1 }

// PageCount returns the number of pages a list of n items occupies,
// ceil(n/size). An empty list has zero pages.
func PageCount(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Clamp forces page into [0, pages), or 0 when there are no pages.
func Clamp(page, pages int) int {
	if pages <= 0 || page < 0 {
		return 0
	}
	if page >= pages {
		return pages - 1
	}
	return page
}

// Paginate returns the window at page, clamped to the list bounds.
func Paginate[T any](items []T, page, size int) Window[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := PageCount(len(items), size)
	page = Clamp(page, pages)

	start := page * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return Window[T]{Items: items[start:end], Page: page, Pages: pages}
}

// Next returns the page index after page, clamped.
func Next(page, pages int) int { return Clamp(page+1, pages) }

// Prev returns the page index before page, clamped.
func Prev(page, pages int) int { return Clamp(page-1, pages) }
