package dashboard

// PageSize is fixed: the readings table always shows ten rows per page.
const PageSize = 10

// TotalPages returns ceil(count/PageSize), floored at 1 so an empty
// collection still has a valid current page.
func TotalPages(count int) int {
	if count <= 0 {
		return 1
	}
	return (count + PageSize - 1) / PageSize
}

// clampPage forces page into [1, totalPages].
func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// PageBounds returns the half-open [start, end) slice indices for a page
// over a collection of count items.
func PageBounds(page, count int) (start, end int) {
	page = clampPage(page, TotalPages(count))
	start = (page - 1) * PageSize
	end = start + PageSize
	if end > count {
		end = count
	}
	return start, end
}

// PageItem is one element of the page-number strip: either a numbered page
// or an ellipsis standing in for a collapsed gap.
type PageItem struct {
	Number   int
	Current  bool
	Ellipsis bool
}

// PageStrip renders the pagination control: page 1, the last page, the
// current page and its two neighbours are shown; each gap between shown
// pages collapses into a single ellipsis marker.
func PageStrip(current, totalPages int) []PageItem {
	current = clampPage(current, totalPages)

	show := func(p int) bool {
		return p == 1 || p == totalPages || (p >= current-1 && p <= current+1)
	}

	var items []PageItem
	lastShown := 0
	for p := 1; p <= totalPages; p++ {
		if !show(p) {
			continue
		}
		if lastShown != 0 && p-lastShown > 1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Number: p, Current: p == current})
		lastShown = p
	}
	return items
}
