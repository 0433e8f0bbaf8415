// Package view shapes derived data into the view-models the interface
// renders: paginated sections, the contribution tab state and the role chart.
package view

// DefaultPageSize is the number of items a collapsed section shows.
const DefaultPageSize = 6

// Page is the visible part of a section together with what is needed for a
// "show N more" affordance.
type Page[T any] struct {
	Visible     []T  `json:"visible"`
	HiddenCount int  `json:"hiddenCount"`
	Total       int  `json:"total"`
	Expanded    bool `json:"expanded"`
}

// Paginate returns the visible prefix of items. A negative threshold is
// treated as zero. The returned slice shares items' backing array but has
// its capacity clipped, so appending to it never writes into items.
func Paginate[T any](items []T, threshold int, expanded bool) Page[T] {
	if threshold < 0 {
		threshold = 0
	}
	total := len(items)
	n := total
	if !expanded && total > threshold {
		n = threshold
	}
	hidden := total - threshold
	if hidden < 0 {
		hidden = 0
	}
	visible := items[:n:n]
	if visible == nil {
		visible = []T{}
	}
	return Page[T]{
		Visible:     visible,
		HiddenCount: hidden,
		Total:       total,
		Expanded:    expanded,
	}
}

// Paginator holds the expanded flag of one section. It is the only state a
// section has; the page is re-derived from (items, expanded) on every call.
type Paginator[T any] struct {
	threshold int
	expanded  bool
}

// NewPaginator creates a collapsed paginator.
func NewPaginator[T any](threshold int) *Paginator[T] {
	return &Paginator[T]{threshold: threshold}
}

// Toggle flips between collapsed and expanded.
func (p *Paginator[T]) Toggle() {
	p.expanded = !p.expanded
}

// Expanded reports whether the section shows everything.
func (p *Paginator[T]) Expanded() bool {
	return p.expanded
}

// Page derives the current page of items.
func (p *Paginator[T]) Page(items []T) Page[T] {
	return Paginate(items, p.threshold, p.expanded)
}
