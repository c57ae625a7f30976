package services

import (
	"context"
	"sort"
)

// DeepQuery returns every element matching selector in the document and in
// all open shadow roots. Order is document order within each shadow boundary.
func DeepQuery(ctx context.Context, page Page, selector string) ([]Element, error) {
	return page.Query(ctx, selector)
}

// DeepQueryVisual is DeepQuery re-sorted into visual order.
func DeepQueryVisual(ctx context.Context, page Page, selector string) ([]Element, error) {
	els, err := page.Query(ctx, selector)
	if err != nil {
		return nil, err
	}
	SortByPosition(els)
	return els, nil
}

// SortByPosition orders elements top to bottom, then left to right.
func SortByPosition(els []Element) {
	sort.SliceStable(els, func(i, j int) bool {
		a, b := els[i].Info().Rect, els[j].Info().Rect
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

func filterElements(els []Element, keep func(ElementInfo) bool) []Element {
	out := els[:0:0]
	for _, el := range els {
		if keep(el.Info()) {
			out = append(out, el)
		}
	}
	return out
}
