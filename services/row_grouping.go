package services

import "sort"

// RowThreshold is the largest vertical gap, in pixels, between consecutive
// fields that still share a row.
const RowThreshold = 20.0

// GroupRows sorts items top to bottom and splits them into rows: an item
// whose y is within threshold of the previous item joins its row, a larger
// gap starts a new row. Each row is ordered left to right.
func GroupRows[T any](items []T, pos func(T) (x, y float64), threshold float64) [][]T {
	if len(items) == 0 {
		return nil
	}
	sorted := append([]T(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		xi, yi := pos(sorted[i])
		xj, yj := pos(sorted[j])
		if yi != yj {
			return yi < yj
		}
		return xi < xj
	})

	var rows [][]T
	var current []T
	_, prevY := pos(sorted[0])
	for i, item := range sorted {
		_, y := pos(item)
		if i > 0 && y-prevY > threshold {
			rows = append(rows, current)
			current = nil
		}
		current = append(current, item)
		prevY = y
	}
	rows = append(rows, current)

	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			xi, _ := pos(row[i])
			xj, _ := pos(row[j])
			return xi < xj
		})
	}
	return rows
}

// GroupFieldRows groups detected fields by their bounding boxes.
func GroupFieldRows(fields []DetectedField) [][]DetectedField {
	return GroupRows(fields, func(f DetectedField) (float64, float64) {
		r := f.Element.Info().Rect
		return r.X, r.Y
	}, RowThreshold)
}
