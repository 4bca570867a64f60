package dataset

import (
	"iter"
	"maps"
	"slices"

	"nosecounter/internal/orderedmap"
)

// Merged is the year-ordered set of datasets a report is built from.
// It is built once per run and treated as read-only afterwards.
type Merged struct {
	years []int
	data  map[int]*YearlyDataset
}

// Years returns the retained years in ascending order.
func (m *Merged) Years() []int {
	if m == nil {
		return nil
	}
	return slices.Clone(m.years)
}

// Len returns the number of retained years.
func (m *Merged) Len() int {
	if m == nil {
		return 0
	}
	return len(m.years)
}

// Get returns the dataset of a year.
func (m *Merged) Get(year int) (*YearlyDataset, bool) {
	if m == nil {
		return nil, false
	}
	d, ok := m.data[year]
	return d, ok
}

// All iterates the datasets in ascending year order.
func (m *Merged) All() iter.Seq2[int, *YearlyDataset] {
	return func(yield func(int, *YearlyDataset) bool) {
		if m == nil {
			return
		}
		for _, y := range m.years {
			if !yield(y, m.data[y]) {
				return
			}
		}
	}
}

// Label returns the series label of a year, or "" if the year is not retained.
func (m *Merged) Label(year int) string {
	if d, ok := m.Get(year); ok {
		return d.Label()
	}
	return ""
}

// Labels returns the "<Convention> (<Year>)" label of every year, in order.
func (m *Merged) Labels() []string {
	labels := make([]string, 0, m.Len())
	for _, d := range m.All() {
		labels = append(labels, d.Label())
	}
	return labels
}

// YearForLabel resolves a "<Convention> (<Year>)" label back to its dataset.
func (m *Merged) YearForLabel(label string) (*YearlyDataset, bool) {
	for _, d := range m.All() {
		if d.Label() == label {
			return d, true
		}
	}
	return nil, false
}

// Window keeps the maxYearCount most recent years in ascending order.
// A non-positive maxYearCount keeps every year.
func Window(years map[int]*YearlyDataset, maxYearCount int) *Merged {
	keys := slices.Sorted(maps.Keys(years))
	if maxYearCount > 0 && len(keys) > maxYearCount {
		keys = keys[len(keys)-maxYearCount:]
	}

	m := &Merged{
		years: keys,
		data:  make(map[int]*YearlyDataset, len(keys)),
	}
	for _, y := range keys {
		m.data[y] = years[y]
	}
	return m
}

// SortCountries orders every year's Country breakdown by descending count.
// Ties keep their original relative order. The datasets are replaced by copies,
// so callers holding the pre-sort records never observe the reordering.
func SortCountries(m *Merged) {
	for _, y := range m.years {
		cp := *m.data[y]
		cp.Country = SortedDescending(cp.Country)
		m.data[y] = &cp
	}
}

// SortedDescending returns a copy of b ordered by descending count, stable on ties.
func SortedDescending(b *Breakdown) *Breakdown {
	sorted := b.Clone()
	sorted.SortStableFunc(func(a, b orderedmap.Entry[int]) int {
		return b.Value - a.Value
	})
	return sorted
}
