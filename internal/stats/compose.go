package stats

import (
	"fmt"
	"slices"
	"strconv"

	"nosecounter/internal/apperr"
	"nosecounter/internal/dataset"
	"nosecounter/internal/orderedmap"
)

// Compositions never modify the Merged they read; every remainder is recomputed
// from the immutable dataset.

func yearDataset(m *dataset.Merged, year int) (*dataset.YearlyDataset, error) {
	d, ok := m.Get(year)
	if !ok {
		return nil, apperr.New(apperr.KindData, "compose series", fmt.Errorf("year %d: %w", year, dataset.ErrNoData))
	}
	return d, nil
}

// Flat returns the year's breakdown of field unchanged, as a single series keyed by the field name.
func Flat(m *dataset.Merged, year int, field dataset.Field) (ComposedSeries, error) {
	d, err := yearDataset(m, year)
	if err != nil {
		return ComposedSeries{}, err
	}

	s := newSeries(string(field), ModeFlat)
	values := orderedmap.New[float64]()
	for label, count := range d.Breakdown(field).All() {
		s.Labels = append(s.Labels, label)
		values.Set(label, float64(count))
	}
	s.Series.Set(string(field), values)
	s.Legend = []string{string(field)}
	return s, nil
}

// Grouped compares the absolute counts of the given categories across all years.
// Series are keyed by category, labels are the year labels. A category a year did
// not report stays missing for that year.
func Grouped(m *dataset.Merged, field dataset.Field, categories []string) ComposedSeries {
	s := newSeries(string(field), ModeGrouped)
	s.Labels = m.Labels()
	s.Legend = slices.Clone(categories)

	for _, c := range categories {
		s.Series.Set(c, orderedmap.New[float64]())
	}
	for _, d := range m.All() {
		b := d.Breakdown(field)
		for _, c := range categories {
			if count, ok := b.Get(c); ok {
				s.add(c, d.Label(), float64(count))
			}
		}
	}
	return s
}

// StackedNormalized expresses each category as a fraction of the year's TotalCount.
// Registrations not covered by the categories form a NotAvailable series, which is
// added to the legend only if some year has such a remainder. A year with a zero
// TotalCount contributes zero fractions.
func StackedNormalized(m *dataset.Merged, field dataset.Field, categories []string) ComposedSeries {
	s := newSeries(string(field), ModeStackedNormalized)
	s.Labels = m.Labels()
	s.Legend = slices.Clone(categories)

	for _, c := range categories {
		s.Series.Set(c, orderedmap.New[float64]())
	}

	hasRemainder := false
	for _, d := range m.All() {
		label := d.Label()
		b := d.Breakdown(field)

		listed := 0
		for _, c := range categories {
			count, _ := b.Get(c)
			listed += count
			s.add(c, label, fraction(count, d.TotalCount))
		}

		if rem := d.TotalCount - listed; rem > 0 {
			s.add(NotAvailable, label, fraction(rem, d.TotalCount))
			hasRemainder = true
		}
	}

	if hasRemainder {
		s.Legend = append(s.Legend, NotAvailable)
	}
	return s
}

// PieWithRemainder returns the year's breakdown plus a NotAvailable slice for the
// registrations it does not account for. Nothing is added when the breakdown
// already covers TotalCount.
func PieWithRemainder(m *dataset.Merged, year int, field dataset.Field) (ComposedSeries, error) {
	d, err := yearDataset(m, year)
	if err != nil {
		return ComposedSeries{}, err
	}

	s := newSeries(string(field), ModePieWithRemainder)
	values := orderedmap.New[float64]()
	sum := 0
	for label, count := range d.Breakdown(field).All() {
		s.Labels = append(s.Labels, label)
		values.Set(label, float64(count))
		sum += count
	}
	if rem := d.TotalCount - sum; rem > 0 {
		s.Labels = append(s.Labels, NotAvailable)
		values.Set(NotAvailable, float64(rem))
	}
	s.Series.Set(string(field), values)
	s.Legend = slices.Clone(s.Labels)
	return s, nil
}

// CompareYears puts one series per year over the categories of field, e.g. the
// age distribution of every retained year. Labels are the union of all categories,
// in numeric order when every category is a number.
func CompareYears(m *dataset.Merged, field dataset.Field) ComposedSeries {
	s := newSeries(string(field), ModeYearComparison)
	seen := make(map[string]bool)

	for _, d := range m.All() {
		label := d.Label()
		s.Legend = append(s.Legend, label)
		values := orderedmap.New[float64]()
		for category, count := range d.Breakdown(field).All() {
			values.Set(category, float64(count))
			if !seen[category] {
				seen[category] = true
				s.Labels = append(s.Labels, category)
			}
		}
		s.Series.Set(label, values)
	}

	sortNumericLabels(s.Labels)
	return s
}

// TopCategories returns the first k categories of the year's breakdown. Callers rely
// on the breakdown already being ordered, e.g. by dataset.SortCountries.
func TopCategories(m *dataset.Merged, year int, field dataset.Field, k int) ([]string, error) {
	d, err := yearDataset(m, year)
	if err != nil {
		return nil, err
	}
	keys := d.Breakdown(field).Keys()
	if k >= 0 && len(keys) > k {
		keys = keys[:k]
	}
	return keys, nil
}

// DropBelow removes numeric labels lower than minimum from every series.
// Non-numeric labels are kept.
func DropBelow(s ComposedSeries, minimum int) ComposedSeries {
	below := func(label string) bool {
		n, err := strconv.Atoi(label)
		return err == nil && n < minimum
	}

	out := s
	out.Labels = slices.DeleteFunc(slices.Clone(s.Labels), below)
	out.Series = orderedmap.New[*orderedmap.Map[float64]]()
	for key, values := range s.Series.All() {
		kept := orderedmap.New[float64]()
		for label, v := range values.All() {
			if !below(label) {
				kept.Set(label, v)
			}
		}
		out.Series.Set(key, kept)
	}
	return out
}

// StatusLine summarizes the year's registration status counts, e.g. "| new: 10 | paid: 20 |".
func StatusLine(m *dataset.Merged, year int) (string, error) {
	d, err := yearDataset(m, year)
	if err != nil {
		return "", err
	}
	line := "|"
	for status, count := range d.Breakdown(dataset.FieldStatus).All() {
		line += fmt.Sprintf(" %s: %d |", status, count)
	}
	return line, nil
}

func fraction(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func sortNumericLabels(labels []string) {
	nums := make(map[string]int, len(labels))
	for _, l := range labels {
		n, err := strconv.Atoi(l)
		if err != nil {
			return
		}
		nums[l] = n
	}
	slices.SortStableFunc(labels, func(a, b string) int {
		return nums[a] - nums[b]
	})
}
