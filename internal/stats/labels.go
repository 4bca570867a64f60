package stats

import (
	"fmt"
	"math"
	"strconv"

	"nosecounter/internal/dataset"
	"nosecounter/internal/orderedmap"
)

// LabelFormatter renders the data labels of a stacked, normalized chart as
// "<percent>% (<absolute count>)". The dataset is passed on every call.
type LabelFormatter struct {
	Field      dataset.Field
	Categories []string
}

// Format renders the label of one stacked segment. yearLabel is the "<Convention> (<Year>)"
// label of the bar, fraction the segment's share of that year's TotalCount. The count
// of the NotAvailable segment is recomputed as the year's remainder.
func (f LabelFormatter) Format(m *dataset.Merged, seriesKey, yearLabel string, fraction float64) string {
	return fmt.Sprintf("%s%% (%d)", formatRounded(fraction*100, 1), f.absolute(m, seriesKey, yearLabel))
}

func (f LabelFormatter) absolute(m *dataset.Merged, seriesKey, yearLabel string) int {
	d, ok := m.YearForLabel(yearLabel)
	if !ok {
		return 0
	}
	b := d.Breakdown(f.Field)
	if seriesKey != NotAvailable {
		count, _ := b.Get(seriesKey)
		return count
	}

	listed := 0
	for _, c := range f.Categories {
		count, _ := b.Get(c)
		listed += count
	}
	return max(d.TotalCount-listed, 0)
}

// Annotate attaches a formatted label to every point of a stacked series.
func (f LabelFormatter) Annotate(m *dataset.Merged, s ComposedSeries) ComposedSeries {
	s.Annotations = orderedmap.New[*orderedmap.Map[string]]()
	for key, values := range s.Series.All() {
		texts := orderedmap.New[string]()
		for label, v := range values.All() {
			texts.Set(label, f.Format(m, key, label, v))
		}
		s.Annotations.Set(key, texts)
	}
	return s
}

// PercentLabel formats a fraction as a percentage axis label, e.g. PercentLabel(0.25, 0) == "25%".
func PercentLabel(fraction float64, precision int) string {
	return formatRounded(fraction*100, precision) + "%"
}

// formatRounded rounds half away from zero and drops trailing zeros.
func formatRounded(v float64, precision int) string {
	p := math.Pow10(precision)
	return strconv.FormatFloat(math.Round(v*p)/p, 'f', -1, 64)
}
