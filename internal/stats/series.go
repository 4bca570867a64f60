package stats

import (
	"nosecounter/internal/orderedmap"
)

// NotAvailable labels registrations that did not state a value for a category.
const NotAvailable = "n/a"

// RegistrationsSeries is the series key of the registrations time series.
const RegistrationsSeries = "Registrations"

// Mode identifies how a ComposedSeries was derived.
type Mode string

const (
	ModeFlat              Mode = "flat"
	ModeGrouped           Mode = "grouped"
	ModeStackedNormalized Mode = "stacked-normalized"
	ModePieWithRemainder  Mode = "pie-with-remainder"
	ModeYearComparison    Mode = "year-comparison"
	ModeTimeSeries        Mode = "time-series"
)

// ComposedSeries is a chart-ready dataset: series key -> label -> value.
// A label missing from a series means "no data", which is distinct from zero.
type ComposedSeries struct {
	Field  string                                    `json:"field" yaml:"field"`
	Mode   Mode                                      `json:"mode" yaml:"mode"`
	Labels []string                                  `json:"labels" yaml:"labels"`
	Series *orderedmap.Map[*orderedmap.Map[float64]] `json:"series" yaml:"series"`
	Legend []string                                  `json:"legend,omitempty" yaml:"legend,omitempty"`

	// Annotations hold per-point label text (series key -> label -> text) for
	// renderers that print values on bars.
	Annotations *orderedmap.Map[*orderedmap.Map[string]] `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// Value returns the value of a series at a label.
func (s ComposedSeries) Value(seriesKey, label string) (float64, bool) {
	values, ok := s.Series.Get(seriesKey)
	if !ok {
		return 0, false
	}
	return values.Get(label)
}

// SeriesKeys returns the series keys in order.
func (s ComposedSeries) SeriesKeys() []string {
	return s.Series.Keys()
}

// Empty reports whether the series carries no data points.
func (s ComposedSeries) Empty() bool {
	for _, values := range s.Series.All() {
		if values.Len() > 0 {
			return false
		}
	}
	return true
}

func newSeries(field string, mode Mode) ComposedSeries {
	return ComposedSeries{
		Field:  field,
		Mode:   mode,
		Series: orderedmap.New[*orderedmap.Map[float64]](),
	}
}

// add sets a point, creating the series on first use.
func (s ComposedSeries) add(seriesKey, label string, v float64) {
	values, ok := s.Series.Get(seriesKey)
	if !ok {
		values = orderedmap.New[float64]()
		s.Series.Set(seriesKey, values)
	}
	values.Set(label, v)
}
