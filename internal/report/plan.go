package report

import (
	"fmt"

	"nosecounter/internal/apperr"
	"nosecounter/internal/dataset"
	"nosecounter/internal/stats"
	"nosecounter/internal/visuals"
)

// Chart keys of the generated report.
const (
	ChartAge                = "age"
	ChartAgeComparison      = "ageComparison"
	ChartCountry            = "country"
	ChartCountryComparison  = "countryComparison"
	ChartDemographics       = "demographics"
	ChartGender             = "gender"
	ChartGenderComparison   = "genderComparison"
	ChartRegistrations      = "registrations"
	ChartShirts             = "shirts"
	ChartSponsors           = "sponsors"
	ChartSponsorsComparison = "sponsorsComparison"
	ChartStatus             = "status"
)

// ChartKeys lists every chart of a report.
var ChartKeys = []string{
	ChartAge, ChartAgeComparison, ChartCountry, ChartCountryComparison,
	ChartDemographics, ChartGender, ChartGenderComparison, ChartRegistrations,
	ChartShirts, ChartSponsors, ChartSponsorsComparison, ChartStatus,
}

// ChartSpec describes one chart of the report.
type ChartSpec struct {
	Key     string
	Title   string
	Type    visuals.ChartType
	Style   visuals.StyleOverride
	Compose func(m *dataset.Merged) (stats.ComposedSeries, error)
}

// Plan lists the charts of a report in key order. Registrations are handled by the
// assembler because they depend on the freshness decision.
func (o Options) Plan() []ChartSpec {
	year := o.Year

	stacked := func(field dataset.Field, categories []string) func(*dataset.Merged) (stats.ComposedSeries, error) {
		return func(m *dataset.Merged) (stats.ComposedSeries, error) {
			f := stats.LabelFormatter{Field: field, Categories: categories}
			return f.Annotate(m, stats.StackedNormalized(m, field, categories)), nil
		}
	}

	return []ChartSpec{
		{
			Key: ChartAge, Title: "Age Distribution", Type: visuals.ChartBar,
			Style: visuals.StyleOverride{XAxisRotate: visuals.Ptr(90.0), XAxisMin: visuals.Ptr(o.MinAge)},
			Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
				return stats.Flat(m, year, dataset.FieldAge)
			},
		},
		{
			Key: ChartAgeComparison, Title: "Age Distribution (Comparison)", Type: visuals.ChartMultiSeriesScatter,
			Style: visuals.StyleOverride{XAxisMin: visuals.Ptr(o.MinAge)},
			Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
				return stats.CompareYears(m, dataset.FieldAge), nil
			},
		},
		{
			Key: ChartCountry, Title: "Attendance by Country", Type: visuals.ChartBar,
			Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
				return stats.Flat(m, year, dataset.FieldCountry)
			},
		},
		{
			Key: ChartCountryComparison, Title: "Attendance by Country (Comparison)", Type: visuals.ChartGroupedBar,
			Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
				top, err := stats.TopCategories(m, year, dataset.FieldCountry, o.TopCountryCount)
				if err != nil {
					return stats.ComposedSeries{}, err
				}
				return stats.Grouped(m, dataset.FieldCountry, top), nil
			},
		},
		{
			Key: ChartDemographics, Title: "Demographics (Comparison)", Type: visuals.ChartGroupedBar,
			Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
				return stats.Grouped(m, dataset.FieldSpecialInterest, o.SpecialInterests), nil
			},
		},
		{
			Key: ChartGender, Title: "Attendance by Gender", Type: visuals.ChartPieWithRemainder,
			Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
				return stats.PieWithRemainder(m, year, dataset.FieldGender)
			},
		},
		{
			Key: ChartGenderComparison, Title: "Attendance by Gender (Comparison)", Type: visuals.ChartStackedBar,
			Compose: stacked(dataset.FieldGender, o.Genders),
		},
		{
			Key: ChartShirts, Title: "T-Shirt Sizes (Comparison)", Type: visuals.ChartStackedBar,
			Compose: stacked(dataset.FieldShirtSize, o.ShirtSizes),
		},
		{
			Key: ChartSponsors, Title: "Sponsors", Type: visuals.ChartPieWithRemainder,
			Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
				return stats.PieWithRemainder(m, year, dataset.FieldSponsor)
			},
		},
		{
			Key: ChartSponsorsComparison, Title: "Sponsors (Comparison)", Type: visuals.ChartStackedBar,
			Compose: stacked(dataset.FieldSponsor, o.Sponsors),
		},
		{
			Key: ChartStatus, Title: "Attendance by Status", Type: visuals.ChartBar,
			Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
				return stats.Flat(m, year, dataset.FieldStatus)
			},
		},
	}
}

// FindChart returns the plan entry of a chart key, including registrations.
func (o Options) FindChart(key string) (ChartSpec, bool) {
	if key == ChartRegistrations {
		return o.registrationsSpec(), true
	}
	for _, spec := range o.Plan() {
		if spec.Key == key {
			return spec, true
		}
	}
	return ChartSpec{}, false
}

func (o Options) registrationsSpec() ChartSpec {
	return ChartSpec{
		Key:   ChartRegistrations,
		Title: "Registrations per " + stats.IntervalLabel(o.Window.Interval),
		Type:  visuals.ChartLine,
		Compose: func(m *dataset.Merged) (stats.ComposedSeries, error) {
			d, ok := m.Get(o.Year)
			if !ok {
				return stats.ComposedSeries{}, apperr.New(apperr.KindData, "compose registrations",
					fmt.Errorf("year %d: %w", o.Year, dataset.ErrNoData))
			}
			buckets, err := stats.AggregateIntervals(d.Created, o.Window)
			if err != nil {
				return stats.ComposedSeries{}, err
			}
			return stats.BucketSeries(buckets, stats.TimestampLayout), nil
		},
	}
}
