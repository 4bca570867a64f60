// Package report assembles the chart artifacts of one convention year.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nosecounter/internal/orderedmap"
	"nosecounter/internal/stats"
)

// Report is the result of one generation run.
type Report struct {
	RunID                 string                                `json:"run_id" yaml:"run_id"`
	Year                  int                                   `json:"year" yaml:"year"`
	Years                 []int                                 `json:"years" yaml:"years"`
	RegistrationsInterval string                                `json:"registrations_interval" yaml:"registrations_interval"`
	Charts                *orderedmap.Map[string]               `json:"charts" yaml:"charts"`
	Series                *orderedmap.Map[stats.ComposedSeries] `json:"series,omitempty" yaml:"series,omitempty"`
	StatusBar             string                                `json:"status_bar" yaml:"status_bar"`
	GeneratedAt           time.Time                             `json:"generated_at" yaml:"generated_at"`
	Duration              time.Duration                         `json:"duration" yaml:"duration"`
}

// Section is one collapsible chart block of the HTML report.
type Section struct {
	ID    string
	Key   string
	Title string
	Ref   string
}

var sectionOrder = []struct{ id, key, title string }{
	{"nosecounter-regs", ChartRegistrations, "Registrations per %s"},
	{"nosecounter-status", ChartStatus, "Attendance by Status"},
	{"nosecounter-country", ChartCountry, "Attendance by Country"},
	{"nosecounter-country-cmp", ChartCountryComparison, "Attendance by Country (Comparison)"},
	{"nosecounter-gender", ChartGender, "Attendance by Gender"},
	{"nosecounter-gender-cmp", ChartGenderComparison, "Attendance by Gender (Comparison)"},
	{"nosecounter-sponsors", ChartSponsors, "Sponsors"},
	{"nosecounter-sponsors-cmp", ChartSponsorsComparison, "Sponsors (Comparison)"},
	{"nosecounter-age", ChartAge, "Age Distribution"},
	{"nosecounter-age-cmp", ChartAgeComparison, "Age Distribution (Comparison)"},
	{"nosecounter-demographics", ChartDemographics, "Demographics (Comparison)"},
	{"nosecounter-shirts", ChartShirts, "T-Shirt Sizes (Comparison)"},
}

// Sections lists the report's charts in page order. Charts that failed to render
// keep their section with an empty reference.
func (r *Report) Sections() []Section {
	out := make([]Section, 0, len(sectionOrder))
	for _, s := range sectionOrder {
		if !r.Charts.Has(s.key) {
			continue
		}
		title := s.title
		if s.key == ChartRegistrations {
			title = fmt.Sprintf(title, r.RegistrationsInterval)
		}
		ref, _ := r.Charts.Get(s.key)
		out = append(out, Section{ID: s.id, Key: s.key, Title: title, Ref: ref})
	}
	return out
}

// Chart returns the artifact reference of a chart key, empty if it is missing.
func (r *Report) Chart(key string) string {
	ref, _ := r.Charts.Get(key)
	return ref
}

// Timing renders the run duration the way the page footer shows it.
func (r *Report) Timing() string {
	return fmt.Sprintf("Generated in %d ms", r.Duration.Milliseconds())
}

// Format selects a report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an encoding name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json or yaml)", s)
	}
}

// Encode writes the report in the given format.
func Encode(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
