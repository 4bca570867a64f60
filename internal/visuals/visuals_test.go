package visuals

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/opts"

	"nosecounter/internal/orderedmap"
	"nosecounter/internal/stats"
)

func genderSeries() stats.ComposedSeries {
	male := orderedmap.FromEntries(
		orderedmap.Entry[float64]{Key: "Eurofurence (2016)", Value: 0.75},
		orderedmap.Entry[float64]{Key: "Eurofurence (2017)", Value: 0.5},
	)
	female := orderedmap.FromEntries(
		orderedmap.Entry[float64]{Key: "Eurofurence (2016)", Value: 0.25},
		orderedmap.Entry[float64]{Key: "Eurofurence (2017)", Value: 0.5},
	)
	series := orderedmap.New[*orderedmap.Map[float64]]()
	series.Set("male", male)
	series.Set("female", female)

	notes := orderedmap.New[*orderedmap.Map[string]]()
	notes.Set("male", orderedmap.FromEntries(orderedmap.Entry[string]{Key: "Eurofurence (2017)", Value: "50% (1300)"}))

	return stats.ComposedSeries{
		Field:       "Gender",
		Mode:        stats.ModeStackedNormalized,
		Labels:      []string{"Eurofurence (2016)", "Eurofurence (2017)"},
		Series:      series,
		Legend:      []string{"male", "female"},
		Annotations: notes,
	}
}

func pieSeries() stats.ComposedSeries {
	values := orderedmap.FromEntries(
		orderedmap.Entry[float64]{Key: "male", Value: 1700},
		orderedmap.Entry[float64]{Key: "female", Value: 700},
		orderedmap.Entry[float64]{Key: stats.NotAvailable, Value: 200},
	)
	series := orderedmap.New[*orderedmap.Map[float64]]()
	series.Set("Gender", values)
	return stats.ComposedSeries{
		Field:  "Gender",
		Mode:   stats.ModePieWithRemainder,
		Labels: []string{"male", "female", stats.NotAvailable},
		Series: series,
	}
}

func TestResolve_Layering(t *testing.T) {
	base := BaseStyle()

	got := Resolve(base, ChartStackedBar, StyleOverride{Height: Ptr("600px"), PercentAxis: Ptr(false)})
	if got.Height != "600px" {
		t.Errorf("Height = %q, want per-chart override", got.Height)
	}
	if got.PercentAxis {
		t.Error("per-chart override must win over the chart type layer")
	}
	if !got.DataLabels {
		t.Error("chart type layer lost")
	}
	if got.Width != base.Width {
		t.Errorf("Width = %q, want base %q", got.Width, base.Width)
	}

	line := Resolve(base, ChartLine, StyleOverride{})
	if line.AreaOpacity != 0.5 || line.ShowLegend {
		t.Errorf("line style = %+v", line)
	}
	if base.AreaOpacity != 0 {
		t.Error("Resolve modified the base style")
	}
}

func TestStyleOverride_Merge(t *testing.T) {
	chart := StyleOverride{Width: Ptr("800px")}
	fallback := StyleOverride{Width: Ptr("1200px"), Height: Ptr("300px"), Colors: []string{"#000"}}

	got := chart.Merge(fallback)
	if *got.Width != "800px" || *got.Height != "300px" || len(got.Colors) != 1 {
		t.Errorf("Merge() = %+v", got)
	}
}

func TestBuildStackedBar_PercentAndLabels(t *testing.T) {
	style := Resolve(BaseStyle(), ChartStackedBar, StyleOverride{})
	bar := BuildStackedBar(genderSeries(), style)

	if len(bar.MultiSeries) != 2 {
		t.Fatalf("series = %d, want 2", len(bar.MultiSeries))
	}
	data, ok := bar.MultiSeries[0].Data.([]opts.BarData)
	if !ok {
		t.Fatalf("unexpected data type %T", bar.MultiSeries[0].Data)
	}
	if data[0].Value != 75.0 {
		t.Errorf("male 2016 = %v, want 75", data[0].Value)
	}
	if data[1].Name != "50% (1300)" {
		t.Errorf("male 2017 label = %q", data[1].Name)
	}
}

func TestBuildBar_MissingPoints(t *testing.T) {
	s := genderSeries()
	female, _ := s.Series.Get("female")
	female.Delete("Eurofurence (2016)")

	bar := BuildBar(s, Resolve(BaseStyle(), ChartGroupedBar, StyleOverride{}))
	data := bar.MultiSeries[1].Data.([]opts.BarData)
	if data[0].Value != missing {
		t.Errorf("missing point = %v, want %q", data[0].Value, missing)
	}
	if data[1].Value != 0.5 {
		t.Errorf("present point = %v", data[1].Value)
	}
}

func TestBuildBar_XAxisMinClampsNumericLabels(t *testing.T) {
	values := orderedmap.FromEntries(
		orderedmap.Entry[float64]{Key: "17", Value: 12},
		orderedmap.Entry[float64]{Key: "18", Value: 160},
		orderedmap.Entry[float64]{Key: "25", Value: 400},
	)
	series := orderedmap.New[*orderedmap.Map[float64]]()
	series.Set("Age", values)
	s := stats.ComposedSeries{Field: "Age", Mode: stats.ModeFlat, Labels: []string{"17", "18", "25"}, Series: series}

	style := Resolve(BaseStyle(), ChartBar, StyleOverride{XAxisMin: Ptr(18)})
	data := BuildBar(s, style).MultiSeries[0].Data.([]opts.BarData)
	if len(data) != 2 || data[0].Value != 160.0 {
		t.Errorf("bars = %+v, want ages 18 and 25 only", data)
	}
	if !values.Has("17") {
		t.Error("clamping modified the series")
	}
}

func TestBuildLine_TimeAxisKeepsGaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2017, 1, 14, h, 0, 0, 0, time.UTC) }
	s := stats.BucketSeries([]stats.Bucket{
		{End: at(4), Count: 7},
		{End: at(5), Count: 0},
		{End: at(24), Count: 1},
	}, stats.TimestampLayout)

	line := BuildLine(s, Resolve(BaseStyle(), ChartLine, StyleOverride{}))
	if got := line.XAxisList[0].Type; got != "time" {
		t.Fatalf("x axis type = %q, want time", got)
	}

	data := line.MultiSeries[0].Data.([]opts.LineData)
	if len(data) != 3 {
		t.Fatalf("points = %d, want 3", len(data))
	}
	last := data[2].Value.([]any)
	if last[0] != at(24).UnixMilli() || last[1] != 1.0 {
		t.Errorf("last point = %v", last)
	}
	gap := last[0].(int64) - data[1].Value.([]any)[0].(int64)
	if gap != (19 * time.Hour).Milliseconds() {
		t.Errorf("gap = %d ms, want 19h", gap)
	}
}

func TestBuildLine_CategoryLabels(t *testing.T) {
	line := BuildLine(genderSeries(), Resolve(BaseStyle(), ChartLine, StyleOverride{}))
	if got := line.XAxisList[0].Type; got != "category" {
		t.Errorf("x axis type = %q, want category", got)
	}
	data := line.MultiSeries[0].Data.([]opts.LineData)
	if len(data) != 2 || data[0].Value != 0.75 {
		t.Errorf("points = %+v", data)
	}
}

func TestBuildPie(t *testing.T) {
	pie := BuildPie(pieSeries(), Resolve(BaseStyle(), ChartPieWithRemainder, StyleOverride{}))
	data := pie.MultiSeries[0].Data.([]opts.PieData)
	if len(data) != 3 {
		t.Fatalf("slices = %d, want 3", len(data))
	}
	if data[2].Name != stats.NotAvailable {
		t.Errorf("last slice = %q", data[2].Name)
	}
}

func TestEChartsRenderer_Render(t *testing.T) {
	for _, kind := range ChartTypes {
		t.Run(string(kind), func(t *testing.T) {
			s := genderSeries()
			if kind == ChartPieWithRemainder {
				s = pieSeries()
			}
			style := Resolve(BaseStyle(), kind, StyleOverride{})
			style.ID = "gender"

			var buf bytes.Buffer
			if err := (EChartsRenderer{}).Render(&buf, kind, s, style); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.Contains(buf.String(), "female") {
				t.Error("rendered chart does not mention its series")
			}
		})
	}

	if err := (EChartsRenderer{}).Render(io.Discard, ChartType("radar"), genderSeries(), BaseStyle()); err == nil {
		t.Error("expected error for unsupported chart type")
	}
}

func TestWriteChart(t *testing.T) {
	dir := t.TempDir()
	now := time.Unix(1500000000, 0)

	ref, err := WriteChart(dir, "gender", now, func(w io.Writer) error {
		_, err := io.WriteString(w, "<html></html>")
		return err
	})
	if err != nil {
		t.Fatalf("WriteChart() error = %v", err)
	}
	want := filepath.Join(dir, "gender.html") + "?t=1500000000"
	if ref != want {
		t.Errorf("ref = %q, want %q", ref, want)
	}
	if _, ok := ArtifactExists(dir, "gender"); !ok {
		t.Error("ArtifactExists() = false after write")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("output dir holds %d files, want only the chart", len(entries))
	}
}

func TestWriteChart_RenderFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteChart(dir, "age", time.Now(), func(io.Writer) error {
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := ArtifactExists(dir, "age"); ok {
		t.Error("failed render left an artifact behind")
	}
}

func TestMermaid(t *testing.T) {
	pie := Mermaid(ChartPieWithRemainder, "Gender", pieSeries())
	if !strings.HasPrefix(pie, "```mermaid\npie title Gender\n") {
		t.Errorf("pie = %q", pie)
	}
	if !strings.Contains(pie, "\"n/a\" : 200") {
		t.Errorf("pie lacks the remainder slice: %q", pie)
	}

	stacked := Mermaid(ChartStackedBar, "Gender Comparison", genderSeries())
	for _, want := range []string{"xychart-beta", "    bar [100, 100]\n    bar [75, 50]\n", "0 --> 110"} {
		if !strings.Contains(stacked, want) {
			t.Errorf("stacked chart lacks %q:\n%s", want, stacked)
		}
	}

	if got := Mermaid(ChartBar, "Empty", stats.ComposedSeries{Series: orderedmap.New[*orderedmap.Map[float64]]()}); got != "" {
		t.Errorf("empty series rendered %q", got)
	}
}

func TestAxisMax(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{100, 110},
		{10, 11},
		{7, 8},
		{0, 0},
		{33.3, 37},
	}
	for _, tt := range tests {
		if got := axisMax(tt.in); got != tt.want {
			t.Errorf("axisMax(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseChartType(t *testing.T) {
	if k, err := ParseChartType("stacked-bar"); err != nil || k != ChartStackedBar {
		t.Errorf("ParseChartType = %v, %v", k, err)
	}
	if _, err := ParseChartType("donut"); err == nil {
		t.Error("expected error")
	}
}
