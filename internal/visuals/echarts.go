package visuals

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"nosecounter/internal/stats"
)

// stackName groups the series of a stacked bar chart.
const stackName = "total"

// missing is the ECharts placeholder for an absent data point.
const missing = "-"

// chart is any go-echarts chart that can write itself as an HTML document.
type chart interface {
	Render(w io.Writer) error
}

// EChartsRenderer renders interactive HTML charts with go-echarts.
type EChartsRenderer struct{}

var _ Renderer = EChartsRenderer{}

// Render builds the chart for kind and writes it to w.
func (EChartsRenderer) Render(w io.Writer, kind ChartType, series stats.ComposedSeries, style Style) error {
	c, err := Build(kind, series, style)
	if err != nil {
		return err
	}
	return c.Render(w)
}

// Build constructs the go-echarts chart for kind without rendering it.
func Build(kind ChartType, series stats.ComposedSeries, style Style) (chart, error) {
	switch kind {
	case ChartBar, ChartGroupedBar:
		return BuildBar(series, style), nil
	case ChartStackedBar:
		return BuildStackedBar(series, style), nil
	case ChartPieWithRemainder:
		return BuildPie(series, style), nil
	case ChartMultiSeriesScatter:
		return BuildScatter(series, style), nil
	case ChartLine:
		return BuildLine(series, style), nil
	default:
		return nil, fmt.Errorf("unsupported chart type %q", kind)
	}
}

func globalOpts(style Style, trigger string) []charts.GlobalOpts {
	opt := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       style.Title,
			ChartID:         style.ID,
			Width:           style.Width,
			Height:          style.Height,
			BackgroundColor: style.BackgroundColor,
			Theme:           style.Theme,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: trigger}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(style.ShowLegend),
			Type:   "scroll",
			Orient: "vertical",
			Right:  "0",
			Top:    "middle",
		}),
	}
	if style.Title != "" {
		opt = append(opt, charts.WithTitleOpts(opts.Title{Title: style.Title, Left: "center"}))
	}
	if style.ShowLegend {
		opt = append(opt, charts.WithGridOpts(opts.Grid{Right: "18%", ContainLabel: opts.Bool(true)}))
	} else {
		opt = append(opt, charts.WithGridOpts(opts.Grid{ContainLabel: opts.Bool(true)}))
	}
	return opt
}

func categoryAxis(style Style) opts.XAxis {
	return opts.XAxis{
		Type:      "category",
		AxisLabel: &opts.AxisLabel{Rotate: style.XAxisRotate, Interval: "0"},
	}
}

func itemColor(style Style, i int) []charts.SeriesOpts {
	if len(style.Colors) == 0 {
		return nil
	}
	return []charts.SeriesOpts{
		charts.WithItemStyleOpts(opts.ItemStyle{Color: style.Colors[i%len(style.Colors)]}),
	}
}

// BuildBar draws one bar per label and series. Absent points are left empty.
// With XAxisMin set, numeric labels below it are not drawn.
func BuildBar(series stats.ComposedSeries, style Style) *charts.Bar {
	if style.XAxisMin > 0 {
		series = stats.DropBelow(series, style.XAxisMin)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(style, "axis")...)
	bar.SetGlobalOptions(charts.WithXAxisOpts(categoryAxis(style)))
	bar.SetXAxis(series.Labels)

	i := 0
	for key, values := range series.Series.All() {
		data := make([]opts.BarData, len(series.Labels))
		for j, label := range series.Labels {
			if v, ok := values.Get(label); ok {
				data[j] = opts.BarData{Value: v}
			} else {
				data[j] = opts.BarData{Value: missing}
			}
		}
		bar.AddSeries(key, data, itemColor(style, i)...)
		i++
	}
	return bar
}

// BuildStackedBar stacks every series per label. With PercentAxis the fractions are
// drawn as percentages; with DataLabels the series annotations are printed on the segments.
func BuildStackedBar(series stats.ComposedSeries, style Style) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(style, "axis")...)
	bar.SetGlobalOptions(charts.WithXAxisOpts(categoryAxis(style)))
	if style.PercentAxis {
		bar.SetGlobalOptions(charts.WithYAxisOpts(opts.YAxis{
			Max:       100,
			AxisLabel: &opts.AxisLabel{Formatter: "{value}%"},
		}))
	}
	bar.SetXAxis(series.Labels)

	scale := 1.0
	if style.PercentAxis {
		scale = 100
	}

	i := 0
	for key, values := range series.Series.All() {
		texts, _ := series.Annotations.Get(key)
		data := make([]opts.BarData, len(series.Labels))
		for j, label := range series.Labels {
			v, ok := values.Get(label)
			if !ok {
				data[j] = opts.BarData{Value: missing}
				continue
			}
			data[j] = opts.BarData{Value: v * scale}
			if text, ok := texts.Get(label); ok {
				data[j].Name = text
			}
		}

		seriesOpts := []charts.SeriesOpts{charts.WithBarChartOpts(opts.BarChart{Stack: stackName})}
		if style.DataLabels && texts.Len() > 0 {
			seriesOpts = append(seriesOpts, charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Position:  "inside",
				Formatter: "{b}",
			}))
		}
		seriesOpts = append(seriesOpts, itemColor(style, i)...)
		bar.AddSeries(key, data, seriesOpts...)
		i++
	}
	return bar
}

// BuildPie draws the first series as slices named by label.
func BuildPie(series stats.ComposedSeries, style Style) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOpts(style, "item")...)

	var data []opts.PieData
	keys := series.SeriesKeys()
	if len(keys) > 0 {
		values, _ := series.Series.Get(keys[0])
		for i, label := range series.Labels {
			v, ok := values.Get(label)
			if !ok {
				continue
			}
			d := opts.PieData{Name: label, Value: v}
			if len(style.Colors) > 0 {
				d.ItemStyle = &opts.ItemStyle{Color: style.Colors[i%len(style.Colors)]}
			}
			data = append(data, d)
		}
	}

	name := series.Field
	if len(keys) > 0 {
		name = keys[0]
	}
	pie.AddSeries(name, data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(style.DataLabels),
				Formatter: "{b}: {c} ({d}%)",
			}),
			charts.WithPieChartOpts(opts.PieChart{Radius: style.PieRadius}),
		)
	return pie
}

// BuildScatter draws one series per key over a numeric x axis. Labels that are not
// numbers are skipped.
func BuildScatter(series stats.ComposedSeries, style Style) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(globalOpts(style, "item")...)

	xAxis := opts.XAxis{
		Type:      "value",
		AxisLabel: &opts.AxisLabel{Rotate: style.XAxisRotate},
	}
	if style.XAxisMin > 0 {
		xAxis.Min = style.XAxisMin
	}
	scatter.SetGlobalOptions(
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
	)

	i := 0
	for key, values := range series.Series.All() {
		data := make([]opts.ScatterData, 0, values.Len())
		for label, v := range values.All() {
			x, err := strconv.ParseFloat(label, 64)
			if err != nil {
				continue
			}
			data = append(data, opts.ScatterData{Value: []any{x, v}, SymbolSize: style.SymbolSize})
		}
		scatter.AddSeries(key, data, itemColor(style, i)...)
		i++
	}
	return scatter
}

// BuildLine draws every series as a line, filled below when AreaOpacity is set.
// When every label is a timestamp the x axis is a time axis, so gaps between
// points keep their real width; otherwise the labels are categories.
func BuildLine(series stats.ComposedSeries, style Style) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(style, "axis")...)

	times, timed := timeLabels(series.Labels)
	xAxis := categoryAxis(style)
	if timed {
		xAxis = opts.XAxis{Type: "time", AxisLabel: &opts.AxisLabel{Rotate: style.XAxisRotate}}
	} else {
		line.SetXAxis(series.Labels)
	}
	line.SetGlobalOptions(
		charts.WithXAxisOpts(xAxis),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	i := 0
	for key, values := range series.Series.All() {
		data := make([]opts.LineData, 0, len(series.Labels))
		for j, label := range series.Labels {
			v, ok := values.Get(label)
			switch {
			case timed && ok:
				data = append(data, opts.LineData{Value: []any{times[j], v}})
			case timed:
				// absent points have no position on a time axis
			case ok:
				data = append(data, opts.LineData{Value: v})
			default:
				data = append(data, opts.LineData{Value: missing})
			}
		}

		seriesOpts := itemColor(style, i)
		if len(style.Colors) > 0 {
			seriesOpts = append(seriesOpts,
				charts.WithLineStyleOpts(opts.LineStyle{Color: style.Colors[i%len(style.Colors)]}))
		}
		if style.AreaOpacity > 0 {
			seriesOpts = append(seriesOpts,
				charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(style.AreaOpacity)}))
		}
		line.AddSeries(key, data, seriesOpts...)
		i++
	}
	return line
}

// timeLabels parses every label as a timestamp and returns Unix milliseconds.
// It reports false if there are no labels or any label is not a timestamp.
func timeLabels(labels []string) ([]int64, bool) {
	if len(labels) == 0 {
		return nil, false
	}
	out := make([]int64, len(labels))
	for i, l := range labels {
		t, err := stats.ParseTimestamp(l)
		if err != nil {
			return nil, false
		}
		out[i] = t.UnixMilli()
	}
	return out, true
}
