package visuals

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"nosecounter/internal/stats"
)

// Mermaid renders a composed series as a mermaid block. Pie charts become a mermaid pie,
// everything else an xychart-beta with one bar or line row per series.
func Mermaid(kind ChartType, title string, series stats.ComposedSeries) string {
	if series.Empty() {
		return ""
	}
	if kind == ChartPieWithRemainder {
		return mermaidPie(title, series)
	}

	labels := series.Labels
	if kind == ChartMultiSeriesScatter {
		labels = numericLabels(series.Labels)
	}
	scale := 1.0
	yAxis := "Registrations"
	if kind == ChartStackedBar {
		scale = 100
		yAxis = "Percent"
	}

	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("\"%s\"", sanitize(l))
	}

	row := "bar"
	if kind == ChartLine || kind == ChartMultiSeriesScatter {
		row = "line"
	}

	// xychart-beta overlays bar rows, so stacked segments are drawn as running
	// totals, tallest first.
	stacked := kind == ChartStackedBar
	running := make([]float64, len(labels))

	maxVal := 0.0
	var rows []string
	for _, values := range series.Series.All() {
		points := make([]string, len(labels))
		for i, label := range labels {
			v, _ := values.Get(label)
			if stacked {
				running[i] += v
				v = running[i]
			}
			v *= scale
			points[i] = strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
			maxVal = math.Max(maxVal, v)
		}
		rows = append(rows, fmt.Sprintf("    %s [%s]\n", row, strings.Join(points, ", ")))
	}
	if stacked {
		slices.Reverse(rows)
		maxVal = 100
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", sanitize(title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(quoted, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" 0 --> %d\n", yAxis, axisMax(maxVal)))
	for _, r := range rows {
		sb.WriteString(r)
	}
	sb.WriteString("```")
	return sb.String()
}

func mermaidPie(title string, series stats.ComposedSeries) string {
	keys := series.SeriesKeys()
	values, _ := series.Series.Get(keys[0])

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", sanitize(title)))
	for _, label := range series.Labels {
		if v, ok := values.Get(label); ok {
			sb.WriteString(fmt.Sprintf("    \"%s\" : %s\n", sanitize(label), strconv.FormatFloat(v, 'f', -1, 64)))
		}
	}
	sb.WriteString("```")
	return sb.String()
}

// axisMax leaves 10% headroom above the largest value, rounded to six decimals
// before the ceiling.
func axisMax(v float64) int {
	return int(math.Ceil(math.Round(v*1.1*1e6) / 1e6))
}

// numericLabels keeps the labels that parse as numbers, for value axes.
func numericLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, err := strconv.ParseFloat(l, 64); err == nil {
			out = append(out, l)
		}
	}
	return out
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
