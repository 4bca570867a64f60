// Package visuals renders composed series to chart artifacts.
//
// The interactive renderer writes self-contained go-echarts HTML documents; the
// mermaid renderer produces text charts for conversational clients.
package visuals

import (
	"fmt"
	"io"

	"nosecounter/internal/stats"
)

// ChartType selects how a composed series is drawn.
type ChartType string

const (
	ChartBar                ChartType = "bar"
	ChartGroupedBar         ChartType = "grouped-bar"
	ChartStackedBar         ChartType = "stacked-bar"
	ChartPieWithRemainder   ChartType = "pie-with-remainder"
	ChartMultiSeriesScatter ChartType = "multi-series-scatter"
	ChartLine               ChartType = "line"
)

// ChartTypes lists every supported chart type.
var ChartTypes = []ChartType{
	ChartBar, ChartGroupedBar, ChartStackedBar,
	ChartPieWithRemainder, ChartMultiSeriesScatter, ChartLine,
}

// ParseChartType validates a chart type name.
func ParseChartType(s string) (ChartType, error) {
	for _, t := range ChartTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown chart type %q", s)
}

// Renderer draws a composed series to w.
type Renderer interface {
	Render(w io.Writer, kind ChartType, series stats.ComposedSeries, style Style) error
}
