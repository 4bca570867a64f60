package visuals

// Style holds the presentation settings of one chart.
type Style struct {
	ID              string
	Title           string
	Width           string
	Height          string
	BackgroundColor string
	Theme           string
	Colors          []string
	ShowLegend      bool
	XAxisRotate     float64
	XAxisMin        int
	PercentAxis     bool
	DataLabels      bool
	AreaOpacity     float32
	SymbolSize      int
	PieRadius       string
}

// StyleOverride changes selected Style fields. Nil fields leave the layer below untouched.
type StyleOverride struct {
	Title           *string  `mapstructure:"title"`
	Width           *string  `mapstructure:"width"`
	Height          *string  `mapstructure:"height"`
	BackgroundColor *string  `mapstructure:"background_color"`
	Theme           *string  `mapstructure:"theme"`
	Colors          []string `mapstructure:"colors"`
	ShowLegend      *bool    `mapstructure:"show_legend"`
	XAxisRotate     *float64 `mapstructure:"x_axis_rotate"`
	XAxisMin        *int     `mapstructure:"x_axis_min"`
	PercentAxis     *bool    `mapstructure:"percent_axis"`
	DataLabels      *bool    `mapstructure:"data_labels"`
	AreaOpacity     *float32 `mapstructure:"area_opacity"`
	SymbolSize      *int     `mapstructure:"symbol_size"`
	PieRadius       *string  `mapstructure:"pie_radius"`
}

// BaseStyle is the bottom style layer shared by every chart.
func BaseStyle() Style {
	return Style{
		Width:           "1000px",
		Height:          "500px",
		BackgroundColor: "#eeeeee",
		Theme:           "white",
		ShowLegend:      true,
		SymbolSize:      6,
		PieRadius:       "65%",
	}
}

// TypeOverrides is the per-chart-type style layer.
func TypeOverrides(kind ChartType) StyleOverride {
	switch kind {
	case ChartBar:
		return StyleOverride{ShowLegend: Ptr(false)}
	case ChartStackedBar:
		return StyleOverride{PercentAxis: Ptr(true), DataLabels: Ptr(true)}
	case ChartPieWithRemainder:
		return StyleOverride{DataLabels: Ptr(true)}
	case ChartMultiSeriesScatter:
		return StyleOverride{SymbolSize: Ptr(8)}
	case ChartLine:
		return StyleOverride{
			ShowLegend:  Ptr(false),
			AreaOpacity: Ptr(float32(0.5)),
			Colors:      []string{"#e05a47"},
			XAxisRotate: Ptr(90.0),
		}
	default:
		return StyleOverride{}
	}
}

// Resolve layers the chart type defaults and then the chart's own override on top of base.
func Resolve(base Style, kind ChartType, chart StyleOverride) Style {
	return base.Apply(TypeOverrides(kind)).Apply(chart)
}

// Apply returns s with every field set in o replaced.
func (s Style) Apply(o StyleOverride) Style {
	setIf(&s.Title, o.Title)
	setIf(&s.Width, o.Width)
	setIf(&s.Height, o.Height)
	setIf(&s.BackgroundColor, o.BackgroundColor)
	setIf(&s.Theme, o.Theme)
	if o.Colors != nil {
		s.Colors = append([]string(nil), o.Colors...)
	}
	setIf(&s.ShowLegend, o.ShowLegend)
	setIf(&s.XAxisRotate, o.XAxisRotate)
	setIf(&s.XAxisMin, o.XAxisMin)
	setIf(&s.PercentAxis, o.PercentAxis)
	setIf(&s.DataLabels, o.DataLabels)
	setIf(&s.AreaOpacity, o.AreaOpacity)
	setIf(&s.SymbolSize, o.SymbolSize)
	setIf(&s.PieRadius, o.PieRadius)
	return s
}

// Merge returns o with every unset field taken from fallback.
func (o StyleOverride) Merge(fallback StyleOverride) StyleOverride {
	mergeIf(&o.Title, fallback.Title)
	mergeIf(&o.Width, fallback.Width)
	mergeIf(&o.Height, fallback.Height)
	mergeIf(&o.BackgroundColor, fallback.BackgroundColor)
	mergeIf(&o.Theme, fallback.Theme)
	if o.Colors == nil {
		o.Colors = fallback.Colors
	}
	mergeIf(&o.ShowLegend, fallback.ShowLegend)
	mergeIf(&o.XAxisRotate, fallback.XAxisRotate)
	mergeIf(&o.XAxisMin, fallback.XAxisMin)
	mergeIf(&o.PercentAxis, fallback.PercentAxis)
	mergeIf(&o.DataLabels, fallback.DataLabels)
	mergeIf(&o.AreaOpacity, fallback.AreaOpacity)
	mergeIf(&o.SymbolSize, fallback.SymbolSize)
	mergeIf(&o.PieRadius, fallback.PieRadius)
	return o
}

// Ptr returns a pointer to v, for building overrides in code.
func Ptr[T any](v T) *T { return &v }

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func mergeIf[T any](dst **T, fallback *T) {
	if *dst == nil {
		*dst = fallback
	}
}
