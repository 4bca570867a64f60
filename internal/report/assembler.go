package report

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"nosecounter/internal/dataset"
	"nosecounter/internal/orderedmap"
	"nosecounter/internal/stats"
	"nosecounter/internal/visuals"
)

// Options configure a generation run.
type Options struct {
	Year      int
	Window    stats.RegistrationWindow
	OutputDir string

	TopCountryCount  int
	MinAge           int
	Genders          []string
	Sponsors         []string
	SpecialInterests []string
	ShirtSizes       []string

	BaseStyle   visuals.Style
	ChartStyles map[string]visuals.StyleOverride
}

// DefaultOptions returns the category lists and limits used by the Eurofurence registration system.
func DefaultOptions() Options {
	return Options{
		TopCountryCount:  10,
		MinAge:           18,
		Genders:          []string{"male", "female"},
		Sponsors:         []string{"normal", "sponsor", "supersponsor"},
		SpecialInterests: []string{"animator", "artist", "fursuiter", "musician"},
		ShirtSizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
		BaseStyle:        visuals.BaseStyle(),
	}
}

// Chart render outcomes, used as metric labels.
const (
	statusRendered = "rendered"
	statusReused   = "reused"
	statusFailed   = "failed"
)

// Assembler runs load, compose and render for one report.
type Assembler struct {
	Loader   *dataset.Loader
	Renderer visuals.Renderer // defaults to visuals.EChartsRenderer
	Options  Options
	Metrics  *Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

type composed struct {
	spec   ChartSpec
	series stats.ComposedSeries
}

// Generate loads the datasets, composes every chart and writes the artifacts.
// Load and composition failures abort the run; a chart that fails to render is
// logged and left with an empty reference.
func (a *Assembler) Generate(ctx context.Context) (*Report, error) {
	now := a.now()
	o := a.Options
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Int("year", o.Year).Logger()

	prevAt, prior := visuals.ArtifactExists(o.OutputDir, ChartRegistrations)
	refresh := stats.ShouldRefresh(now, o.Window, prior)
	logger.Debug().Bool("refresh", refresh).Bool("prior", prior).Msg("Registrations freshness decided")

	m, st, err := a.Loader.Load(ctx, o.Year, refresh)
	a.recordLoad(st)
	if err != nil {
		return nil, err
	}
	if a.Metrics != nil {
		a.Metrics.YearsLoaded.Set(float64(m.Len()))
	}

	status, err := stats.StatusLine(m, o.Year)
	if err != nil {
		return nil, err
	}

	specs := o.Plan()
	if refresh {
		specs = append([]ChartSpec{o.registrationsSpec()}, specs...)
	}

	plan := make([]composed, 0, len(specs))
	for _, spec := range specs {
		series, err := spec.Compose(m)
		if err != nil {
			return nil, err
		}
		plan = append(plan, composed{spec: spec, series: series})
	}

	r := &Report{
		RunID:                 runID,
		Year:                  o.Year,
		Years:                 m.Years(),
		RegistrationsInterval: stats.IntervalLabel(o.Window.Interval),
		Charts:                orderedmap.New[string](),
		Series:                orderedmap.New[stats.ComposedSeries](),
		StatusBar:             status,
	}

	if !refresh {
		r.Charts.Set(ChartRegistrations, visuals.ArtifactRef(visuals.ArtifactPath(o.OutputDir, ChartRegistrations), prevAt))
		a.Metrics.chart(statusReused)
		logger.Info().Str("chart", ChartRegistrations).Msg("Registration window closed, reusing chart")
	}

	for _, c := range plan {
		r.Series.Set(c.spec.Key, c.series)
		r.Charts.Set(c.spec.Key, a.render(c, now))
	}

	end := a.now()
	r.GeneratedAt = end
	r.Duration = end.Sub(now)
	if a.Metrics != nil {
		a.Metrics.GenerateDuration.Set(r.Duration.Seconds())
		a.Metrics.LastSuccess.Set(float64(end.Unix()))
	}

	logger.Info().
		Ints("years", r.Years).
		Int("charts", r.Charts.Len()).
		Dur("duration", r.Duration).
		Msg(r.Timing())
	return r, nil
}

func (a *Assembler) render(c composed, now time.Time) string {
	o := a.Options
	key := c.spec.Key

	base := o.BaseStyle
	base.ID = key
	base.Title = c.spec.Title
	style := visuals.Resolve(base, c.spec.Type, o.ChartStyles[key].Merge(c.spec.Style))

	ref, err := visuals.WriteChart(o.OutputDir, key, now, func(w io.Writer) error {
		return a.renderer().Render(w, c.spec.Type, c.series, style)
	})
	if err != nil {
		log.Warn().Err(err).Str("chart", key).Msg("Chart failed to render")
		a.Metrics.chart(statusFailed)
		return ""
	}
	log.Debug().Str("chart", key).Str("path", ref).Msg("Chart written")
	a.Metrics.chart(statusRendered)
	return ref
}

func (a *Assembler) recordLoad(st dataset.LoadStats) {
	if a.Metrics == nil {
		return
	}
	a.Metrics.ArchiveSkipped.Add(float64(len(st.Skipped)))
	if st.LiveErr != nil {
		a.Metrics.LiveFetchFailures.Inc()
	}
}

func (a *Assembler) renderer() visuals.Renderer {
	if a.Renderer != nil {
		return a.Renderer
	}
	return visuals.EChartsRenderer{}
}

func (a *Assembler) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
