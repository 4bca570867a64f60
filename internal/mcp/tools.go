package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"nosecounter/internal/apperr"
	"nosecounter/internal/dataset"
	"nosecounter/internal/report"
	"nosecounter/internal/stats"
	"nosecounter/internal/visuals"
)

// Tool names.
const (
	ToolGenerateReport = "generate_report"
	ToolComposeSeries  = "compose_series"
	ToolListYears      = "list_years"
	ToolRegistrations  = "registrations"
)

// GenerateReportInput is the input of generate_report.
type GenerateReportInput struct {
	Year int `json:"year,omitempty" jsonschema:"convention year to report on (default: the configured year)"`
}

// ComposeSeriesInput is the input of compose_series.
type ComposeSeriesInput struct {
	Chart   string `json:"chart" jsonschema:"chart key, one of age ageComparison country countryComparison demographics gender genderComparison registrations shirts sponsors sponsorsComparison status"`
	Year    int    `json:"year,omitempty" jsonschema:"convention year (default: the configured year)"`
	Mermaid *bool  `json:"mermaid,omitempty" jsonschema:"append a mermaid chart (default: server setting)"`
}

// ListYearsInput is the input of list_years.
type ListYearsInput struct {
	Year int `json:"year,omitempty" jsonschema:"current convention year (default: the configured year)"`
}

// RegistrationsInput is the input of registrations.
type RegistrationsInput struct {
	Year    int   `json:"year,omitempty" jsonschema:"convention year (default: the configured year)"`
	Mermaid *bool `json:"mermaid,omitempty" jsonschema:"append a mermaid chart (default: server setting)"`
}

// response is the envelope every tool returns.
type response struct {
	Data     any      `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, any, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, nil, nil
}

func jsonResult(resp response, mermaid string) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}
	content := []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}}
	if mermaid != "" {
		content = append(content, &mcpsdk.TextContent{Text: mermaid})
	}
	return &mcpsdk.CallToolResult{Content: content}, nil, nil
}

func (s *Server) handleGenerateReport(ctx context.Context, _ *mcpsdk.CallToolRequest, in GenerateReportInput) (*mcpsdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := &report.Assembler{
		Loader:  s.deps.Loader,
		Options: s.options(in.Year),
		Metrics: s.deps.Metrics,
		Now:     s.deps.Now,
	}
	r, err := a.Generate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("generate_report failed")
		return errorResult(err)
	}

	var warnings []string
	for key, ref := range r.Charts.All() {
		if ref == "" {
			warnings = append(warnings, fmt.Sprintf("chart %s could not be rendered", key))
		}
	}

	page := ""
	if s.deps.ReportFile != "" {
		if err := report.WriteHTML(s.deps.ReportFile, s.deps.Template, r); err != nil {
			warnings = append(warnings, err.Error())
		} else {
			page = s.deps.ReportFile
		}
	}

	return jsonResult(response{
		Data: map[string]any{
			"run_id":                 r.RunID,
			"year":                   r.Year,
			"years":                  r.Years,
			"registrations_interval": r.RegistrationsInterval,
			"status_bar":             r.StatusBar,
			"charts":                 r.Charts,
			"report_file":            page,
			"generated":              r.Timing(),
		},
		Warnings: warnings,
	}, "")
}

func (s *Server) handleComposeSeries(ctx context.Context, _ *mcpsdk.CallToolRequest, in ComposeSeriesInput) (*mcpsdk.CallToolResult, any, error) {
	o := s.options(in.Year)
	spec, ok := o.FindChart(in.Chart)
	if !ok {
		return errorResult(fmt.Errorf("unknown chart %q, available: %v", in.Chart, report.ChartKeys))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, st, err := s.deps.Loader.Load(ctx, o.Year, spec.Key == report.ChartRegistrations)
	if err != nil {
		return errorResult(err)
	}
	series, err := spec.Compose(m)
	if err != nil {
		return errorResult(err)
	}

	mermaid := ""
	if s.wantMermaid(in.Mermaid) {
		mermaid = visuals.Mermaid(spec.Type, spec.Title, series)
	}
	return jsonResult(response{
		Data: map[string]any{
			"chart":  spec.Key,
			"title":  spec.Title,
			"type":   spec.Type,
			"series": series,
		},
		Warnings: loadWarnings(st),
	}, mermaid)
}

type yearSummary struct {
	Year       int    `json:"year"`
	Label      string `json:"label"`
	TotalCount int    `json:"total_count"`
	Live       bool   `json:"live"`
}

func (s *Server) handleListYears(ctx context.Context, _ *mcpsdk.CallToolRequest, in ListYearsInput) (*mcpsdk.CallToolResult, any, error) {
	o := s.options(in.Year)

	s.mu.Lock()
	defer s.mu.Unlock()

	m, st, err := s.deps.Loader.Load(ctx, o.Year, false)
	if err != nil {
		return errorResult(err)
	}

	years := make([]yearSummary, 0, m.Len())
	for year, d := range m.All() {
		years = append(years, yearSummary{
			Year:       year,
			Label:      d.Label(),
			TotalCount: d.TotalCount,
			Live:       year == o.Year && st.LiveErr == nil && s.deps.Loader.Source != nil,
		})
	}
	return jsonResult(response{Data: years, Warnings: loadWarnings(st)}, "")
}

type bucketOut struct {
	End   string `json:"end"`
	Count int    `json:"count"`
}

func (s *Server) handleRegistrations(ctx context.Context, _ *mcpsdk.CallToolRequest, in RegistrationsInput) (*mcpsdk.CallToolResult, any, error) {
	o := s.options(in.Year)

	s.mu.Lock()
	defer s.mu.Unlock()

	m, st, err := s.deps.Loader.Load(ctx, o.Year, true)
	if err != nil {
		return errorResult(err)
	}
	d, _ := m.Get(o.Year)
	buckets, err := stats.AggregateIntervals(d.Created, o.Window)
	if err != nil {
		return errorResult(apperr.New(apperr.KindConfig, "aggregate registrations", err))
	}

	out := make([]bucketOut, len(buckets))
	total := 0
	for i, b := range buckets {
		out[i] = bucketOut{End: b.End.Format(stats.TimestampLayout), Count: b.Count}
		total += b.Count
	}

	mermaid := ""
	if s.wantMermaid(in.Mermaid) {
		title := "Registrations per " + stats.IntervalLabel(o.Window.Interval)
		mermaid = visuals.Mermaid(visuals.ChartLine, title, stats.BucketSeries(buckets, time.DateTime))
	}
	return jsonResult(response{
		Data: map[string]any{
			"year":     o.Year,
			"interval": stats.IntervalLabel(o.Window.Interval),
			"open":     o.Window.Contains(s.now()),
			"total":    total,
			"buckets":  out,
		},
		Warnings: loadWarnings(st),
	}, mermaid)
}

func (s *Server) wantMermaid(requested *bool) bool {
	if requested != nil {
		return *requested
	}
	return s.deps.EnableMermaidCharts
}

func loadWarnings(st dataset.LoadStats) []string {
	var out []string
	for _, err := range st.Skipped {
		out = append(out, err.Error())
	}
	if st.LiveErr != nil {
		out = append(out, "live statistics unavailable: "+st.LiveErr.Error())
	}
	return out
}
