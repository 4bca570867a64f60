// Package mcp exposes report generation and series composition as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"nosecounter/internal/dataset"
	"nosecounter/internal/report"
)

const (
	serverName    = "nosecounter"
	serverVersion = "1.0.0"
)

// Deps holds what the tools need to load and render data.
type Deps struct {
	Loader  *dataset.Loader
	Options report.Options
	Metrics *report.Metrics

	// Template and ReportFile control the HTML page written by generate_report.
	// An empty ReportFile skips the page.
	Template   string
	ReportFile string

	// EnableMermaidCharts makes compose_series and registrations append a mermaid block by default.
	EnableMermaidCharts bool

	Now func() time.Time
}

// Server wraps the MCP SDK server with the nosecounter tools.
type Server struct {
	inner *mcpsdk.Server
	deps  Deps

	// mu serializes tool calls; they share the output directory and metrics.
	mu sync.Mutex
}

// NewServer creates a server with all tools registered.
func NewServer(deps Deps) *Server {
	inner := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcpsdk.ServerOptions{})

	s := &Server{inner: inner, deps: deps}
	s.registerTools()
	return s
}

// Run serves on stdio until the context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, t mcpsdk.Transport) error {
	log.Info().Str("server", serverName).Msg("MCP server starting")
	if err := s.inner.Run(ctx, t); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolGenerateReport,
		Description: generateReportDescription,
	}, s.handleGenerateReport)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolComposeSeries,
		Description: composeSeriesDescription,
	}, s.handleComposeSeries)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolListYears,
		Description: listYearsDescription,
	}, s.handleListYears)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolRegistrations,
		Description: registrationsDescription,
	}, s.handleRegistrations)
}

func (s *Server) now() time.Time {
	if s.deps.Now != nil {
		return s.deps.Now()
	}
	return time.Now()
}

// options returns the configured options with the year overridden when year > 0.
func (s *Server) options(year int) report.Options {
	o := s.deps.Options
	if year > 0 {
		o.Year = year
	}
	return o
}

const (
	generateReportDescription = "Generate the registration statistics report: loads archived years and the " +
		"live year, renders every chart to the output directory and returns the chart paths, the status " +
		"bar and the years covered."

	composeSeriesDescription = "Compose the chart-ready series of one chart (e.g. gender, countryComparison, " +
		"ageComparison, registrations) without rendering it. Set mermaid to also get a text chart."

	listYearsDescription = "List the convention years available after merging the archive with the live year, " +
		"with their total registration counts."

	registrationsDescription = "Aggregate the registration timestamps of a year into per-interval counts " +
		"within the registration window."
)
