package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"nosecounter/internal/report"
)

var (
	genDump     string
	genTemplate string
	genOpen     bool
	genNoPage   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render all charts and the HTML report for the configured year",
	RunE: func(cmd *cobra.Command, args []string) error {
		var format report.Format
		if genDump != "" {
			var err error
			if format, err = report.ParseFormat(genDump); err != nil {
				return err
			}
		}

		metrics := report.NewMetrics()
		a := &report.Assembler{
			Loader:  cfg.Loader(),
			Options: cfg.ReportOptions(),
			Metrics: metrics,
		}
		r, err := a.Generate(cmd.Context())
		if err != nil {
			return err
		}

		var pageErr error
		page := ""
		if !genNoPage {
			tmpl := cfg.Template
			if genTemplate != "" {
				tmpl = genTemplate
			}
			page = cfg.ReportPath()
			if pageErr = report.WriteHTML(page, tmpl, r); pageErr != nil {
				log.Error().Err(pageErr).Str("path", page).Msg("Report page not written")
				page = ""
			}
		}

		if cfg.MetricsTextfile != "" {
			if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
				log.Warn().Err(err).Msg("Metrics not written")
			}
		}

		out := cmd.OutOrStdout()
		if format != "" {
			if err := report.Encode(out, r, format); err != nil {
				return err
			}
		} else {
			printSummary(out, r, page)
		}

		if genOpen && page != "" {
			if err := browser.OpenFile(page); err != nil {
				log.Warn().Err(err).Str("path", page).Msg("Could not open report in browser")
			}
		}
		return pageErr
	},
}

func printSummary(w io.Writer, r *report.Report, page string) {
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)

	ok.Fprintf(w, "Nosecounter %d: %d years, %s\n", r.Year, len(r.Years), r.StatusBar)
	for key, ref := range r.Charts.All() {
		if ref == "" {
			bad.Fprintf(w, "  %-20s not rendered\n", key)
			continue
		}
		fmt.Fprintf(w, "  %-20s %s\n", key, ref)
	}
	if page != "" {
		ok.Fprintf(w, "Report: %s\n", page)
	}
	warn.Fprintf(w, "%s at %s.\n", r.Timing(), r.GeneratedAt.Format(time.DateTime))
}

func init() {
	generateCmd.Flags().StringVar(&genDump, "dump", "", "write the report as json or yaml to stdout")
	generateCmd.Flags().StringVar(&genTemplate, "template", "", "HTML template for the report page (overrides config)")
	generateCmd.Flags().BoolVar(&genOpen, "open", false, "open the report page in the default browser")
	generateCmd.Flags().BoolVar(&genNoPage, "no-page", false, "only render the charts")
}
