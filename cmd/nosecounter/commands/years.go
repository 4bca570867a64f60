package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"nosecounter/internal/dataset"
)

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "Show the convention years that would appear in the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := cfg.Loader()
		m, st, err := loader.Load(cmd.Context(), cfg.Year, false)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, yearsTable(m, cfg.Year, st.LiveErr == nil))

		warn := color.New(color.FgYellow)
		for _, skipped := range st.Skipped {
			warn.Fprintf(out, "skipped: %v\n", skipped)
		}
		if st.LiveErr != nil {
			warn.Fprintf(out, "live statistics unavailable: %v\n", st.LiveErr)
		}
		return nil
	},
}

func yearsTable(m *dataset.Merged, current int, live bool) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Year", "Convention", "Registrations", "Change", "Source"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	prev := 0
	for year, d := range m.All() {
		change := ""
		if prev > 0 {
			change = fmt.Sprintf("%+.1f%%", float64(d.TotalCount-prev)/float64(prev)*100)
		}
		source := "archive"
		if year == current && live {
			source = "live"
		}
		tbl.AppendRow(table.Row{year, d.Convention, humanize.Comma(int64(d.TotalCount)), change, source})
		prev = d.TotalCount
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d years", m.Len())})
	return tbl.Render()
}
