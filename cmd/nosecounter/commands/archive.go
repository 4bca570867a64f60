package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"nosecounter/internal/apperr"
	"nosecounter/internal/dataset"
	"nosecounter/internal/regapi"
)

var (
	archiveYear  int
	archiveForce bool
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Fetch a year from the registration system and store it in the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		year := cfg.Year
		if archiveYear > 0 {
			year = archiveYear
		}

		target := filepath.Join(cfg.ArchiveDir, dataset.ArchiveFileName(year))
		if _, err := os.Stat(target); err == nil && !archiveForce {
			return apperr.WithPath(apperr.KindIO, "archive year", target, fmt.Errorf("already archived, use --force to replace"))
		}

		ds, err := regapi.NewClient(cfg.API).FetchYear(cmd.Context(), year, false)
		if err != nil {
			return err
		}
		path, err := dataset.SaveArchive(cfg.ArchiveDir, ds)
		if err != nil {
			return err
		}

		log.Info().Int("year", ds.Year).Str("path", path).Msg("Year archived")
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Archived %s with %s registrations to %s\n",
			ds.Label(), humanize.Comma(int64(ds.TotalCount)), path)
		return nil
	},
}

func init() {
	archiveCmd.Flags().IntVar(&archiveYear, "year", 0, "year to archive (default: the configured year)")
	archiveCmd.Flags().BoolVar(&archiveForce, "force", false, "replace an existing archive file")
}
