package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"nosecounter/internal/apperr"
)

// ErrNoData is returned when neither the archive nor the live source yields the requested year.
var ErrNoData = errors.New("no registration data available")

// LiveSource fetches the current year's statistics from the registration system.
type LiveSource interface {
	FetchYear(ctx context.Context, year int, withCreated bool) (*YearlyDataset, error)
}

// Loader merges archived years with the live year.
type Loader struct {
	ArchiveDir   string
	Source       LiveSource
	MaxYearCount int
}

// LoadStats summarizes what a Load call found, for logging and metrics.
type LoadStats struct {
	ArchiveFiles int
	Skipped      []error
	LiveErr      error
}

// Load reads the archive, fetches the live year and returns the windowed, sorted merge.
// Archive and live failures degrade; a missing target year does not.
func (l *Loader) Load(ctx context.Context, year int, withCreated bool) (*Merged, LoadStats, error) {
	var st LoadStats

	archive, skipped, err := LoadArchive(l.ArchiveDir)
	if err != nil {
		log.Warn().Err(err).Str("path", l.ArchiveDir).Msg("Archive unavailable, continuing with live data only")
		archive = map[int]*YearlyDataset{}
	}
	st.ArchiveFiles = len(archive)
	st.Skipped = skipped

	var live *YearlyDataset
	if l.Source != nil {
		live, err = l.Source.FetchYear(ctx, year, withCreated)
		if err != nil {
			st.LiveErr = err
			log.Warn().Err(err).Int("year", year).Msg("Live statistics unavailable, continuing with archived years")
		}
	}

	merged := Merge(archive, live)
	if _, ok := merged[year]; !ok {
		return nil, st, apperr.New(apperr.KindData, "load datasets", fmt.Errorf("year %d: %w", year, ErrNoData))
	}

	m := Window(merged, l.MaxYearCount)
	SortCountries(m)

	log.Info().
		Int("year", year).
		Ints("years", m.Years()).
		Int("archived", st.ArchiveFiles).
		Int("skipped", len(st.Skipped)).
		Bool("live", live != nil).
		Msg("Datasets loaded")

	return m, st, nil
}

// Merge combines archived years with the live record. Live wins for its year.
func Merge(archive map[int]*YearlyDataset, live *YearlyDataset) map[int]*YearlyDataset {
	out := make(map[int]*YearlyDataset, len(archive)+1)
	for y, d := range archive {
		out[y] = d
	}
	if live != nil {
		out[live.Year] = live
	}
	return out
}

// LoadArchive reads every regular, non-hidden file in dir as one YearlyDataset keyed by its embedded Year.
// Files that cannot be read, validated or decoded are skipped and returned as warnings.
// Files are visited in name order; a later file for the same year overrides an earlier one.
func LoadArchive(dir string) (map[int]*YearlyDataset, []error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, apperr.WithPath(apperr.KindIO, "read archive directory", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	years := make(map[int]*YearlyDataset, len(names))
	var skipped []error
	for _, name := range names {
		path := filepath.Join(dir, name)
		ds, err := ReadArchiveFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping archive file")
			skipped = append(skipped, err)
			continue
		}
		if prev, ok := years[ds.Year]; ok {
			log.Debug().Int("year", ds.Year).Str("path", path).Str("replaces", prev.Convention).Msg("Archive year overridden")
		}
		years[ds.Year] = ds
	}
	return years, skipped, nil
}

// ReadArchiveFile decodes and validates a single archive file.
func ReadArchiveFile(path string) (*YearlyDataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.WithPath(apperr.KindIO, "read archive file", path, err)
	}
	if err := Validate(raw); err != nil {
		return nil, apperr.WithPath(apperr.KindIO, "validate archive file", path, err)
	}

	var ds YearlyDataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, apperr.WithPath(apperr.KindIO, "decode archive file", path, err)
	}
	if ds.Year <= 0 {
		return nil, apperr.WithPath(apperr.KindIO, "validate archive file", path, fmt.Errorf("invalid year %d", ds.Year))
	}
	return &ds, nil
}
