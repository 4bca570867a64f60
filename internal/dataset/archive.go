package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"nosecounter/internal/apperr"
)

// ArchiveFileName returns the conventional archive file name for a year.
func ArchiveFileName(year int) string {
	return fmt.Sprintf("%d.json", year)
}

// SaveArchive writes ds as <dir>/<Year>.json. The write goes through a temp file and
// a rename so a concurrent LoadArchive never sees a partial file.
func SaveArchive(dir string, ds *YearlyDataset) (string, error) {
	if ds == nil || ds.Year <= 0 {
		return "", apperr.New(apperr.KindData, "save archive", fmt.Errorf("dataset without a year"))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperr.WithPath(apperr.KindIO, "create archive directory", dir, err)
	}

	// The live-only Created series is not archived.
	cp := *ds
	cp.Created = nil

	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return "", apperr.New(apperr.KindData, "encode archive", err)
	}

	path := filepath.Join(dir, ArchiveFileName(ds.Year))
	tmp, err := os.CreateTemp(dir, ".archive-*.tmp")
	if err != nil {
		return "", apperr.WithPath(apperr.KindIO, "save archive", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", apperr.WithPath(apperr.KindIO, "save archive", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", apperr.WithPath(apperr.KindIO, "save archive", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", apperr.WithPath(apperr.KindIO, "save archive", path, err)
	}
	return path, nil
}
