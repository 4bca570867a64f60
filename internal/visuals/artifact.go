package visuals

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"nosecounter/internal/apperr"
)

// ArtifactExt is the file extension of rendered chart documents.
const ArtifactExt = ".html"

// ArtifactPath returns the file a chart key is rendered to.
func ArtifactPath(dir, key string) string {
	return filepath.Join(dir, key+ArtifactExt)
}

// ArtifactRef appends a cache-busting timestamp to an artifact path.
func ArtifactRef(path string, at time.Time) string {
	return fmt.Sprintf("%s?t=%d", path, at.Unix())
}

// ArtifactExists reports whether a chart was rendered before and when.
func ArtifactExists(dir, key string) (time.Time, bool) {
	info, err := os.Stat(ArtifactPath(dir, key))
	if err != nil || !info.Mode().IsRegular() {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// WriteChart renders a chart to <dir>/<key>.html and returns its reference stamped with now.
// The document is written to a temp file first so readers never see a partial chart.
func WriteChart(dir, key string, now time.Time, render func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperr.WithPath(apperr.KindIO, "create output directory", dir, err)
	}

	path := ArtifactPath(dir, key)
	tmp, err := os.CreateTemp(dir, "."+key+"-*.tmp")
	if err != nil {
		return "", apperr.WithPath(apperr.KindIO, "write chart", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := render(tmp); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", apperr.WithPath(apperr.KindIO, "write chart", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", apperr.WithPath(apperr.KindIO, "write chart", path, err)
	}
	return ArtifactRef(path, now), nil
}
