package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"nosecounter/internal/apperr"
	"nosecounter/internal/report"
)

func writeConfig(t *testing.T, body string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive")
	if err := os.Mkdir(archive, 0755); err != nil {
		t.Fatal(err)
	}
	body = strings.ReplaceAll(body, "$DIR", dir)
	path := filepath.Join(dir, "nosecounter.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path, dir
}

const validConfig = `
api:
  url: https://reg.example.org/stats
  token: s3cret
year: 2017
registrations:
  start: "2017-01-14T20:00:00.000+0100"
  end: "2017-08-20T00:00:00+02:00"
  interval: 30m
archive_dir: $DIR/archive
output_dir: $DIR/out
charts:
  ageComparison:
    x_axis_min: 21
  status:
    background_color: "#ffffff"
`

func TestLoad_File(t *testing.T) {
	path, dir := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://reg.example.org/stats" || cfg.API.Token != "s3cret" {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.API.Timeout != 30*time.Second || cfg.API.MaxRetries != 3 {
		t.Errorf("API defaults = %s / %d", cfg.API.Timeout, cfg.API.MaxRetries)
	}
	if cfg.Year != 2017 {
		t.Errorf("Year = %d", cfg.Year)
	}
	wantStart := time.Date(2017, 1, 14, 19, 0, 0, 0, time.UTC)
	if !cfg.Registrations.Start.Equal(wantStart) {
		t.Errorf("Start = %s, want %s", cfg.Registrations.Start, wantStart)
	}
	if cfg.Registrations.Interval != 30*time.Minute {
		t.Errorf("Interval = %s", cfg.Registrations.Interval)
	}
	if cfg.MaxYearCount != 5 || cfg.TopCountryCount != 10 || cfg.MinAge != 18 {
		t.Errorf("defaults = %d/%d/%d", cfg.MaxYearCount, cfg.TopCountryCount, cfg.MinAge)
	}
	if !slices.Equal(cfg.ShirtSizes, []string{"XS", "S", "M", "L", "XL", "XXL"}) {
		t.Errorf("ShirtSizes = %v", cfg.ShirtSizes)
	}
	if got := cfg.ReportPath(); got != filepath.Join(dir, "out", "index.html") {
		t.Errorf("ReportPath() = %q", got)
	}

	opts := cfg.ReportOptions()
	if o, ok := opts.ChartStyles[report.ChartAgeComparison]; !ok || o.XAxisMin == nil || *o.XAxisMin != 21 {
		t.Errorf("ageComparison override = %+v, %v", o, ok)
	}
	if _, ok := opts.ChartStyles[report.ChartStatus]; !ok {
		t.Error("status override missing")
	}
	if opts.Window.Interval != 30*time.Minute {
		t.Errorf("options window = %+v", opts.Window)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path, _ := writeConfig(t, validConfig)
	t.Setenv("NOSECOUNTER_API_TOKEN", "from-env")
	t.Setenv("NOSECOUNTER_YEAR", "2018")
	t.Setenv("NOSECOUNTER_GENDERS", "male,female,other")
	t.Setenv("NOSECOUNTER_REGISTRATIONS_END", "2018-08-20T00:00:00+02:00")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Token != "from-env" {
		t.Errorf("Token = %q", cfg.API.Token)
	}
	if cfg.Year != 2018 {
		t.Errorf("Year = %d", cfg.Year)
	}
	if !slices.Equal(cfg.Genders, []string{"male", "female", "other"}) {
		t.Errorf("Genders = %v", cfg.Genders)
	}
	if cfg.Registrations.End.Year() != 2018 {
		t.Errorf("End = %s", cfg.Registrations.End)
	}
}

func TestLoad_ValidationAggregates(t *testing.T) {
	path, _ := writeConfig(t, `
api:
  url: reg.example.org/stats
year: 0
registrations:
  start: "2017-08-20T00:00:00+02:00"
  end: "2017-01-14T00:00:00+01:00"
archive_dir: $DIR/missing
output_dir: $DIR/out
max_year_count: 0
charts:
  pie:
    theme: dark
`)

	_, err := Load(path)
	if apperr.KindOf(err) != apperr.KindConfig {
		t.Fatalf("Load() error = %v, want ConfigError", err)
	}
	msg := err.Error()
	for _, want := range []string{
		"api.url must be an absolute http(s) URL",
		"api.token is required",
		"year must be positive",
		"registrations:",
		"max_year_count must be at least 1",
		"archive_dir",
		"charts.pie is not a known chart",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if apperr.KindOf(err) != apperr.KindConfig {
		t.Errorf("Load() error = %v, want ConfigError", err)
	}
}

func TestValidate_ArchiveNotADirectory(t *testing.T) {
	path, dir := writeConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.ArchiveDir = path
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "is not a directory") {
		t.Errorf("Validate() error = %v", err)
	}
	cfg.ArchiveDir = filepath.Join(dir, "archive")
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestGodotenvQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(`NOSECOUNTER_API_TOKEN='tok "quoted"'`), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("godotenv.Read() error = %v", err)
	}
	if got, want := env["NOSECOUNTER_API_TOKEN"], `tok "quoted"`; got != want {
		t.Errorf("token = %q, want %q", got, want)
	}
}
