// Package config loads the nosecounter settings from .env files, an optional YAML
// config file and NOSECOUNTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"nosecounter/internal/apperr"
	"nosecounter/internal/dataset"
	"nosecounter/internal/regapi"
	"nosecounter/internal/report"
	"nosecounter/internal/stats"
	"nosecounter/internal/visuals"
)

const (
	configName = "nosecounter"
	configType = "yaml"
	envPrefix  = "NOSECOUNTER"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	API           regapi.Config       `mapstructure:"api"`
	Year          int                 `mapstructure:"year"`
	Registrations RegistrationsConfig `mapstructure:"registrations"`

	ArchiveDir   string `mapstructure:"archive_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	MaxYearCount int    `mapstructure:"max_year_count"`

	TopCountryCount  int      `mapstructure:"top_country_count"`
	MinAge           int      `mapstructure:"min_age"`
	Genders          []string `mapstructure:"genders"`
	Sponsors         []string `mapstructure:"sponsors"`
	SpecialInterests []string `mapstructure:"special_interests"`
	ShirtSizes       []string `mapstructure:"shirt_sizes"`

	Template            string `mapstructure:"template"`
	ReportFile          string `mapstructure:"report_file"`
	MetricsTextfile     string `mapstructure:"metrics_textfile"`
	EnableMermaidCharts bool   `mapstructure:"enable_mermaid_charts"`

	Style  visuals.StyleOverride            `mapstructure:"style"`
	Charts map[string]visuals.StyleOverride `mapstructure:"charts"`
}

// RegistrationsConfig is the registration period of the current year.
type RegistrationsConfig struct {
	Start    time.Time     `mapstructure:"start"`
	End      time.Time     `mapstructure:"end"`
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads the configuration and validates it. path may be empty, in which case
// nosecounter.yaml is looked up in the working directory; a missing file is not an error.
func Load(path string) (*AppConfig, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, apperr.WithPath(apperr.KindConfig, "read config", path, err)
		}
		log.Debug().Msg("No config file found, relying on environment variables")
	} else {
		log.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	var cfg AppConfig
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timestampHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, apperr.New(apperr.KindConfig, "decode config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads .env from the binary's directory first, then the working directory.
// Variables already set are never overridden.
func loadDotEnv() {
	if exePath, err := os.Executable(); err == nil {
		envPath := filepath.Join(filepath.Dir(exePath), ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory")
	}
}

func setDefaults(v *viper.Viper) {
	def := report.DefaultOptions()

	v.SetDefault("api.url", "")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.retry_delay", "1s")

	v.SetDefault("year", time.Now().Year())
	v.SetDefault("registrations.start", "")
	v.SetDefault("registrations.end", "")
	v.SetDefault("registrations.interval", "1h")

	v.SetDefault("archive_dir", "archive")
	v.SetDefault("output_dir", "output")
	v.SetDefault("max_year_count", 5)

	v.SetDefault("top_country_count", def.TopCountryCount)
	v.SetDefault("min_age", def.MinAge)
	v.SetDefault("genders", def.Genders)
	v.SetDefault("sponsors", def.Sponsors)
	v.SetDefault("special_interests", def.SpecialInterests)
	v.SetDefault("shirt_sizes", def.ShirtSizes)

	v.SetDefault("template", "")
	v.SetDefault("report_file", "")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("enable_mermaid_charts", false)
}

// timestampHook decodes registration timestamps in any format the registration system emits.
func timestampHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	return stats.ParseTimestamp(s)
}

// Validate checks every setting and reports all problems at once.
func (c *AppConfig) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if c.API.BaseURL == "" {
		add("api.url is required")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Token == "" {
		add("api.token is required")
	}
	if c.Year <= 0 {
		add("year must be positive, got %d", c.Year)
	}
	if _, err := c.Window(); err != nil {
		add("registrations: %v", err)
	}
	if c.MaxYearCount < 1 {
		add("max_year_count must be at least 1, got %d", c.MaxYearCount)
	}
	if c.TopCountryCount < 1 {
		add("top_country_count must be at least 1, got %d", c.TopCountryCount)
	}

	if info, err := os.Stat(c.ArchiveDir); err != nil {
		add("archive_dir %q: %v", c.ArchiveDir, err)
	} else if !info.IsDir() {
		add("archive_dir %q is not a directory", c.ArchiveDir)
	}
	if err := checkWritable(c.OutputDir); err != nil {
		add("output_dir %q: %v", c.OutputDir, err)
	}

	for key := range c.Charts {
		if c.chartKey(key) == "" {
			add("charts.%s is not a known chart (known: %s)", key, strings.Join(report.ChartKeys, ", "))
		}
	}

	if len(problems) > 0 {
		return apperr.New(apperr.KindConfig, "validate config", errors.Join(problems...))
	}
	return nil
}

// checkWritable creates dir if needed and proves a file can be written to it.
func checkWritable(dir string) error {
	if dir == "" {
		return errors.New("must not be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Window returns the registration period.
func (c *AppConfig) Window() (stats.RegistrationWindow, error) {
	w := stats.RegistrationWindow{
		Start:    c.Registrations.Start,
		End:      c.Registrations.End,
		Interval: c.Registrations.Interval,
	}
	return w, w.Validate()
}

// chartKey maps a config key back to its chart key. Viper lower-cases map keys.
func (c *AppConfig) chartKey(key string) string {
	i := slices.IndexFunc(report.ChartKeys, func(k string) bool { return strings.EqualFold(k, key) })
	if i < 0 {
		return ""
	}
	return report.ChartKeys[i]
}

// ReportOptions translates the configuration into report generation options.
func (c *AppConfig) ReportOptions() report.Options {
	w, _ := c.Window()

	styles := make(map[string]visuals.StyleOverride, len(c.Charts))
	for key, o := range c.Charts {
		if k := c.chartKey(key); k != "" {
			styles[k] = o
		}
	}

	return report.Options{
		Year:             c.Year,
		Window:           w,
		OutputDir:        c.OutputDir,
		TopCountryCount:  c.TopCountryCount,
		MinAge:           c.MinAge,
		Genders:          c.Genders,
		Sponsors:         c.Sponsors,
		SpecialInterests: c.SpecialInterests,
		ShirtSizes:       c.ShirtSizes,
		BaseStyle:        visuals.BaseStyle().Apply(c.Style),
		ChartStyles:      styles,
	}
}

// Loader returns a dataset loader backed by the archive and the live API.
func (c *AppConfig) Loader() *dataset.Loader {
	return &dataset.Loader{
		ArchiveDir:   c.ArchiveDir,
		Source:       regapi.NewClient(c.API),
		MaxYearCount: c.MaxYearCount,
	}
}

// ReportPath is where the HTML report page is written.
func (c *AppConfig) ReportPath() string {
	if c.ReportFile != "" {
		return c.ReportFile
	}
	return filepath.Join(c.OutputDir, "index.html")
}
