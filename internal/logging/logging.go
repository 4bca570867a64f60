// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotating log file.
const FileName = "nosecounter.log"

// Init points the global logger at stderr and a rotating file in Dir().
// If the log directory is unusable, logging continues on stderr only and the
// problem is returned.
func Init(verbose bool) error {
	// .env is read here as well because Init runs before config.Load.
	if exePath, err := os.Executable(); err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	dir := Dir()
	file, err := fileWriter(dir)
	if err != nil {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return fmt.Errorf("log directory %q: %w", dir, err)
	}

	multi := zerolog.MultiLevelWriter(io.Writer(console), file)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	return nil
}

// Dir returns NOSECOUNTER_LOGS_FOLDER, or a logs directory next to the binary.
func Dir() string {
	if dir := os.Getenv("NOSECOUNTER_LOGS_FOLDER"); dir != "" {
		return dir
	}
	exePath, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(exePath), "logs")
}

func fileWriter(dir string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return nil, err
	}
	_ = os.Remove(probe)

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}, nil
}
