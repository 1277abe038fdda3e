// Package logging configures the process-wide zerolog logger.
//
// Records at info and warn level go to stdout, error and above go to
// stderr. When a log file is configured every record is also appended to a
// size-rotated file.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // json or console
	File   string // optional rotated log file

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	closer io.Closer
)

// levelRouter routes records by level: error and above to stderr,
// everything else to stdout.
type levelRouter struct {
	stdout io.Writer
	stderr io.Writer
}

func (lr levelRouter) Write(p []byte) (int, error) {
	return lr.stdout.Write(p)
}

func (lr levelRouter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level != zerolog.NoLevel {
		return lr.stderr.Write(p)
	}
	return lr.stdout.Write(p)
}

// Init configures the global logger. It may be called again to
// reconfigure; the previous log file is closed.
func Init(cfg Config) error {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	stdout, stderr := cfg.Stdout, cfg.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	switch cfg.Format {
	case "", "json":
	case "console":
		stdout = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339, NoColor: true}
		stderr = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339, NoColor: true}
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var out io.Writer = levelRouter{stdout: stdout, stderr: stderr}
	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out = zerolog.MultiLevelWriter(out, file)
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
		closer = nil
	}
	if file != nil {
		closer = file
	}
	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}

// Close closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a child of the global logger tagged with a component name.
func With(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

// Debug starts a debug record on the global logger.
func Debug() *zerolog.Event { l := Logger(); return l.Debug() }

// Info starts an info record on the global logger.
func Info() *zerolog.Event { l := Logger(); return l.Info() }

// Warn starts a warn record on the global logger.
func Warn() *zerolog.Event { l := Logger(); return l.Warn() }

// Error starts an error record on the global logger.
func Error() *zerolog.Event { l := Logger(); return l.Error() }

// NewContext returns ctx carrying l.
func NewContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// Ctx returns the logger carried by ctx, or the global logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	l := Logger()
	return &l
}
