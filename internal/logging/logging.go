package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"storefront/internal/config"
)

const timeFormat = "2006-01-02 15:04:05"

// Setup configures the global zerolog logger from cfg and returns the writer
// it logs to, so other components (Fiber, GORM) can share the same outputs.
func Setup(cfg config.LogConfig) io.Writer {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat}
	var out io.Writer = console

	if cfg.File != "" {
		if err := ensureLogDir(cfg.File); err != nil {
			log.Logger = zerolog.New(console).With().Timestamp().Logger()
			log.Error().Err(err).Str("path", cfg.File).Msg("Failed to prepare log directory; logging to console only")
			return console
		}
		file := zerolog.ConsoleWriter{
			Out: &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			},
			TimeFormat: timeFormat,
			NoColor:    true,
		}
		out = zerolog.MultiLevelWriter(console, file)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return out
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Printf adapts the global logger to printf-style consumers such as GORM.
type Printf struct {
	Level zerolog.Level
}

func (p Printf) Printf(format string, args ...interface{}) {
	log.WithLevel(p.Level).Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
