package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls how the process-wide logger is built.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text (default) or json
	File   string // optional path; when set, output is teed to a rotating file
	// Rotation limits for File; zero values fall back to lumberjack defaults.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a logrus logger the way every command in this repo expects it.
// An invalid level is reported as a warning and "info" is used instead.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	switch strings.ToLower(opts.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	}

	log.SetLevel(logrus.InfoLevel)
	if opts.Level != "" {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", opts.Level, err)
		} else {
			log.SetLevel(level)
		}
	}

	log.SetOutput(output(opts))
	return log
}

func output(opts Options) io.Writer {
	if opts.File == "" {
		return os.Stdout
	}
	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, rotating)
}

// Describe renders the options for the startup banner.
func (o Options) Describe() string {
	if o.File == "" {
		return fmt.Sprintf("level=%s format=%s", o.Level, o.Format)
	}
	return fmt.Sprintf("level=%s format=%s file=%s", o.Level, o.Format, o.File)
}
