// Package logging configures the process-wide console logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	ansiGreen   = "\x1b[32m"
	ansiMagenta = "\x1b[35m"
	ansiRed     = "\x1b[31m"
	ansiReset   = "\x1b[0m"
)

var (
	mu         sync.Mutex
	configured bool
	logger     zerolog.Logger = zerolog.Nop()
)

// Setup configures the shared logger with a colored console writer on
// stderr. It is safe to call more than once; only the first call takes
// effect. Log output is a side channel, separate from the interactive
// transcript on stdout.
func Setup(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()

	if configured {
		return
	}
	configured = true
	logger = NewConsoleLogger(os.Stderr).Level(level)
}

// Configured reports whether Setup has already run.
func Configured() bool {
	mu.Lock()
	defer mu.Unlock()
	return configured
}

// Logger returns the shared logger. Before Setup it is a no-op logger.
func Logger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// NewConsoleLogger returns a logger writing human-readable records to w.
// Levels are colored to match the original console palette: INFO green,
// WARN magenta, ERROR/FATAL red.
func NewConsoleLogger(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true, // colors are applied by FormatLevel below
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			label := "[" + strings.ToUpper(level) + "]"
			switch level {
			case zerolog.LevelInfoValue:
				return ansiGreen + label + ansiReset
			case zerolog.LevelWarnValue:
				return ansiMagenta + label + ansiReset
			case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
				return ansiRed + label + ansiReset
			default:
				return label
			}
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("%s", i)
		},
	}
	return zerolog.New(cw).With().Timestamp().Logger()
}
