package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide structured logger. Packages log through it
// directly rather than threading a logger instance everywhere.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Setup configures the global logger level and output format. A "pretty"
// console writer is only useful for local development; production stays on
// JSON lines.
func Setup(level string, pretty bool) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	out := Logger.Output(os.Stderr)
	if pretty {
		out = Logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	Logger = out.Level(parsed)
}
