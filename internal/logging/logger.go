package logging

import (
	"io"
	"os"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"
)

// Config configures the structured logger.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is the output format (json or console).
	Format string

	// Output defaults to stderr so command output on stdout stays clean.
	Output io.Writer
}

// DefaultConfig returns console logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	}
}

func parseLevel(s string) bolt.Level {
	switch strings.ToLower(s) {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "info":
		return bolt.INFO
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// New builds a logger from config.
func New(config Config) *bolt.Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	var handler bolt.Handler
	if config.Format == "json" {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}
	return bolt.New(handler).SetLevel(parseLevel(config.Level))
}

// Discard returns a logger that drops everything; used by tests and
// library callers that do not care about logs.
func Discard() *bolt.Logger {
	return bolt.New(bolt.NewJSONHandler(io.Discard)).SetLevel(bolt.ERROR)
}
