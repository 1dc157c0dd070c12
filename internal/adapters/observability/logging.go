package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the process-wide zerolog Logger for the reviews service.
// Production (the APP_ENV/NODE_ENV default) logs JSON; dev or development
// selects a human-friendly console writer instead.
func NewLogger(env string) zerolog.Logger {
	switch env {
	case "dev", "development":
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	default:
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
