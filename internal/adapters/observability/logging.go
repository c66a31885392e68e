package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// NewLogger returns a zerolog Logger writing to stderr, so stdout stays free
// for command output. APP_ENV=dev (or development) or an interactive terminal
// uses the console writer. LOG_LEVEL overrides the default info level.
func NewLogger(env string) zerolog.Logger {
	return newLogger(env, os.Getenv("LOG_LEVEL"), os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

func newLogger(env, level string, out io.Writer, tty bool) zerolog.Logger {
	if env == "dev" || env == "development" || tty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !tty}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
