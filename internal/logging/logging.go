package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init points the global logger at w. A terminal on stderr gets the console
// writer; anything else gets JSON lines.
func Init(w io.Writer, level zerolog.Level) {
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: "15:04:05.000"}
	}
	log.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()

	if level <= zerolog.DebugLevel {
		log.Debug().Str("level", level.String()).Msg("Log level set")
	}
}
