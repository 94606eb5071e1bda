package lgi

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// defaultLogger builds the logger used when [WithLogger] is not given:
// console output on stderr at warn level. LGI_LOG_LEVEL overrides the level
// ("trace" through "disabled"); LGI_LOG_NOCOLOR disables coloring.
func defaultLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if v := os.Getenv("LGI_LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}
	w := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("LGI_LOG_NOCOLOR") != "",
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
