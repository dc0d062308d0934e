package cliconfig

import (
	"github.com/rs/zerolog"

	"github.com/monodebug/attachnotify/pkg/log"
)

// Logger returns the CLI console logger at the given level. Unknown levels
// fall back to info.
func Logger(level string) zerolog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.LevelInfo
	}
	return log.NewZerologAdapter(lvl).Logger()
}
