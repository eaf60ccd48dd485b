// Package logging configures the global phuslu logger.
package logging

import (
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Setup installs the default logger. format is "json" or "console"; any
// other value falls back to console.
func Setup(level, format string) {
	logger := log.Logger{
		Level:      log.ParseLevel(strings.ToLower(level)),
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	if strings.EqualFold(format, "json") {
		logger.Writer = &log.IOWriter{Writer: os.Stdout}
	} else {
		logger.Writer = &log.ConsoleWriter{
			ColorOutput:    log.IsTerminal(os.Stderr.Fd()),
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		}
	}
	log.DefaultLogger = logger
}
