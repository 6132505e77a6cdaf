package batchfetch

import (
	"io"
	"os"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger from the logger section of the config.
// Console output goes to stderr so it does not interleave with the
// progress report on stdout.
func NewLogger(c LoggerConfig) *log.Logger {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger.SetLevel(c.Level)
	logger.SetOutput(os.Stderr)

	if !c.Console {
		logger.SetOutput(io.Discard)
	}

	if c.FilePath != "" {
		logger.AddHook(lfshook.NewHook(c.FilePath, &log.TextFormatter{
			FullTimestamp: true,
			DisableColors: true,
		}))
	}

	return logger
}
