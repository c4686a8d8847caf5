package utils

import (
	"io"

	"github.com/labstack/gommon/log"
)

const logHeader = `${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`

// NewLogger builds the leveled logger handed to every service.
// Debug configurations log at DEBUG, others at INFO.
func NewLogger(prefix string, debug bool) *log.Logger {
	logger := log.New(prefix)
	logger.SetHeader(logHeader)
	if debug {
		logger.SetLevel(log.DEBUG)
	} else {
		logger.SetLevel(log.INFO)
	}
	return logger
}

// NewWriterLogger is NewLogger writing to w, for tests and tooling.
func NewWriterLogger(prefix string, w io.Writer) *log.Logger {
	logger := NewLogger(prefix, true)
	logger.SetOutput(w)
	return logger
}
