package render

import (
	"io"
	"log"
)

var logger *log.Logger = log.New(io.Discard, "", log.LstdFlags)

func SetLogger(l *log.Logger) {
	logger = l
}

// fatalf reports a broken renderer invariant. It never returns.
func fatalf(format string, v ...any) {
	logger.Panicf(format, v...)
}
