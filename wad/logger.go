package wad

import (
	"io"
	"log"
)

var logger *log.Logger = log.New(io.Discard, "", log.LstdFlags)

func SetLogger(l *log.Logger) {
	logger = l
}

// fatalf stops on a lump request that correct callers never make.
func fatalf(format string, v ...any) {
	logger.Panicf(format, v...)
}
