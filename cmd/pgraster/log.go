package main

import (
	"log"
	"log/slog"
)

var logLevel = new(slog.LevelVar)

// logger sends library records to the standard logger's output. -v lowers
// the level to debug.
var logger = slog.New(slog.NewTextHandler(log.Writer(), &slog.HandlerOptions{Level: logLevel}))
