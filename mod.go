// Package objson is a serialization library that reads and writes graphs of
// Go objects as JSON. Types are declared to a registry (classes, members,
// embedded bases, constructors, hooks), then an engine converts between
// object graphs and a JSON dialect. Trees, shared subgraphs and cyclic
// graphs are supported: multiply-referenced objects are written once and
// referenced by id afterwards.
package objson

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// PromCollectors exposes the prometheus collectors declared by the packages
// of the library. The caller decides if and where they are registered.
var PromCollectors []prometheus.Collector

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "OBJSON_LOG_LEVEL"

const defaultLevel = zerolog.WarnLevel

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(logLevel())

func logLevel() zerolog.Level {
	switch os.Getenv(EnvLogLevel) {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	case "":
		return defaultLevel
	default:
		return defaultLevel
	}
}
