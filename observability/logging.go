/*
Package observability builds the logger and metrics shared by the CLI and
the planner.

PURPOSE:
  One place decides log level, log encoding and which collectors exist.
  Nothing here opens a network listener: metrics are gathered in-process
  and can be dumped to a node-exporter textfile.

SEE ALSO:
  - metrics.go: Prometheus collectors
  - config/config.go: Where LogConfig values come from
*/
package observability

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // "json", "console"
}

// NewLogger builds a zap logger writing to w. The CLI passes stderr,
// leaving stdout to the plan output.
func NewLogger(cfg LogConfig, w io.Writer) *zap.Logger {
	out := zapcore.Lock(zapcore.AddSync(w))
	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	return zap.New(zapcore.NewCore(encoder, out, parseLevel(cfg.Level)))
}

// parseLevel converts a level name to a zap level, defaulting to info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
