//go:build darwin || linux

package mpv

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLevel translates an engine log level to a zap level. Fatal maps to
// zap's error level rather than zapcore.FatalLevel: the engine reporting a
// fatal condition must not terminate the embedding process from inside the
// event loop.
func ZapLevel(l LogLevel) zapcore.Level {
	switch {
	case l <= LogLevelError:
		return zapcore.ErrorLevel
	case l <= LogLevelWarn:
		return zapcore.WarnLevel
	case l <= LogLevelInfo:
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

// LogBridge forwards LogMessage events to a zap logger, so engine output
// lands in the embedder's structured logs.
type LogBridge struct {
	logger *zap.Logger
}

func NewLogBridge(logger *zap.Logger) *LogBridge {
	return &LogBridge{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

// Handle consumes ev if it is a LogMessage, writing it to the logger.
// Returns whether the event was consumed, so a poll loop can pass every
// event through the bridge and handle the rest itself.
func (b *LogBridge) Handle(ev Event) bool {
	m, ok := ev.(LogMessage)
	if !ok {
		return false
	}
	if ce := b.logger.Check(ZapLevel(m.LogLevel), strings.TrimRight(m.Text, "\n")); ce != nil {
		ce.Write(zap.String("prefix", m.Prefix))
	}
	return true
}
