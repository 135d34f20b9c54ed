// Package logging builds the zap loggers used by the scraper.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Plugin is one log destination.
type Plugin = zapcore.Core

// NewLogger combines plugins into a logger with the default options.
func NewLogger(plugins []Plugin, options ...zap.Option) *zap.Logger {
	return zap.New(zapcore.NewTee(plugins...), append(DefaultOption(), options...)...)
}

// NewPlugin binds an encoder to a writer.
func NewPlugin(encoder zapcore.Encoder, writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(encoder, writer, enabler)
}

// NewStderrPlugin logs to stderr, human readable on a terminal and JSON otherwise.
func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	encoder := DefaultEncoder()
	if isTerminal(os.Stderr) {
		encoder = ConsoleEncoder()
	}
	return NewPlugin(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// NewFilePlugin logs JSON to a rotating file. The returned closer must be
// closed before exit so buffered entries reach the disk.
func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	writer := DefaultLumberjackLogger()
	writer.Filename = filePath
	return NewPlugin(DefaultEncoder(), zapcore.AddSync(writer), enabler), writer
}

// New returns the process logger: stderr always, plus logFile when set.
func New(verbose bool, logFile string) (*zap.Logger, io.Closer) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	plugins := []Plugin{NewStderrPlugin(level)}
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		var filePlugin Plugin
		filePlugin, closer = NewFilePlugin(logFile, level)
		plugins = append(plugins, filePlugin)
	}
	return NewLogger(plugins), closer
}

// DefaultEncoderConfig uses capitalised levels and ISO8601 timestamps.
func DefaultEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return encoderConfig
}

func DefaultEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(DefaultEncoderConfig())
}

func ConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(DefaultEncoderConfig())
}

// DefaultOption records the caller and keeps stack traces for DPanic and above.
func DefaultOption() []zap.Option {
	var stackTraceLevel zap.LevelEnablerFunc = func(level zapcore.Level) bool {
		return level >= zapcore.DPanicLevel
	}
	return []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(stackTraceLevel),
	}
}

// DefaultLumberjackLogger rotates at 200MB and compresses old files.
func DefaultLumberjackLogger() *lumberjack.Logger {
	return &lumberjack.Logger{
		MaxSize:   200,
		LocalTime: true,
		Compress:  true,
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
