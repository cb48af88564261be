/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logging installs a zap backend behind the SDK logging facade, so
// that gateway and SDK modules log through the same encoder and level.
package logging

import (
	"fmt"
	"os"
	"strings"

	sdklogging "github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/logging/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zjucst/food-gateway/pkg/config"
)

// Provider creates zap backed module loggers
type Provider struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewProvider returns a Provider writing to stderr
func NewProvider(cfg config.Logging) (*Provider, error) {
	return NewProviderWithSink(cfg, zapcore.Lock(os.Stderr))
}

// NewProviderWithSink returns a Provider writing to the given sink
func NewProviderWithSink(cfg config.Logging, sink zapcore.WriteSyncer) (*Provider, error) {
	l, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level := zap.NewAtomicLevelAt(l)

	encoder, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}

	logger := zap.New(
		zapcore.NewCore(encoder, sink, level),
		zap.AddCaller(),
		zap.AddCallerSkip(2),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return &Provider{logger: logger, level: level}, nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "module",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	switch strings.ToLower(format) {
	case "", "console":
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	case "json":
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(encoderConfig), nil
	default:
		return nil, errors.Errorf("unsupported log format %q", format)
	}
}

// Install makes the provider the backend of every SDK and gateway module
// logger. It must run before anything is logged.
func (p *Provider) Install() {
	sdklogging.Initialize(p)
}

// GetLogger returns the logger of a module
func (p *Provider) GetLogger(module string) api.Logger {
	return &Logger{s: p.logger.Named(module).Sugar()}
}

// SetLevel changes the level of all module loggers
func (p *Provider) SetLevel(level zapcore.Level) {
	p.level.SetLevel(level)
}

// Sync flushes buffered log entries
func (p *Provider) Sync() error {
	return p.logger.Sync()
}

// Logger adapts a zap SugaredLogger to the SDK logger interface
type Logger struct {
	s *zap.SugaredLogger
}

// Fatal logs and exits
func (l *Logger) Fatal(v ...interface{}) { l.s.Fatal(v...) }

// Fatalf logs and exits
func (l *Logger) Fatalf(format string, v ...interface{}) { l.s.Fatalf(format, v...) }

// Fatalln logs and exits
func (l *Logger) Fatalln(v ...interface{}) { l.s.Fatal(sprintln(v...)) }

// Panic logs and panics
func (l *Logger) Panic(v ...interface{}) { l.s.Panic(v...) }

// Panicf logs and panics
func (l *Logger) Panicf(format string, v ...interface{}) { l.s.Panicf(format, v...) }

// Panicln logs and panics
func (l *Logger) Panicln(v ...interface{}) { l.s.Panic(sprintln(v...)) }

// Print logs at info level
func (l *Logger) Print(v ...interface{}) { l.s.Info(v...) }

// Printf logs at info level
func (l *Logger) Printf(format string, v ...interface{}) { l.s.Infof(format, v...) }

// Println logs at info level
func (l *Logger) Println(v ...interface{}) { l.s.Info(sprintln(v...)) }

// Debug logs at debug level
func (l *Logger) Debug(args ...interface{}) { l.s.Debug(args...) }

// Debugf logs at debug level
func (l *Logger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }

// Debugln logs at debug level
func (l *Logger) Debugln(args ...interface{}) { l.s.Debug(sprintln(args...)) }

// Info logs at info level
func (l *Logger) Info(args ...interface{}) { l.s.Info(args...) }

// Infof logs at info level
func (l *Logger) Infof(format string, args ...interface{}) { l.s.Infof(format, args...) }

// Infoln logs at info level
func (l *Logger) Infoln(args ...interface{}) { l.s.Info(sprintln(args...)) }

// Warn logs at warning level
func (l *Logger) Warn(args ...interface{}) { l.s.Warn(args...) }

// Warnf logs at warning level
func (l *Logger) Warnf(format string, args ...interface{}) { l.s.Warnf(format, args...) }

// Warnln logs at warning level
func (l *Logger) Warnln(args ...interface{}) { l.s.Warn(sprintln(args...)) }

// Error logs at error level
func (l *Logger) Error(args ...interface{}) { l.s.Error(args...) }

// Errorf logs at error level
func (l *Logger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }

// Errorln logs at error level
func (l *Logger) Errorln(args ...interface{}) { l.s.Error(sprintln(args...)) }

func sprintln(args ...interface{}) string {
	msg := fmt.Sprintln(args...)
	return msg[:len(msg)-1]
}
