/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Log level names understood by the SDK and the gateway configuration
var levelNames = map[string]zapcore.Level{
	"CRITICAL": zapcore.ErrorLevel,
	"ERROR":    zapcore.ErrorLevel,
	"WARNING":  zapcore.WarnLevel,
	"WARN":     zapcore.WarnLevel,
	"INFO":     zapcore.InfoLevel,
	"DEBUG":    zapcore.DebugLevel,
}

// ParseLevel returns the zap level for a configured level name (case insensitive)
func ParseLevel(level string) (zapcore.Level, error) {
	if l, ok := levelNames[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return l, nil
	}
	return zapcore.InfoLevel, errors.Errorf("logger: invalid log level %q", level)
}
