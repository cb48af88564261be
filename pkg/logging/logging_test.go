/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/zjucst/food-gateway/pkg/config"
)

func newTestProvider(t *testing.T, level, format string) (*Provider, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	p, err := NewProviderWithSink(config.Logging{Level: level, Format: format}, zapcore.AddSync(buf))
	require.NoError(t, err)
	return p, buf
}

func TestJSONLogger(t *testing.T) {
	p, buf := newTestProvider(t, "info", "json")
	logger := p.GetLogger("foodgw/rest")

	logger.Infof("served %s in %d ms", "/users/42", 12)
	logger.Debug("hidden")
	require.NoError(t, p.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "foodgw/rest", entry["module"])
	assert.Equal(t, "served /users/42 in 12 ms", entry["msg"])
}

func TestConsoleLogger(t *testing.T) {
	p, buf := newTestProvider(t, "debug", "console")
	logger := p.GetLogger("foodgw/ledger")

	logger.Debugln("proposal", "sent")
	logger.Warnf("No payloads were returned from query [%s]", "queryUser")

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "proposal sent")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "No payloads were returned from query [queryUser]")
	assert.Contains(t, out, "foodgw/ledger")
}

func TestSetLevel(t *testing.T) {
	p, buf := newTestProvider(t, "error", "json")
	logger := p.GetLogger("foodgw")

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	p.SetLevel(zapcore.InfoLevel)
	logger.Info("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":    zapcore.DebugLevel,
		"INFO":     zapcore.InfoLevel,
		"warning":  zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"critical": zapcore.ErrorLevel,
	}
	for name, expected := range tests {
		l, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, l, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewProviderErrors(t *testing.T) {
	_, err := NewProviderWithSink(config.Logging{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)

	_, err = NewProviderWithSink(config.Logging{Level: "info", Format: "xml"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}
