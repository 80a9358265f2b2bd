package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	scoped := log.With(map[string]interface{}{"stage": "rules"})
	scoped.Debug("rule matched", map[string]interface{}{"intent": "log_spending", "rule": "spent_on"})
	scoped.WithError(errors.New("boom")).Warn("extractor failed", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "rules", first["stage"])
	assert.Equal(t, "log_spending", first["intent"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
}

func TestMapToZapFields_Sorted(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{"b": 1, "a": 2, "err": errors.New("x")})

	assert.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "err", fields[2].Key)
	assert.Nil(t, mapToZapFields(nil))
}

func TestNewWithOptions(t *testing.T) {
	l := NewWithOptions(Options{Level: "debug", Format: "json", Service: "nlu"})
	assert.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	assert.NotNil(t, NewNoOpLogger())
	assert.NotNil(t, NewStructured("info", "console"))
}
