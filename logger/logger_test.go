package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, levelFor(0))
	assert.Equal(t, zapcore.InfoLevel, levelFor(1))
	assert.Equal(t, zapcore.DebugLevel, levelFor(2))
	assert.Equal(t, zapcore.DebugLevel, levelFor(5))
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	assert.NotNil(t, l)
	l.Infow("discarded", FieldCount, 1)

	named := Named("core")
	assert.NotNil(t, named)
}
