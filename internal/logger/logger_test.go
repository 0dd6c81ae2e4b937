package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewWithOutputLevels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{level: "", want: logrus.InfoLevel},
		{level: "debug", want: logrus.DebugLevel},
		{level: " WARNING ", want: logrus.WarnLevel},
		{level: "error", want: logrus.ErrorLevel},
		{level: "nonsense", want: logrus.InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			l := NewWithOutput(&bytes.Buffer{}, tc.level, "")
			assert.Equal(t, tc.want, l.GetLevel())
		})
	}
}

func TestNewWithOutputWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "info", "json")
	l.WithField("session_id", "abc").Info("turn")

	assert.Contains(t, buf.String(), `"session_id":"abc"`)
	assert.Contains(t, buf.String(), `"msg":"turn"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("  hello  ", 10))
	assert.Equal(t, "he...", Truncate("hello", 2))
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "你好...", Truncate("你好世界", 2))
}
