package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"DEBUG", logrus.DebugLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"fatal", logrus.FatalLevel},
		{"", logrus.InfoLevel},
		{"chatty", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			SetLevel(tt.in)
			if got := L().GetLevel(); got != tt.want {
				t.Errorf("SetLevel(%q) level = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
	SetLevel("info")
}

func TestSetFormat_JSON(t *testing.T) {
	var buf bytes.Buffer
	L().SetOutput(&buf)
	defer SetFormat("")

	SetFormat("json")
	WithFields(logrus.Fields{"resource": "db"}).Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"resource":"db"`) || !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("unexpected json output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	L().SetOutput(&buf)
	SetLevel("warn")
	defer SetLevel("info")

	Info("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("warn message missing: %s", out)
	}
}
