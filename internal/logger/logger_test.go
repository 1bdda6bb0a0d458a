package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNopBeforeInit(t *testing.T) {
	// Must not panic
	Info("discarded", zap.Int("n", 1))
	if Enabled(zapcore.ErrorLevel) {
		t.Errorf("Enabled: true before InitLogger")
	}
}

func TestInitLogger(t *testing.T) {
	defer func() { zapLog = zap.NewNop() }()
	if err := InitLogger(zapcore.WarnLevel); err != nil {
		t.Fatalf("InitLogger: error return %v", err)
	}
	if Enabled(zapcore.InfoLevel) {
		t.Errorf("Enabled(Info): true at warn level")
	}
	if !Enabled(zapcore.ErrorLevel) {
		t.Errorf("Enabled(Error): false at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"ERROR", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for i, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Test case %d: error %v", i, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("Test case %d: got %v, want %v", i, got, tt.want)
		}
	}
}
