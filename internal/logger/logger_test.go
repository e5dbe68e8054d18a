package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jinxiguild/internal/config"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{input: "debug", expected: zapcore.DebugLevel},
		{input: "info", expected: zapcore.InfoLevel},
		{input: "warn", expected: zapcore.WarnLevel},
		{input: "error", expected: zapcore.ErrorLevel},
		{input: "verbose", expected: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestGormLevel(t *testing.T) {
	if GormLevel("debug") != gormlogger.Info {
		t.Fatal("expected debug to enable SQL logging")
	}
	if GormLevel("info") != gormlogger.Warn {
		t.Fatal("expected info to keep gorm at warn")
	}
}

func TestNewWritesRollingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jinxi.log")

	log, err := New(config.AppConfig{LogLevel: "info", LogPath: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	log.Info("hello guild")
	_ = log.Sync()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected log file to have content")
	}
}
