package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		envLevel string
		want     zerolog.Level
	}{
		{"Trace level", "TRACE", zerolog.TraceLevel},
		{"Debug level", "DEBUG", zerolog.DebugLevel},
		{"Info level", "INFO", zerolog.InfoLevel},
		{"Warn level", "WARN", zerolog.WarnLevel},
		{"Error level", "ERROR", zerolog.ErrorLevel},
		{"Empty defaults to Info", "", zerolog.InfoLevel},
		{"Invalid defaults to Info", "INVALID", zerolog.InfoLevel},
		{"Case insensitive", "debug", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("LOG_LEVEL", tt.envLevel)
			defer os.Unsetenv("LOG_LEVEL")

			if got := getLogLevel(); got != tt.want {
				t.Errorf("getLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigure(t *testing.T) {
	previous := log.Logger
	previousLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(previousLevel)
	})

	t.Run("json output", func(t *testing.T) {
		os.Setenv("LOG_LEVEL", "INFO")
		defer os.Unsetenv("LOG_LEVEL")

		var buf bytes.Buffer
		Configure(&buf)

		log.Info().Str("thread_id", "thread_1").Msg("Run completed")
		log.Debug().Msg("suppressed")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("Expected 1 log line, got %d: %q", len(lines), buf.String())
		}

		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
			t.Fatalf("Failed to decode log line: %v", err)
		}
		if entry["message"] != "Run completed" {
			t.Errorf("Expected message %q, got %v", "Run completed", entry["message"])
		}
		if entry["thread_id"] != "thread_1" {
			t.Errorf("Expected thread_id field, got %v", entry["thread_id"])
		}
	})

	t.Run("console output", func(t *testing.T) {
		os.Setenv("LOG_FORMAT", "console")
		defer os.Unsetenv("LOG_FORMAT")

		var buf bytes.Buffer
		Configure(&buf)

		log.Warn().Msg("Polling deadline close")

		if !strings.Contains(buf.String(), "Polling deadline close") {
			t.Errorf("Expected console output to contain message, got %q", buf.String())
		}
		if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
			t.Errorf("Expected console format, got JSON: %q", buf.String())
		}
	})
}
