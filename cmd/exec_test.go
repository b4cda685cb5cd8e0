package cmd

import (
	"testing"

	"storefront/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		log := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})
		assert.Equal(t, tt.want, log.GetLevel(), tt.level)
	}
}
