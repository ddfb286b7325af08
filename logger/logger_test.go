package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	defer SetConsoleWriter()
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("Failed to set level: %v", err)
	}

	Warn().Str("table", "chatbots").Msg("parse miss")

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("Expected warn level in output, got %s", out)
	}
	if !strings.Contains(out, `"table":"chatbots"`) {
		t.Errorf("Expected table field in output, got %s", out)
	}
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := SetLevel("bogus"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if err := SetLevel("silent"); err != nil {
		t.Fatalf("Failed to set silent level: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.Disabled {
		t.Errorf("Expected disabled level, got %v", zerolog.GlobalLevel())
	}
}
