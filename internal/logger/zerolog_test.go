package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in       string
		expected zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tc := range testCases {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tc.in, tc.expected, got)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

func TestAdapterLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Debug("grower", "hidden", nil)
	log.Info("grower", "grown", map[string]interface{}{"pixels": 100})
	log.Error("cli", errors.New("boom"), map[string]interface{}{"command": "cut"})
	log.Warning("cut", "no safe cut", map[string]interface{}{"reason": "contour too short for a cut"})
	componentLog := log.Component("corrector")
	componentLog.Warn().Msg("careful")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug output should be filtered: %s", out)
	}
	for _, want := range []string{`"component":"grower"`, `"pixels":100`, `"error":"boom"`, `"command":"cut"`, `"message":"command failed"`,
		`"level":"warn"`, `"reason":"contour too short for a cut"`, `"component":"corrector"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Output is missing %s: %s", want, out)
		}
	}
}
