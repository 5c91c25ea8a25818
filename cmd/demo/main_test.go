package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestExitCode(t *testing.T) {
	deviceLost := errors.New("device lost")
	tests := []struct {
		name     string
		err      error
		expected int
		message  string
	}{
		{"clean exit", nil, 0, ""},
		{"startup failure", errors.New("no suitable GPU"), 1, "msg=fatal"},
		{"frame failure", sessionError{deviceLost}, 1, `msg="session ended"`},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		if got := exitCode(logger, tt.err); got != tt.expected {
			t.Errorf("%s: expected status %d, got %d", tt.name, tt.expected, got)
		}
		out := buf.String()
		if tt.message == "" {
			if out != "" {
				t.Errorf("%s: expected no log, got %q", tt.name, out)
			}
			continue
		}
		if !strings.Contains(out, tt.message) || !strings.Contains(out, "level=ERROR") {
			t.Errorf("%s: expected error log with %s, got %q", tt.name, tt.message, out)
		}
	}

	var buf bytes.Buffer
	exitCode(slog.New(slog.NewTextHandler(&buf, nil)), sessionError{deviceLost})
	if strings.Contains(buf.String(), "fatal") {
		t.Errorf("frame failure: expected no fatal label, got %q", buf.String())
	}
	if !errors.Is(sessionError{deviceLost}, deviceLost) {
		t.Errorf("sessionError: expected to unwrap to the frame error")
	}
}
