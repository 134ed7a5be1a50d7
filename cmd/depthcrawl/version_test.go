package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func() string
	}{
		{name: "version", fn: getVersion},
		{name: "commit", fn: getCommit},
		{name: "date", fn: getDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.fn() == "" {
				t.Errorf("%s returned empty string", tt.name)
			}
		})
	}
}

func TestBuildSettingUnknownKey(t *testing.T) {
	t.Parallel()

	if got := buildSetting("no.such.setting"); got != "unknown" {
		t.Errorf("expected 'unknown', got %q", got)
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"depthcrawl version", "commit:", "built:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}
