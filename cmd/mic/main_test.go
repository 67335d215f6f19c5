package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMic_PrintsStateUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("RICE_CONFIG", "")

	// The default source is live; the monitor listed first must be skipped.
	bin := filepath.Join(dir, "pactl")
	script := `#!/bin/sh
case "$1" in
info) printf 'Default Sink: speaker\nDefault Source: mic\n' ;;
list) printf 'Source #1\n\tName: speaker.monitor\n\tMute: yes\n\nSource #2\n\tName: mic\n\tMute: no\n' ;;
subscribe) echo "Event 'change' on source #2"; exec sleep 30 ;;
*) exit 1 ;;
esac
`
	if err := os.WriteFile(bin, []byte(script), 0o700); err != nil { //nolint:gosec // test script must be executable
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfg, []byte("logging:\n  output: discard\naudio:\n  pactl: "+bin+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cmd := newCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfg})
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] == "" {
		t.Fatal("no status line printed")
	}
	for _, line := range lines {
		if !strings.Contains(line, `"class":"not-muted"`) {
			t.Errorf("line = %s, want class not-muted", line)
		}
	}
}

func TestMic_RejectsArgs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RICE_CONFIG", "")

	cmd := newCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute(extra) error = nil")
	}
}
