package main

import (
	"os"
	"path/filepath"
	"testing"
)

const testPage = `version: 1
display: {width: 16, height: 8}
widgets:
  - id: title
    rect: {w: 16, h: 8}
    content: {type: text, text: Hi}
    animation:
      scroll: {direction: left}
`

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.yaml")
	if err := os.WriteFile(path, []byte(testPage), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWritesFrames(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frames")
	args := []string{"-page", writePage(t), "-o", out, "-ticks", "3", "-workers", "1", "-scale", "1"}
	if err := run(args); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, name := range []string{"frame_000000.png", "frame_000001.png", "frame_000002.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRunReturnsErrors(t *testing.T) {
	page := writePage(t)

	// a regular file where the frame directory should go fails after staging
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"missing page", []string{"-page", filepath.Join(t.TempDir(), "nope.yaml"), "-o", t.TempDir()}},
		{"zero ticks", []string{"-page", page, "-o", t.TempDir(), "-ticks", "0"}},
		{"topics without broker", []string{"-page", page, "-o", t.TempDir(), "-topics", "a/b=temp"}},
		{"unknown flag", []string{"-bogus"}},
		{"sink fails after staging", []string{"-page", page, "-o", filepath.Join(blocker, "frames"), "-ticks", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			t.Logf("error: %v", err)
		})
	}
}
