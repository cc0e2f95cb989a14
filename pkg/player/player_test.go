package player

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"addpoints/pkg/config"
)

func TestNew_UnknownEngine(t *testing.T) {
	if _, err := New(config.PlayerConfig{Engine: "winamp"}); err == nil {
		t.Fatal("expected error for unknown player engine")
	}
}

func TestNew_Beep(t *testing.T) {
	p, err := New(config.PlayerConfig{Engine: "beep"})
	if err != nil {
		t.Fatalf("New(beep) failed: %v", err)
	}
	if _, ok := p.(*Beep); !ok {
		t.Errorf("New(beep) returned %T, want *Beep", p)
	}
}

func TestMPV_Args(t *testing.T) {
	m := &MPV{path: "/usr/bin/mpv"}
	args := m.args("output.mp3")

	want := []string{"--terminal=no", "--force-window=no", "output.mp3"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBeep_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.ogg")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBeep()
	err := b.Play(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported audio format") {
		t.Errorf("unexpected error: %v", err)
	}
}
