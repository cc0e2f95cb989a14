package player

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// MPV plays audio files through an external mpv process.
type MPV struct {
	path string
}

// NewMPV creates an mpv-backed player. An empty path resolves "mpv" on PATH.
func NewMPV(path string) (*MPV, error) {
	if path == "" {
		path = "mpv"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("mpv executable not found (%s): %w", path, err)
	}
	return &MPV{path: resolved}, nil
}

// Play runs mpv on the file and blocks until playback finishes.
func (m *MPV) Play(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, m.path, m.args(path)...)
	slog.Debug("Playing audio", "player", "mpv", "file", path)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("mpv playback failed: %w: %s", err, out)
	}
	return nil
}

// args returns the mpv invocation for a file: no terminal UI, no video window.
func (m *MPV) args(path string) []string {
	return []string{"--terminal=no", "--force-window=no", path}
}
