// Package player plays synthesized audio files, either through an external
// mpv process or in-process via the beep library.
package player

import (
	"context"
	"fmt"

	"addpoints/pkg/config"
)

// Player plays one audio file. Playback is fire-and-forget from the session's
// point of view: errors are reported but never abort the session.
type Player interface {
	Play(ctx context.Context, path string) error
}

// New creates the player selected by the configuration.
func New(cfg config.PlayerConfig) (Player, error) {
	switch cfg.Engine {
	case "", "mpv":
		return NewMPV(cfg.Path)
	case "beep":
		return NewBeep(), nil
	default:
		return nil, fmt.Errorf("unknown player engine %q (options: mpv, beep)", cfg.Engine)
	}
}
