package player

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Beep plays audio files in-process using gopxl/beep.
type Beep struct {
	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
}

// NewBeep creates a beep-backed player. The speaker is initialized lazily at
// the sample rate of the first file played.
func NewBeep() *Beep {
	return &Beep{}
}

// Play decodes the file and blocks until playback completes or ctx is done.
func (b *Beep) Play(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	streamer, format, err := decode(path)
	if err != nil {
		return err
	}
	defer streamer.Close()

	if !b.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		b.sampleRate = format.SampleRate
		b.initialized = true
	}

	var src beep.Streamer = streamer
	if format.SampleRate != b.sampleRate {
		src = beep.Resample(3, format.SampleRate, b.sampleRate, streamer)
	}

	slog.Debug("Playing audio", "player", "beep", "file", path)

	done := make(chan struct{})
	speaker.Play(beep.Seq(src, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// decode opens and decodes an audio file based on its extension.
func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open audio file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err := mp3.Decode(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, fmt.Errorf("failed to decode mp3: %w", err)
		}
		return streamer, format, nil
	case ".wav":
		streamer, format, err := wav.Decode(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, fmt.Errorf("failed to decode wav: %w", err)
		}
		return streamer, format, nil
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}
