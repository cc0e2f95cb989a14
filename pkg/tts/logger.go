package tts

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	logPath    = "logs/tts.log"
	logEnabled = true
	mu         sync.RWMutex
)

// SetLogPath configures the path for the TTS history file.
func SetLogPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	logPath = path
}

// SetEnabled toggles TTS history logging.
func SetEnabled(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	logEnabled = enabled
}

// Log appends the synthesized payload and status to the history file.
// Shared by all providers so every synthesis attempt is visible in one place.
func Log(provider, payload string, status int, err error) {
	mu.RLock()
	path := logPath
	enabled := logEnabled
	mu.RUnlock()

	if !enabled {
		return
	}

	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, fileErr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if fileErr != nil {
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	statusStr := fmt.Sprintf("%d", status)
	if err != nil {
		statusStr = fmt.Sprintf("ERROR(%v)", err)
	}

	entry := fmt.Sprintf("[%s] [%s] STATUS: %s\nPAYLOAD:\n%s\n--------------------------------------------------\n",
		timestamp, provider, statusStr, payload)

	_, _ = f.WriteString(entry)
}
