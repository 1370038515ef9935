package intercept

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// StateProvider contributes one named piece of recoverable application
// state to a crash snapshot.
type StateProvider func() (any, error)

// Snapshotter preserves recoverable state before a critical failure is
// surfaced, supporting restart-and-resume. Best effort only.
type Snapshotter interface {
	Snapshot(ctx context.Context) error
}

// FileSnapshotter serializes registered state providers to a JSON file.
type FileSnapshotter struct {
	mu        sync.Mutex
	path      string
	providers map[string]StateProvider
}

// NewFileSnapshotter creates a snapshotter writing to path.
func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{
		path:      path,
		providers: make(map[string]StateProvider),
	}
}

// RegisterProvider adds a named state source. Later registrations with
// the same name replace earlier ones.
func (s *FileSnapshotter) RegisterProvider(name string, p StateProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[name] = p
}

// Snapshot collects all provider state and writes it out atomically
// (write to temp, then rename). A provider error skips that provider
// rather than failing the whole snapshot.
func (s *FileSnapshotter) Snapshot(ctx context.Context) error {
	s.mu.Lock()
	providers := make(map[string]StateProvider, len(s.providers))
	for k, v := range s.providers {
		providers[k] = v
	}
	s.mu.Unlock()

	state := map[string]any{
		"saved_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for name, p := range providers {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := p()
		if err != nil {
			continue
		}
		state[name] = v
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}
