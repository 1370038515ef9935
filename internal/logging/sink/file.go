package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vietddude/faultline/internal/core/domain"
)

// FileConfig holds rotating file sink settings.
type FileConfig struct {
	Path         string `yaml:"path"`
	MaxSizeBytes int64  `yaml:"max_size_bytes"`
	MaxBackups   int    `yaml:"max_backups"`
}

// FileSink appends newline-delimited JSON records to a file, rotating it
// when the configured size threshold is exceeded. Rotation happens before
// the write that would cross the threshold, so no record is ever split
// across a rotation.
type FileSink struct {
	mu   sync.Mutex
	cfg  FileConfig
	file *os.File
	size int64
}

// NewFileSink opens (or creates) the log file at cfg.Path.
func NewFileSink(cfg FileConfig) (*FileSink, error) {
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 10 << 20
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 5
	}

	s := &FileSink{cfg: cfg}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) open() error {
	if dir := filepath.Dir(s.cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	s.file = f
	s.size = info.Size()
	return nil
}

// Write serializes the record and appends it, rotating first if the write
// would exceed the size threshold.
func (s *FileSink) Write(rec domain.LogRecord) error {
	data, err := json.Marshal(rec.ToMap())
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("file sink closed")
	}

	if s.size > 0 && s.size+int64(len(data)) > s.cfg.MaxSizeBytes {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	n, err := s.file.Write(data)
	s.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// rotate shifts path.N to path.N+1 (dropping the oldest) and starts a
// fresh file at path. Caller holds the lock.
func (s *FileSink) rotate() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file for rotation: %w", err)
	}
	s.file = nil

	oldest := fmt.Sprintf("%s.%d", s.cfg.Path, s.cfg.MaxBackups)
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			return fmt.Errorf("failed to evict oldest log file: %w", err)
		}
	}
	for i := s.cfg.MaxBackups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", s.cfg.Path, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		to := fmt.Sprintf("%s.%d", s.cfg.Path, i+1)
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("failed to shift log file %s: %w", from, err)
		}
	}
	if err := os.Rename(s.cfg.Path, s.cfg.Path+".1"); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	return s.open()
}

// Flush syncs the file to disk.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.file.Sync()
}

// Close syncs and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	_ = s.file.Sync()
	err := s.file.Close()
	s.file = nil
	return err
}
