package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/metrics"
)

// RemoteConfig holds batched remote sink settings.
type RemoteConfig struct {
	URL           string        `yaml:"url"`
	SourceTag     string        `yaml:"source_tag"`
	BatchSize     int           `yaml:"batch_size"`
	BatchInterval time.Duration `yaml:"batch_interval"`
	MaxBuffer     int           `yaml:"max_buffer"`
	Timeout       time.Duration `yaml:"timeout"`
	CloseTimeout  time.Duration `yaml:"close_timeout"`
}

// postFunc delivers one serialized batch. Swappable in tests.
type postFunc func(ctx context.Context, payload []byte) error

// RemoteSink buffers records in memory and flushes them as batched HTTP
// POSTs, either when the batch-size threshold is reached or when the
// interval timer elapses. A failed batch goes back to the front of the
// buffer; the buffer is bounded and drops its oldest records when full.
// Critical records force an immediate flush.
type RemoteSink struct {
	cfg    RemoteConfig
	post   postFunc
	client *http.Client

	mu       sync.Mutex
	buf      []domain.LogRecord
	degraded bool

	flushCh chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewRemoteSink creates a batched remote sink and starts its flush timer.
func NewRemoteSink(cfg RemoteConfig) *RemoteSink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 30 * time.Second
	}
	if cfg.MaxBuffer <= 0 {
		cfg.MaxBuffer = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 5 * time.Second
	}

	s := &RemoteSink{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		flushCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.post = s.httpPost

	s.wg.Add(1)
	go s.run()
	return s
}

func (s *RemoteSink) Name() string { return "remote" }

// Write buffers the record. Never performs network I/O on the caller.
func (s *RemoteSink) Write(rec domain.LogRecord) error {
	s.mu.Lock()
	s.buf = append(s.buf, rec)
	if len(s.buf) > s.cfg.MaxBuffer {
		dropped := len(s.buf) - s.cfg.MaxBuffer
		s.buf = s.buf[dropped:]
		metrics.RecordsDroppedTotal.WithLabelValues(s.Name()).Add(float64(dropped))
	}
	trigger := len(s.buf) >= s.cfg.BatchSize || rec.Level == domain.LevelCritical
	s.mu.Unlock()

	if trigger {
		select {
		case s.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Degraded reports whether the last delivery attempt failed. The flag
// clears on the next successful flush.
func (s *RemoteSink) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *RemoteSink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_ = s.flush(context.Background())
		case <-s.flushCh:
			_ = s.flush(context.Background())
		}
	}
}

// flush sends buffered batches until the buffer is drained or a delivery
// fails. A failed batch is returned to the front of the buffer for the
// next cycle.
func (s *RemoteSink) flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if len(s.buf) == 0 {
			s.mu.Unlock()
			return nil
		}
		n := len(s.buf)
		if n > s.cfg.BatchSize {
			n = s.cfg.BatchSize
		}
		batch := make([]domain.LogRecord, n)
		copy(batch, s.buf[:n])
		s.buf = s.buf[n:]
		s.mu.Unlock()

		payload, err := encodeBatch(batch, s.cfg.SourceTag)
		if err != nil {
			// Unserializable batch cannot be retried.
			metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			return err
		}

		start := time.Now()
		err = s.post(ctx, payload)
		metrics.FlushLatency.Observe(time.Since(start).Seconds())

		s.mu.Lock()
		if err != nil {
			// Return the batch to the front, preserving order, and
			// re-apply the buffer bound.
			s.buf = append(batch, s.buf...)
			if len(s.buf) > s.cfg.MaxBuffer {
				dropped := len(s.buf) - s.cfg.MaxBuffer
				s.buf = s.buf[dropped:]
				metrics.RecordsDroppedTotal.WithLabelValues(s.Name()).Add(float64(dropped))
			}
			s.degraded = true
			s.mu.Unlock()
			metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			return err
		}
		s.degraded = false
		s.mu.Unlock()
	}
}

func encodeBatch(batch []domain.LogRecord, source string) ([]byte, error) {
	records := make([]map[string]any, 0, len(batch))
	for _, rec := range batch {
		records = append(records, rec.ToMap())
	}
	return json.Marshal(map[string]any{
		"records":  records,
		"batch_ts": time.Now().UTC().Format(time.RFC3339Nano),
		"source":   source,
	})
}

func (s *RemoteSink) httpPost(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("batch delivery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("batch delivery rejected: status %d", resp.StatusCode)
	}
	return nil
}

// Flush synchronously drains the buffer.
func (s *RemoteSink) Flush() error {
	return s.flush(context.Background())
}

// Close stops the timer and attempts a final bounded flush.
func (s *RemoteSink) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CloseTimeout)
	defer cancel()
	return s.flush(ctx)
}
