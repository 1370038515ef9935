package report

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/metrics"
)

// Config holds crash reporter settings.
type Config struct {
	URL        string        `yaml:"url"`
	AppVersion string        `yaml:"app_version"`
	Platform   string        `yaml:"platform"`
	BuildMode  string        `yaml:"build_mode"`
	Timeout    time.Duration `yaml:"timeout"`
}

// HTTPReporter posts failure payloads to the crash-analytics backend. The
// backend's transport details past this POST are its own concern.
type HTTPReporter struct {
	cfg    Config
	client *http.Client

	// send delivers one payload; swappable in tests.
	send func(ctx context.Context, payload []byte) error
}

// NewHTTPReporter creates a reporter for the configured backend.
func NewHTTPReporter(cfg Config) *HTTPReporter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	r := &HTTPReporter{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	r.send = r.httpSend
	return r
}

// Report forwards the failure with process-wide attributes and an
// anonymized subject identifier attached. It never panics.
func (r *HTTPReporter) Report(ctx context.Context, f domain.Failure) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reporter panicked: %v", rec)
		}
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.ReportsTotal.WithLabelValues(result).Inc()
	}()

	payload := f.ToMap()
	payload["app_version"] = r.cfg.AppVersion
	payload["platform"] = r.cfg.Platform
	payload["build_mode"] = r.cfg.BuildMode
	if userID, ok := f.Record().Context.Get("user_id"); ok {
		payload["subject_id"] = AnonymizeSubject(fmt.Sprint(userID))
		delete(payload, "context") // raw context may carry the identifier
		scrubbed := make(map[string]any)
		for _, a := range f.Record().Context {
			if a.Key == "user_id" {
				continue
			}
			scrubbed[a.Key] = a.Value
		}
		if len(scrubbed) > 0 {
			payload["context"] = scrubbed
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize crash report: %w", err)
	}
	return r.send(ctx, body)
}

func (r *HTTPReporter) httpSend(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build crash report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("crash report delivery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("crash report rejected: status %d", resp.StatusCode)
	}
	return nil
}

// AnonymizeSubject hashes a subject identifier so the backend can size
// impact without seeing the raw id.
func AnonymizeSubject(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:8])
}
