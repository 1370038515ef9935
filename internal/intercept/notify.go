package intercept

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/faultline/internal/core/domain"
)

// Notifier surfaces a failure's user message to whatever UI layer the
// host program runs. The pipeline decides when; rendering is out of scope.
type Notifier interface {
	Notify(f domain.Failure)
}

// NotifyConfig bounds user-facing notifications.
type NotifyConfig struct {
	// MaxPerWindow caps surfaced notifications inside one window.
	MaxPerWindow int `yaml:"max_per_window"`

	// Window is the sliding window the cap applies to.
	Window time.Duration `yaml:"window"`
}

func (c *NotifyConfig) defaults() {
	if c.MaxPerWindow <= 0 {
		c.MaxPerWindow = 3
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
}

// newNotifyLimiter builds a token bucket sized to the configured cap so a
// burst of failures surfaces at most MaxPerWindow notifications; excess
// failures stay logged and reported, just not shown.
func newNotifyLimiter(cfg NotifyConfig) *rate.Limiter {
	cfg.defaults()
	return rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.MaxPerWindow)), cfg.MaxPerWindow)
}
