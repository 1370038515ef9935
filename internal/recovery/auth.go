package recovery

import (
	"context"

	"github.com/vietddude/faultline/internal/core/domain"
)

// TokenRefresher attempts a credential refresh against the auth backend.
type TokenRefresher interface {
	Refresh(ctx context.Context) error
}

// AuthStrategy handles authentication failures: a token-expiry triggers a
// credential refresh, a biometric failure signals the caller to fall back
// to an alternate method. The strategy never executes the fallback itself.
type AuthStrategy struct {
	refresher TokenRefresher
}

// NewAuthStrategy creates the auth recovery strategy.
func NewAuthStrategy(refresher TokenRefresher) *AuthStrategy {
	return &AuthStrategy{refresher: refresher}
}

func (s *AuthStrategy) Name() string { return "auth_refresh" }

func (s *AuthStrategy) Recover(ctx context.Context, f domain.Failure) Result {
	af, ok := f.(*domain.AuthFailure)
	if !ok {
		return Failed("not an auth failure")
	}

	switch af.Reason {
	case domain.AuthReasonTokenExpired:
		if s.refresher == nil {
			return Failed("no token refresher configured")
		}
		if err := s.refresher.Refresh(ctx); err != nil {
			return Failed("token refresh failed: " + err.Error())
		}
		return ResolvedWith("token refreshed", map[string]any{
			"retry_original": true,
		})
	case domain.AuthReasonBiometricFailed:
		return ResolvedWith("fall back to credential login", map[string]any{
			"fallback_method": "credentials",
		})
	default:
		return Failed("no recovery for auth reason " + string(af.Reason))
	}
}
