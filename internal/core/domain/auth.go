package domain

// AuthReason narrows why an authentication failure happened.
type AuthReason string

const (
	AuthReasonTokenExpired       AuthReason = "token_expired"
	AuthReasonInvalidCredentials AuthReason = "invalid_credentials"
	AuthReasonBiometricFailed    AuthReason = "biometric_failed"
	AuthReasonSessionRevoked     AuthReason = "session_revoked"
)

// code maps the reason to its machine-stable code.
func (r AuthReason) code() string {
	switch r {
	case AuthReasonTokenExpired:
		return CodeTokenExpired
	case AuthReasonBiometricFailed:
		return CodeBiometricFailed
	case AuthReasonSessionRevoked:
		return CodeSessionRevoked
	default:
		return CodeInvalidCredentials
	}
}

// AuthFailure represents a failed authentication step.
type AuthFailure struct {
	Base
	Reason AuthReason
}

// SubtypeAuth keys auth failures in the recovery registry.
const SubtypeAuth = "auth"

// NewAuthFailure creates an auth failure for the given sub-reason.
func NewAuthFailure(reason AuthReason, message string, cause error) *AuthFailure {
	return &AuthFailure{
		Base:   newBase(KindAuth, reason.code(), message, cause),
		Reason: reason,
	}
}

func (f *AuthFailure) Subtype() string { return SubtypeAuth }

// WithContext returns a copy of the failure carrying the extra attributes.
func (f *AuthFailure) WithContext(ctx Context) *AuthFailure {
	out := *f
	out.Base.Context = f.Base.Context.Merge(ctx)
	return &out
}

// ToMap serializes the failure including the auth sub-reason.
func (f *AuthFailure) ToMap() map[string]any {
	m := f.Base.ToMap()
	m["reason"] = string(f.Reason)
	return m
}
