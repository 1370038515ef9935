package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of failure categories.
type Kind string

const (
	KindNetwork        Kind = "network"
	KindAuth           Kind = "auth"
	KindData           Kind = "data"
	KindValidation     Kind = "validation"
	KindBusiness       Kind = "business"
	KindPlatform       Kind = "platform"
	KindAnalyticsAlert Kind = "analytics_alert"
)

// Machine-stable failure codes, unique within their kind.
const (
	// network
	CodeTimeout     = "TIMEOUT"
	CodeConnection  = "CONNECTION"
	CodeDNS         = "DNS"
	CodeServerError = "SERVER_ERROR"
	CodeClientError = "CLIENT_ERROR"
	CodeRateLimited = "RATE_LIMITED"

	// auth
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeBiometricFailed    = "BIOMETRIC_FAILED"
	CodeSessionRevoked     = "SESSION_REVOKED"

	// data
	CodeCorruption = "CORRUPTION"
	CodeLowSpace   = "LOW_SPACE"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"

	// validation
	CodeInvalidInput = "INVALID_INPUT"

	// business
	CodeRuleViolation = "RULE_VIOLATION"

	// platform
	CodePanic   = "PANIC"
	CodeUnknown = "UNKNOWN"

	// analytics
	CodeSpike = "SPIKE"
)

// Failure is the canonical representation of an error flowing through the
// pipeline. Implementations are plain data: immutable after construction,
// safe to share across goroutines.
type Failure interface {
	error

	// Record returns the common failure record.
	Record() *Base

	// Subtype identifies the concrete failure type for strategy lookup.
	Subtype() string

	// UserMessage is safe to show end users. It never contains stack
	// traces or internal identifiers.
	UserMessage() string

	// ToMap serializes the failure for sinks and the crash reporter.
	ToMap() map[string]any
}

// Base holds the fields shared by every failure subtype. Fields are set by
// constructors and never mutated afterwards.
type Base struct {
	ID       string
	Kind     Kind
	Code     string
	Message  string
	Severity Severity
	Cause    error
	Trace    string
	Context  Context
	At       time.Time
}

func newBase(kind Kind, code, message string, cause error) Base {
	return Base{
		ID:       uuid.New().String(),
		Kind:     kind,
		Code:     code,
		Message:  message,
		Severity: severityFor(kind, code),
		Cause:    cause,
		At:       time.Now(),
	}
}

// Record returns the common failure record.
func (b *Base) Record() *Base { return b }

// Error implements the error interface.
func (b *Base) Error() string {
	return fmt.Sprintf("%s/%s: %s", b.Kind, b.Code, b.Message)
}

// Unwrap exposes the wrapped origin cause for errors.Is/As.
func (b *Base) Unwrap() error { return b.Cause }

// UserMessage returns the end-user message for the failure's kind/code.
func (b *Base) UserMessage() string { return userMessageFor(b.Kind, b.Code) }

// Subtype defaults to the kind; concrete subtypes override it.
func (b *Base) Subtype() string { return string(b.Kind) }

// ToMap serializes the common record fields.
func (b *Base) ToMap() map[string]any {
	m := map[string]any{
		"id":        b.ID,
		"kind":      string(b.Kind),
		"code":      b.Code,
		"message":   b.Message,
		"severity":  b.Severity.String(),
		"timestamp": b.At.UTC().Format(time.RFC3339Nano),
	}
	if b.Cause != nil {
		m["cause"] = b.Cause.Error()
	}
	if b.Trace != "" {
		m["trace"] = b.Trace
	}
	if len(b.Context) > 0 {
		m["context"] = b.Context.Map()
	}
	return m
}

// severityFor maps kind+code to a severity. It is the single source of
// truth for built-in severities; subtype constructors consult it and
// callers may override the result explicitly at construction.
func severityFor(kind Kind, code string) Severity {
	switch kind {
	case KindNetwork:
		switch code {
		case CodeTimeout, CodeRateLimited:
			return SeverityMedium
		case CodeConnection, CodeDNS, CodeServerError:
			return SeverityHigh
		case CodeClientError:
			return SeverityLow
		}
		return SeverityMedium
	case KindAuth:
		switch code {
		case CodeSessionRevoked:
			return SeverityHigh
		case CodeTokenExpired:
			return SeverityMedium
		}
		return SeverityLow
	case KindData:
		switch code {
		case CodeCorruption:
			return SeverityCritical
		case CodeLowSpace:
			return SeverityHigh
		case CodeNotFound:
			return SeverityLow
		}
		return SeverityMedium
	case KindValidation:
		return SeverityLow
	case KindBusiness:
		return SeverityMedium
	case KindAnalyticsAlert:
		return SeverityCritical
	case KindPlatform:
		switch code {
		case CodePanic:
			return SeverityCritical
		}
		return SeverityMedium
	}
	return SeverityMedium
}

// userMessageFor maps kind+code to a message safe for end users.
func userMessageFor(kind Kind, code string) string {
	switch kind {
	case KindNetwork:
		switch code {
		case CodeTimeout:
			return "The request took too long. Please try again."
		case CodeRateLimited:
			return "Too many requests. Please wait a moment and try again."
		}
		return "A network problem occurred. Please check your connection."
	case KindAuth:
		switch code {
		case CodeTokenExpired, CodeSessionRevoked:
			return "Your session has expired. Please sign in again."
		case CodeBiometricFailed:
			return "Biometric check failed. Please use your password instead."
		}
		return "Sign-in failed. Please check your credentials."
	case KindData:
		switch code {
		case CodeLowSpace:
			return "Your device is low on storage space."
		}
		return "A data problem occurred. Your information is being restored."
	case KindValidation:
		return "Some fields are invalid. Please review your input."
	case KindBusiness:
		return "This action cannot be completed right now."
	case KindAnalyticsAlert:
		return "A service degradation was detected."
	}
	return "Something went wrong. Please try again."
}

// GenericFailure is a failure with no category-specific fields, used for
// business-rule and platform failures and as the classifier fallback.
type GenericFailure struct {
	Base
}

// NewFailure creates a generic failure of the given kind.
func NewFailure(kind Kind, code, message string, cause error) *GenericFailure {
	return &GenericFailure{Base: newBase(kind, code, message, cause)}
}

// NewFailureWithSeverity creates a generic failure with an explicit
// severity override.
func NewFailureWithSeverity(kind Kind, code, message string, severity Severity, cause error) *GenericFailure {
	f := NewFailure(kind, code, message, cause)
	f.Base.Severity = severity
	return f
}

// WithContext returns a copy of the failure carrying the extra attributes.
func (f *GenericFailure) WithContext(ctx Context) *GenericFailure {
	out := *f
	out.Base.Context = f.Base.Context.Merge(ctx)
	return &out
}

// WithTrace returns a copy of the failure carrying a captured stack trace.
func (f *GenericFailure) WithTrace(trace string) *GenericFailure {
	out := *f
	out.Base.Trace = trace
	return &out
}
