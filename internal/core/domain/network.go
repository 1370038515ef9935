package domain

import "context"

// Operation is a retryable unit of work attached to a network failure so
// recovery can re-run the original call. It is never serialized.
type Operation func(ctx context.Context) error

// NetworkFailure represents a failed network interaction.
type NetworkFailure struct {
	Base
	StatusCode int
	Endpoint   string
	Method     string

	// Operation is the original call that failed, if the caller wants it
	// retried by the network recovery strategy.
	Operation Operation `json:"-"`
}

// SubtypeNetwork keys network failures in the recovery registry.
const SubtypeNetwork = "network"

// NewNetworkFailure creates a network failure. The code should be one of
// the network Code* constants; severity derives from it.
func NewNetworkFailure(code, message string, statusCode int, endpoint, method string, cause error) *NetworkFailure {
	f := &NetworkFailure{
		Base:       newBase(KindNetwork, code, message, cause),
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Method:     method,
	}
	return f
}

// NetworkFailureFromStatus derives the code from an HTTP status.
func NetworkFailureFromStatus(message string, statusCode int, endpoint, method string, cause error) *NetworkFailure {
	code := CodeConnection
	switch {
	case statusCode == 408:
		code = CodeTimeout
	case statusCode == 429:
		code = CodeRateLimited
	case statusCode >= 500:
		code = CodeServerError
	case statusCode >= 400:
		code = CodeClientError
	}
	return NewNetworkFailure(code, message, statusCode, endpoint, method, cause)
}

func (f *NetworkFailure) Subtype() string { return SubtypeNetwork }

// Transient reports whether the failure is worth retrying: timeouts,
// connection problems, 5xx, and the two retryable 4xx statuses (408, 429).
// All other client errors are permanent.
func (f *NetworkFailure) Transient() bool {
	switch f.Base.Code {
	case CodeTimeout, CodeConnection, CodeDNS, CodeServerError, CodeRateLimited:
	default:
		return false
	}
	if f.StatusCode >= 400 && f.StatusCode < 500 {
		return f.StatusCode == 408 || f.StatusCode == 429
	}
	return true
}

// WithOperation returns a copy carrying the retryable original operation.
func (f *NetworkFailure) WithOperation(op Operation) *NetworkFailure {
	out := *f
	out.Operation = op
	return &out
}

// WithContext returns a copy of the failure carrying the extra attributes.
func (f *NetworkFailure) WithContext(ctx Context) *NetworkFailure {
	out := *f
	out.Base.Context = f.Base.Context.Merge(ctx)
	return &out
}

// ToMap serializes the failure including network-specific fields.
func (f *NetworkFailure) ToMap() map[string]any {
	m := f.Base.ToMap()
	if f.StatusCode != 0 {
		m["status_code"] = f.StatusCode
	}
	if f.Endpoint != "" {
		m["endpoint"] = f.Endpoint
	}
	if f.Method != "" {
		m["method"] = f.Method
	}
	return m
}
