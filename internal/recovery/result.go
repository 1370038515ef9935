// Package recovery maps failure subtypes to ordered recovery strategies
// and executes them.
package recovery

// Result is the outcome of a recovery attempt. Strategy-internal failures
// are expressed as a failed Result, never as a panic or error return, so
// the engine's iteration stays free of exception-style control flow.
type Result struct {
	Success bool
	Message string

	// Data passes hints back to the caller, e.g. an alternate
	// authentication method to fall back to.
	Data map[string]any
}

// Resolved builds a successful result.
func Resolved(message string) Result {
	return Result{Success: true, Message: message}
}

// ResolvedWith builds a successful result carrying caller hints.
func ResolvedWith(message string, data map[string]any) Result {
	return Result{Success: true, Message: message, Data: data}
}

// Failed builds an unsuccessful result.
func Failed(reason string) Result {
	return Result{Success: false, Message: reason}
}
