package intercept

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime/debug"

	"github.com/vietddude/faultline/internal/core/domain"
)

// Matcher converts a recognized raw error into a Failure. Returning nil
// means "not mine, try the next matcher".
type Matcher func(err error) domain.Failure

// classify maps an arbitrary raw value thrown anywhere in the process to
// a Failure. Unrecognized values land on platform/UNKNOWN at medium
// severity with a captured stack.
func classify(v any, custom []Matcher) domain.Failure {
	switch x := v.(type) {
	case domain.Failure:
		return x
	case error:
		return classifyError(x, custom)
	case string:
		return domain.NewFailure(domain.KindPlatform, domain.CodeUnknown, x, nil).
			WithTrace(string(debug.Stack()))
	default:
		return domain.NewFailure(domain.KindPlatform, domain.CodeUnknown,
			fmt.Sprintf("unhandled value: %v", x), nil).
			WithTrace(string(debug.Stack()))
	}
}

func classifyError(err error, custom []Matcher) domain.Failure {
	var f domain.Failure
	if errors.As(err, &f) {
		return f
	}

	for _, m := range custom {
		if out := m(err); out != nil {
			return out
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewNetworkFailure(domain.CodeTimeout, err.Error(), 0, "", "", err)
	case errors.Is(err, sql.ErrNoRows):
		return domain.NewDataFailure(domain.CodeNotFound, err.Error(), "", "", err)
	case errors.Is(err, os.ErrPermission):
		return domain.NewFailure(domain.KindPlatform, domain.CodeUnknown, err.Error(), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		code := domain.CodeConnection
		if netErr.Timeout() {
			code = domain.CodeTimeout
		}
		return domain.NewNetworkFailure(code, err.Error(), 0, "", "", err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.NewNetworkFailure(domain.CodeDNS, err.Error(), 0, dnsErr.Name, "", err)
	}

	return domain.NewFailure(domain.KindPlatform, domain.CodeUnknown, err.Error(), err).
		WithTrace(string(debug.Stack()))
}
