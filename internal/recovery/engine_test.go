package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/logging"
)

type stubStrategy struct {
	name    string
	result  Result
	panics  bool
	calls   int
	lastCtx context.Context
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Recover(ctx context.Context, f domain.Failure) Result {
	s.calls++
	s.lastCtx = ctx
	if s.panics {
		panic("strategy blew up")
	}
	return s.result
}

func TestEngine_OrderedShortCircuit(t *testing.T) {
	a := &stubStrategy{name: "a", result: Failed("a cannot help")}
	b := &stubStrategy{name: "b", result: Resolved("b fixed it")}
	c := &stubStrategy{name: "c", result: Resolved("should never run")}

	e := NewEngine(time.Second, logging.New(domain.LevelDebug))
	e.Register(domain.SubtypeNetwork, a, b, c)

	f := domain.NewNetworkFailure(domain.CodeTimeout, "timeout", 0, "/x", "GET", nil)
	res := e.Recover(context.Background(), f)

	if !res.Success || res.Message != "b fixed it" {
		t.Errorf("expected b's result, got %+v", res)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("expected a and b called once, got %d/%d", a.calls, b.calls)
	}
	if c.calls != 0 {
		t.Errorf("c must not be invoked after b succeeds, got %d calls", c.calls)
	}
}

func TestEngine_SinglePassNoRetry(t *testing.T) {
	a := &stubStrategy{name: "a", result: Failed("nope")}
	e := NewEngine(time.Second, logging.New(domain.LevelDebug))
	e.Register(domain.SubtypeAuth, a)

	f := domain.NewAuthFailure(domain.AuthReasonSessionRevoked, "revoked", nil)
	res := e.Recover(context.Background(), f)

	if res.Success {
		t.Error("expected failure")
	}
	if a.calls != 1 {
		t.Errorf("strategy list must be walked exactly once, got %d calls", a.calls)
	}
}

func TestEngine_PanicTreatedAsFailure(t *testing.T) {
	boom := &stubStrategy{name: "boom", panics: true}
	next := &stubStrategy{name: "next", result: Resolved("recovered after panic")}

	e := NewEngine(time.Second, logging.New(domain.LevelDebug))
	e.Register(domain.SubtypeData, boom, next)

	f := domain.NewDataFailure(domain.CodeConflict, "conflict", "orders", "", nil)
	res := e.Recover(context.Background(), f)

	if !res.Success || res.Message != "recovered after panic" {
		t.Errorf("panicking strategy should fail over to the next one, got %+v", res)
	}
	if boom.calls != 1 || next.calls != 1 {
		t.Errorf("unexpected call counts: %d/%d", boom.calls, next.calls)
	}
}

func TestEngine_ExactSubtypeMatchOnly(t *testing.T) {
	a := &stubStrategy{name: "a", result: Resolved("net only")}
	e := NewEngine(time.Second, logging.New(domain.LevelDebug))
	e.Register(domain.SubtypeNetwork, a)

	// A data failure has no registered strategy.
	f := domain.NewDataFailure(domain.CodeNotFound, "missing row", "users", "id", nil)
	res := e.Recover(context.Background(), f)

	if res.Success {
		t.Error("expected no-strategy failure")
	}
	if a.calls != 0 {
		t.Error("network strategy must not run for a data failure")
	}
}

func TestEngine_StrategyTimeBoxed(t *testing.T) {
	a := &stubStrategy{name: "a", result: Failed("slow")}
	e := NewEngine(50*time.Millisecond, logging.New(domain.LevelDebug))
	e.Register(domain.SubtypeNetwork, a)

	f := domain.NewNetworkFailure(domain.CodeTimeout, "t", 0, "", "", nil)
	e.Recover(context.Background(), f)

	if a.lastCtx == nil {
		t.Fatal("strategy never invoked")
	}
	if _, ok := a.lastCtx.Deadline(); !ok {
		t.Error("strategy context should carry a deadline")
	}
}
