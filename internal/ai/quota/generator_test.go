package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai"
)

type countingGenerator struct {
	calls int
}

func (c *countingGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	c.calls++
	return "echo: " + req.Prompt, nil
}

func TestGeneratorInitializesOnce(t *testing.T) {
	clock := newFakeClock()
	guard := NewGuard(Config{MaxCalls: 10, Window: time.Minute}, clock.Now)

	inits := 0
	next := &countingGenerator{}
	gen := NewGenerator(guard, func(context.Context) (ai.Generator, error) {
		inits++
		return next, nil
	}, 0, zap.NewNop())

	for i := 0; i < 3; i++ {
		out, err := gen.Generate(context.Background(), ai.Request{Prompt: "hi"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "echo: hi" {
			t.Fatalf("unexpected output: %q", out)
		}
	}

	if inits != 1 {
		t.Fatalf("expected a single initialization, got %d", inits)
	}
	if next.calls != 3 {
		t.Fatalf("expected 3 dispatched calls, got %d", next.calls)
	}
	if stats := gen.Stats(); stats.Remaining != 7 {
		t.Fatalf("expected 7 remaining calls, got %+v", stats)
	}
}

func TestGeneratorRetriesFailedInitialization(t *testing.T) {
	guard := NewGuard(Config{}, newFakeClock().Now)

	attempts := 0
	gen := NewGenerator(guard, func(context.Context) (ai.Generator, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("api key is not configured")
		}
		return &countingGenerator{}, nil
	}, 0, nil)

	if _, err := gen.Generate(context.Background(), ai.Request{Prompt: "a"}); err == nil {
		t.Fatal("expected initialization error")
	}
	if stats := guard.Stats(); stats.RetryAfter != 0 {
		t.Fatalf("failed initialization must not record a call: %+v", stats)
	}

	if _, err := gen.Generate(context.Background(), ai.Request{Prompt: "a"}); err != nil {
		t.Fatalf("expected second attempt to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 init attempts, got %d", attempts)
	}
}

func TestGeneratorWaitsForShortDelays(t *testing.T) {
	clock := newFakeClock()
	guard := NewGuard(Config{MinInterval: time.Second}, clock.Now)
	next := &countingGenerator{}

	gen := Wrap(guard, next, 2*time.Second, nil)
	var waits []time.Duration
	gen.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		clock.Advance(d)
		return nil
	}

	for i := 0; i < 3; i++ {
		if _, err := gen.Generate(context.Background(), ai.Request{Prompt: "x"}); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	if next.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", next.calls)
	}
	if len(waits) != 2 || waits[0] != time.Second || waits[1] != time.Second {
		t.Fatalf("unexpected waits: %v", waits)
	}
}

func TestGeneratorReturnsRateLimitedBeyondMaxWait(t *testing.T) {
	clock := newFakeClock()
	guard := NewGuard(Config{Window: time.Minute, MaxCalls: 1}, clock.Now)
	next := &countingGenerator{}

	gen := Wrap(guard, next, 5*time.Second, nil)
	gen.wait = func(context.Context, time.Duration) error {
		t.Fatal("must not wait for a delay beyond max wait")
		return nil
	}

	if _, err := gen.Generate(context.Background(), ai.Request{Prompt: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := gen.Generate(context.Background(), ai.Request{Prompt: "x"})
	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if limited.RetryAfter != time.Minute {
		t.Fatalf("expected retry after 1m, got %s", limited.RetryAfter)
	}
	if next.calls != 1 {
		t.Fatalf("rate limited call must not be dispatched, got %d calls", next.calls)
	}
}

func TestGeneratorStopsWaitingOnCancel(t *testing.T) {
	clock := newFakeClock()
	guard := NewGuard(Config{MinInterval: time.Second}, clock.Now)
	next := &countingGenerator{}
	gen := Wrap(guard, next, time.Minute, nil)
	gen.wait = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	if _, err := gen.Generate(context.Background(), ai.Request{Prompt: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gen.Generate(ctx, ai.Request{Prompt: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected 1 call, got %d", next.calls)
	}
}
