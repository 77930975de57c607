package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai"
	"github.com/spigell/hh-assessor/internal/utils"
)

const DefaultMaxWait = 5 * time.Second

// Factory builds the underlying generator on first use, typically resolving
// the provider credentials.
type Factory func(ctx context.Context) (ai.Generator, error)

// Generator puts a Guard in front of another ai.Generator.
type Generator struct {
	guard   *Guard
	factory Factory
	maxWait time.Duration
	wait    func(ctx context.Context, d time.Duration) error
	logger  *zap.Logger

	initMu sync.Mutex
	next   ai.Generator
}

// NewGenerator wraps the generator built by factory. maxWait bounds how long a
// call may block waiting for the guard before RateLimitedError is returned;
// zero means never wait.
func NewGenerator(guard *Guard, factory Factory, maxWait time.Duration, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxWait < 0 {
		maxWait = 0
	}

	return &Generator{
		guard:   guard,
		factory: factory,
		maxWait: maxWait,
		wait:    utils.WaitFor,
		logger:  logger,
	}
}

// Wrap guards an already constructed generator.
func Wrap(guard *Guard, next ai.Generator, maxWait time.Duration, logger *zap.Logger) *Generator {
	return NewGenerator(guard, func(context.Context) (ai.Generator, error) { return next, nil }, maxWait, logger)
}

func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	next, err := g.ensure(ctx)
	if err != nil {
		return "", err
	}

	var waited time.Duration
	for {
		err := g.guard.Reserve()
		if err == nil {
			break
		}

		var limited *RateLimitedError
		if !errors.As(err, &limited) {
			return "", err
		}
		if waited+limited.RetryAfter > g.maxWait {
			g.logger.Warn("generation call rate limited",
				zap.Duration("retry_after", limited.RetryAfter),
				zap.Duration("waited", waited),
			)
			return "", err
		}

		g.logger.Debug("waiting for generation slot", zap.Duration("delay", limited.RetryAfter))
		if err := g.wait(ctx, limited.RetryAfter); err != nil {
			return "", err
		}
		waited += limited.RetryAfter
	}

	return next.Generate(ctx, req)
}

// Stats exposes the guard ledger snapshot.
func (g *Generator) Stats() Stats {
	return g.guard.Stats()
}

// ensure runs the factory once. A failed initialization is retried by the next call.
func (g *Generator) ensure(ctx context.Context) (ai.Generator, error) {
	g.initMu.Lock()
	defer g.initMu.Unlock()

	if g.next != nil {
		return g.next, nil
	}

	if g.factory == nil {
		return nil, errors.New("generator factory is not configured")
	}

	next, err := g.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize generator: %w", err)
	}
	if next == nil {
		return nil, errors.New("initialize generator: factory returned nil")
	}

	g.next = next
	return next, nil
}
