package async

import (
	"context"
	"sync"

	"github.com/BlueRidgeLabs/chatpro/pkg/utils/errutil"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatch executes handler in a new goroutine with a background context
// that keeps the caller's logger. Errors and panics are logged, never returned.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := detach(ctx)
	go run(bgCtx, handler)
}

// Group dispatches handlers like Dispatch and lets the owner wait for all of
// them to finish.
type Group struct {
	wg sync.WaitGroup
}

// Dispatch runs handler asynchronously and tracks it in the group
func (g *Group) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := detach(ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		run(bgCtx, handler)
	}()
}

// Wait blocks until every dispatched handler returned
func (g *Group) Wait() {
	g.wg.Wait()
}

func detach(ctx context.Context) context.Context {
	return logging.With(context.Background(), logging.From(ctx))
}

func run(ctx context.Context, handler func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			_ = errutil.Handle(ctx, goerr.New("panic in async handler", goerr.V("panic", r)), "async handler panicked")
		}
	}()

	if err := handler(ctx); err != nil {
		_ = errutil.Handle(ctx, err, "async handler failed")
	}
}
