package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/utils/async"
	"github.com/m-mizutani/gt"
)

func TestGroup(t *testing.T) {
	var g async.Group
	var count atomic.Int32

	for range 5 {
		g.Dispatch(context.Background(), func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
	}
	g.Dispatch(context.Background(), func(ctx context.Context) error {
		count.Add(1)
		return errors.New("boom")
	})
	g.Dispatch(context.Background(), func(ctx context.Context) error {
		count.Add(1)
		panic("unexpected")
	})

	g.Wait()
	gt.Value(t, count.Load()).Equal(int32(7))
}

func TestDispatch_DetachesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	async.Dispatch(ctx, func(ctx context.Context) error {
		done <- ctx.Err()
		return nil
	})

	gt.NoError(t, <-done)
}
