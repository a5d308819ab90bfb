package conversion

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/t2bot/media-converter/common"
)

type outcome[T any] struct {
	val T
	err error
}

// invoke runs a collaborator call off the task goroutine so a deadline can abandon it. Whatever an
// abandoned call produces later is dropped on the floor.
func invoke[T any](ctx context.Context, step string, fn func(context.Context) (T, error)) (T, error) {
	ch := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[T]{err: common.NewItemError(common.ErrInternal, fmt.Errorf("panic during %s: %v", step, r))}
			}
		}()
		v, err := fn(ctx)
		ch <- outcome[T]{val: v, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			if cerr := contextError(ctx, step); cerr != nil {
				return o.val, cerr
			}
			return o.val, errors.Wrap(o.err, step)
		}
		return o.val, nil
	case <-ctx.Done():
		var zero T
		return zero, contextError(ctx, step)
	}
}

// contextError maps a finished context onto the error reported for the item.
func contextError(ctx context.Context, step string) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return common.NewItemError(common.ErrItemTimeout, errors.Wrap(ctx.Err(), step))
	default:
		return common.NewItemError(common.ErrBatchCancelled, errors.Wrap(ctx.Err(), step))
	}
}
