package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Future is the pending result of an asynchronous operation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Wait blocks until the operation finishes or ctx is cancelled.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports completion without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

const defaultAsyncWorkers = 8

// Async runs operations on a bounded number of background workers. The
// cap keeps a burst of futures from stacking unbounded goroutines on a
// transport that serializes anyway.
type Async struct {
	sem    *semaphore.Weighted
	logger *zap.Logger
}

func NewAsync(workers int, logger *zap.Logger) *Async {
	if workers <= 0 {
		workers = defaultAsyncWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Async{sem: semaphore.NewWeighted(int64(workers)), logger: logger}
}

func run[T any](ctx context.Context, a *Async, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		if err := a.sem.Acquire(ctx, 1); err != nil {
			var zero T
			f.complete(zero, err)
			return
		}
		defer a.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("async operation panicked", zap.Any("panic", r))
				var zero T
				f.complete(zero, fmt.Errorf("async operation panicked: %v", r))
			}
		}()
		value, err := fn(ctx)
		f.complete(value, err)
	}()
	return f
}

// AsyncOperation decorates an Operation with future-returning terminals.
type AsyncOperation struct {
	op    *Operation
	async *Async
}

func (a *Async) Operation(op *Operation) *AsyncOperation {
	return &AsyncOperation{op: op, async: a}
}

func (a *AsyncOperation) UnitID(unitID int) *AsyncOperation {
	a.op.UnitID(unitID)
	return a
}

func (a *AsyncOperation) Address(address int) *AsyncOperation {
	a.op.Address(address)
	return a
}

func (a *AsyncOperation) Quantity(quantity int) *AsyncOperation {
	a.op.Quantity(quantity)
	return a
}

func (a *AsyncOperation) ReadAsync(ctx context.Context) *Future[[]int] {
	return run(ctx, a.async, a.op.Read)
}

func (a *AsyncOperation) ReadSingleAsync(ctx context.Context) *Future[int] {
	return run(ctx, a.async, a.op.ReadSingle)
}

func (a *AsyncOperation) ReadBooleansAsync(ctx context.Context) *Future[[]bool] {
	return run(ctx, a.async, a.op.ReadBooleans)
}

func (a *AsyncOperation) WriteAsync(ctx context.Context, value int) *Future[struct{}] {
	return run(ctx, a.async, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.op.Write(ctx, value)
	})
}

func (a *AsyncOperation) WriteBoolAsync(ctx context.Context, value bool) *Future[struct{}] {
	return run(ctx, a.async, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.op.WriteBool(ctx, value)
	})
}

func (a *AsyncOperation) WriteValuesAsync(ctx context.Context, values []int) *Future[struct{}] {
	return run(ctx, a.async, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.op.WriteValues(ctx, values)
	})
}

func (a *AsyncOperation) WriteBoolsAsync(ctx context.Context, values []bool) *Future[struct{}] {
	return run(ctx, a.async, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.op.WriteBools(ctx, values)
	})
}
