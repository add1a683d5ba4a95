package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncRead(t *testing.T) {
	tr := &recordingTransport{readRegsResult: []uint16{11, 22}}
	svc := newTestService(t, tr)
	async := NewAsync(2, nil)
	ctx := context.Background()

	op, err := svc.Function("3")
	require.NoError(t, err)

	future := async.Operation(op).Address(10).Quantity(2).ReadAsync(ctx)
	values, err := future.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 22}, values)
	assert.True(t, future.Done())
}

func TestAsyncPropagatesValidationError(t *testing.T) {
	svc := newTestService(t, &recordingTransport{})
	async := NewAsync(2, nil)
	ctx := context.Background()

	op, err := svc.Function("3")
	require.NoError(t, err)

	future := async.Operation(op).Quantity(3000).ReadAsync(ctx)
	_, err = future.Wait(ctx)
	var rangeErr *RangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestAsyncWrite(t *testing.T) {
	tr := &recordingTransport{}
	svc := newTestService(t, tr)
	async := NewAsync(2, nil)
	ctx := context.Background()

	op, err := svc.Function("6")
	require.NoError(t, err)

	_, err = async.Operation(op).Address(5).WriteAsync(ctx, 99).Wait(ctx)
	require.NoError(t, err)
	require.Len(t, tr.calls, 1)
	assert.Equal(t, "WriteSingleRegister", tr.calls[0].op)
}

func TestFutureWaitHonorsContext(t *testing.T) {
	f := newFuture[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.Done())
}
