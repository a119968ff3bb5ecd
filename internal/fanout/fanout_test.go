package fanout_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodroute/moodroute/internal/fanout"
)

func TestAll_PreservesOrder(t *testing.T) {
	got, err := fanout.All(context.Background(), 5, func(_ context.Context, i int) (string, error) {
		// Later indexes finish first.
		time.Sleep(time.Duration(5-i) * time.Millisecond)
		return fmt.Sprintf("item-%d", i), nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"item-0", "item-1", "item-2", "item-3", "item-4"}, got)
}

func TestAll_FailsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	var cancelled atomic.Int32

	got, err := fanout.All(context.Background(), 3, func(ctx context.Context, i int) (int, error) {
		if i == 1 {
			return 0, boom
		}
		select {
		case <-ctx.Done():
			cancelled.Add(1)
			return 0, ctx.Err()
		case <-time.After(2 * time.Second):
			return i, nil
		}
	})

	require.ErrorIs(t, err, boom)
	assert.Nil(t, got)
	assert.Equal(t, int32(2), cancelled.Load(), "in-flight calls see a cancelled context")
}

func TestAll_Empty(t *testing.T) {
	got, err := fanout.All(context.Background(), 0, func(context.Context, int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSettled_KeepsSuccesses(t *testing.T) {
	var failed []int

	got := fanout.Settled(context.Background(), 4, func(_ context.Context, i int) (int, error) {
		if i%2 == 1 {
			return 0, fmt.Errorf("odd %d", i)
		}
		return i * 10, nil
	}, func(i int, err error) {
		failed = append(failed, i)
		assert.Error(t, err)
	})

	assert.Equal(t, []int{0, 20}, got)
	assert.Equal(t, []int{1, 3}, failed)
}

func TestSettled_AllFail(t *testing.T) {
	got := fanout.Settled(context.Background(), 2, func(context.Context, int) (string, error) {
		return "", errors.New("nope")
	}, nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
