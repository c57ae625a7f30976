package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tabKey struct{}

func isDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestJoinContext_CallerCancels(t *testing.T) {
	tab, cancelTab := context.WithCancel(context.WithValue(context.Background(), tabKey{}, "tab-1"))
	defer cancelTab()
	caller, cancelCaller := context.WithCancel(context.Background())

	joined, release := joinContext(tab, caller)
	defer release()
	assert.Equal(t, "tab-1", joined.Value(tabKey{}))
	require.NoError(t, joined.Err())

	cancelCaller()
	require.True(t, isDone(joined))
	assert.ErrorIs(t, context.Cause(joined), context.Canceled)
	assert.NoError(t, tab.Err())
}

func TestJoinContext_CallerDeadline(t *testing.T) {
	caller, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	joined, release := joinContext(context.Background(), caller)
	defer release()
	require.True(t, isDone(joined))
	assert.True(t, errors.Is(context.Cause(joined), context.DeadlineExceeded))
}

func TestJoinContext_TabClosesAndRelease(t *testing.T) {
	tab, cancelTab := context.WithCancel(context.Background())
	caller := context.Background()

	joined, release := joinContext(tab, caller)
	defer release()
	cancelTab()
	assert.True(t, isDone(joined))

	other, releaseOther := joinContext(context.Background(), caller)
	releaseOther()
	assert.True(t, isDone(other))
	assert.NoError(t, caller.Err())
}
