package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(nil)
	go l.Run(context.Background())
	t.Cleanup(l.Stop)
	return l
}

func TestTasksRunInOrder(t *testing.T) {
	l := startLoop(t)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, l.Post(func() { order = append(order, i) }))
	}
	require.NoError(t, l.Do(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestTaskMayPostFollowUp(t *testing.T) {
	l := startLoop(t)

	var order []string
	require.NoError(t, l.Do(context.Background(), func() {
		order = append(order, "outer")
		_ = l.Post(func() { order = append(order, "inner") })
		order = append(order, "outer-done")
	}))
	require.NoError(t, l.Do(context.Background(), func() {}))

	assert.Equal(t, []string{"outer", "outer-done", "inner"}, order)
}

func TestPanickingTaskDoesNotStopLoop(t *testing.T) {
	l := startLoop(t)

	require.NoError(t, l.Post(func() { panic("boom") }))

	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestAfterFuncRunsOnLoop(t *testing.T) {
	l := startLoop(t)

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer task did not run")
	}
}

func TestAfterFuncCancel(t *testing.T) {
	l := startLoop(t)

	fired := false
	cancel := l.AfterFunc(50*time.Millisecond, func() { fired = true })
	assert.True(t, cancel())

	time.Sleep(80 * time.Millisecond)
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.False(t, fired)
}

func TestPostAfterStop(t *testing.T) {
	l := New(nil)
	go l.Run(context.Background())
	l.Stop()
	<-l.Done()

	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrStopped)
}

func TestRunTwice(t *testing.T) {
	l := startLoop(t)
	require.NoError(t, l.Do(context.Background(), func() {}))

	assert.ErrorIs(t, l.Run(context.Background()), ErrAlreadyRunning)
}
