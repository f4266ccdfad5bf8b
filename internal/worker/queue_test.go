package worker

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/presser/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeJob(t *testing.T) *domain.Job {
	t.Helper()
	job, err := domain.NewJob("https://example.com")
	require.NoError(t, err)
	return job
}

func TestQueue_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("enqueue and consume in FIFO order", func(t *testing.T) {
		t.Parallel()

		q := NewQueue(3, testLogger())
		first := makeJob(t)
		second := makeJob(t)
		require.NoError(t, q.Enqueue(first))
		require.NoError(t, q.Enqueue(second))

		assert.Equal(t, 2, q.Depth())
		assert.Equal(t, first.ID, (<-q.Chan()).ID)
		assert.Equal(t, second.ID, (<-q.Chan()).ID)
	})

	t.Run("full queue rejects", func(t *testing.T) {
		t.Parallel()

		q := NewQueue(1, testLogger())
		require.NoError(t, q.Enqueue(makeJob(t)))

		assert.True(t, q.Full())
		err := q.Enqueue(makeJob(t))
		assert.ErrorIs(t, err, ErrQueueFull)
	})

	t.Run("closed queue rejects", func(t *testing.T) {
		t.Parallel()

		q := NewQueue(1, testLogger())
		q.Close()

		err := q.Enqueue(makeJob(t))
		assert.ErrorIs(t, err, ErrQueueClosed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		q := NewQueue(1, testLogger())
		q.Close()
		assert.NotPanics(t, q.Close)
	})
}
