package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFixed(t *testing.T) {
	q := NewRingQueue[int](2)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	assert.ErrorIs(t, q.Enqueue(3), ErrQueueFull)

	v, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, _ = q.Dequeue()
	assert.Equal(t, 1, v)
	require.NoError(t, q.Enqueue(3))
	v, _ = q.Dequeue()
	assert.Equal(t, 2, v)
	v, _ = q.Dequeue()
	assert.Equal(t, 3, v)

	_, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueGrowsInOrder(t *testing.T) {
	q := NewGrowableRingQueue[string](2)
	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	_, _ = q.Dequeue()
	for _, s := range []string{"c", "d", "e", "f"} {
		require.NoError(t, q.Enqueue(s))
	}
	assert.Equal(t, 5, q.Len())

	var got []string
	for !q.IsEmpty() {
		s, err := q.Dequeue()
		require.NoError(t, err)
		got = append(got, s)
	}
	assert.Equal(t, []string{"b", "c", "d", "e", "f"}, got)
}
