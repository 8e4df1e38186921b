package vulkan

import "sync"

// QueueLocks serializes submissions per queue family. vkQueueSubmit and
// vkQueuePresentKHR require external synchronization on the queue.
type QueueLocks struct {
	mu     sync.Mutex
	queues map[uint32]*sync.Mutex
}

func NewQueueLocks() *QueueLocks {
	return &QueueLocks{queues: make(map[uint32]*sync.Mutex)}
}

func (q *QueueLocks) lock(family uint32) *sync.Mutex {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.queues[family]
	if !ok {
		l = &sync.Mutex{}
		q.queues[family] = l
	}
	return l
}

// Do runs fn while holding the lock of the queue family.
func (q *QueueLocks) Do(family uint32, fn func() error) error {
	l := q.lock(family)
	l.Lock()
	defer l.Unlock()

	return fn()
}
