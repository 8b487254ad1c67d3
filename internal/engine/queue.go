package engine

import "sync"

// Queue is an unbounded FIFO of raw wire frames. The connection feed
// goroutine pushes, the editor-driven drain pops; both sides may touch it
// concurrently.
type Queue struct {
	mu    sync.Mutex
	items []string
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends one frame.
func (q *Queue) Push(line string) {
	q.mu.Lock()
	q.items = append(q.items, line)
	q.mu.Unlock()
}

// Pop removes and returns the oldest frame. The second return is false
// when the queue is empty.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	line := q.items[0]
	q.items = q.items[1:]
	return line, true
}

// Len reports how many frames are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
