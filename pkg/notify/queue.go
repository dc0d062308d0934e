package notify

import (
	"sync"

	"github.com/monodebug/attachnotify/internal/domain"
)

// queue is the FIFO of outbound messages. Producers and the draining worker
// share one mutex, so a drain sees a consistent snapshot and enqueue never
// interleaves with a write.
type queue struct {
	mu    sync.Mutex
	items []domain.Message
}

func (q *queue) push(m domain.Message, onPush func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, m)
	if onPush != nil {
		onPush()
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// clear drops every queued message and returns how many were dropped.
func (q *queue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

// drain hands messages to send in order while holding the lock. A message is
// removed only after send succeeds; the first failure stops the drain and
// leaves that message at the head.
func (q *queue) drain(send func(domain.Message) error) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	sent := 0
	for len(q.items) > 0 {
		if err := send(q.items[0]); err != nil {
			return sent, err
		}
		sent++
		q.items[0] = domain.Message{}
		q.items = q.items[1:]
	}
	q.items = nil
	return sent, nil
}
