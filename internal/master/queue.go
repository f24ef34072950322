package master

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/btree"
)

type queuedOp struct {
	op       Operation
	id       string
	region   string // encoded region name
	seq      uint64
	readyAt  time.Time
	attempts int
	backoff  *backoff.ExponentialBackOff
}

func lessReady(a, b *queuedOp) bool {
	if a.op.Priority() != b.op.Priority() {
		return a.op.Priority() < b.op.Priority()
	}
	return a.seq < b.seq
}

func lessDelayed(a, b *queuedOp) bool {
	if !a.readyAt.Equal(b.readyAt) {
		return a.readyAt.Before(b.readyAt)
	}
	return a.seq < b.seq
}

// opQueue orders runnable operations by (priority, submission order) and
// parks delayed ones until their backoff expires. An operation is never
// handed out while another operation on the same region is in flight.
type opQueue struct {
	mu       sync.Mutex
	ready    *btree.BTreeG[*queuedOp]
	delayed  *btree.BTreeG[*queuedOp]
	inFlight map[string]struct{}
	seq      uint64
	notify   chan struct{}
	now      func() time.Time
}

func newOpQueue() *opQueue {
	return &opQueue{
		ready:    btree.NewG(8, lessReady),
		delayed:  btree.NewG(8, lessDelayed),
		inFlight: make(map[string]struct{}),
		notify:   make(chan struct{}, 1),
		now:      time.Now,
	}
}

func (q *opQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *opQueue) push(item *queuedOp) {
	q.mu.Lock()
	q.seq++
	item.seq = q.seq
	item.readyAt = time.Time{}
	q.ready.ReplaceOrInsert(item)
	q.mu.Unlock()
	q.signal()
}

func (q *opQueue) pushDelayed(item *queuedOp, delay time.Duration) {
	q.mu.Lock()
	q.seq++
	item.seq = q.seq
	item.readyAt = q.now().Add(delay)
	q.delayed.ReplaceOrInsert(item)
	q.mu.Unlock()
	q.signal()
}

// pop returns the next runnable operation and marks its region in flight.
// With nothing runnable it returns the time until the earliest delayed
// operation matures, or a negative duration when none is parked.
func (q *opQueue) pop() (*queuedOp, time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for {
		item, ok := q.delayed.Min()
		if !ok || item.readyAt.After(now) {
			break
		}
		q.delayed.DeleteMin()
		q.ready.ReplaceOrInsert(item)
	}

	var next *queuedOp
	q.ready.Ascend(func(item *queuedOp) bool {
		if _, busy := q.inFlight[item.region]; busy {
			return true
		}
		next = item
		return false
	})
	if next != nil {
		q.ready.Delete(next)
		q.inFlight[next.region] = struct{}{}
		if q.ready.Len() > 0 {
			q.signal()
		}
		return next, 0
	}

	if item, ok := q.delayed.Min(); ok {
		return nil, item.readyAt.Sub(now)
	}
	return nil, -1
}

// done releases the region of item so queued operations on it can run.
func (q *opQueue) done(item *queuedOp) {
	q.mu.Lock()
	delete(q.inFlight, item.region)
	waiting := q.ready.Len() > 0
	q.mu.Unlock()
	if waiting {
		q.signal()
	}
}

func (q *opQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready.Len() + q.delayed.Len()
}
