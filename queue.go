package hsm

// EventID identifies an event. Its meaning is defined by the states that
// handle it.
type EventID uint32

// NoEvent is passed to entry and exit handlers that run while the queue is
// empty.
const NoEvent EventID = 0

// DropPolicy selects which event is discarded when a bounded Queue is full.
type DropPolicy int

const (
	// DropNewest rejects the event being pushed.
	DropNewest DropPolicy = iota
	// DropOldest evicts the head of the queue to make room.
	DropOldest
)

func (p DropPolicy) String() string {
	switch p {
	case DropNewest:
		return "drop-newest"
	case DropOldest:
		return "drop-oldest"
	default:
		return "unknown"
	}
}

const minQueueSize = 8

// Queue is a FIFO of pending events backed by a growable ring buffer.
// A zero limit means the queue grows without bound.
type Queue struct {
	buf     []EventID
	head    int
	n       int
	limit   int
	policy  DropPolicy
	dropped uint64
}

// NewQueue returns an empty queue. limit <= 0 makes it unbounded.
func NewQueue(limit int, policy DropPolicy) *Queue {
	if limit < 0 {
		limit = 0
	}
	return &Queue{limit: limit, policy: policy}
}

// Push appends evt at the tail. It reports false when evt was dropped.
func (q *Queue) Push(evt EventID) bool {
	if q.limit > 0 && q.n >= q.limit {
		q.dropped++
		if q.policy == DropNewest {
			return false
		}
		q.head = (q.head + 1) % len(q.buf)
		q.n--
	}
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = evt
	q.n++
	return true
}

// Peek returns the head event without removing it.
func (q *Queue) Peek() (EventID, bool) {
	if q.n == 0 {
		return NoEvent, false
	}
	return q.buf[q.head], true
}

// Pop removes and returns the head event.
func (q *Queue) Pop() (EventID, bool) {
	if q.n == 0 {
		return NoEvent, false
	}
	evt := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return evt, true
}

// At returns the i-th pending event, 0 being the head. It panics when i is
// out of range.
func (q *Queue) At(i int) EventID {
	if i < 0 || i >= q.n {
		panic("hsm: queue index out of range")
	}
	return q.buf[(q.head+i)%len(q.buf)]
}

// RemoveAt deletes the i-th pending event, keeping the order of the rest.
func (q *Queue) RemoveAt(i int) {
	if i < 0 || i >= q.n {
		panic("hsm: queue index out of range")
	}
	if i == 0 {
		q.Pop()
		return
	}
	size := len(q.buf)
	for j := i; j < q.n-1; j++ {
		q.buf[(q.head+j)%size] = q.buf[(q.head+j+1)%size]
	}
	q.n--
}

// Len returns the number of pending events.
func (q *Queue) Len() int { return q.n }

// Limit returns the capacity limit, 0 when unbounded.
func (q *Queue) Limit() int { return q.limit }

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped }

// Events returns a copy of the pending events in FIFO order.
func (q *Queue) Events() []EventID {
	out := make([]EventID, q.n)
	for i := range out {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

// Reset discards all pending events.
func (q *Queue) Reset() {
	q.head = 0
	q.n = 0
}

func (q *Queue) grow() {
	size := len(q.buf) * 2
	if size < minQueueSize {
		size = minQueueSize
	}
	if q.limit > 0 && size > q.limit {
		size = q.limit
	}
	buf := make([]EventID, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
