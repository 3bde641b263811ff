// Package taskqueue holds pending pod tasks in FIFO order.
package taskqueue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"podfleet/grid"
	"podfleet/pods"
)

// ErrEmptyQueue is returned by Pop when there is nothing to dequeue.
var ErrEmptyQueue = errors.New("task queue is empty")

const initialCapacity = 8

// Task is a request to fetch the pod at Pod.
type Task struct {
	ID        string    `json:"id"`
	Pod       grid.Pos  `json:"pod"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTask(pod grid.Pos) Task {
	return Task{
		ID:        uuid.New().String(),
		Pod:       pod,
		CreatedAt: time.Now().UTC(),
	}
}

// Queue is a FIFO of tasks backed by a growable ring. One slot is always kept
// free so that head == tail means empty, which lets Window hand the raw ring to
// pod selection without ambiguity. Safe for concurrent use.
type Queue struct {
	mu   sync.Mutex
	buf  []Task
	head int
	n    int
}

func New() *Queue {
	return &Queue{buf: make([]Task, initialCapacity)}
}

// Push appends t to the back of the queue.
func (q *Queue) Push(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n+1 >= len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = t
	q.n++
}

// Pop removes and returns the front task, or ErrEmptyQueue.
func (q *Queue) Pop() (Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == 0 {
		return Task{}, ErrEmptyQueue
	}
	t := q.buf[q.head]
	q.buf[q.head] = Task{}
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return t, nil
}

func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n == 0
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Tasks returns a copy of the queued tasks, front first.
func (q *Queue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Task, q.n)
	for i := range out {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

// Contains reports whether a task for pod is queued.
func (q *Queue) Contains(pod grid.Pos) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := 0; i < q.n; i++ {
		if q.buf[(q.head+i)%len(q.buf)].Pod == pod {
			return true
		}
	}
	return false
}

// Window snapshots the ring as queued pod positions at their ring indices.
// Free slots hold grid.Sentinel.
func (q *Queue) Window() pods.Window {
	q.mu.Lock()
	defer q.mu.Unlock()
	w := pods.Window{
		Buf:   make([]grid.Pos, len(q.buf)),
		Start: q.head,
		End:   (q.head + q.n) % len(q.buf),
	}
	for i := range w.Buf {
		w.Buf[i] = grid.Sentinel
	}
	for i := 0; i < q.n; i++ {
		idx := (q.head + i) % len(q.buf)
		w.Buf[idx] = q.buf[idx].Pod
	}
	return w
}

// grow doubles the ring and unwraps it so head is 0. Caller holds mu.
func (q *Queue) grow() {
	buf := make([]Task, len(q.buf)*2)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
