// Package hostapi is the flat call surface a host simulation uses once per robot
// per tick. Inputs are plain buffers; nothing is retained after a call returns.
package hostapi

import (
	"errors"
	"fmt"

	"podfleet/grid"
	"podfleet/nav"
	"podfleet/pods"
	"podfleet/taskqueue"
)

// ErrInvalidBuffer is returned for caller buffers that are malformed.
var ErrInvalidBuffer = errors.New("invalid buffer")

// ComputeMoves returns the candidate moves for one robot in a fixed 3-slot
// buffer; unused slots hold grid.Sentinel.
func ComputeMoves(l grid.Layout, pos, target grid.Pos, carrying bool) nav.Moves {
	return nav.Fixed(nav.Candidates(l, pos, target, carrying))
}

// PickRandomPod chooses an unclaimed pod. robotTasks must hold exactly one
// entry per robot slot (grid.Sentinel when idle); queue, start and end
// describe the caller's ring of queued pod positions.
func PickRandomPod(l grid.Layout, slots int, robotTasks []grid.Pos, queue []grid.Pos, start, end int) (grid.Pos, error) {
	if slots < 0 || len(robotTasks) != slots {
		return grid.Sentinel, fmt.Errorf("%w: %d robot task entries for %d slots", ErrInvalidBuffer, len(robotTasks), slots)
	}
	w := pods.Window{Buf: queue, Start: start, End: end}
	if err := w.Validate(); err != nil {
		return grid.Sentinel, fmt.Errorf("%w: %v", ErrInvalidBuffer, err)
	}
	return pods.SelectRandom(l, robotTasks, w)
}

// Host owns the task queue for one simulation. Create one per process and share it.
type Host struct {
	Layout grid.Layout
	// Pick overrides uniform random selection in PickForQueue when set.
	Pick  pods.Picker
	queue *taskqueue.Queue
}

func NewHost(l grid.Layout, q *taskqueue.Queue) *Host {
	if q == nil {
		q = taskqueue.New()
	}
	return &Host{Layout: l, queue: q}
}

// QueuePush enqueues a task for pod. The pod must be a storage cell.
func (h *Host) QueuePush(pod grid.Pos) (taskqueue.Task, error) {
	if !h.Layout.IsPodCell(pod) {
		return taskqueue.Task{}, fmt.Errorf("%w: %v is not a pod cell", ErrInvalidBuffer, pod)
	}
	t := taskqueue.NewTask(pod)
	h.queue.Push(t)
	return t, nil
}

func (h *Host) QueueIsEmpty() bool { return h.queue.IsEmpty() }

func (h *Host) Queue() *taskqueue.Queue { return h.queue }

// QueuePop dequeues the front task; taskqueue.ErrEmptyQueue when there is none.
func (h *Host) QueuePop() (taskqueue.Task, error) { return h.queue.Pop() }

// PickForQueue picks a pod that is neither held by a robot nor already in this host's queue.
func (h *Host) PickForQueue(robotTasks []grid.Pos) (grid.Pos, error) {
	if h.Pick != nil {
		return pods.Select(h.Layout, robotTasks, h.queue.Window(), h.Pick)
	}
	return pods.SelectRandom(h.Layout, robotTasks, h.queue.Window())
}
