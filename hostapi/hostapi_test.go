package hostapi

import (
	"errors"
	"testing"

	"podfleet/grid"
	"podfleet/nav"
	"podfleet/pods"
	"podfleet/taskqueue"
)

var layout = grid.DefaultLayout()

func TestComputeMovesPadsSentinel(t *testing.T) {
	got := ComputeMoves(layout, grid.P(8, 4), grid.P(8, 4), false)
	want := nav.Moves{grid.P(7, 4), grid.P(8, 5), grid.Sentinel}
	if got != want {
		t.Errorf("ComputeMoves = %v, want %v", got, want)
	}

	got = ComputeMoves(layout, grid.P(2, 0), grid.P(6, 9), true)
	want = nav.Moves{grid.P(2, 1), grid.Sentinel, grid.Sentinel}
	if got != want {
		t.Errorf("ComputeMoves = %v, want %v", got, want)
	}
}

func TestPickRandomPodRejectsBadRing(t *testing.T) {
	queue := make([]grid.Pos, 4)
	cases := [][2]int{{-1, 0}, {0, 5}, {7, 2}}
	for _, c := range cases {
		_, err := PickRandomPod(layout, 0, nil, queue, c[0], c[1])
		if !errors.Is(err, ErrInvalidBuffer) {
			t.Errorf("start=%d end=%d: err = %v, want ErrInvalidBuffer", c[0], c[1], err)
		}
	}
}

func TestPickRandomPodChecksSlotCount(t *testing.T) {
	queue := []grid.Pos{grid.Sentinel}
	cases := []struct {
		slots int
		tasks []grid.Pos
	}{
		{4, nil},
		{2, []grid.Pos{grid.Sentinel}},
		{1, []grid.Pos{grid.Sentinel, grid.P(0, 0)}},
		{-1, nil},
	}
	for _, c := range cases {
		_, err := PickRandomPod(layout, c.slots, c.tasks, queue, 0, 0)
		if !errors.Is(err, ErrInvalidBuffer) {
			t.Errorf("slots=%d tasks=%v: err = %v, want ErrInvalidBuffer", c.slots, c.tasks, err)
		}
	}
	if _, err := PickRandomPod(layout, 2, []grid.Pos{grid.Sentinel, grid.P(0, 0)}, queue, 0, 0); err != nil {
		t.Errorf("matching slot count: %v", err)
	}
}

func TestPickRandomPodWrappedQueue(t *testing.T) {
	pool := layout.PodPool()
	// Everything except pool[0] is claimed; pool[1] only through the wrapped tail.
	robotTasks := append([]grid.Pos{grid.Sentinel}, pool[2:]...)
	queue := []grid.Pos{grid.Sentinel, grid.Sentinel, grid.Sentinel, pool[1], pool[0]}
	// start=3 end=0: slots 3 and 4 are live.
	_, err := PickRandomPod(layout, len(robotTasks), robotTasks, queue, 3, 0)
	if !errors.Is(err, pods.ErrNoPodsAvailable) {
		t.Fatalf("err = %v, want ErrNoPodsAvailable", err)
	}

	// start=3 end=4: only slot 3 is live, so pool[0] is free.
	got, err := PickRandomPod(layout, len(robotTasks), robotTasks, queue, 3, 4)
	if err != nil {
		t.Fatalf("PickRandomPod: %v", err)
	}
	if got != pool[0] {
		t.Errorf("pod = %v, want %v", got, pool[0])
	}
}

func TestHostQueue(t *testing.T) {
	h := NewHost(layout, nil)
	if !h.QueueIsEmpty() {
		t.Fatal("new host queue should be empty")
	}
	if _, err := h.QueuePop(); !errors.Is(err, taskqueue.ErrEmptyQueue) {
		t.Fatalf("pop empty: err = %v", err)
	}
	if _, err := h.QueuePush(grid.P(7, 7)); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("push non-pod: err = %v, want ErrInvalidBuffer", err)
	}

	a, _ := h.QueuePush(grid.P(0, 0))
	b, _ := h.QueuePush(grid.P(1, 0))
	if got, _ := h.QueuePop(); got.ID != a.ID {
		t.Errorf("first pop = %v, want %v", got.Pod, a.Pod)
	}
	if got, _ := h.QueuePop(); got.ID != b.ID {
		t.Errorf("second pop = %v, want %v", got.Pod, b.Pod)
	}
}

func TestHostPickSkipsQueued(t *testing.T) {
	h := NewHost(layout, nil)
	pool := layout.PodPool()
	for _, p := range pool[1:] {
		if _, err := h.QueuePush(p); err != nil {
			t.Fatal(err)
		}
	}
	got, err := h.PickForQueue([]grid.Pos{grid.Sentinel, grid.Sentinel})
	if err != nil {
		t.Fatalf("PickForQueue: %v", err)
	}
	if got != pool[0] {
		t.Errorf("pod = %v, want %v", got, pool[0])
	}
	if _, err := h.PickForQueue([]grid.Pos{pool[0]}); !errors.Is(err, pods.ErrNoPodsAvailable) {
		t.Errorf("err = %v, want ErrNoPodsAvailable", err)
	}
}

func TestHostPicker(t *testing.T) {
	h := NewHost(layout, nil)
	h.Pick = func(n int) int { return n - 1 }
	pool := layout.PodPool()
	got, err := h.PickForQueue(nil)
	if err != nil {
		t.Fatalf("PickForQueue: %v", err)
	}
	if got != pool[len(pool)-1] {
		t.Errorf("pod = %v, want %v", got, pool[len(pool)-1])
	}
	if h.Queue().Len() != 0 {
		t.Error("picking must not enqueue")
	}
}
