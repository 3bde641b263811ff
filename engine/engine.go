// Package engine runs the host simulation: a roster of robots that fetch pods
// from storage, carry them to a picking station and put them back.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"podfleet/config"
	"podfleet/fleetstate"
	"podfleet/grid"
	"podfleet/hostapi"
	"podfleet/pods"
	"podfleet/store"
	"podfleet/taskqueue"
)

var (
	// ErrPodClaimed is returned when a requested pod is held by a robot or already queued.
	ErrPodClaimed = errors.New("pod already claimed")
	// ErrNotPodCell is returned when a requested position is not a pod-storage cell.
	ErrNotPodCell = errors.New("not a pod cell")
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig  *config.Config
	DB         *store.DB           // optional; nil disables history and telemetry
	FleetState *fleetstate.Manager // optional; robot state goes straight to DB when nil
	Picker     pods.Picker         // optional; uniform random when nil
	LogFunc    LogFunc
	Debug      bool
}

type Engine struct {
	cfg        *config.Config
	layout     grid.Layout
	sim        config.SimConfig
	db         *store.DB
	fleetState *fleetstate.Manager
	host       *hostapi.Host
	Events     *EventBus
	logFn      LogFunc
	debug      bool

	mu        sync.Mutex
	emitMu    sync.Mutex // keeps event order equal to state order across callers
	robots    []*Robot
	tick      int64
	exhausted bool

	stopChan chan struct{}
	stopOnce sync.Once
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	cfg := c.AppConfig
	host := hostapi.NewHost(cfg.Layout, nil)
	host.Pick = c.Picker

	e := &Engine{
		cfg:        cfg,
		layout:     cfg.Layout,
		sim:        cfg.Sim,
		db:         c.DB,
		fleetState: c.FleetState,
		host:       host,
		Events:     NewEventBus(),
		logFn:      logFn,
		debug:      c.Debug,
		stopChan:   make(chan struct{}),
	}
	for i, home := range cfg.StartCells() {
		e.robots = append(e.robots, &Robot{
			Slot:    i,
			Pos:     home,
			Target:  grid.Sentinel,
			Phase:   PhaseIdle,
			Home:    home,
			Station: cfg.Sim.Stations[i%len(cfg.Sim.Stations)],
		})
	}
	if e.db != nil {
		e.wireEventHandlers()
	}
	return e
}

// Start clears history left by a previous run and begins ticking.
// A non-positive tick interval leaves ticking to the caller.
func (e *Engine) Start() {
	if e.db != nil {
		e.resetHistory()
	}
	if e.sim.TickInterval > 0 {
		go e.run()
	}
	e.logFn("engine: started (%d robots, %d pods, tick %v)", len(e.robots), e.layout.PodCount(), e.sim.TickInterval)
}

func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
	e.logFn("engine: stopped")
}

func (e *Engine) run() {
	ticker := time.NewTicker(e.sim.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Accessors
func (e *Engine) AppConfig() *config.Config { return e.cfg }
func (e *Engine) Layout() grid.Layout { return e.layout }
func (e *Engine) DB() *store.DB { return e.db }
func (e *Engine) FleetState() *fleetstate.Manager { return e.fleetState }
func (e *Engine) QueueTasks() []taskqueue.Task { return e.host.Queue().Tasks() }
func (e *Engine) QueueLen() int { return e.host.Queue().Len() }
func (e *Engine) Stations() []grid.Pos { return e.sim.Stations }

func (e *Engine) TickCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Snapshot returns copies of all robots in slot order.
func (e *Engine) Snapshot() []Robot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() []Robot {
	out := make([]Robot, len(e.robots))
	for i, r := range e.robots {
		out[i] = r.clone()
	}
	return out
}

// claimsLocked is the per-slot robot assignment buffer pod selection expects.
func (e *Engine) claimsLocked() []grid.Pos {
	claims := make([]grid.Pos, len(e.robots))
	for i, r := range e.robots {
		claims[i] = r.Claim()
	}
	return claims
}

// RequestTask queues a task for pod, or for a random unclaimed pod when pod is nil.
func (e *Engine) RequestTask(pod *grid.Pos, source string) (taskqueue.Task, error) {
	e.mu.Lock()
	var target grid.Pos
	if pod != nil {
		target = *pod
		if !e.layout.IsPodCell(target) {
			e.mu.Unlock()
			return taskqueue.Task{}, fmt.Errorf("%w: %v", ErrNotPodCell, target)
		}
		if e.claimedLocked(target) {
			e.mu.Unlock()
			return taskqueue.Task{}, fmt.Errorf("%w: %v", ErrPodClaimed, target)
		}
	} else {
		p, err := e.host.PickForQueue(e.claimsLocked())
		if err != nil {
			e.mu.Unlock()
			return taskqueue.Task{}, err
		}
		target = p
	}
	task, err := e.host.QueuePush(target)
	if err != nil {
		e.mu.Unlock()
		return taskqueue.Task{}, err
	}
	out := pending{{Type: EventTaskQueued, Payload: TaskQueuedEvent{Task: task, Source: source, QueueLen: e.host.Queue().Len()}}}
	e.flush(out)
	return task, nil
}

func (e *Engine) claimedLocked(pod grid.Pos) bool {
	for _, r := range e.robots {
		if r.Claim() == pod {
			return true
		}
	}
	return e.host.Queue().Contains(pod)
}
