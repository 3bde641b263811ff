package engine

import (
	"errors"

	"podfleet/grid"
	"podfleet/nav"
	"podfleet/pods"
)

// pending collects events raised under the engine lock; they are emitted after
// it is released so subscribers may call back into the engine.
type pending []Event

func (p *pending) add(t EventType, payload any) {
	*p = append(*p, Event{Type: t, Payload: payload})
}

// Tick advances the simulation one step and returns the new tick number.
//
// Queue top-up runs first, then each robot in slot order takes a task, handles
// arrival, or moves to its first free candidate cell.
func (e *Engine) Tick() int64 {
	var out pending

	e.mu.Lock()
	e.tick++
	e.generate(&out)

	occupied := make(map[grid.Pos]int, len(e.robots))
	for _, r := range e.robots {
		occupied[r.Pos] = r.Slot
	}
	for _, r := range e.robots {
		e.step(r, occupied, &out)
	}
	tick := e.tick
	out.add(EventTick, TickEvent{Tick: tick, Robots: e.snapshotLocked()})
	e.flush(out)
	return tick
}

// flush releases mu and emits out. Events from one caller are delivered before
// events from the next caller that took mu. Must be called with mu held.
func (e *Engine) flush(out pending) {
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()
	for _, evt := range out {
		e.Events.Emit(evt)
	}
}

// generate keeps queue_target tasks waiting. Caller holds mu.
func (e *Engine) generate(out *pending) {
	q := e.host.Queue()
	for q.Len() < e.sim.QueueTarget {
		pod, err := e.host.PickForQueue(e.claimsLocked())
		if errors.Is(err, pods.ErrNoPodsAvailable) {
			if !e.exhausted {
				e.exhausted = true
				out.add(EventPodsExhausted, PodsExhaustedEvent{
					Claimed: e.layout.PodCount() - len(pods.Available(e.layout, e.claimsLocked(), q.Window())),
					Total:   e.layout.PodCount(),
				})
			}
			return
		}
		if err != nil {
			e.logFn("engine: pick pod: %v", err)
			return
		}
		e.exhausted = false
		task, err := e.host.QueuePush(pod)
		if err != nil {
			e.logFn("engine: queue pod %v: %v", pod, err)
			return
		}
		out.add(EventTaskQueued, TaskQueuedEvent{Task: task, Source: "generator", QueueLen: q.Len()})
	}
}

// step advances one robot. Caller holds mu.
func (e *Engine) step(r *Robot, occupied map[grid.Pos]int, out *pending) {
	switch {
	case r.Available():
		if e.host.QueueIsEmpty() {
			break
		}
		task, err := e.host.QueuePop()
		if err != nil {
			break
		}
		r.Task = &task
		r.Target = task.Pod
		r.Phase = PhaseFetching
		r.Carrying = false
		out.add(EventTaskAssigned, TaskAssignedEvent{Task: task, Robot: r.Slot})
	case r.Phase == PhasePicking:
		r.Dwell--
		if r.Dwell <= 0 {
			r.Phase = PhaseReturning
			r.Target = r.Task.Pod
		}
		return
	}

	if r.Phase == PhaseIdle {
		return
	}
	if r.Pos == r.Target {
		e.arrive(r, out)
		return
	}
	e.move(r, occupied, out)
}

func (e *Engine) arrive(r *Robot, out *pending) {
	switch r.Phase {
	case PhaseFetching:
		r.Carrying = true
		r.Phase = PhaseDelivering
		r.Target = r.Station
		out.add(EventPodLifted, PodLiftedEvent{Task: *r.Task, Robot: r.Slot, Station: r.Station})
	case PhaseDelivering:
		r.Phase = PhasePicking
		r.Dwell = e.sim.PickTicks
		if r.Dwell <= 0 {
			r.Phase = PhaseReturning
			r.Target = r.Task.Pod
		}
	case PhaseReturning:
		task := *r.Task
		r.Carrying = false
		r.Task = nil
		r.Phase = PhaseParking
		r.Target = r.Home
		out.add(EventTaskCompleted, TaskCompletedEvent{Task: task, Robot: r.Slot, Station: r.Station})
	case PhaseParking:
		r.Phase = PhaseIdle
		r.Target = grid.Sentinel
	}
}

func (e *Engine) move(r *Robot, occupied map[grid.Pos]int, out *pending) {
	d := nav.Decide(e.layout, r.Pos, r.Target, r.Carrying)
	for _, c := range d.Moves {
		if c == r.Pos || !e.layout.InBounds(c) {
			continue
		}
		if _, taken := occupied[c]; taken {
			continue
		}
		delete(occupied, r.Pos)
		occupied[c] = r.Slot
		from := r.Pos
		r.Pos = c
		r.Blocked = 0
		if e.debug {
			e.logFn("engine: robot %d %v -> %v (%s, target %v)", r.Slot, from, c, d.Rule, r.Target)
		}
		out.add(EventRobotMoved, RobotMovedEvent{
			Robot: r.Slot, From: from, To: c, Target: r.Target,
			Carrying: r.Carrying, Phase: r.Phase, Rule: d.Rule,
		})
		return
	}
	r.Blocked++
	out.add(EventRobotBlocked, RobotBlockedEvent{Robot: r.Slot, Pos: r.Pos, Candidates: d.Moves})
}
