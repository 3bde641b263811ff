package engine

import (
	"fmt"

	"podfleet/protocol"
	"podfleet/store"
)

func (e *Engine) wireEventHandlers() {
	persisted := make(map[int]store.RobotRecord)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TaskQueuedEvent)
		if err := e.db.CreateTask(ev.Task.ID, ev.Task.Pod, ev.Source); err != nil {
			e.logFn("engine: record task %s: %v", ev.Task.ID, err)
		}
		e.db.AppendAudit("task", ev.Task.ID, "queued", "pod "+ev.Task.Pod.String(), ev.Source)
		// Requests from the command topic are answered by the command handler.
		if ev.Source != "messaging" {
			e.publish(protocol.TypeTaskQueued, &protocol.TaskQueued{TaskID: ev.Task.ID, Pod: ev.Task.Pod, QueueLen: ev.QueueLen})
		}
	}, EventTaskQueued)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TaskAssignedEvent)
		if err := e.db.MarkTaskAssigned(ev.Task.ID, ev.Robot); err != nil {
			e.logFn("engine: assign task %s: %v", ev.Task.ID, err)
		}
		e.db.AppendAudit("task", ev.Task.ID, "assigned", fmt.Sprintf("robot %d", ev.Robot), "system")
		if e.fleetState != nil {
			e.fleetState.ClaimPod(ev.Task.Pod.String())
		}
		e.publish(protocol.TypeTaskAssigned, &protocol.TaskAssigned{TaskID: ev.Task.ID, Pod: ev.Task.Pod, Robot: ev.Robot})
	}, EventTaskAssigned)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(PodLiftedEvent)
		e.db.AppendAudit("task", ev.Task.ID, "lifted", fmt.Sprintf("robot %d to station %v", ev.Robot, ev.Station), "system")
	}, EventPodLifted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TaskCompletedEvent)
		if err := e.db.MarkTaskCompleted(ev.Task.ID); err != nil {
			e.logFn("engine: complete task %s: %v", ev.Task.ID, err)
		}
		e.db.AppendAudit("task", ev.Task.ID, "completed", fmt.Sprintf("robot %d", ev.Robot), "system")
		if e.fleetState != nil {
			e.fleetState.ReleasePod(ev.Task.Pod.String())
		}
		e.publish(protocol.TypeTaskCompleted, &protocol.TaskCompleted{
			TaskID: ev.Task.ID, Pod: ev.Task.Pod, Robot: ev.Robot, Station: ev.Station,
		})
	}, EventTaskCompleted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(RobotMovedEvent)
		e.publish(protocol.TypeRobotMoved, &protocol.RobotMoved{
			Robot: ev.Robot, From: ev.From, To: ev.To, Target: ev.Target,
			Carrying: ev.Carrying, Phase: string(ev.Phase), Rule: ev.Rule,
		})
	}, EventRobotMoved)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(PodsExhaustedEvent)
		e.logFn("engine: all %d pods claimed, generation paused", ev.Total)
		e.db.AppendAudit("pods", "", "exhausted", fmt.Sprintf("%d/%d claimed", ev.Claimed, ev.Total), "system")
		e.publish(protocol.TypePodsExhausted, &protocol.PodsExhausted{Claimed: ev.Claimed, Total: ev.Total})
	}, EventPodsExhausted)

	// Robot state is written only when it changed since the last tick.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TickEvent)
		for i := range ev.Robots {
			rec := robotRecord(&ev.Robots[i])
			if last, ok := persisted[rec.Slot]; ok && last == rec {
				continue
			}
			if err := e.putRobot(&rec); err != nil {
				e.logFn("engine: persist robot %d: %v", rec.Slot, err)
				continue
			}
			persisted[rec.Slot] = rec
		}
	}, EventTick)
}

func robotRecord(r *Robot) store.RobotRecord {
	rec := store.RobotRecord{
		Slot:     r.Slot,
		Pos:      r.Pos,
		Target:   r.Target,
		Carrying: r.Carrying,
		Phase:    string(r.Phase),
	}
	if r.Task != nil {
		rec.TaskUUID = r.Task.ID
	}
	return rec
}

func (e *Engine) putRobot(rec *store.RobotRecord) error {
	if e.fleetState != nil {
		return e.fleetState.PutRobot(rec)
	}
	return e.db.UpsertRobot(rec)
}

// publish queues a telemetry envelope in the outbox for the drainer.
func (e *Engine) publish(msgType string, payload any) {
	src := protocol.Address{Role: protocol.RoleFleet, Station: e.cfg.Messaging.StationID}
	dst := protocol.Address{Role: protocol.RoleHost, Station: e.cfg.Messaging.StationID}
	env, err := protocol.NewEnvelope(msgType, src, dst, payload)
	if err != nil {
		e.logFn("engine: build %s: %v", msgType, err)
		return
	}
	data, err := env.Encode()
	if err != nil {
		e.logFn("engine: encode %s: %v", msgType, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.cfg.Messaging.TelemetryTopic, data, msgType); err != nil {
		e.logFn("engine: enqueue %s: %v", msgType, err)
	}
}

// resetHistory closes tasks from a previous run and writes the starting roster.
func (e *Engine) resetHistory() {
	if n, err := e.db.AbandonOpenTasks(); err != nil {
		e.logFn("engine: abandon open tasks: %v", err)
	} else if n > 0 {
		e.logFn("engine: abandoned %d tasks from a previous run", n)
	}

	robots := e.Snapshot()
	if e.fleetState != nil {
		if err := e.fleetState.Trim(len(robots)); err != nil {
			e.logFn("engine: trim robots: %v", err)
		}
	} else if err := e.db.DeleteRobotsFrom(len(robots)); err != nil {
		e.logFn("engine: trim robots: %v", err)
	}
	for i := range robots {
		rec := robotRecord(&robots[i])
		if err := e.putRobot(&rec); err != nil {
			e.logFn("engine: persist robot %d: %v", rec.Slot, err)
		}
	}
}
