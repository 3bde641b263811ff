package engine

import (
	"podfleet/grid"
	"podfleet/taskqueue"
)

const (
	EventTick EventType = iota + 1
	EventTaskQueued
	EventTaskAssigned
	EventPodLifted
	EventTaskCompleted
	EventRobotMoved
	EventRobotBlocked
	EventPodsExhausted
)

var eventNames = map[EventType]string{
	EventTick:          "tick",
	EventTaskQueued:    "task-queued",
	EventTaskAssigned:  "task-assigned",
	EventPodLifted:     "pod-lifted",
	EventTaskCompleted: "task-completed",
	EventRobotMoved:    "robot-moved",
	EventRobotBlocked:  "robot-blocked",
	EventPodsExhausted: "pods-exhausted",
}

// String is the name used for SSE event types.
func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// --- Event payloads ---

type TickEvent struct {
	Tick   int64   `json:"tick"`
	Robots []Robot `json:"robots"`
}

type TaskQueuedEvent struct {
	Task     taskqueue.Task `json:"task"`
	Source   string         `json:"source"` // "generator", "api", "messaging"
	QueueLen int            `json:"queue_len"`
}

type TaskAssignedEvent struct {
	Task  taskqueue.Task `json:"task"`
	Robot int            `json:"robot"`
}

type PodLiftedEvent struct {
	Task    taskqueue.Task `json:"task"`
	Robot   int            `json:"robot"`
	Station grid.Pos       `json:"station"`
}

type TaskCompletedEvent struct {
	Task    taskqueue.Task `json:"task"`
	Robot   int            `json:"robot"`
	Station grid.Pos       `json:"station"`
}

type RobotMovedEvent struct {
	Robot    int      `json:"robot"`
	From     grid.Pos `json:"from"`
	To       grid.Pos `json:"to"`
	Target   grid.Pos `json:"target"`
	Carrying bool     `json:"carrying"`
	Phase    Phase    `json:"phase"`
	Rule     string   `json:"rule"`
}

type RobotBlockedEvent struct {
	Robot      int        `json:"robot"`
	Pos        grid.Pos   `json:"pos"`
	Candidates []grid.Pos `json:"candidates"`
}

type PodsExhaustedEvent struct {
	Claimed int `json:"claimed"`
	Total   int `json:"total"`
}
