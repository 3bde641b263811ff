package protocol

import "podfleet/grid"

// TaskRequest asks the fleet to fetch a pod. A nil Pod lets the fleet choose
// one at random among unclaimed pods.
type TaskRequest struct {
	RequestID string    `json:"request_id"`
	Pod       *grid.Pos `json:"pod,omitempty"`
}

type TaskQueued struct {
	RequestID string   `json:"request_id,omitempty"`
	TaskID    string   `json:"task_id"`
	Pod       grid.Pos `json:"pod"`
	QueueLen  int      `json:"queue_len"`
}

type TaskRejected struct {
	RequestID string `json:"request_id,omitempty"`
	Reason    string `json:"reason"`
}

type TaskAssigned struct {
	TaskID string   `json:"task_id"`
	Pod    grid.Pos `json:"pod"`
	Robot  int      `json:"robot"`
}

type TaskCompleted struct {
	TaskID  string   `json:"task_id"`
	Pod     grid.Pos `json:"pod"`
	Robot   int      `json:"robot"`
	Station grid.Pos `json:"station"`
}

type RobotMoved struct {
	Robot    int      `json:"robot"`
	From     grid.Pos `json:"from"`
	To       grid.Pos `json:"to"`
	Target   grid.Pos `json:"target"`
	Carrying bool     `json:"carrying"`
	Phase    string   `json:"phase"`
	Rule     string   `json:"rule"`
}

type PodsExhausted struct {
	Claimed int `json:"claimed"`
	Total   int `json:"total"`
}
