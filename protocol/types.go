package protocol

// Message types carried on the command and telemetry topics.
const (
	// Host -> fleet (command topic)
	TypeTaskRequest = "task.request"

	// Fleet -> host (telemetry topic)
	TypeTaskQueued    = "task.queued"
	TypeTaskRejected  = "task.rejected"
	TypeTaskAssigned  = "task.assigned"
	TypeTaskCompleted = "task.completed"
	TypeRobotMoved    = "robot.moved"
	TypePodsExhausted = "pods.exhausted"
)

// Roles for Address.Role.
const (
	RoleFleet = "fleet"
	RoleHost  = "host"
)

// Protocol version.
const Version = 1
