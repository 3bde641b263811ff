package protocol

// NoOpHandler implements MessageHandler with empty methods.
type NoOpHandler struct{}

func (NoOpHandler) HandleTaskRequest(*Envelope, *TaskRequest)     {}
func (NoOpHandler) HandleTaskQueued(*Envelope, *TaskQueued)       {}
func (NoOpHandler) HandleTaskRejected(*Envelope, *TaskRejected)   {}
func (NoOpHandler) HandleTaskAssigned(*Envelope, *TaskAssigned)   {}
func (NoOpHandler) HandleTaskCompleted(*Envelope, *TaskCompleted) {}
func (NoOpHandler) HandleRobotMoved(*Envelope, *RobotMoved)       {}
func (NoOpHandler) HandlePodsExhausted(*Envelope, *PodsExhausted) {}

var _ MessageHandler = NoOpHandler{}
