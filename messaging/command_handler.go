package messaging

import (
	"log"

	"podfleet/grid"
	"podfleet/protocol"
	"podfleet/taskqueue"
)

// TaskRequester is the part of the engine that accepts task requests.
type TaskRequester interface {
	RequestTask(pod *grid.Pos, source string) (taskqueue.Task, error)
	QueueLen() int
}

// Outbox queues a message for the drainer.
type Outbox interface {
	EnqueueOutbox(topic string, payload []byte, msgType string) error
}

// CommandHandler answers task.request messages from the command topic.
// Replies go to the telemetry topic through the outbox.
type CommandHandler struct {
	protocol.NoOpHandler

	tasks      TaskRequester
	outbox     Outbox
	self       protocol.Address
	replyTopic string
}

func NewCommandHandler(tasks TaskRequester, outbox Outbox, stationID, replyTopic string) *CommandHandler {
	return &CommandHandler{
		tasks:      tasks,
		outbox:     outbox,
		self:       protocol.Address{Role: protocol.RoleFleet, Station: stationID},
		replyTopic: replyTopic,
	}
}

// Ingestor returns an ingestor that feeds this handler, accepting only
// messages for this station.
func (h *CommandHandler) Ingestor() *protocol.Ingestor {
	return protocol.NewIngestor(h, protocol.StationFilter(h.self.Station))
}

func (h *CommandHandler) HandleTaskRequest(env *protocol.Envelope, p *protocol.TaskRequest) {
	task, err := h.tasks.RequestTask(p.Pod, "messaging")
	if err != nil {
		log.Printf("command_handler: reject request %s: %v", p.RequestID, err)
		h.reply(env, protocol.TypeTaskRejected, &protocol.TaskRejected{
			RequestID: p.RequestID,
			Reason:    err.Error(),
		})
		return
	}
	h.reply(env, protocol.TypeTaskQueued, &protocol.TaskQueued{
		RequestID: p.RequestID,
		TaskID:    task.ID,
		Pod:       task.Pod,
		QueueLen:  h.tasks.QueueLen(),
	})
}

func (h *CommandHandler) reply(req *protocol.Envelope, msgType string, payload any) {
	env, err := protocol.NewReply(msgType, h.self, req.Src, req.ID, payload)
	if err != nil {
		log.Printf("command_handler: build %s: %v", msgType, err)
		return
	}
	data, err := env.Encode()
	if err != nil {
		log.Printf("command_handler: encode %s: %v", msgType, err)
		return
	}
	if err := h.outbox.EnqueueOutbox(h.replyTopic, data, msgType); err != nil {
		log.Printf("command_handler: enqueue %s: %v", msgType, err)
	}
}
