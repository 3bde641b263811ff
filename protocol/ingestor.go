package protocol

import (
	"encoding/json"
	"log"
)

// FilterFunc returns true if the message should be processed.
type FilterFunc func(hdr *RawHeader) bool

// MessageHandler receives decoded messages. Embed NoOpHandler and override
// only the methods you need.
type MessageHandler interface {
	HandleTaskRequest(env *Envelope, p *TaskRequest)

	HandleTaskQueued(env *Envelope, p *TaskQueued)
	HandleTaskRejected(env *Envelope, p *TaskRejected)
	HandleTaskAssigned(env *Envelope, p *TaskAssigned)
	HandleTaskCompleted(env *Envelope, p *TaskCompleted)
	HandleRobotMoved(env *Envelope, p *RobotMoved)
	HandlePodsExhausted(env *Envelope, p *PodsExhausted)
}

// Ingestor decodes the header, drops expired or filtered messages, then
// decodes the payload and dispatches by type.
type Ingestor struct {
	handler MessageHandler
	filter  FilterFunc
}

func NewIngestor(handler MessageHandler, filter FilterFunc) *Ingestor {
	return &Ingestor{handler: handler, filter: filter}
}

// HandleRaw is the entry point for raw bytes from the messaging layer.
func (ing *Ingestor) HandleRaw(data []byte) {
	var hdr RawHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		log.Printf("protocol: header decode error: %v", err)
		return
	}
	if hdr.Version != Version {
		log.Printf("protocol: dropping message %s with version %d", hdr.ID, hdr.Version)
		return
	}
	if IsExpiredHeader(&hdr) {
		log.Printf("protocol: dropping expired message %s (type=%s)", hdr.ID, hdr.Type)
		return
	}
	if ing.filter != nil && !ing.filter(&hdr) {
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("protocol: envelope decode error: %v", err)
		return
	}

	h := ing.handler
	switch env.Type {
	case TypeTaskRequest:
		decodeAndCall(h.HandleTaskRequest, &env)
	case TypeTaskQueued:
		decodeAndCall(h.HandleTaskQueued, &env)
	case TypeTaskRejected:
		decodeAndCall(h.HandleTaskRejected, &env)
	case TypeTaskAssigned:
		decodeAndCall(h.HandleTaskAssigned, &env)
	case TypeTaskCompleted:
		decodeAndCall(h.HandleTaskCompleted, &env)
	case TypeRobotMoved:
		decodeAndCall(h.HandleRobotMoved, &env)
	case TypePodsExhausted:
		decodeAndCall(h.HandlePodsExhausted, &env)
	default:
		log.Printf("protocol: unknown message type: %s", env.Type)
	}
}

func decodeAndCall[T any](fn func(*Envelope, *T), env *Envelope) {
	var p T
	if err := env.DecodePayload(&p); err != nil {
		log.Printf("protocol: payload decode error for %s: %v", env.Type, err)
		return
	}
	fn(env, &p)
}

// StationFilter accepts messages addressed to station or broadcast with an empty station.
func StationFilter(station string) FilterFunc {
	return func(hdr *RawHeader) bool {
		return hdr.Dst.Station == "" || hdr.Dst.Station == station
	}
}
