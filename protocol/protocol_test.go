package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"podfleet/grid"
)

var (
	fleetAddr = Address{Role: RoleFleet, Station: "warehouse-1"}
	hostAddr  = Address{Role: RoleHost, Station: "warehouse-1"}
)

func TestNewEnvelope(t *testing.T) {
	pod := grid.P(2, 4)
	env, err := NewEnvelope(TypeTaskRequest, hostAddr, fleetAddr, &TaskRequest{RequestID: "r-1", Pod: &pod})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Version != Version || env.Type != TypeTaskRequest || env.ID == "" {
		t.Errorf("envelope = %+v", env)
	}
	if got := env.ExpiresAt.Sub(env.Timestamp); got != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", got)
	}

	var req TaskRequest
	if err := env.DecodePayload(&req); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if req.Pod == nil || *req.Pod != pod {
		t.Errorf("pod = %v, want %v", req.Pod, pod)
	}
}

func TestNewReply(t *testing.T) {
	reply, err := NewReply(TypeTaskRejected, fleetAddr, hostAddr, "orig-msg-id", &TaskRejected{Reason: "no pods"})
	if err != nil {
		t.Fatalf("NewReply: %v", err)
	}
	if reply.CorID != "orig-msg-id" {
		t.Errorf("cor = %q, want %q", reply.CorID, "orig-msg-id")
	}
}

func TestExpiry(t *testing.T) {
	env := &Envelope{ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	if !IsExpired(env) {
		t.Error("past expiry should be expired")
	}
	env.ExpiresAt = time.Now().UTC().Add(time.Minute)
	if IsExpired(env) {
		t.Error("future expiry should not be expired")
	}
	env.ExpiresAt = time.Time{}
	if IsExpired(env) {
		t.Error("zero expiry should never expire")
	}
	if !IsExpiredHeader(&RawHeader{ExpiresAt: time.Now().UTC().Add(-time.Second)}) {
		t.Error("past header expiry should be expired")
	}
}

func TestDefaultTTLFor(t *testing.T) {
	if ttl := DefaultTTLFor(TypeRobotMoved); ttl != 30*time.Second {
		t.Errorf("robot.moved TTL = %v, want 30s", ttl)
	}
	if ttl := DefaultTTLFor("unknown.type"); ttl != FallbackTTL {
		t.Errorf("unknown TTL = %v, want %v", ttl, FallbackTTL)
	}
}

func encode(t *testing.T, msgType string, dst Address, payload any) []byte {
	t.Helper()
	env, err := NewEnvelope(msgType, hostAddr, dst, payload)
	if err != nil {
		t.Fatal(err)
	}
	data, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestIngestorDispatch(t *testing.T) {
	h := &testHandler{}
	NewIngestor(h, nil).HandleRaw(encode(t, TypeTaskRequest, fleetAddr, &TaskRequest{RequestID: "r-9"}))
	if h.requests != 1 || h.last.RequestID != "r-9" || h.last.Pod != nil {
		t.Errorf("handler = %+v", h)
	}
}

func TestIngestorDrops(t *testing.T) {
	h := &testHandler{}
	ing := NewIngestor(h, StationFilter("warehouse-1"))

	ing.HandleRaw(encode(t, TypeTaskRequest, Address{Role: RoleFleet, Station: "warehouse-2"}, &TaskRequest{}))

	env, _ := NewEnvelope(TypeTaskRequest, hostAddr, fleetAddr, &TaskRequest{})
	env.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	data, _ := env.Encode()
	ing.HandleRaw(data)

	env.ExpiresAt = time.Time{}
	env.Version = 99
	data, _ = env.Encode()
	ing.HandleRaw(data)

	ing.HandleRaw([]byte("not json"))

	if h.requests != 0 {
		t.Errorf("handler called %d times, want 0", h.requests)
	}

	ing.HandleRaw(encode(t, TypeTaskRequest, Address{Role: RoleFleet}, &TaskRequest{}))
	if h.requests != 1 {
		t.Errorf("broadcast not delivered")
	}
}

func TestWireFormatKeys(t *testing.T) {
	data := encode(t, TypeRobotMoved, fleetAddr, &RobotMoved{Robot: 1, From: grid.P(0, 9), To: grid.P(1, 9)})
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"v", "type", "id", "src", "dst", "ts", "exp", "p"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	if _, ok := m["cor"]; ok {
		t.Error("cor should be omitted when empty")
	}
}

type testHandler struct {
	NoOpHandler
	requests int
	last     TaskRequest
}

func (h *testHandler) HandleTaskRequest(env *Envelope, p *TaskRequest) {
	h.requests++
	h.last = *p
}
