package messaging

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"podfleet/config"
	"podfleet/grid"
	"podfleet/protocol"
	"podfleet/store"
	"podfleet/taskqueue"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type mockPublisher struct {
	fail   bool
	topics []string
}

func (m *mockPublisher) Publish(topic string, payload []byte) error {
	if m.fail {
		return errors.New("broker down")
	}
	m.topics = append(m.topics, topic)
	return nil
}

func TestOutboxDrain(t *testing.T) {
	db := testDB(t)
	db.EnqueueOutbox("telemetry", []byte("a"), protocol.TypeRobotMoved)
	db.EnqueueOutbox("telemetry", []byte("b"), protocol.TypeTaskQueued)

	pub := &mockPublisher{fail: true}
	d := NewOutboxDrainer(db, pub, 0)
	if n := d.Drain(); n != 0 {
		t.Fatalf("sent %d while broker down", n)
	}
	pending, _ := db.ListPendingOutbox(10)
	if len(pending) != 2 || pending[0].Retries != 1 {
		t.Fatalf("pending = %+v", pending)
	}

	pub.fail = false
	if n := d.Drain(); n != 2 {
		t.Errorf("sent %d, want 2", n)
	}
	if len(pub.topics) != 2 {
		t.Errorf("published %v", pub.topics)
	}
	pending, _ = db.ListPendingOutbox(10)
	if len(pending) != 0 {
		t.Errorf("still pending: %d", len(pending))
	}
}

type offlinePublisher struct{ mockPublisher }

func (o *offlinePublisher) IsConnected() bool { return false }

func TestOutboxDrainSkipsWhileDisconnected(t *testing.T) {
	db := testDB(t)
	db.EnqueueOutbox("telemetry", []byte("a"), protocol.TypeRobotMoved)

	d := NewOutboxDrainer(db, &offlinePublisher{}, 0)
	if n := d.Drain(); n != 0 {
		t.Fatalf("sent %d while offline", n)
	}
	pending, _ := db.ListPendingOutbox(10)
	if len(pending) != 1 || pending[0].Retries != 0 {
		t.Errorf("pending = %+v, want one message with no retries spent", pending)
	}
}

type fakeRequester struct {
	q   *taskqueue.Queue
	err error
	got *grid.Pos
}

func (f *fakeRequester) RequestTask(pod *grid.Pos, source string) (taskqueue.Task, error) {
	f.got = pod
	if f.err != nil {
		return taskqueue.Task{}, f.err
	}
	p := grid.P(0, 0)
	if pod != nil {
		p = *pod
	}
	t := taskqueue.NewTask(p)
	f.q.Push(t)
	return t, nil
}

func (f *fakeRequester) QueueLen() int { return f.q.Len() }

type memOutbox struct {
	types []string
	data  [][]byte
}

func (m *memOutbox) EnqueueOutbox(topic string, payload []byte, msgType string) error {
	m.types = append(m.types, msgType)
	m.data = append(m.data, payload)
	return nil
}

func request(t *testing.T, station string, pod *grid.Pos) []byte {
	t.Helper()
	env, err := protocol.NewEnvelope(protocol.TypeTaskRequest,
		protocol.Address{Role: protocol.RoleHost, Station: station},
		protocol.Address{Role: protocol.RoleFleet, Station: station},
		&protocol.TaskRequest{RequestID: "req-1", Pod: pod})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := env.Encode()
	return data
}

func TestCommandHandlerQueues(t *testing.T) {
	req := &fakeRequester{q: taskqueue.New()}
	out := &memOutbox{}
	h := NewCommandHandler(req, out, "warehouse-1", "telemetry")

	pod := grid.P(3, 2)
	h.Ingestor().HandleRaw(request(t, "warehouse-1", &pod))

	if req.got == nil || *req.got != pod {
		t.Fatalf("requested pod = %v", req.got)
	}
	if len(out.types) != 1 || out.types[0] != protocol.TypeTaskQueued {
		t.Fatalf("replies = %v", out.types)
	}
	var env protocol.Envelope
	json.Unmarshal(out.data[0], &env)
	var p protocol.TaskQueued
	env.DecodePayload(&p)
	if env.CorID == "" || p.RequestID != "req-1" || p.Pod != pod || p.QueueLen != 1 {
		t.Errorf("reply = %+v payload = %+v", env, p)
	}
}

func TestCommandHandlerRejects(t *testing.T) {
	req := &fakeRequester{q: taskqueue.New(), err: errors.New("pod (3,2) is already claimed")}
	out := &memOutbox{}
	h := NewCommandHandler(req, out, "warehouse-1", "telemetry")

	h.Ingestor().HandleRaw(request(t, "warehouse-1", nil))
	if len(out.types) != 1 || out.types[0] != protocol.TypeTaskRejected {
		t.Fatalf("replies = %v", out.types)
	}

	h.Ingestor().HandleRaw(request(t, "warehouse-9", nil))
	if len(out.types) != 1 {
		t.Error("message for another station should be ignored")
	}
}
