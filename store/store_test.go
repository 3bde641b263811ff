package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"podfleet/config"
	"podfleet/grid"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(&config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRobotUpsert(t *testing.T) {
	db := testDB(t)

	r := &RobotRecord{Slot: 0, Pos: grid.P(0, 9), Target: grid.Sentinel, Phase: "idle"}
	if err := db.UpsertRobot(r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	r.Pos = grid.P(1, 9)
	r.Target = grid.P(2, 4)
	r.Carrying = true
	r.Phase = "delivering"
	r.TaskUUID = "abc"
	if err := db.UpsertRobot(r); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := db.GetRobot(0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Pos != grid.P(1, 9) || got.Target != grid.P(2, 4) {
		t.Errorf("pos/target = %v/%v", got.Pos, got.Target)
	}
	if !got.Carrying || got.Phase != "delivering" || got.TaskUUID != "abc" {
		t.Errorf("robot = %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}

	db.UpsertRobot(&RobotRecord{Slot: 1, Pos: grid.P(1, 9), Target: grid.Sentinel, Phase: "idle"})
	db.UpsertRobot(&RobotRecord{Slot: 2, Pos: grid.P(2, 9), Target: grid.Sentinel, Phase: "idle"})
	if err := db.DeleteRobotsFrom(2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	robots, err := db.ListRobots()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(robots) != 2 || robots[0].Slot != 0 || robots[1].Slot != 1 {
		t.Errorf("robots = %+v", robots)
	}
}

func TestTaskLifecycle(t *testing.T) {
	db := testDB(t)

	if err := db.CreateTask("t-1", grid.P(3, 4), "generator"); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := db.GetTaskByUUID("t-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != TaskQueued || got.Pod != grid.P(3, 4) || got.RobotSlot != nil {
		t.Errorf("queued task = %+v", got)
	}

	if err := db.MarkTaskAssigned("t-1", 2); err != nil {
		t.Fatalf("assign: %v", err)
	}
	got, _ = db.GetTaskByUUID("t-1")
	if got.Status != TaskAssigned || got.RobotSlot == nil || *got.RobotSlot != 2 || got.AssignedAt == nil {
		t.Errorf("assigned task = %+v", got)
	}

	if err := db.MarkTaskCompleted("t-1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ = db.GetTaskByUUID("t-1")
	if got.Status != TaskCompleted || got.CompletedAt == nil {
		t.Errorf("completed task = %+v", got)
	}

	if err := db.MarkTaskCompleted("missing"); err == nil {
		t.Error("completing an unknown task should fail")
	}
}

func TestListTasksAndCounts(t *testing.T) {
	db := testDB(t)
	db.CreateTask("a", grid.P(0, 0), "generator")
	db.CreateTask("b", grid.P(1, 0), "api")
	db.CreateTask("c", grid.P(2, 0), "messaging")
	db.MarkTaskAssigned("b", 0)

	all, err := db.ListTasks("", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].UUID != "c" {
		t.Errorf("list all = %d tasks, first %q", len(all), all[0].UUID)
	}
	queued, _ := db.ListTasks(TaskQueued, 10)
	if len(queued) != 2 {
		t.Errorf("queued = %d, want 2", len(queued))
	}

	counts, err := db.CountTasksByStatus()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[TaskQueued] != 2 || counts[TaskAssigned] != 1 {
		t.Errorf("counts = %v", counts)
	}

	n, err := db.AbandonOpenTasks()
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if n != 3 {
		t.Errorf("abandoned %d, want 3", n)
	}
}

func TestAuditLog(t *testing.T) {
	db := testDB(t)
	db.AppendAudit("task", "t-1", "queued", "pod (1,0)", "system")
	db.AppendAudit("task", "t-1", "assigned", "robot 0", "system")
	db.AppendAudit("robot", "0", "idle", "", "system")

	entries, err := db.ListAuditLog(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 || entries[0].EntityType != "robot" {
		t.Errorf("entries = %+v", entries)
	}
	task, err := db.ListEntityAudit("task", "t-1")
	if err != nil {
		t.Fatalf("entity: %v", err)
	}
	if len(task) != 2 || task[0].Action != "assigned" {
		t.Errorf("task audit = %+v", task)
	}
}

func TestOutbox(t *testing.T) {
	db := testDB(t)
	db.EnqueueOutbox("podfleet.telemetry", []byte(`{"a":1}`), "robot.moved")
	db.EnqueueOutbox("podfleet.telemetry", []byte(`{"b":2}`), "task.queued")

	msgs, err := db.ListPendingOutbox(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || string(msgs[0].Payload) != `{"a":1}` {
		t.Fatalf("pending = %+v", msgs)
	}

	db.IncrementOutboxRetries(msgs[1].ID)
	if err := db.AckOutbox(msgs[0].ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	msgs, _ = db.ListPendingOutbox(10)
	if len(msgs) != 1 || msgs[0].Retries != 1 || msgs[0].MsgType != "task.queued" {
		t.Errorf("pending after ack = %+v", msgs)
	}

	// Nothing was sent an hour ago.
	n, err := db.PurgeSentOutbox(time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 0 {
		t.Errorf("purged %d, want 0", n)
	}

	db.Exec(`UPDATE outbox SET sent_at='2000-01-01 00:00:00' WHERE sent_at IS NOT NULL`)
	if n, err := db.PurgeSentOutbox(time.Hour); err != nil || n != 1 {
		t.Errorf("purge old = %d, %v; want 1", n, err)
	}
	if msgs, _ := db.ListPendingOutbox(10); len(msgs) != 1 {
		t.Errorf("purge touched pending messages: %+v", msgs)
	}
}

func TestAdminUsers(t *testing.T) {
	db := testDB(t)
	if n, err := db.CountAdminUsers(); err != nil || n != 0 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
	if err := db.CreateAdminUser("admin", "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}
	u, err := db.GetAdminUser("admin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.PasswordHash != "hash" || u.Username != "admin" || u.CreatedAt.IsZero() {
		t.Errorf("user = %+v", u)
	}
	if err := db.CreateAdminUser("admin", "other"); err == nil {
		t.Error("duplicate username should fail")
	}

	if err := db.SetAdminPassword("admin", "new-hash"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if u, _ := db.GetAdminUser("admin"); u.PasswordHash != "new-hash" {
		t.Errorf("hash after change = %q", u.PasswordHash)
	}
	if err := db.SetAdminPassword("nobody", "x"); err == nil {
		t.Error("changing an unknown user's password should fail")
	}
}

func TestDialectRewrite(t *testing.T) {
	tests := []struct {
		d           dialect
		input, want string
	}{
		{sqliteDialect, "UPDATE tasks SET status=?, assigned_at={now} WHERE task_uuid=?",
			"UPDATE tasks SET status=?, assigned_at=datetime('now','localtime') WHERE task_uuid=?"},
		{postgresDialect, "SELECT 1", "SELECT 1"},
		{postgresDialect, "UPDATE tasks SET status=?, assigned_at={now} WHERE task_uuid=?",
			"UPDATE tasks SET status=$1, assigned_at=NOW() WHERE task_uuid=$2"},
	}
	for _, tt := range tests {
		if got := tt.d.rewrite(tt.input); got != tt.want {
			t.Errorf("%s rewrite(%q) = %q, want %q", tt.d.name, tt.input, got, tt.want)
		}
	}
	if got := postgresDialect.ago(24 * time.Hour); got != "NOW() - INTERVAL '86400 seconds'" {
		t.Errorf("postgres ago = %q", got)
	}
}

func TestStampScan(t *testing.T) {
	var s stamp
	if err := s.Scan("2024-03-01 10:20:30"); err != nil {
		t.Fatalf("scan text: %v", err)
	}
	if s.t.Year() != 2024 || s.t.Minute() != 20 || s.ptr() == nil {
		t.Errorf("stamp = %+v", s)
	}
	now := time.Now()
	if err := s.Scan(now); err != nil || !s.t.Equal(now) {
		t.Errorf("scan time.Time: %v, %v", s.t, err)
	}
	for _, v := range []any{nil, ""} {
		if err := s.Scan(v); err != nil || s.ptr() != nil {
			t.Errorf("Scan(%v) should leave the stamp unset", v)
		}
	}
	if err := s.Scan("yesterday"); err == nil {
		t.Error("unparseable text should fail")
	}
}
