package fleetstate

import (
	"path/filepath"
	"testing"

	"podfleet/config"
	"podfleet/grid"
	"podfleet/store"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewManager(db, nil)
}

func TestManagerSQLOnly(t *testing.T) {
	m := testManager(t)
	for slot := 0; slot < 3; slot++ {
		rec := &store.RobotRecord{Slot: slot, Pos: grid.P(slot, 9), Target: grid.Sentinel, Phase: "idle"}
		if err := m.PutRobot(rec); err != nil {
			t.Fatalf("put %d: %v", slot, err)
		}
	}

	got, err := m.GetRobot(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Pos != grid.P(1, 9) {
		t.Errorf("pos = %v, want (1,9)", got.Pos)
	}

	if err := m.Trim(2); err != nil {
		t.Fatalf("trim: %v", err)
	}
	robots, err := m.Robots()
	if err != nil {
		t.Fatalf("robots: %v", err)
	}
	if len(robots) != 2 {
		t.Errorf("robots = %d, want 2", len(robots))
	}

	// Without Redis these are no-ops.
	m.ClaimPod("(1,0)")
	m.ReleasePod("(1,0)")
	if err := m.SyncRedisFromSQL(); err != nil {
		t.Errorf("sync: %v", err)
	}
}

func TestRobotKey(t *testing.T) {
	if got := robotKey(3); got != "podfleet:robot:3" {
		t.Errorf("robotKey = %q", got)
	}
}
