package store

import (
	"database/sql"
	"fmt"
	"time"

	"podfleet/grid"
)

const (
	TaskQueued    = "queued"
	TaskAssigned  = "assigned"
	TaskCompleted = "completed"
	TaskAbandoned = "abandoned"
)

// TaskRecord is the persisted history of one pod task.
type TaskRecord struct {
	ID          int64      `json:"id"`
	UUID        string     `json:"uuid"`
	Pod         grid.Pos   `json:"pod"`
	Status      string     `json:"status"`
	RobotSlot   *int       `json:"robot_slot,omitempty"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const taskSelectCols = `id, task_uuid, pod_x, pod_y, status, robot_slot, source, created_at, assigned_at, completed_at`

func scanTask(row interface{ Scan(...any) error }) (*TaskRecord, error) {
	var t TaskRecord
	var robotSlot sql.NullInt64
	var createdAt, assignedAt, completedAt stamp
	err := row.Scan(&t.ID, &t.UUID, &t.Pod.X, &t.Pod.Y, &t.Status, &robotSlot, &t.Source,
		&createdAt, &assignedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if robotSlot.Valid {
		slot := int(robotSlot.Int64)
		t.RobotSlot = &slot
	}
	t.CreatedAt = createdAt.t
	t.AssignedAt = assignedAt.ptr()
	t.CompletedAt = completedAt.ptr()
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*TaskRecord, error) {
	var tasks []*TaskRecord
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask records a newly queued task.
func (db *DB) CreateTask(uuid string, pod grid.Pos, source string) error {
	_, err := db.Exec(db.Q(`INSERT INTO tasks (task_uuid, pod_x, pod_y, status, source) VALUES (?, ?, ?, ?, ?)`),
		uuid, pod.X, pod.Y, TaskQueued, source)
	return err
}

func (db *DB) MarkTaskAssigned(uuid string, slot int) error {
	return db.updateTask(db.Q(`UPDATE tasks SET status=?, robot_slot=?, assigned_at={now} WHERE task_uuid=?`),
		TaskAssigned, slot, uuid)
}

func (db *DB) MarkTaskCompleted(uuid string) error {
	return db.updateTask(db.Q(`UPDATE tasks SET status=?, completed_at={now} WHERE task_uuid=?`),
		TaskCompleted, uuid)
}

func (db *DB) updateTask(query string, args ...any) error {
	res, err := db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %v not found", args[len(args)-1])
	}
	return nil
}

func (db *DB) GetTaskByUUID(uuid string) (*TaskRecord, error) {
	row := db.QueryRow(db.Q(`SELECT `+taskSelectCols+` FROM tasks WHERE task_uuid=?`), uuid)
	return scanTask(row)
}

// ListTasks returns the newest tasks first. An empty status matches all.
func (db *DB) ListTasks(status string, limit int) ([]*TaskRecord, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = db.Query(db.Q(`SELECT `+taskSelectCols+` FROM tasks ORDER BY id DESC LIMIT ?`), limit)
	} else {
		rows, err = db.Query(db.Q(`SELECT `+taskSelectCols+` FROM tasks WHERE status=? ORDER BY id DESC LIMIT ?`), status, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// CountTasksByStatus returns how many tasks sit in each status.
func (db *DB) CountTasksByStatus() (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// AbandonOpenTasks closes out tasks left queued or assigned by a previous run.
// The in-memory queue does not survive a restart, so those tasks can never finish.
func (db *DB) AbandonOpenTasks() (int64, error) {
	res, err := db.Exec(db.Q(`UPDATE tasks SET status=?, completed_at={now} WHERE status IN (?, ?)`),
		TaskAbandoned, TaskQueued, TaskAssigned)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
