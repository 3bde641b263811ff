package store

import (
	"database/sql"
	"time"

	"podfleet/grid"
)

// RobotRecord is the last persisted state of one robot slot.
type RobotRecord struct {
	Slot      int       `json:"slot"`
	Pos       grid.Pos  `json:"pos"`
	Target    grid.Pos  `json:"target"`
	Carrying  bool      `json:"carrying"`
	Phase     string    `json:"phase"`
	TaskUUID  string    `json:"task_uuid"`
	UpdatedAt time.Time `json:"updated_at"`
}

const robotSelectCols = `slot, pos_x, pos_y, target_x, target_y, carrying, phase, task_uuid, updated_at`

func scanRobot(row interface{ Scan(...any) error }) (*RobotRecord, error) {
	var r RobotRecord
	var updatedAt stamp
	err := row.Scan(&r.Slot, &r.Pos.X, &r.Pos.Y, &r.Target.X, &r.Target.Y,
		&r.Carrying, &r.Phase, &r.TaskUUID, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt = updatedAt.t
	return &r, nil
}

// UpsertRobot writes the robot's current state, inserting the slot on first use.
func (db *DB) UpsertRobot(r *RobotRecord) error {
	_, err := db.Exec(db.Q(`INSERT INTO robots (slot, pos_x, pos_y, target_x, target_y, carrying, phase, task_uuid, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, {now})
		ON CONFLICT(slot) DO UPDATE SET
			pos_x=excluded.pos_x, pos_y=excluded.pos_y,
			target_x=excluded.target_x, target_y=excluded.target_y,
			carrying=excluded.carrying, phase=excluded.phase,
			task_uuid=excluded.task_uuid, updated_at=excluded.updated_at`),
		r.Slot, r.Pos.X, r.Pos.Y, r.Target.X, r.Target.Y, r.Carrying, r.Phase, r.TaskUUID)
	return err
}

func (db *DB) GetRobot(slot int) (*RobotRecord, error) {
	row := db.QueryRow(db.Q(`SELECT `+robotSelectCols+` FROM robots WHERE slot=?`), slot)
	return scanRobot(row)
}

func (db *DB) ListRobots() ([]*RobotRecord, error) {
	rows, err := db.Query(`SELECT ` + robotSelectCols + ` FROM robots ORDER BY slot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRobots(rows)
}

func scanRobots(rows *sql.Rows) ([]*RobotRecord, error) {
	var robots []*RobotRecord
	for rows.Next() {
		r, err := scanRobot(rows)
		if err != nil {
			return nil, err
		}
		robots = append(robots, r)
	}
	return robots, rows.Err()
}

// DeleteRobotsFrom drops slots at or above n, used when the configured fleet shrinks.
func (db *DB) DeleteRobotsFrom(n int) error {
	_, err := db.Exec(db.Q(`DELETE FROM robots WHERE slot >= ?`), n)
	return err
}
