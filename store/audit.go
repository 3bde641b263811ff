package store

import (
	"time"
)

type AuditEntry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

func (db *DB) AppendAudit(entityType, entityID, action, detail, actor string) error {
	_, err := db.Exec(db.Q(`INSERT INTO audit_log (entity_type, entity_id, action, detail, actor) VALUES (?, ?, ?, ?, ?)`),
		entityType, entityID, action, detail, actor)
	return err
}

func (db *DB) ListAuditLog(limit int) ([]*AuditEntry, error) {
	return db.queryAudit(db.Q(`SELECT id, entity_type, entity_id, action, detail, actor, created_at FROM audit_log ORDER BY id DESC LIMIT ?`), limit)
}

func (db *DB) ListEntityAudit(entityType, entityID string) ([]*AuditEntry, error) {
	return db.queryAudit(db.Q(`SELECT id, entity_type, entity_id, action, detail, actor, created_at FROM audit_log WHERE entity_type=? AND entity_id=? ORDER BY id DESC`), entityType, entityID)
}

func (db *DB) queryAudit(query string, args ...any) ([]*AuditEntry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var createdAt stamp
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.Detail, &e.Actor, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt.t
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
