package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS robots (
    slot        INTEGER PRIMARY KEY,
    pos_x       INTEGER NOT NULL,
    pos_y       INTEGER NOT NULL,
    target_x    INTEGER NOT NULL DEFAULT -1,
    target_y    INTEGER NOT NULL DEFAULT -1,
    carrying    INTEGER NOT NULL DEFAULT 0,
    phase       TEXT NOT NULL DEFAULT 'idle',
    task_uuid   TEXT NOT NULL DEFAULT '',
    updated_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS tasks (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    task_uuid    TEXT NOT NULL UNIQUE,
    pod_x        INTEGER NOT NULL,
    pod_y        INTEGER NOT NULL,
    status       TEXT NOT NULL DEFAULT 'queued',
    robot_slot   INTEGER,
    source       TEXT NOT NULL DEFAULT 'generator',
    created_at   TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    assigned_at  TEXT,
    completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

CREATE TABLE IF NOT EXISTS outbox (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    topic       TEXT NOT NULL,
    payload     BLOB NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
`
