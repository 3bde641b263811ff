package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS robots (
    slot        INTEGER PRIMARY KEY,
    pos_x       INTEGER NOT NULL,
    pos_y       INTEGER NOT NULL,
    target_x    INTEGER NOT NULL DEFAULT -1,
    target_y    INTEGER NOT NULL DEFAULT -1,
    carrying    BOOLEAN NOT NULL DEFAULT FALSE,
    phase       TEXT NOT NULL DEFAULT 'idle',
    task_uuid   TEXT NOT NULL DEFAULT '',
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tasks (
    id           BIGSERIAL PRIMARY KEY,
    task_uuid    TEXT NOT NULL UNIQUE,
    pod_x        INTEGER NOT NULL,
    pod_y        INTEGER NOT NULL,
    status       TEXT NOT NULL DEFAULT 'queued',
    robot_slot   INTEGER,
    source       TEXT NOT NULL DEFAULT 'generator',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    assigned_at  TIMESTAMPTZ,
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

CREATE TABLE IF NOT EXISTS outbox (
    id          BIGSERIAL PRIMARY KEY,
    topic       TEXT NOT NULL,
    payload     BYTEA NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          BIGSERIAL PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
