package postgres

type migration struct {
	version int
	sql     string
}

// migrations must stay ordered by version.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS users (
    id         BIGSERIAL PRIMARY KEY,
    username   VARCHAR(255) NOT NULL UNIQUE,
    password   TEXT NOT NULL,
    role       VARCHAR(16) NOT NULL DEFAULT 'member' CHECK (role IN ('admin', 'member')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tasks (
    id          BIGSERIAL PRIMARY KEY,
    title       VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    due_date    DATE,
    priority    VARCHAR(32) NOT NULL DEFAULT '',
    category    VARCHAR(64) NOT NULL DEFAULT '',
    status      VARCHAR(32) NOT NULL DEFAULT 'Pendiente',
    creator_id  BIGINT NOT NULL REFERENCES users (id),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tasks_creator_id ON tasks (creator_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);

CREATE TABLE IF NOT EXISTS subtasks (
    id          BIGSERIAL PRIMARY KEY,
    task_id     BIGINT NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    status      VARCHAR(32) NOT NULL DEFAULT 'Pendiente',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_subtasks_task_id ON subtasks (task_id);

CREATE TABLE IF NOT EXISTS submissions (
    task_id        BIGINT NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,
    user_id        BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    submitted_at   TIMESTAMPTZ NOT NULL,
    file_reference TEXT,
    PRIMARY KEY (task_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions (user_id);
`,
	},
}
