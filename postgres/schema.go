package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS roadmaps (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    goal        TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS roadmap_modules (
    roadmap_id  TEXT NOT NULL REFERENCES roadmaps(id) ON DELETE CASCADE,
    id          TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    label       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'locked'
                CHECK (status IN ('locked', 'active', 'completed')),
    progress    INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
    resources   JSONB NOT NULL DEFAULT '[]',
    PRIMARY KEY (roadmap_id, id)
);

CREATE TABLE IF NOT EXISTS roadmap_prerequisites (
    roadmap_id TEXT NOT NULL,
    source_id  TEXT NOT NULL,
    target_id  TEXT NOT NULL,
    seq        INTEGER NOT NULL,
    PRIMARY KEY (roadmap_id, source_id, target_id),
    FOREIGN KEY (roadmap_id, source_id) REFERENCES roadmap_modules(roadmap_id, id) ON DELETE CASCADE,
    FOREIGN KEY (roadmap_id, target_id) REFERENCES roadmap_modules(roadmap_id, id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS code_submissions (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL,
    problem_id     TEXT NOT NULL DEFAULT '',
    language       TEXT NOT NULL,
    language_id    INTEGER NOT NULL,
    source_code    TEXT NOT NULL,
    status         TEXT NOT NULL,
    stdout         TEXT,
    stderr         TEXT,
    compile_output TEXT,
    time_ms        INTEGER,
    memory_kb      INTEGER,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_roadmaps_user_id         ON roadmaps(user_id);
CREATE INDEX IF NOT EXISTS idx_roadmap_prereqs_target   ON roadmap_prerequisites(roadmap_id, target_id);
CREATE INDEX IF NOT EXISTS idx_code_submissions_user_id ON code_submissions(user_id, created_at DESC);
`

// CreateSchema creates the roadmap and submission tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops every table created by CreateSchema.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS roadmap_prerequisites, roadmap_modules, roadmaps, code_submissions CASCADE;`)
	return err
}
