// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types.
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Open connects to the configured database and verifies the connection.
// SQLite connections get foreign keys, a busy timeout and immediate
// transactions so concurrent closures serialize on the write lock.
func Open(ctx context.Context, dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypePostgres:
		driver = "postgres"
	case TypeSQLite:
		driver = "sqlite"
		url = sqliteDSN(url)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbType == TypeSQLite {
		// One writer at a time; avoids SQLITE_BUSY on lock upgrades.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

func sqliteDSN(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// The schema sticks to types and clauses shared by PostgreSQL and SQLite.
const schema = `
-- Enrollments
CREATE TABLE IF NOT EXISTS enrollment (
    id TEXT PRIMARY KEY,
    participant_id TEXT NOT NULL,
    participant_name TEXT NOT NULL,
    area_id TEXT NOT NULL,
    level TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'classified', 'not_classified', 'disqualified', 'medalist')),
    medal TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (participant_id, area_id, level)
);

CREATE INDEX IF NOT EXISTS idx_enrollment_area ON enrollment(area_id);

-- Evaluators
CREATE TABLE IF NOT EXISTS evaluator (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    area_id TEXT NOT NULL,
    level TEXT NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluator_area ON evaluator(area_id);

-- Score records
CREATE TABLE IF NOT EXISTS score_record (
    id TEXT PRIMARY KEY,
    enrollment_id TEXT NOT NULL REFERENCES enrollment(id),
    evaluator_id TEXT NOT NULL REFERENCES evaluator(id),
    phase TEXT NOT NULL CHECK (phase IN ('classification', 'final')),
    score REAL NOT NULL CHECK (score >= 0 AND score <= 100),
    remark TEXT NOT NULL DEFAULT '',
    finalized BOOLEAN NOT NULL,
    modification_count INTEGER NOT NULL DEFAULT 0 CHECK (modification_count <= 1),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (enrollment_id, evaluator_id, phase)
);

CREATE INDEX IF NOT EXISTS idx_score_record_enrollment ON score_record(enrollment_id, phase);

-- Assignments
CREATE TABLE IF NOT EXISTS assignment (
    id TEXT PRIMARY KEY,
    enrollment_id TEXT NOT NULL REFERENCES enrollment(id),
    evaluator_id TEXT NOT NULL REFERENCES evaluator(id),
    area_id TEXT NOT NULL,
    phase TEXT NOT NULL CHECK (phase IN ('classification', 'final')),
    run_id TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (enrollment_id, evaluator_id, phase)
);

CREATE INDEX IF NOT EXISTS idx_assignment_area_phase ON assignment(area_id, phase);
CREATE INDEX IF NOT EXISTS idx_assignment_run ON assignment(run_id);

-- Area phase closures
CREATE TABLE IF NOT EXISTS area_phase_closure (
    area_id TEXT NOT NULL,
    phase TEXT NOT NULL CHECK (phase IN ('classification', 'final')),
    status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'closed')),
    percentage REAL NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0,
    evaluated INTEGER NOT NULL DEFAULT 0,
    classified_count INTEGER NOT NULL DEFAULT 0,
    not_classified_count INTEGER NOT NULL DEFAULT 0,
    disqualified_count INTEGER NOT NULL DEFAULT 0,
    closed_at TIMESTAMP,
    closed_by TEXT,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (area_id, phase)
);

-- Competition phase closure
CREATE TABLE IF NOT EXISTS competition_closure (
    phase TEXT PRIMARY KEY CHECK (phase IN ('classification', 'final')),
    status TEXT NOT NULL CHECK (status IN ('active', 'closed_by_admin', 'closed_automatically')),
    run_id TEXT,
    total_enrollments INTEGER NOT NULL DEFAULT 0,
    classified_count INTEGER NOT NULL DEFAULT 0,
    not_classified_count INTEGER NOT NULL DEFAULT 0,
    disqualified_count INTEGER NOT NULL DEFAULT 0,
    excluded_count INTEGER NOT NULL DEFAULT 0,
    migrated_count INTEGER NOT NULL DEFAULT 0,
    end_date TIMESTAMP,
    extended_end_date TIMESTAMP,
    closed_at TIMESTAMP,
    closed_by TEXT,
    updated_at TIMESTAMP NOT NULL
);

-- Not-classified / disqualification justifications
CREATE TABLE IF NOT EXISTS outcome_record (
    id TEXT PRIMARY KEY,
    enrollment_id TEXT NOT NULL REFERENCES enrollment(id),
    phase TEXT NOT NULL CHECK (phase IN ('classification', 'final')),
    kind TEXT NOT NULL CHECK (kind IN ('not_classified', 'disqualified')),
    score REAL,
    threshold REAL,
    justification TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcome_record_enrollment ON outcome_record(enrollment_id, phase, kind);

-- Medal configuration
CREATE TABLE IF NOT EXISTS medal_config (
    area_id TEXT NOT NULL,
    level TEXT NOT NULL DEFAULT '',
    tier TEXT NOT NULL CHECK (tier IN ('gold', 'silver', 'bronze', 'honorable_mention')),
    max_count INTEGER NOT NULL CHECK (max_count >= 0),
    min_score REAL NOT NULL,
    max_score REAL NOT NULL,
    PRIMARY KEY (area_id, level, tier)
);

-- Pending score changes
CREATE TABLE IF NOT EXISTS score_change (
    id TEXT PRIMARY KEY,
    score_id TEXT NOT NULL REFERENCES score_record(id),
    enrollment_id TEXT NOT NULL REFERENCES enrollment(id),
    area_id TEXT NOT NULL,
    phase TEXT NOT NULL,
    old_score REAL NOT NULL,
    new_score REAL NOT NULL,
    new_remark TEXT NOT NULL DEFAULT '',
    justification TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'info_requested')),
    requested_by TEXT NOT NULL,
    reviewed_by TEXT,
    review_note TEXT,
    created_at TIMESTAMP NOT NULL,
    resolved_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_score_change_score ON score_change(score_id, status);

-- Engine settings overriding configured defaults
CREATE TABLE IF NOT EXISTS setting (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)
`
