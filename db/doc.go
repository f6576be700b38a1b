// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the relational store and creates its schema.

# Connecting

Open selects the driver from the configured database type:

	conn, err := db.Open(ctx, db.TypePostgres, "postgres://...")
	conn, err := db.Open(ctx, db.TypeSQLite, "file:olympiad.db")

PostgreSQL uses github.com/lib/pq; SQLite uses the pure-Go modernc.org/sqlite
driver with foreign keys on, a busy timeout and BEGIN IMMEDIATE transactions.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL only uses types and clauses both engines understand.

# Tables

  - enrollment: participant registration per area and level
  - evaluator: graders registered for an area
  - score_record: one score per (enrollment, evaluator, phase)
  - assignment: who evaluates whom per phase
  - area_phase_closure: per (area, phase) closure state
  - competition_closure: competition-wide closure and deadline
  - outcome_record: not-classified / disqualified justifications
  - medal_config: per (area, level, tier) quota and band
  - score_change: edits awaiting coordinator approval
  - setting: persisted overrides such as passing_score

# Relationships

	enrollment 1──* score_record *──1 evaluator
	enrollment 1──* assignment   *──1 evaluator
	enrollment 1──* outcome_record
	score_record 1──* score_change
*/
package db
