// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the olympiad workflow server.

The server runs the classification and phase-closure workflow of a school
olympiad: evaluator assignment, scoring with change approval, area and
competition closure with migration to the final phase, and medal
allocation.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=olympiad.db IDENTITY_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -c olympiad.yaml

A .env file in the working directory is loaded first when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - IDENTITY_SALT (--identity-salt): Secret for actor header signatures

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - OLYMPIAD_CONFIG (-c): Engine settings YAML file

Engine settings (passing score, reversal window, default quota, medal
tiers, Kafka brokers and topic, event queue size, log level) layer
built-in defaults, the YAML file and OLYMPIAD_* environment variables.

# Architecture

  - handlers: HTTP request handlers
  - router: Route definitions and service wiring
  - middleware: Logging, identity, CORS, JSON and error helpers
  - balancer, review, classify, closure, medals, thresholds: workflow services
  - store: Transactional persistence port over database/sql
  - events: Post-commit event queue with log and Kafka sinks
  - metrics: Prometheus counters
  - models, apperr, auth, db, cliparse: shared types and plumbing

See package documentation for each component.
*/
package main
