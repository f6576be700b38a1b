// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Process Configuration

ParseFlags returns a Config struct with the process settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - IdentitySalt: secret used to verify actor signatures (required)
  - SettingsPath: optional YAML file with engine settings

# CLI Flags

	-p                Server port
	-d                Database URL
	-t                Database type
	-c                Engine settings file
	--identity-salt   Identity signature salt

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	OLYMPIAD_CONFIG → -c
	IDENTITY_SALT   → --identity-salt

CLI flags take precedence over environment variables. main loads a .env
file first, so the same variables may live there.

# Engine Settings

LoadSettings layers defaults, the YAML file, and OLYMPIAD_* variables with
koanf:

	settings, err := cliparse.LoadSettings(cfg.SettingsPath)

	passing_score: 51
	reversal_window: 24h
	default_quota: 10
	event_queue_size: 1024
	kafka_brokers: ["localhost:9092"]
	kafka_topic: olympiad.workflow
	medals:
	  gold: {max_count: 1, min_score: 90, max_score: 100}

Environment keys are the lower-cased suffix, e.g. OLYMPIAD_PASSING_SCORE.
*/
package cliparse
