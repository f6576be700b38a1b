// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics exposes Prometheus counters for the workflow engine.

Collectors live on a private registry so /metrics only shows workflow
series:

	olympiad_workflow_area_closures_total{phase,result}
	olympiad_workflow_competition_closures_total{trigger,result}
	olympiad_workflow_competition_reversals_total{result}
	olympiad_workflow_assignments_created_total{phase,source}
	olympiad_workflow_score_changes_total{status}
	olympiad_workflow_medals_awarded_total{tier}
	olympiad_workflow_events_delivered_total{sink,result}
	olympiad_workflow_events_dropped_total
	olympiad_workflow_event_queue_size

Components call the package-level Record* helpers. Handler serves the
registry.
*/
package metrics
