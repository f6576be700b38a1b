// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package medals ranks finalists and hands out medal tiers.

	POST /areas/{area}/medals

Allocate is pure and deterministic. Within a cohort (one level of one area)
candidates are ranked by mean final score, ties broken by enrollment id
ascending. Each candidate receives the first tier in gold, silver, bronze,
honorable mention order that still has quota and whose band contains the
score.

Tier configuration is resolved per cohort by the thresholds package. A
repeated run over unchanged scores yields the same awards and the same
inputs hash.
*/
package medals
