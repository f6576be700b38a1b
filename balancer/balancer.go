// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package balancer

import (
	"sort"

	"github.com/danielhkuo/olympiad/models"
)

// Input is everything Balance needs. Both slices are eligible sets in
// registration order.
type Input struct {
	Enrollments []models.Enrollment
	Evaluators  []models.Evaluator
	Quota       int
}

// Allocation is one evaluator's share of one cohort.
type Allocation struct {
	EvaluatorID   string   `json:"evaluator_id"`
	Level         string   `json:"level"`
	EnrollmentIDs []string `json:"enrollment_ids"`
}

// Insufficient explains why no plan could be built.
type Insufficient struct {
	Reason      string `json:"reason"`
	Level       string `json:"level,omitempty"`
	Enrollments int    `json:"enrollments"`
	Evaluators  int    `json:"evaluators"`
}

// Cohort summarizes the plan for one level.
type Cohort struct {
	Level      string `json:"level"`
	Size       int    `json:"size"`
	Needed     int    `json:"needed"`
	Evaluators int    `json:"evaluators"`
}

// Plan is the result of Balance. Exactly one of Allocations or Insufficient
// is meaningful.
type Plan struct {
	Cohorts      []Cohort      `json:"cohorts"`
	Allocations  []Allocation  `json:"allocations"`
	Insufficient *Insufficient `json:"insufficient,omitempty"`
}

// Total returns the number of enrollments the plan assigns.
func (p Plan) Total() int {
	n := 0
	for _, a := range p.Allocations {
		n += len(a.EnrollmentIDs)
	}
	return n
}

// Balance splits enrollments into level cohorts and stripes each cohort
// over ceil(size/Q) distinct evaluators. Evaluators are shared across
// cohorts: unused ones are picked first, then the least loaded, ties broken
// by input order. When a cohort needs more evaluators than cover its level
// the last chosen evaluator absorbs the remainder.
func Balance(in Input) Plan {
	if len(in.Enrollments) == 0 || len(in.Evaluators) == 0 {
		return Plan{Insufficient: &Insufficient{
			Reason:      "no eligible enrollments or evaluators",
			Enrollments: len(in.Enrollments),
			Evaluators:  len(in.Evaluators),
		}}
	}
	q := in.Quota
	if q < 1 {
		q = 1
	}

	// Partition by level, first-seen order.
	var levels []string
	cohorts := make(map[string][]string)
	for _, e := range in.Enrollments {
		if _, ok := cohorts[e.Level]; !ok {
			levels = append(levels, e.Level)
		}
		cohorts[e.Level] = append(cohorts[e.Level], e.ID)
	}

	load := make([]int, len(in.Evaluators))
	var plan Plan

	for _, level := range levels {
		ids := cohorts[level]

		var pool []int
		for i, ev := range in.Evaluators {
			if ev.Covers(level) {
				pool = append(pool, i)
			}
		}
		if len(pool) == 0 {
			return Plan{Insufficient: &Insufficient{
				Reason:      "no eligible evaluator covers level",
				Level:       level,
				Enrollments: len(in.Enrollments),
				Evaluators:  len(in.Evaluators),
			}}
		}

		needed := (len(ids) + q - 1) / q
		k := min(needed, len(pool))

		sort.SliceStable(pool, func(a, b int) bool {
			return load[pool[a]] < load[pool[b]]
		})
		chosen := pool[:k]

		for i, idx := range chosen {
			start := i * q
			end := start + q
			if i == k-1 || end > len(ids) {
				end = len(ids)
			}
			share := append([]string(nil), ids[start:end]...)
			load[idx] += len(share)
			plan.Allocations = append(plan.Allocations, Allocation{
				EvaluatorID:   in.Evaluators[idx].ID,
				Level:         level,
				EnrollmentIDs: share,
			})
		}

		plan.Cohorts = append(plan.Cohorts, Cohort{
			Level:      level,
			Size:       len(ids),
			Needed:     needed,
			Evaluators: k,
		})
	}

	return plan
}
