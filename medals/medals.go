// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package medals

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/danielhkuo/olympiad/apperr"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/metrics"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
	"github.com/danielhkuo/olympiad/thresholds"
)

// Candidate is a classified enrollment with its mean final score.
type Candidate struct {
	EnrollmentID string  `json:"enrollment_id"`
	Level        string  `json:"level"`
	Mean         float64 `json:"mean"`
}

// Award is a candidate's place in its cohort. Tier is nil when unmedaled.
type Award struct {
	EnrollmentID string            `json:"enrollment_id"`
	Level        string            `json:"level"`
	Rank         int               `json:"rank"`
	Mean         float64           `json:"mean"`
	Tier         *models.MedalTier `json:"tier,omitempty"`
}

// Allocate ranks one cohort and hands out medals. Candidates are ordered by
// mean descending, ties by enrollment id. Each candidate takes the first
// tier, in config order, that still has quota and whose band contains the
// mean.
func Allocate(candidates []Candidate, config []models.MedalTierConfig) []Award {
	ranked := append([]Candidate(nil), candidates...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		return a.EnrollmentID < b.EnrollmentID
	})

	remaining := make([]int, len(config))
	for i, c := range config {
		remaining[i] = c.MaxCount
	}

	awards := make([]Award, len(ranked))
	for i, c := range ranked {
		awards[i] = Award{EnrollmentID: c.EnrollmentID, Level: c.Level, Rank: i + 1, Mean: c.Mean}
		for t, cfg := range config {
			if remaining[t] <= 0 || !cfg.InBand(c.Mean) {
				continue
			}
			tier := cfg.Tier
			awards[i].Tier = &tier
			remaining[t]--
			break
		}
	}
	return awards
}

// Result is the outcome of Service.Allocate.
type Result struct {
	AreaID     string         `json:"area_id"`
	Awards     []Award        `json:"awards"`
	Counts     map[string]int `json:"counts"`
	InputsHash string         `json:"inputs_hash"`
}

// Service persists medal allocations.
type Service struct {
	store      store.Store
	thresholds *thresholds.Provider
	emitter    events.Emitter
}

func NewService(st store.Store, th *thresholds.Provider, emitter events.Emitter) *Service {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Service{store: st, thresholds: th, emitter: emitter}
}

// Allocate ranks every cohort of an area by mean final score and stores the
// medals, replacing any previous allocation. Admin or the area coordinator
// only.
func (s *Service) Allocate(ctx context.Context, actor models.Actor, areaID string) (Result, error) {
	if areaID == "" {
		return Result{}, apperr.Validation("area is required")
	}
	if !actor.CanManageArea(areaID) {
		return Result{}, apperr.Forbidden("only an administrator or the coordinator of area %s can allocate medals", areaID)
	}

	res := Result{AreaID: areaID, Counts: map[string]int{}}
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		comp, err := repo.GetCompetitionClosure(ctx, models.PhaseClassification)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !comp.Status.Closed()) {
			return apperr.Conflict("medals are allocated once the classification phase is closed")
		}
		if err != nil {
			return err
		}

		cohorts, levels, err := loadCandidates(ctx, repo, areaID)
		if err != nil {
			return err
		}

		var all []Candidate
		for _, level := range levels {
			resolved, err := s.thresholds.MedalConfig(ctx, repo, areaID, level)
			if err != nil {
				return err
			}
			config := make([]models.MedalTierConfig, len(resolved))
			for i, r := range resolved {
				config[i] = r.MedalTierConfig
			}

			for _, award := range Allocate(cohorts[level], config) {
				status := models.EnrollmentClassified
				if award.Tier != nil {
					status = models.EnrollmentMedalist
					res.Counts[string(*award.Tier)]++
				}
				if err := repo.SetEnrollmentMedal(ctx, award.EnrollmentID, status, award.Tier); err != nil {
					return err
				}
				res.Awards = append(res.Awards, award)
			}
			all = append(all, cohorts[level]...)
		}
		res.InputsHash = inputsHash(all)
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to allocate medals", "area_id", areaID, "error", err)
		}
		return Result{}, apperr.Wrap(err, "failed to allocate medals")
	}

	for _, a := range res.Awards {
		if a.Tier != nil {
			metrics.RecordMedal(string(*a.Tier))
		}
	}
	slog.Info("medals allocated", "area_id", areaID, "candidates", len(res.Awards), "by", actor.ID)
	s.emitter.Emit(ctx, events.New(events.KindMedalsAllocated, areaID, models.PhaseFinal, map[string]any{
		"counts":      res.Counts,
		"candidates":  len(res.Awards),
		"inputs_hash": res.InputsHash,
	}))
	return res, nil
}

// loadCandidates groups classified enrollments by level with their mean
// final score. Every candidate must have at least one final score.
func loadCandidates(ctx context.Context, repo store.Repository, areaID string) (map[string][]Candidate, []string, error) {
	enrollments, err := repo.ListEnrollmentsByArea(ctx, areaID)
	if err != nil {
		return nil, nil, err
	}
	scores, err := repo.ListAreaScores(ctx, areaID, models.PhaseFinal)
	if err != nil {
		return nil, nil, err
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, sc := range scores {
		sums[sc.EnrollmentID] += sc.Score
		counts[sc.EnrollmentID]++
	}

	cohorts := make(map[string][]Candidate)
	var levels []string
	missing := 0
	for _, e := range enrollments {
		if !e.Status.Qualified() {
			continue
		}
		n := counts[e.ID]
		if n == 0 {
			missing++
			continue
		}
		if _, ok := cohorts[e.Level]; !ok {
			levels = append(levels, e.Level)
		}
		cohorts[e.Level] = append(cohorts[e.Level], Candidate{
			EnrollmentID: e.ID,
			Level:        e.Level,
			Mean:         sums[e.ID] / float64(n),
		})
	}

	if missing > 0 {
		return nil, nil, apperr.Incomplete(missing,
			"%d classified enrollments of area %s have no final score", missing, areaID)
	}
	return cohorts, levels, nil
}

// inputsHash fingerprints the candidate set so repeated runs can be compared.
func inputsHash(candidates []Candidate) string {
	if len(candidates) == 0 {
		return "no-candidates"
	}
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("%s:%s:%.4f", c.EnrollmentID, c.Level, c.Mean)
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
