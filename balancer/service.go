// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package balancer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/olympiad/apperr"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/metrics"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
)

// Request asks for a balancing run over one area and phase.
type Request struct {
	AreaID  string
	Phase   models.Phase
	Quota   int // 0 uses the configured default
	Confirm bool
}

// Result is the preview or the committed plan.
type Result struct {
	AreaID    string       `json:"area_id"`
	Phase     models.Phase `json:"phase"`
	Quota     int          `json:"quota"`
	Confirmed bool         `json:"confirmed"`
	Plan      Plan         `json:"plan"`
	Replaced  int64        `json:"replaced"`
	Created   int          `json:"created"`
}

// Service loads eligible sets, runs Balance and persists confirmed plans.
type Service struct {
	store        store.Store
	emitter      events.Emitter
	defaultQuota int
	now          func() time.Time
}

func NewService(st store.Store, emitter events.Emitter, defaultQuota int) *Service {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Service{
		store:        st,
		emitter:      emitter,
		defaultQuota: defaultQuota,
		now:          time.Now,
	}
}

// Assign previews or confirms a balancing run. Admin or the area
// coordinator only. A preview never writes.
func (s *Service) Assign(ctx context.Context, actor models.Actor, req Request) (Result, error) {
	if req.AreaID == "" {
		return Result{}, apperr.Validation("area is required")
	}
	if !req.Phase.Valid() {
		return Result{}, apperr.Validation("unknown phase %q", req.Phase)
	}
	if !actor.CanManageArea(req.AreaID) {
		return Result{}, apperr.Forbidden("only an administrator or the coordinator of area %s can assign evaluators", req.AreaID)
	}
	if req.Quota == 0 {
		req.Quota = s.defaultQuota
	}
	if req.Quota < 1 {
		return Result{}, apperr.Validation("quota must be at least 1")
	}

	res := Result{AreaID: req.AreaID, Phase: req.Phase, Quota: req.Quota}

	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		if err := checkPhaseOpen(ctx, repo, req.AreaID, req.Phase); err != nil {
			return err
		}

		in, err := eligible(ctx, repo, req.AreaID, req.Phase)
		if err != nil {
			return err
		}
		in.Quota = req.Quota
		res.Plan = Balance(in)

		if !req.Confirm || res.Plan.Insufficient != nil {
			return nil
		}

		res.Replaced, err = repo.DeleteUnscoredAssignments(ctx, req.AreaID, req.Phase)
		if err != nil {
			return err
		}
		now := s.now()
		for _, alloc := range res.Plan.Allocations {
			for _, enrollmentID := range alloc.EnrollmentIDs {
				err := repo.InsertAssignment(ctx, models.Assignment{
					ID:           uuid.NewString(),
					EnrollmentID: enrollmentID,
					EvaluatorID:  alloc.EvaluatorID,
					AreaID:       req.AreaID,
					Phase:        req.Phase,
					CreatedAt:    now,
				})
				if err != nil {
					return err
				}
				res.Created++
			}
		}
		res.Confirmed = true
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to balance assignments", "area_id", req.AreaID, "phase", req.Phase, "error", err)
		}
		return Result{}, apperr.Wrap(err, "failed to balance assignments")
	}

	if res.Confirmed {
		metrics.AddAssignments(string(req.Phase), "balancer", res.Created)
		slog.Info("assignments confirmed",
			"area_id", req.AreaID, "phase", req.Phase, "created", res.Created, "replaced", res.Replaced)
		s.emitter.Emit(ctx, events.New(events.KindAssignmentsConfirmed, req.AreaID, req.Phase, map[string]any{
			"created":  res.Created,
			"replaced": res.Replaced,
			"quota":    req.Quota,
		}))
	}
	return res, nil
}

func checkPhaseOpen(ctx context.Context, repo store.Repository, areaID string, phase models.Phase) error {
	closure, err := repo.GetAreaClosure(ctx, areaID, phase)
	if err == nil && closure.Status == models.ClosureClosed {
		return apperr.Conflict("%s phase of area %s is closed", phase, areaID)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if phase == models.PhaseFinal {
		comp, err := repo.GetCompetitionClosure(ctx, models.PhaseClassification)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !comp.Status.Closed()) {
			return apperr.Conflict("final phase opens when the classification phase is closed")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// eligible loads the enrollments still lacking a score in the phase and the
// active evaluators without a consumed assignment in the area and phase.
func eligible(ctx context.Context, repo store.Repository, areaID string, phase models.Phase) (Input, error) {
	enrollments, err := repo.ListEnrollmentsByArea(ctx, areaID)
	if err != nil {
		return Input{}, err
	}
	scores, err := repo.ListAreaScores(ctx, areaID, phase)
	if err != nil {
		return Input{}, err
	}
	evaluators, err := repo.ListEvaluators(ctx, areaID)
	if err != nil {
		return Input{}, err
	}

	scored := make(map[string]bool, len(scores))
	consumed := make(map[string]bool)
	for _, sc := range scores {
		scored[sc.EnrollmentID] = true
		consumed[sc.EvaluatorID] = true
	}

	var in Input
	for _, e := range enrollments {
		if scored[e.ID] || !inPopulation(e.Status, phase) {
			continue
		}
		in.Enrollments = append(in.Enrollments, e)
	}
	for _, ev := range evaluators {
		if consumed[ev.ID] {
			continue
		}
		in.Evaluators = append(in.Evaluators, ev)
	}
	return in, nil
}

func inPopulation(status models.EnrollmentStatus, phase models.Phase) bool {
	if phase == models.PhaseFinal {
		return status.Qualified()
	}
	return status != models.EnrollmentDisqualified
}
