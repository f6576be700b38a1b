// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package closure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/olympiad/apperr"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/metrics"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
)

// CompetitionResult is the outcome of CloseCompetition and RevertCompetition.
type CompetitionResult struct {
	Closure       models.CompetitionClosure `json:"closure"`
	AlreadyClosed bool                      `json:"already_closed"`
}

// AutoResult is the outcome of CheckAutomaticClosure. Reason explains why
// nothing happened when Closed is false.
type AutoResult struct {
	Closed      bool                      `json:"closed"`
	Reason      string                    `json:"reason"`
	ClosedAreas []string                  `json:"closed_areas,omitempty"`
	Closure     models.CompetitionClosure `json:"closure"`
}

// loadCompetition returns the classification competition record, creating an
// active one on first use. Concurrent creators keep whichever row landed first.
func (s *Service) loadCompetition(ctx context.Context, repo store.Repository) (models.CompetitionClosure, error) {
	comp, err := repo.GetCompetitionClosure(ctx, models.PhaseClassification)
	if err == nil {
		return comp, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return comp, err
	}

	if _, err := repo.CreateCompetitionClosure(ctx, newCompetition(s.now())); err != nil {
		return comp, err
	}
	return repo.GetCompetitionClosure(ctx, models.PhaseClassification)
}

func newCompetition(now time.Time) models.CompetitionClosure {
	return models.CompetitionClosure{
		Phase:     models.PhaseClassification,
		Status:    models.CompetitionActive,
		UpdatedAt: now,
	}
}

// CloseCompetition closes the classification phase for every area and
// migrates classified enrollments into the final phase. Admin only.
func (s *Service) CloseCompetition(ctx context.Context, actor models.Actor) (CompetitionResult, error) {
	if actor.Role != models.RoleAdmin {
		return CompetitionResult{}, apperr.Forbidden("only an administrator can close the competition")
	}

	var res CompetitionResult
	var areas []string
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		comp, err := s.loadCompetition(ctx, repo)
		if err != nil {
			return err
		}
		if comp.Status.Closed() {
			res = CompetitionResult{Closure: comp, AlreadyClosed: true}
			return nil
		}

		areas, err = repo.ListAreaIDs(ctx)
		if err != nil {
			return err
		}
		var open []string
		for _, area := range areas {
			rec, err := repo.GetAreaClosure(ctx, area, models.PhaseClassification)
			if errors.Is(err, store.ErrNotFound) || (err == nil && rec.Status != models.ClosureClosed) {
				open = append(open, area)
				continue
			}
			if err != nil {
				return err
			}
		}
		if len(open) > 0 {
			return apperr.Incomplete(len(open),
				"%d areas still have an open classification phase", len(open)).With("open_areas", open)
		}

		closed, err := s.closeCompetition(ctx, repo, comp, areas, models.CompetitionClosedByAdmin, actor.ID)
		if err != nil {
			return err
		}
		res = CompetitionResult{Closure: closed}
		return nil
	})

	if errors.Is(err, errLostRace) {
		comp, err := s.reloadCompetition(ctx)
		if err != nil {
			return CompetitionResult{}, err
		}
		metrics.RecordCompetitionClosure("admin", "already_closed")
		return CompetitionResult{Closure: comp, AlreadyClosed: true}, nil
	}
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to close competition", "error", err)
		}
		metrics.RecordCompetitionClosure("admin", "rejected")
		return CompetitionResult{}, apperr.Wrap(err, "failed to close competition")
	}

	if res.AlreadyClosed {
		metrics.RecordCompetitionClosure("admin", "already_closed")
		return res, nil
	}

	metrics.RecordCompetitionClosure("admin", "closed")
	metrics.AddAssignments(string(models.PhaseFinal), "migration", res.Closure.MigratedCount)
	slog.Info("competition closed", "by", actor.ID, "run_id", derefString(res.Closure.RunID),
		"migrated", res.Closure.MigratedCount, "areas", len(areas))
	s.emitCompetitionClosed(ctx, res.Closure, "admin")
	return res, nil
}

// closeCompetition marks the record closed, migrates classified enrollments
// and opens the final-phase area records. It runs inside the caller's
// transaction.
func (s *Service) closeCompetition(ctx context.Context, repo store.Repository, comp models.CompetitionClosure, areas []string, status models.CompetitionStatus, by string) (models.CompetitionClosure, error) {
	runID := uuid.NewString()
	now := s.now()
	comp.Status = status
	comp.RunID = &runID
	comp.ClosedAt = &now
	comp.ClosedBy = &by
	comp.UpdatedAt = now

	// The guarded update locks the record before any assignment is written,
	// so a concurrent close waits here and then sees it closed.
	ok, err := repo.MarkCompetitionClosed(ctx, comp)
	if err != nil {
		return comp, err
	}
	if !ok {
		return comp, errLostRace
	}

	counts, err := s.migrate(ctx, repo, areas, runID)
	if err != nil {
		return comp, err
	}
	comp.TotalEnrollments = counts.total
	comp.ClassifiedCount = counts.classified
	comp.NotClassifiedCount = counts.notClassified
	comp.DisqualifiedCount = counts.disqualified
	comp.ExcludedCount = counts.excluded
	comp.MigratedCount = counts.migrated
	if err := repo.SaveCompetitionClosure(ctx, comp); err != nil {
		return comp, err
	}

	for _, area := range areas {
		if _, err := s.RefreshProgress(ctx, repo, area, models.PhaseFinal); err != nil {
			return comp, err
		}
	}
	return comp, nil
}

type migrationCounts struct {
	total         int
	classified    int
	notClassified int
	disqualified  int
	excluded      int
	migrated      int
}

// migrate creates one final-phase assignment per classified enrollment. The
// classification evaluator is reused while still active and covering the
// level; otherwise the first active evaluator covering it is used.
func (s *Service) migrate(ctx context.Context, repo store.Repository, areas []string, runID string) (migrationCounts, error) {
	var counts migrationCounts
	var uncovered []string
	now := s.now()

	for _, area := range areas {
		enrollments, err := repo.ListEnrollmentsByArea(ctx, area)
		if err != nil {
			return counts, err
		}
		evaluators, err := repo.ListEvaluators(ctx, area)
		if err != nil {
			return counts, err
		}
		scores, err := repo.ListAreaScores(ctx, area, models.PhaseClassification)
		if err != nil {
			return counts, err
		}

		active := make(map[string]models.Evaluator, len(evaluators))
		for _, ev := range evaluators {
			active[ev.ID] = ev
		}
		graders := make(map[string][]string)
		for _, sc := range scores {
			graders[sc.EnrollmentID] = append(graders[sc.EnrollmentID], sc.EvaluatorID)
		}

		for _, e := range enrollments {
			counts.total++
			switch e.Status {
			case models.EnrollmentNotClassified:
				counts.notClassified++
				continue
			case models.EnrollmentDisqualified:
				counts.disqualified++
				continue
			case models.EnrollmentPending:
				counts.excluded++
				continue
			}
			counts.classified++

			evaluatorID := ""
			for _, id := range graders[e.ID] {
				if ev, ok := active[id]; ok && ev.Covers(e.Level) {
					evaluatorID = id
					break
				}
			}
			if evaluatorID == "" {
				for _, ev := range evaluators {
					if ev.Covers(e.Level) {
						evaluatorID = ev.ID
						break
					}
				}
			}
			if evaluatorID == "" {
				uncovered = append(uncovered, e.ID)
				continue
			}

			exists, err := repo.HasAssignment(ctx, e.ID, evaluatorID, models.PhaseFinal)
			if err != nil {
				return counts, err
			}
			if exists {
				continue
			}
			run := runID
			err = repo.InsertAssignment(ctx, models.Assignment{
				ID:           uuid.NewString(),
				EnrollmentID: e.ID,
				EvaluatorID:  evaluatorID,
				AreaID:       area,
				Phase:        models.PhaseFinal,
				RunID:        &run,
				CreatedAt:    now,
			})
			if err != nil {
				return counts, err
			}
			counts.migrated++
		}
	}

	if len(uncovered) > 0 {
		return counts, apperr.Incomplete(len(uncovered),
			"%d classified enrollments have no active evaluator for the final phase", len(uncovered)).
			With("enrollment_ids", uncovered)
	}
	return counts, nil
}

// CheckAutomaticClosure closes the competition once its deadline has passed
// and every area is fully evaluated. Calling it again is a no-op.
func (s *Service) CheckAutomaticClosure(ctx context.Context) (AutoResult, error) {
	var res AutoResult
	var closedAreas []models.AreaClosure

	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		comp, err := repo.GetCompetitionClosure(ctx, models.PhaseClassification)
		if errors.Is(err, store.ErrNotFound) {
			res.Reason = "no deadline configured"
			return nil
		}
		if err != nil {
			return err
		}
		res.Closure = comp

		if comp.Status.Closed() {
			res.Reason = "competition already closed"
			return nil
		}
		deadline := comp.Deadline()
		if deadline == nil {
			res.Reason = "no deadline configured"
			return nil
		}
		now := s.now()
		if now.Before(*deadline) {
			res.Reason = fmt.Sprintf("deadline not reached, closes %s", humanize.RelTime(*deadline, now, "ago", "from now"))
			return nil
		}

		areas, err := repo.ListAreaIDs(ctx)
		if err != nil {
			return err
		}
		var toClose []string
		for _, area := range areas {
			rec, err := repo.GetAreaClosure(ctx, area, models.PhaseClassification)
			if err == nil && rec.Status == models.ClosureClosed {
				continue
			}
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			live, err := liveProgress(ctx, repo, area, models.PhaseClassification, now)
			if err != nil {
				return err
			}
			if live.Evaluated < live.Total {
				res.Reason = fmt.Sprintf("area %s is %.0f%% evaluated", area, live.Percentage)
				return nil
			}
			toClose = append(toClose, area)
		}

		for _, area := range toClose {
			closed, err := s.closeArea(ctx, repo, area, models.PhaseClassification, models.SystemActor.ID, false)
			if err != nil {
				return err
			}
			closedAreas = append(closedAreas, closed)
		}

		closed, err := s.closeCompetition(ctx, repo, comp, areas, models.CompetitionClosedAutomatically, models.SystemActor.ID)
		if err != nil {
			return err
		}
		res = AutoResult{Closed: true, Reason: "deadline passed", ClosedAreas: toClose, Closure: closed}
		return nil
	})

	if errors.Is(err, errLostRace) {
		comp, err := s.reloadCompetition(ctx)
		if err != nil {
			return AutoResult{}, err
		}
		metrics.RecordCompetitionClosure("automatic", "already_closed")
		return AutoResult{Reason: "competition already closed", Closure: comp}, nil
	}
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to run automatic closure", "error", err)
		}
		metrics.RecordCompetitionClosure("automatic", "rejected")
		return AutoResult{}, apperr.Wrap(err, "failed to run automatic closure")
	}

	if !res.Closed {
		metrics.RecordCompetitionClosure("automatic", "skipped")
		return res, nil
	}

	for _, c := range closedAreas {
		metrics.RecordAreaClosure(string(c.Phase), "closed")
		s.emitAreaClosed(ctx, c)
	}
	metrics.RecordCompetitionClosure("automatic", "closed")
	metrics.AddAssignments(string(models.PhaseFinal), "migration", res.Closure.MigratedCount)
	slog.Info("competition closed automatically", "run_id", derefString(res.Closure.RunID),
		"areas_closed", len(closedAreas), "migrated", res.Closure.MigratedCount)
	s.emitCompetitionClosed(ctx, res.Closure, "automatic")
	return res, nil
}

// ConfigureDeadline sets the base end date and optionally an extension.
// Admin only; rejected once the competition is closed.
func (s *Service) ConfigureDeadline(ctx context.Context, actor models.Actor, req models.DeadlineRequest) (models.CompetitionClosure, error) {
	if actor.Role != models.RoleAdmin {
		return models.CompetitionClosure{}, apperr.Forbidden("only an administrator can configure the deadline")
	}
	if req.EndDate == nil {
		return models.CompetitionClosure{}, apperr.Validation("end_date is required")
	}
	if req.ExtendedEndDate != nil && !req.ExtendedEndDate.After(*req.EndDate) {
		return models.CompetitionClosure{}, apperr.Validation("extended end date must be after the end date")
	}

	return s.updateDeadline(ctx, func(comp *models.CompetitionClosure) error {
		end := req.EndDate.UTC()
		comp.EndDate = &end
		comp.ExtendedEndDate = nil
		if req.ExtendedEndDate != nil {
			ext := req.ExtendedEndDate.UTC()
			comp.ExtendedEndDate = &ext
		}
		return nil
	})
}

// ExtendDeadline moves the effective deadline past the base end date.
func (s *Service) ExtendDeadline(ctx context.Context, actor models.Actor, end time.Time) (models.CompetitionClosure, error) {
	if actor.Role != models.RoleAdmin {
		return models.CompetitionClosure{}, apperr.Forbidden("only an administrator can extend the deadline")
	}

	return s.updateDeadline(ctx, func(comp *models.CompetitionClosure) error {
		if comp.EndDate == nil {
			return apperr.Validation("no end date configured to extend")
		}
		if !end.After(*comp.EndDate) {
			return apperr.Validation("extended end date must be after the end date %s", comp.EndDate.Format(time.RFC3339))
		}
		ext := end.UTC()
		comp.ExtendedEndDate = &ext
		return nil
	})
}

func (s *Service) updateDeadline(ctx context.Context, apply func(*models.CompetitionClosure) error) (models.CompetitionClosure, error) {
	var out models.CompetitionClosure
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		comp, err := s.loadCompetition(ctx, repo)
		if err != nil {
			return err
		}
		if comp.Status.Closed() {
			return apperr.Conflict("competition is already closed")
		}
		if err := apply(&comp); err != nil {
			return err
		}
		comp.UpdatedAt = s.now()
		if err := repo.SaveCompetitionClosure(ctx, comp); err != nil {
			return err
		}
		out = comp
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to update deadline", "error", err)
		}
		return models.CompetitionClosure{}, apperr.Wrap(err, "failed to update deadline")
	}

	slog.Info("competition deadline updated", "deadline", out.Deadline())
	return out, nil
}

// RevertCompetition reopens a closed competition within the reversal window.
// Final-phase assignments are deleted. Admin only.
func (s *Service) RevertCompetition(ctx context.Context, actor models.Actor) (CompetitionResult, error) {
	if actor.Role != models.RoleAdmin {
		return CompetitionResult{}, apperr.Forbidden("only an administrator can revert the competition closure")
	}

	var res CompetitionResult
	var removed int64
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		comp, err := repo.GetCompetitionClosure(ctx, models.PhaseClassification)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !comp.Status.Closed()) {
			return apperr.Conflict("competition is not closed")
		}
		if err != nil {
			return err
		}

		now := s.now()
		if comp.ClosedAt != nil {
			elapsed := now.Sub(*comp.ClosedAt)
			if elapsed > s.reversalWindow {
				hours := int(elapsed.Hours())
				return apperr.Conflict("competition was closed %s (%d hours), outside the %d hour reversal window",
					humanize.RelTime(*comp.ClosedAt, now, "ago", "from now"), hours, int(s.reversalWindow.Hours())).
					With("elapsed_hours", hours)
			}
		}

		finalScores, err := repo.CountPhaseScores(ctx, models.PhaseFinal)
		if err != nil {
			return err
		}
		if finalScores > 0 {
			return apperr.Conflict("%d final-phase scores are already recorded", finalScores).
				With("final_scores", finalScores)
		}

		// No final score exists, so every final-phase assignment is unscored.
		// This covers rows the balancer put in place of the migrated ones.
		areas, err := repo.ListAreaIDs(ctx)
		if err != nil {
			return err
		}
		for _, area := range areas {
			n, err := repo.DeleteUnscoredAssignments(ctx, area, models.PhaseFinal)
			if err != nil {
				return err
			}
			removed += n
		}

		reopened := models.CompetitionClosure{
			Phase:           comp.Phase,
			Status:          models.CompetitionActive,
			EndDate:         comp.EndDate,
			ExtendedEndDate: comp.ExtendedEndDate,
			UpdatedAt:       now,
		}
		if err := repo.SaveCompetitionClosure(ctx, reopened); err != nil {
			return err
		}
		res = CompetitionResult{Closure: reopened}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to revert competition", "error", err)
		}
		metrics.RecordReversal("rejected")
		return CompetitionResult{}, apperr.Wrap(err, "failed to revert competition")
	}

	metrics.RecordReversal("reverted")
	slog.Info("competition closure reverted", "by", actor.ID, "assignments_removed", removed)
	s.emitter.Emit(ctx, events.New(events.KindCompetitionReverted, "", models.PhaseClassification, map[string]any{
		"reverted_by":         actor.ID,
		"assignments_removed": removed,
	}))
	return res, nil
}

// Competition returns the classification competition record. Before any
// record is stored it reports an unsaved active one.
func (s *Service) Competition(ctx context.Context) (models.CompetitionClosure, error) {
	return s.reloadCompetition(ctx)
}

func (s *Service) reloadCompetition(ctx context.Context) (models.CompetitionClosure, error) {
	var comp models.CompetitionClosure
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		var err error
		comp, err = repo.GetCompetitionClosure(ctx, models.PhaseClassification)
		if errors.Is(err, store.ErrNotFound) {
			comp = newCompetition(s.now())
			return nil
		}
		return err
	})
	if err != nil {
		slog.Error("failed to load competition closure", "error", err)
		return comp, apperr.Wrap(err, "failed to load competition closure")
	}
	return comp, nil
}

func (s *Service) emitCompetitionClosed(ctx context.Context, c models.CompetitionClosure, trigger string) {
	s.emitter.Emit(ctx, events.New(events.KindCompetitionClosed, "", c.Phase, map[string]any{
		"trigger":        trigger,
		"run_id":         derefString(c.RunID),
		"total":          c.TotalEnrollments,
		"classified":     c.ClassifiedCount,
		"not_classified": c.NotClassifiedCount,
		"disqualified":   c.DisqualifiedCount,
		"excluded":       c.ExcludedCount,
		"migrated":       c.MigratedCount,
	}))
}

// Areas lists the progress of every area in a phase, sorted by area id.
func (s *Service) Areas(ctx context.Context, phase models.Phase) ([]models.AreaClosure, error) {
	if !phase.Valid() {
		return nil, apperr.Validation("unknown phase %q", phase)
	}

	var out []models.AreaClosure
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		areas, err := repo.ListAreaIDs(ctx)
		if err != nil {
			return err
		}
		stored, err := repo.ListAreaClosures(ctx, phase)
		if err != nil {
			return err
		}
		closed := make(map[string]models.AreaClosure)
		for _, c := range stored {
			if c.Status == models.ClosureClosed {
				c.Percentage = 100
				closed[c.AreaID] = c
			}
		}
		for _, area := range areas {
			if c, ok := closed[area]; ok {
				out = append(out, c)
				continue
			}
			live, err := liveProgress(ctx, repo, area, phase, s.now())
			if err != nil {
				return err
			}
			out = append(out, live)
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to list area progress", "phase", phase, "error", err)
		return nil, apperr.Wrap(err, "failed to list area progress")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AreaID < out[j].AreaID })
	return out, nil
}
