// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/olympiad/apperr"
	"github.com/danielhkuo/olympiad/classify"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/metrics"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
	"github.com/danielhkuo/olympiad/thresholds"
)

// Submission outcomes.
const (
	OutcomeCreated         = "created"
	OutcomeUpdated         = "updated"
	OutcomePendingApproval = "pending_approval"
)

// ProgressRefresher stores live area progress inside a transaction.
type ProgressRefresher interface {
	RefreshProgress(ctx context.Context, repo store.Repository, areaID string, phase models.Phase) (models.AreaClosure, error)
}

// SubmitResult is the outcome of SubmitScore.
type SubmitResult struct {
	Outcome string                  `json:"outcome"`
	Score   models.ScoreRecord      `json:"score"`
	Change  *models.ScoreChange     `json:"change,omitempty"`
	Status  models.EnrollmentStatus `json:"enrollment_status"`
}

// Service handles score submission and the change-approval workflow.
type Service struct {
	store      store.Store
	thresholds *thresholds.Provider
	engine     *classify.Engine
	progress   ProgressRefresher
	emitter    events.Emitter
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEmitter sets the post-commit event emitter.
func WithEmitter(em events.Emitter) Option {
	return func(s *Service) {
		if em != nil {
			s.emitter = em
		}
	}
}

func NewService(st store.Store, th *thresholds.Provider, engine *classify.Engine, progress ProgressRefresher, opts ...Option) *Service {
	s := &Service{
		store:      st,
		thresholds: th,
		engine:     engine,
		progress:   progress,
		emitter:    events.Nop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitScore records an evaluator's score. The first write and the first
// edit apply directly; later edits become pending change requests.
func (s *Service) SubmitScore(ctx context.Context, actor models.Actor, req models.SubmitScoreRequest) (SubmitResult, error) {
	if actor.Role != models.RoleEvaluator || actor.EvaluatorID == "" {
		return SubmitResult{}, apperr.Forbidden("only evaluators can submit scores")
	}
	if req.EnrollmentID == "" {
		return SubmitResult{}, apperr.Validation("enrollment_id is required")
	}
	if !req.Phase.Valid() {
		return SubmitResult{}, apperr.Validation("unknown phase %q", req.Phase)
	}
	if req.Score < 0 || req.Score > models.MaxScore {
		return SubmitResult{}, apperr.Validation("score must be between 0 and %.0f", models.MaxScore)
	}

	var res SubmitResult
	var areaID string
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		enr, err := repo.GetEnrollment(ctx, req.EnrollmentID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("enrollment %s not found", req.EnrollmentID)
		}
		if err != nil {
			return err
		}
		areaID = enr.AreaID
		res.Status = enr.Status

		assigned, err := repo.HasAssignment(ctx, enr.ID, actor.EvaluatorID, req.Phase)
		if err != nil {
			return err
		}
		if !assigned {
			return apperr.Forbidden("enrollment %s is not assigned to you in the %s phase", enr.ID, req.Phase)
		}
		if enr.Status == models.EnrollmentDisqualified {
			return apperr.Conflict("enrollment %s is disqualified", enr.ID)
		}
		if err := checkOpen(ctx, repo, enr.AreaID, req.Phase); err != nil {
			return err
		}

		now := s.now()
		existing, err := repo.GetScore(ctx, enr.ID, actor.EvaluatorID, req.Phase)
		switch {
		case errors.Is(err, store.ErrNotFound):
			res.Score = models.ScoreRecord{
				ID:           uuid.NewString(),
				EnrollmentID: enr.ID,
				EvaluatorID:  actor.EvaluatorID,
				Phase:        req.Phase,
				Score:        req.Score,
				Remark:       req.Remark,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := repo.InsertScore(ctx, res.Score); err != nil {
				return err
			}
			res.Outcome = OutcomeCreated

		case err != nil:
			return err

		case existing.ModificationCount == 0:
			if err := repo.UpdateScore(ctx, existing.ID, req.Score, req.Remark, 1, now); err != nil {
				return err
			}
			existing.Score = req.Score
			existing.Remark = req.Remark
			existing.ModificationCount = 1
			existing.UpdatedAt = now
			res.Score = existing
			res.Outcome = OutcomeUpdated

		default:
			open, err := repo.FindOpenScoreChange(ctx, existing.ID)
			if err == nil {
				return apperr.Conflict("score already has an unresolved change request").
					With("pending_change_id", open.ID)
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			justification := strings.TrimSpace(req.Justification)
			if justification == "" {
				return apperr.Validation("a justification is required to change a score that was already edited")
			}
			change := models.ScoreChange{
				ID:            uuid.NewString(),
				ScoreID:       existing.ID,
				EnrollmentID:  enr.ID,
				AreaID:        enr.AreaID,
				Phase:         req.Phase,
				OldScore:      existing.Score,
				NewScore:      req.Score,
				NewRemark:     req.Remark,
				Justification: justification,
				Status:        models.ChangePending,
				RequestedBy:   actor.ID,
				CreatedAt:     now,
			}
			if err := repo.InsertScoreChange(ctx, change); err != nil {
				return err
			}
			res.Score = existing
			res.Change = &change
			res.Outcome = OutcomePendingApproval
			return nil
		}

		res.Status, err = s.applied(ctx, repo, enr.ID, enr.AreaID, req.Phase)
		return err
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to submit score", "enrollment_id", req.EnrollmentID, "error", err)
		}
		return SubmitResult{}, apperr.Wrap(err, "failed to submit score")
	}

	if res.Change != nil {
		metrics.RecordScoreChange(string(models.ChangePending))
		slog.Info("score change requested", "change_id", res.Change.ID, "score_id", res.Score.ID, "by", actor.ID)
		s.emitter.Emit(ctx, events.New(events.KindScoreChangePending, areaID, req.Phase, map[string]any{
			"change_id":     res.Change.ID,
			"enrollment_id": res.Change.EnrollmentID,
			"old_score":     res.Change.OldScore,
			"new_score":     res.Change.NewScore,
			"requested_by":  actor.ID,
		}))
	}
	return res, nil
}

// Approve applies a pending change. Coordinator of the area only.
func (s *Service) Approve(ctx context.Context, actor models.Actor, changeID, note string) (models.ScoreChange, error) {
	return s.resolve(ctx, actor, changeID, note, models.ChangeApproved)
}

// Reject resolves a pending change without touching the score.
func (s *Service) Reject(ctx context.Context, actor models.Actor, changeID, note string) (models.ScoreChange, error) {
	return s.resolve(ctx, actor, changeID, note, models.ChangeRejected)
}

// RequestInfo asks the evaluator for more detail. The change stays open and
// keeps blocking further edits.
func (s *Service) RequestInfo(ctx context.Context, actor models.Actor, changeID, note string) (models.ScoreChange, error) {
	if strings.TrimSpace(note) == "" {
		return models.ScoreChange{}, apperr.Validation("a note describing the missing information is required")
	}
	return s.resolve(ctx, actor, changeID, note, models.ChangeInfoRequested)
}

func (s *Service) resolve(ctx context.Context, actor models.Actor, changeID, note string, decision models.ChangeStatus) (models.ScoreChange, error) {
	if actor.Role != models.RoleCoordinator {
		return models.ScoreChange{}, apperr.Forbidden("only the area coordinator can review score changes")
	}

	var change models.ScoreChange
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		var err error
		change, err = repo.GetScoreChange(ctx, changeID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("score change %s not found", changeID)
		}
		if err != nil {
			return err
		}
		if !actor.CoordinatesArea(change.AreaID) {
			return apperr.Forbidden("only the coordinator of area %s can review this change", change.AreaID)
		}
		if change.Status.Resolved() {
			return apperr.Conflict("score change %s is already %s", changeID, change.Status)
		}

		now := s.now()
		var at *time.Time
		if decision.Resolved() {
			at = &now
		}

		if decision == models.ChangeApproved {
			if err := checkOpen(ctx, repo, change.AreaID, change.Phase); err != nil {
				return err
			}
			score, err := repo.GetScoreByID(ctx, change.ScoreID)
			if err != nil {
				return err
			}
			if err := repo.UpdateScore(ctx, score.ID, change.NewScore, change.NewRemark, score.ModificationCount, now); err != nil {
				return err
			}
			if _, err := s.applied(ctx, repo, change.EnrollmentID, change.AreaID, change.Phase); err != nil {
				return err
			}
		}

		if err := repo.ResolveScoreChange(ctx, change.ID, decision, actor.ID, note, at); err != nil {
			return err
		}
		change.Status = decision
		change.ReviewedBy = &actor.ID
		change.ReviewNote = &note
		change.ResolvedAt = at
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to review score change", "change_id", changeID, "decision", decision, "error", err)
		}
		return models.ScoreChange{}, apperr.Wrap(err, "failed to review score change")
	}

	metrics.RecordScoreChange(string(decision))
	slog.Info("score change reviewed", "change_id", changeID, "decision", decision, "by", actor.ID)
	if decision.Resolved() {
		s.emitter.Emit(ctx, events.New(events.KindScoreChangeResolved, change.AreaID, change.Phase, map[string]any{
			"change_id":     change.ID,
			"enrollment_id": change.EnrollmentID,
			"status":        decision,
			"reviewed_by":   actor.ID,
		}))
	}
	return change, nil
}

// applied reruns classification and refreshes progress after a score write.
func (s *Service) applied(ctx context.Context, repo store.Repository, enrollmentID, areaID string, phase models.Phase) (models.EnrollmentStatus, error) {
	var status models.EnrollmentStatus
	if phase == models.PhaseClassification {
		threshold, err := s.thresholds.PassingScore(ctx, repo)
		if err != nil {
			return "", err
		}
		out, err := s.engine.Recompute(ctx, repo, enrollmentID, threshold)
		if err != nil {
			return "", err
		}
		status = out.Status
	} else {
		enr, err := repo.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return "", err
		}
		status = enr.Status
	}

	if _, err := s.progress.RefreshProgress(ctx, repo, areaID, phase); err != nil {
		return "", err
	}
	return status, nil
}

func checkOpen(ctx context.Context, repo store.Repository, areaID string, phase models.Phase) error {
	closure, err := repo.GetAreaClosure(ctx, areaID, phase)
	if err == nil && closure.Status == models.ClosureClosed {
		return apperr.Conflict("%s phase of area %s is closed", phase, areaID)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
