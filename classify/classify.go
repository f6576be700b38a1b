// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/olympiad/apperr"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
)

// Outcome is the classification of one enrollment from its scores.
type Outcome struct {
	Mean      float64                 `json:"mean"`
	Evaluated int                     `json:"evaluated"`
	Status    models.EnrollmentStatus `json:"status"`
}

// Classify averages scores and compares the mean against threshold.
// No scores leaves the enrollment pending.
func Classify(scores []float64, threshold float64) Outcome {
	if len(scores) == 0 {
		return Outcome{Status: models.EnrollmentPending}
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	status := models.EnrollmentNotClassified
	if mean >= threshold {
		status = models.EnrollmentClassified
	}
	return Outcome{Mean: mean, Evaluated: len(scores), Status: status}
}

// Counts summarizes an area after a bulk recompute.
type Counts struct {
	Total         int `json:"total"`
	Evaluated     int `json:"evaluated"`
	Pending       int `json:"pending"`
	Classified    int `json:"classified"`
	NotClassified int `json:"not_classified"`
	Disqualified  int `json:"disqualified"`
}

// Engine applies classification outcomes to stored enrollments.
type Engine struct {
	store   store.Store
	emitter events.Emitter
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithEmitter sets the post-commit event emitter.
func WithEmitter(em events.Emitter) Option {
	return func(e *Engine) {
		if em != nil {
			e.emitter = em
		}
	}
}

func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		emitter: events.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recompute reclassifies one enrollment from its classification scores and
// keeps its not-classified record in step. Disqualified enrollments are
// left alone. A medalist keeps its medal while its mean stays above the
// threshold.
func (e *Engine) Recompute(ctx context.Context, repo store.Repository, enrollmentID string, threshold float64) (Outcome, error) {
	enr, err := repo.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return Outcome{}, err
	}
	if enr.Status == models.EnrollmentDisqualified {
		return Outcome{Status: enr.Status}, nil
	}

	records, err := repo.ListScores(ctx, enrollmentID, models.PhaseClassification)
	if err != nil {
		return Outcome{}, err
	}
	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = r.Score
	}
	out := Classify(scores, threshold)

	next := out.Status
	if enr.Status == models.EnrollmentMedalist && next == models.EnrollmentClassified {
		next = models.EnrollmentMedalist
	}
	out.Status = next

	switch next {
	case models.EnrollmentNotClassified:
		mean, t := out.Mean, threshold
		err = repo.UpsertNotClassified(ctx, models.OutcomeRecord{
			ID:            uuid.NewString(),
			EnrollmentID:  enrollmentID,
			Phase:         models.PhaseClassification,
			Kind:          models.OutcomeNotClassified,
			Score:         &mean,
			Threshold:     &t,
			Justification: fmt.Sprintf("average score %.2f is below the passing score %.2f", mean, threshold),
			CreatedBy:     models.SystemActor.ID,
			CreatedAt:     e.now(),
		})
	default:
		_, err = repo.DeleteNotClassified(ctx, enrollmentID, models.PhaseClassification)
	}
	if err != nil {
		return Outcome{}, err
	}

	if next != enr.Status {
		if enr.Medal != nil {
			// Falling below T forfeits the medal.
			err = repo.SetEnrollmentMedal(ctx, enrollmentID, next, nil)
		} else {
			err = repo.UpdateEnrollmentStatus(ctx, enrollmentID, next)
		}
		if err != nil {
			return Outcome{}, err
		}
	}
	return out, nil
}

// RecomputeArea reruns Recompute over every enrollment of an area.
func (e *Engine) RecomputeArea(ctx context.Context, repo store.Repository, areaID string, threshold float64) (Counts, error) {
	enrollments, err := repo.ListEnrollmentsByArea(ctx, areaID)
	if err != nil {
		return Counts{}, err
	}

	var c Counts
	for _, enr := range enrollments {
		c.Total++
		out, err := e.Recompute(ctx, repo, enr.ID, threshold)
		if err != nil {
			return Counts{}, err
		}
		switch out.Status {
		case models.EnrollmentDisqualified:
			c.Disqualified++
			continue
		case models.EnrollmentPending:
			c.Pending++
		case models.EnrollmentClassified, models.EnrollmentMedalist:
			c.Classified++
		case models.EnrollmentNotClassified:
			c.NotClassified++
		}
		if out.Evaluated > 0 {
			c.Evaluated++
		}
	}
	return c, nil
}

// Disqualify excludes an enrollment for a rule violation and appends the
// justification. Admin or the area coordinator only.
func (e *Engine) Disqualify(ctx context.Context, actor models.Actor, enrollmentID, reason string) (models.Enrollment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Enrollment{}, apperr.Validation("a disqualification reason is required")
	}

	var enr models.Enrollment
	err := e.store.WithTx(ctx, func(repo store.Repository) error {
		var err error
		enr, err = repo.GetEnrollment(ctx, enrollmentID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("enrollment %s not found", enrollmentID)
		}
		if err != nil {
			return err
		}
		if !actor.CanManageArea(enr.AreaID) {
			return apperr.Forbidden("only an administrator or the coordinator of area %s can disqualify", enr.AreaID)
		}
		if enr.Status == models.EnrollmentDisqualified {
			return apperr.Conflict("enrollment %s is already disqualified", enrollmentID)
		}

		closure, err := repo.GetAreaClosure(ctx, enr.AreaID, models.PhaseClassification)
		if err == nil && closure.Status == models.ClosureClosed {
			return apperr.Conflict("classification phase of area %s is closed", enr.AreaID)
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := repo.UpdateEnrollmentStatus(ctx, enrollmentID, models.EnrollmentDisqualified); err != nil {
			return err
		}
		if _, err := repo.DeleteNotClassified(ctx, enrollmentID, models.PhaseClassification); err != nil {
			return err
		}
		enr.Status = models.EnrollmentDisqualified
		return repo.InsertOutcome(ctx, models.OutcomeRecord{
			ID:            uuid.NewString(),
			EnrollmentID:  enrollmentID,
			Phase:         models.PhaseClassification,
			Kind:          models.OutcomeDisqualified,
			Justification: reason,
			CreatedBy:     actor.ID,
			CreatedAt:     e.now(),
		})
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to disqualify enrollment", "enrollment_id", enrollmentID, "error", err)
		}
		return models.Enrollment{}, apperr.Wrap(err, "failed to disqualify enrollment")
	}

	slog.Info("enrollment disqualified", "enrollment_id", enrollmentID, "area_id", enr.AreaID, "by", actor.ID)
	e.emitter.Emit(ctx, events.New(events.KindEnrollmentDisqualified, enr.AreaID, models.PhaseClassification,
		map[string]any{"enrollment_id": enrollmentID, "reason": reason}))
	return enr, nil
}
