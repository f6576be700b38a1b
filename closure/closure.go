// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package closure

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/olympiad/apperr"
	"github.com/danielhkuo/olympiad/classify"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/metrics"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
	"github.com/danielhkuo/olympiad/thresholds"
)

const defaultReversalWindow = 24 * time.Hour

// errLostRace aborts a transaction whose conditional close found the record
// already closed by someone else.
var errLostRace = errors.New("closure already performed by another transaction")

// Service runs area and competition closures.
type Service struct {
	store          store.Store
	engine         *classify.Engine
	thresholds     *thresholds.Provider
	emitter        events.Emitter
	now            func() time.Time
	reversalWindow time.Duration
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

// WithReversalWindow bounds how long a competition closure may be reverted.
func WithReversalWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reversalWindow = d
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

func NewService(st store.Store, engine *classify.Engine, th *thresholds.Provider, opts ...Option) *Service {
	s := &Service{
		store:          st,
		engine:         engine,
		thresholds:     th,
		emitter:        events.Nop{},
		now:            time.Now,
		reversalWindow: defaultReversalWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AreaResult is the outcome of CloseArea.
type AreaResult struct {
	Closure       models.AreaClosure `json:"closure"`
	AlreadyClosed bool               `json:"already_closed"`
}

// Progress reports an area phase. A closed record is returned as stored
// with 100%; otherwise every figure is computed from live data.
func (s *Service) Progress(ctx context.Context, areaID string, phase models.Phase) (models.AreaClosure, error) {
	if !phase.Valid() {
		return models.AreaClosure{}, apperr.Validation("unknown phase %q", phase)
	}

	var out models.AreaClosure
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		rec, err := repo.GetAreaClosure(ctx, areaID, phase)
		if err == nil && rec.Status == models.ClosureClosed {
			rec.Percentage = 100
			out = rec
			return nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		out, err = liveProgress(ctx, repo, areaID, phase, s.now())
		return err
	})
	if err != nil {
		slog.Error("failed to compute progress", "area_id", areaID, "phase", phase, "error", err)
		return models.AreaClosure{}, apperr.Wrap(err, "failed to compute progress")
	}
	return out, nil
}

// RefreshProgress stores live progress for an open area phase inside the
// caller's transaction. Closed records are left untouched.
func (s *Service) RefreshProgress(ctx context.Context, repo store.Repository, areaID string, phase models.Phase) (models.AreaClosure, error) {
	live, err := liveProgress(ctx, repo, areaID, phase, s.now())
	if err != nil {
		return models.AreaClosure{}, err
	}
	if _, err := repo.SaveAreaProgress(ctx, live); err != nil {
		return models.AreaClosure{}, err
	}
	return live, nil
}

// liveProgress counts an area phase from enrollments and scores. The
// classification population excludes disqualified enrollments; the final
// population is the classified ones.
func liveProgress(ctx context.Context, repo store.Repository, areaID string, phase models.Phase, now time.Time) (models.AreaClosure, error) {
	enrollments, err := repo.ListEnrollmentsByArea(ctx, areaID)
	if err != nil {
		return models.AreaClosure{}, err
	}
	scores, err := repo.ListAreaScores(ctx, areaID, phase)
	if err != nil {
		return models.AreaClosure{}, err
	}
	scored := make(map[string]bool, len(scores))
	for _, sc := range scores {
		scored[sc.EnrollmentID] = true
	}

	c := models.AreaClosure{AreaID: areaID, Phase: phase, Status: models.ClosurePending, UpdatedAt: now}
	for _, e := range enrollments {
		switch e.Status {
		case models.EnrollmentDisqualified:
			c.DisqualifiedCount++
		case models.EnrollmentClassified, models.EnrollmentMedalist:
			c.ClassifiedCount++
		case models.EnrollmentNotClassified:
			c.NotClassifiedCount++
		}

		if phase == models.PhaseFinal && !e.Status.Qualified() {
			continue
		}
		if e.Status == models.EnrollmentDisqualified {
			continue
		}
		c.Total++
		if scored[e.ID] {
			c.Evaluated++
		}
	}

	if c.Total > 0 {
		c.Percentage = float64(c.Evaluated) / float64(c.Total) * 100
	}
	if c.Evaluated > 0 {
		c.Status = models.ClosureActive
	}
	return c, nil
}

// CloseArea closes one area phase. Admin or the area coordinator only.
// Closing an already closed phase is not an error.
func (s *Service) CloseArea(ctx context.Context, actor models.Actor, areaID string, phase models.Phase) (AreaResult, error) {
	if !phase.Valid() {
		return AreaResult{}, apperr.Validation("unknown phase %q", phase)
	}
	if !actor.CanManageArea(areaID) {
		return AreaResult{}, apperr.Forbidden("only an administrator or the coordinator of area %s can close it", areaID)
	}

	var res AreaResult
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		rec, err := repo.GetAreaClosure(ctx, areaID, phase)
		if err == nil && rec.Status == models.ClosureClosed {
			res = AreaResult{Closure: rec, AlreadyClosed: true}
			return nil
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

		closed, err := s.closeArea(ctx, repo, areaID, phase, actor.ID, true)
		if err != nil {
			return err
		}
		res = AreaResult{Closure: closed}
		return nil
	})

	if errors.Is(err, errLostRace) {
		return s.alreadyClosedArea(ctx, areaID, phase)
	}
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			slog.Error("failed to close area", "area_id", areaID, "phase", phase, "error", err)
		}
		metrics.RecordAreaClosure(string(phase), "rejected")
		return AreaResult{}, apperr.Wrap(err, "failed to close area")
	}

	if res.AlreadyClosed {
		metrics.RecordAreaClosure(string(phase), "already_closed")
		return res, nil
	}

	metrics.RecordAreaClosure(string(phase), "closed")
	slog.Info("area closed", "area_id", areaID, "phase", phase, "by", actor.ID,
		"classified", res.Closure.ClassifiedCount, "not_classified", res.Closure.NotClassifiedCount)
	s.emitAreaClosed(ctx, res.Closure)
	return res, nil
}

// closeArea verifies completeness, reruns classification and writes the
// closed record. requireEnrollments rejects areas without any enrollment.
func (s *Service) closeArea(ctx context.Context, repo store.Repository, areaID string, phase models.Phase, by string, requireEnrollments bool) (models.AreaClosure, error) {
	live, err := liveProgress(ctx, repo, areaID, phase, s.now())
	if err != nil {
		return models.AreaClosure{}, err
	}
	if live.Total == 0 && requireEnrollments {
		// An area whose enrollments are all disqualified still closes.
		enrollments, err := repo.ListEnrollmentsByArea(ctx, areaID)
		if err != nil {
			return models.AreaClosure{}, err
		}
		if len(enrollments) == 0 {
			return models.AreaClosure{}, apperr.Validation("area %s has no enrollments to evaluate in the %s phase", areaID, phase)
		}
	}
	if missing := live.Total - live.Evaluated; missing > 0 {
		return models.AreaClosure{}, apperr.Incomplete(missing,
			"area %s has %d of %d enrollments without a score", areaID, missing, live.Total).
			With("percentage", live.Percentage)
	}

	if phase == models.PhaseClassification {
		threshold, err := s.thresholds.PassingScore(ctx, repo)
		if err != nil {
			return models.AreaClosure{}, err
		}
		if _, err := s.engine.RecomputeArea(ctx, repo, areaID, threshold); err != nil {
			return models.AreaClosure{}, err
		}
		// Statuses may have moved.
		live, err = liveProgress(ctx, repo, areaID, phase, s.now())
		if err != nil {
			return models.AreaClosure{}, err
		}
	}

	now := s.now()
	live.Status = models.ClosureClosed
	live.Percentage = 100
	live.ClosedAt = &now
	live.ClosedBy = &by
	live.UpdatedAt = now

	ok, err := repo.CloseAreaPhase(ctx, live)
	if err != nil {
		return models.AreaClosure{}, err
	}
	if !ok {
		return models.AreaClosure{}, errLostRace
	}
	if _, err := repo.FinalizeScores(ctx, areaID, phase); err != nil {
		return models.AreaClosure{}, err
	}
	return live, nil
}

func (s *Service) alreadyClosedArea(ctx context.Context, areaID string, phase models.Phase) (AreaResult, error) {
	var rec models.AreaClosure
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		var err error
		rec, err = repo.GetAreaClosure(ctx, areaID, phase)
		return err
	})
	if err != nil {
		return AreaResult{}, apperr.Wrap(err, "failed to load area closure")
	}
	metrics.RecordAreaClosure(string(phase), "already_closed")
	return AreaResult{Closure: rec, AlreadyClosed: true}, nil
}

func (s *Service) emitAreaClosed(ctx context.Context, c models.AreaClosure) {
	s.emitter.Emit(ctx, events.New(events.KindAreaClosed, c.AreaID, c.Phase, map[string]any{
		"total":          c.Total,
		"classified":     c.ClassifiedCount,
		"not_classified": c.NotClassifiedCount,
		"disqualified":   c.DisqualifiedCount,
		"closed_by":      derefString(c.ClosedBy),
	}))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
