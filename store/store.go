// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/olympiad/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repository is the persistence port used by the workflow components.
// Every method runs on whatever connection or transaction it is bound to.
type Repository interface {
	// Enrollments
	CreateEnrollment(ctx context.Context, e models.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (models.Enrollment, error)
	ListEnrollmentsByArea(ctx context.Context, areaID string) ([]models.Enrollment, error)
	ListAreaIDs(ctx context.Context) ([]string, error)
	UpdateEnrollmentStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	SetEnrollmentMedal(ctx context.Context, id string, status models.EnrollmentStatus, medal *models.MedalTier) error

	// Evaluators
	CreateEvaluator(ctx context.Context, ev models.Evaluator) error
	ListEvaluators(ctx context.Context, areaID string) ([]models.Evaluator, error)

	// Scores
	InsertScore(ctx context.Context, s models.ScoreRecord) error
	UpdateScore(ctx context.Context, id string, score float64, remark string, modifications int, at time.Time) error
	GetScore(ctx context.Context, enrollmentID, evaluatorID string, phase models.Phase) (models.ScoreRecord, error)
	GetScoreByID(ctx context.Context, id string) (models.ScoreRecord, error)
	ListScores(ctx context.Context, enrollmentID string, phase models.Phase) ([]models.ScoreRecord, error)
	ListAreaScores(ctx context.Context, areaID string, phase models.Phase) ([]models.ScoreRecord, error)
	CountPhaseScores(ctx context.Context, phase models.Phase) (int, error)
	FinalizeScores(ctx context.Context, areaID string, phase models.Phase) (int64, error)

	// Assignments
	InsertAssignment(ctx context.Context, a models.Assignment) error
	ListAssignments(ctx context.Context, areaID string, phase models.Phase) ([]models.Assignment, error)
	HasAssignment(ctx context.Context, enrollmentID, evaluatorID string, phase models.Phase) (bool, error)
	DeleteUnscoredAssignments(ctx context.Context, areaID string, phase models.Phase) (int64, error)
	CountAssignments(ctx context.Context, phase models.Phase) (int, error)

	// Area closures
	GetAreaClosure(ctx context.Context, areaID string, phase models.Phase) (models.AreaClosure, error)
	ListAreaClosures(ctx context.Context, phase models.Phase) ([]models.AreaClosure, error)
	SaveAreaProgress(ctx context.Context, c models.AreaClosure) (bool, error)
	CloseAreaPhase(ctx context.Context, c models.AreaClosure) (bool, error)

	// Competition closure
	GetCompetitionClosure(ctx context.Context, phase models.Phase) (models.CompetitionClosure, error)
	CreateCompetitionClosure(ctx context.Context, c models.CompetitionClosure) (bool, error)
	SaveCompetitionClosure(ctx context.Context, c models.CompetitionClosure) error
	MarkCompetitionClosed(ctx context.Context, c models.CompetitionClosure) (bool, error)

	// Outcomes
	UpsertNotClassified(ctx context.Context, rec models.OutcomeRecord) error
	DeleteNotClassified(ctx context.Context, enrollmentID string, phase models.Phase) (int64, error)
	InsertOutcome(ctx context.Context, rec models.OutcomeRecord) error
	ListOutcomes(ctx context.Context, enrollmentID string) ([]models.OutcomeRecord, error)

	// Medal configuration
	ListMedalConfig(ctx context.Context, areaID string) ([]models.MedalTierConfig, error)
	UpsertMedalTier(ctx context.Context, cfg models.MedalTierConfig) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string, at time.Time) error

	// Score changes
	InsertScoreChange(ctx context.Context, c models.ScoreChange) error
	GetScoreChange(ctx context.Context, id string) (models.ScoreChange, error)
	FindOpenScoreChange(ctx context.Context, scoreID string) (models.ScoreChange, error)
	ResolveScoreChange(ctx context.Context, id string, status models.ChangeStatus, reviewer, note string, at *time.Time) error
}

// Store runs units of work against the relational store.
type Store interface {
	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// DB exposes the underlying pool (schema setup, fixtures).
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlRepo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sqlRepo implements Repository on a connection or a transaction.
type sqlRepo struct {
	q querier
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to query %s: %w", what, err)
}
