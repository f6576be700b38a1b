// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Phase identifies an evaluation round.
type Phase string

const (
	PhaseClassification Phase = "classification"
	PhaseFinal          Phase = "final"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p == PhaseClassification || p == PhaseFinal
}

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentPending       EnrollmentStatus = "pending"
	EnrollmentClassified    EnrollmentStatus = "classified"
	EnrollmentNotClassified EnrollmentStatus = "not_classified"
	EnrollmentDisqualified  EnrollmentStatus = "disqualified"
	EnrollmentMedalist      EnrollmentStatus = "medalist"
)

// Qualified reports whether the enrollment passed the classification phase.
func (s EnrollmentStatus) Qualified() bool {
	return s == EnrollmentClassified || s == EnrollmentMedalist
}

// ClosureStatus is the state of an area phase-closure record.
type ClosureStatus string

const (
	ClosurePending ClosureStatus = "pending"
	ClosureActive  ClosureStatus = "active"
	ClosureClosed  ClosureStatus = "closed"
)

// CompetitionStatus is the state of the competition-wide closure record.
type CompetitionStatus string

const (
	CompetitionActive              CompetitionStatus = "active"
	CompetitionClosedByAdmin       CompetitionStatus = "closed_by_admin"
	CompetitionClosedAutomatically CompetitionStatus = "closed_automatically"
)

// Closed reports whether the competition phase has been closed by any trigger.
func (s CompetitionStatus) Closed() bool {
	return s == CompetitionClosedByAdmin || s == CompetitionClosedAutomatically
}

// OutcomeKind tags an append-only justification record.
type OutcomeKind string

const (
	OutcomeNotClassified OutcomeKind = "not_classified"
	OutcomeDisqualified  OutcomeKind = "disqualified"
)

// MedalTier is a medal band. Order of declaration is the allocation order.
type MedalTier string

const (
	TierGold             MedalTier = "gold"
	TierSilver           MedalTier = "silver"
	TierBronze           MedalTier = "bronze"
	TierHonorableMention MedalTier = "honorable_mention"
)

// MedalTiers lists tiers in allocation order.
var MedalTiers = []MedalTier{TierGold, TierSilver, TierBronze, TierHonorableMention}

// Valid reports whether t is a known tier.
func (t MedalTier) Valid() bool {
	for _, known := range MedalTiers {
		if t == known {
			return true
		}
	}
	return false
}

// ChangeStatus is the approval state of a score change request.
type ChangeStatus string

const (
	ChangePending       ChangeStatus = "pending"
	ChangeApproved      ChangeStatus = "approved"
	ChangeRejected      ChangeStatus = "rejected"
	ChangeInfoRequested ChangeStatus = "info_requested"
)

// Resolved reports whether the change no longer blocks edits.
func (s ChangeStatus) Resolved() bool {
	return s == ChangeApproved || s == ChangeRejected
}

// Role is the acting user's role as supplied by the identity collaborator.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinador"
	RoleEvaluator   Role = "evaluador"
	RoleSystem      Role = "system"
)

// MaxScore is the upper bound of a score record.
const MaxScore = 100.0

// Domain types

type Actor struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	AreaID      string `json:"area_id,omitempty"`      // coordinators only
	EvaluatorID string `json:"evaluator_id,omitempty"` // evaluators only
}

// SystemActor is used for closures triggered by deadline expiry.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// CoordinatesArea reports whether the actor is the coordinator bound to areaID.
func (a Actor) CoordinatesArea(areaID string) bool {
	return a.Role == RoleCoordinator && a.AreaID != "" && a.AreaID == areaID
}

// CanManageArea reports whether the actor may run area-scoped workflow steps.
func (a Actor) CanManageArea(areaID string) bool {
	return a.Role == RoleAdmin || a.CoordinatesArea(areaID)
}

type Enrollment struct {
	ID              string           `json:"id"`
	ParticipantID   string           `json:"participant_id"`
	ParticipantName string           `json:"participant_name"`
	AreaID          string           `json:"area_id"`
	Level           string           `json:"level"`
	Status          EnrollmentStatus `json:"status"`
	Medal           *MedalTier       `json:"medal,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

type Evaluator struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AreaID    string    `json:"area_id"`
	Level     string    `json:"level,omitempty"` // empty: any level of the area
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Covers reports whether the evaluator may grade the given level.
func (e Evaluator) Covers(level string) bool {
	return e.Level == "" || e.Level == level
}

type ScoreRecord struct {
	ID                string    `json:"id"`
	EnrollmentID      string    `json:"enrollment_id"`
	EvaluatorID       string    `json:"evaluator_id"`
	Phase             Phase     `json:"phase"`
	Score             float64   `json:"score"`
	Remark            string    `json:"remark"`
	Finalized         bool      `json:"finalized"`
	ModificationCount int       `json:"modification_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Assignment struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	EvaluatorID  string    `json:"evaluator_id"`
	AreaID       string    `json:"area_id"`
	Phase        Phase     `json:"phase"`
	RunID        *string   `json:"run_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type AreaClosure struct {
	AreaID             string        `json:"area_id"`
	Phase              Phase         `json:"phase"`
	Status             ClosureStatus `json:"status"`
	Percentage         float64       `json:"percentage"`
	Total              int           `json:"total"`
	Evaluated          int           `json:"evaluated"`
	ClassifiedCount    int           `json:"classified_count"`
	NotClassifiedCount int           `json:"not_classified_count"`
	DisqualifiedCount  int           `json:"disqualified_count"`
	ClosedAt           *time.Time    `json:"closed_at,omitempty"`
	ClosedBy           *string       `json:"closed_by,omitempty"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type CompetitionClosure struct {
	Phase              Phase             `json:"phase"`
	Status             CompetitionStatus `json:"status"`
	RunID              *string           `json:"run_id,omitempty"`
	TotalEnrollments   int               `json:"total_enrollments"`
	ClassifiedCount    int               `json:"classified_count"`
	NotClassifiedCount int               `json:"not_classified_count"`
	DisqualifiedCount  int               `json:"disqualified_count"`
	ExcludedCount      int               `json:"excluded_count"`
	MigratedCount      int               `json:"migrated_count"`
	EndDate            *time.Time        `json:"end_date,omitempty"`
	ExtendedEndDate    *time.Time        `json:"extended_end_date,omitempty"`
	ClosedAt           *time.Time        `json:"closed_at,omitempty"`
	ClosedBy           *string           `json:"closed_by,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Deadline returns the effective end date: the extension when set.
func (c CompetitionClosure) Deadline() *time.Time {
	if c.ExtendedEndDate != nil {
		return c.ExtendedEndDate
	}
	return c.EndDate
}

type OutcomeRecord struct {
	ID            string      `json:"id"`
	EnrollmentID  string      `json:"enrollment_id"`
	Phase         Phase       `json:"phase"`
	Kind          OutcomeKind `json:"kind"`
	Score         *float64    `json:"score,omitempty"`
	Threshold     *float64    `json:"threshold,omitempty"`
	Justification string      `json:"justification"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
}

type MedalTierConfig struct {
	AreaID   string    `json:"area_id"`
	Level    string    `json:"level"` // empty: area-wide
	Tier     MedalTier `json:"tier"`
	MaxCount int       `json:"max_count"`
	MinScore float64   `json:"min_score"`
	MaxScore float64   `json:"max_score"`
}

// InBand reports whether score lies within [MinScore, MaxScore].
func (c MedalTierConfig) InBand(score float64) bool {
	return score >= c.MinScore && score <= c.MaxScore
}

type ScoreChange struct {
	ID            string       `json:"id"`
	ScoreID       string       `json:"score_id"`
	EnrollmentID  string       `json:"enrollment_id"`
	AreaID        string       `json:"area_id"`
	Phase         Phase        `json:"phase"`
	OldScore      float64      `json:"old_score"`
	NewScore      float64      `json:"new_score"`
	NewRemark     string       `json:"new_remark"`
	Justification string       `json:"justification"`
	Status        ChangeStatus `json:"status"`
	RequestedBy   string       `json:"requested_by"`
	ReviewedBy    *string      `json:"reviewed_by,omitempty"`
	ReviewNote    *string      `json:"review_note,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ResolvedAt    *time.Time   `json:"resolved_at,omitempty"`
}

// Request types

type AssignRequest struct {
	Phase   Phase `json:"phase"`
	Quota   int   `json:"quota"`
	Confirm bool  `json:"confirm"`
}

type SubmitScoreRequest struct {
	EnrollmentID  string  `json:"enrollment_id"`
	Phase         Phase   `json:"phase"`
	Score         float64 `json:"score"`
	Remark        string  `json:"remark"`
	Justification string  `json:"justification"`
}

type ReviewRequest struct {
	Note string `json:"note"`
}

type DisqualifyRequest struct {
	Reason string `json:"reason"`
}

type DeadlineRequest struct {
	EndDate         *time.Time `json:"end_date,omitempty"`
	ExtendedEndDate *time.Time `json:"extended_end_date,omitempty"`
}

type PassingScoreRequest struct {
	Value float64 `json:"value"`
}

// Error response

type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
