// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/olympiad/models"
)

// Kind names a workflow event.
type Kind string

const (
	KindAreaClosed             Kind = "area.closed"
	KindCompetitionClosed      Kind = "competition.closed"
	KindCompetitionReverted    Kind = "competition.reverted"
	KindAssignmentsConfirmed   Kind = "assignments.confirmed"
	KindScoreChangePending     Kind = "score_change.pending"
	KindScoreChangeResolved    Kind = "score_change.resolved"
	KindMedalsAllocated        Kind = "medals.allocated"
	KindEnrollmentDisqualified Kind = "enrollment.disqualified"
)

// Event is a post-commit notification for report and notification
// collaborators.
type Event struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	AreaID     string         `json:"area_id,omitempty"`
	Phase      models.Phase   `json:"phase,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New stamps an event with an id and the current time.
func New(kind Kind, areaID string, phase models.Phase, payload map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		AreaID:     areaID,
		Phase:      phase,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Emitter accepts events once the producing transaction has committed.
// Emit never blocks on delivery and never fails the caller.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

// Recorder keeps emitted events in memory. Used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything emitted so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds emitted so far, in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}
