// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/olympiad/auth"
	"github.com/danielhkuo/olympiad/cliparse"
	"github.com/danielhkuo/olympiad/db"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
)

// TestIdentitySalt signs actor headers in handler tests.
const TestIdentitySalt = "test-identity-salt"

// BaseTime anchors fixture timestamps so registration order is deterministic.
var BaseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

var seq atomic.Int64

func nextTime() time.Time {
	return BaseTime.Add(time.Duration(seq.Add(1)) * time.Second)
}

// SetupTestStore creates a fresh SQLite database with the full schema in a
// temp dir. It is closed when the test ends.
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "olympiad.db")
	conn, err := db.Open(context.Background(), db.TypeSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return store.NewSQLStore(conn)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file:test.db",
		DatabaseType: db.TypeSQLite,
		IdentitySalt: TestIdentitySalt,
	}
}

// GetTestSettings returns the built-in engine settings.
func GetTestSettings() cliparse.Settings {
	return cliparse.DefaultSettings()
}

// Exec runs fn in a transaction and fails the test on error.
func Exec(t *testing.T, st store.Store, fn func(repo store.Repository) error) {
	t.Helper()
	if err := st.WithTx(context.Background(), fn); err != nil {
		t.Fatalf("Failed to run fixture transaction: %v", err)
	}
}

// CreateEnrollment registers a pending enrollment for a participant.
func CreateEnrollment(t *testing.T, st store.Store, areaID, level string) models.Enrollment {
	t.Helper()

	id := uuid.NewString()
	e := models.Enrollment{
		ID:              id,
		ParticipantID:   "p-" + id[:8],
		ParticipantName: "Participant " + id[:4],
		AreaID:          areaID,
		Level:           level,
		Status:          models.EnrollmentPending,
		CreatedAt:       nextTime(),
	}
	Exec(t, st, func(repo store.Repository) error {
		return repo.CreateEnrollment(context.Background(), e)
	})
	return e
}

// CreateEnrollments registers n enrollments in order.
func CreateEnrollments(t *testing.T, st store.Store, areaID, level string, n int) []models.Enrollment {
	t.Helper()
	out := make([]models.Enrollment, n)
	for i := range out {
		out[i] = CreateEnrollment(t, st, areaID, level)
	}
	return out
}

// CreateEvaluator registers an active evaluator. An empty level covers the
// whole area.
func CreateEvaluator(t *testing.T, st store.Store, areaID, level string) models.Evaluator {
	t.Helper()

	ev := models.Evaluator{
		ID:        uuid.NewString(),
		UserID:    "u-" + uuid.NewString()[:8],
		AreaID:    areaID,
		Level:     level,
		Active:    true,
		CreatedAt: nextTime(),
	}
	Exec(t, st, func(repo store.Repository) error {
		return repo.CreateEvaluator(context.Background(), ev)
	})
	return ev
}

// Assign creates an assignment for (enrollment, evaluator, phase).
func Assign(t *testing.T, st store.Store, e models.Enrollment, ev models.Evaluator, phase models.Phase) models.Assignment {
	t.Helper()

	a := models.Assignment{
		ID:           uuid.NewString(),
		EnrollmentID: e.ID,
		EvaluatorID:  ev.ID,
		AreaID:       e.AreaID,
		Phase:        phase,
		CreatedAt:    nextTime(),
	}
	Exec(t, st, func(repo store.Repository) error {
		return repo.InsertAssignment(context.Background(), a)
	})
	return a
}

// AddScore writes a score record directly, bypassing the review workflow.
func AddScore(t *testing.T, st store.Store, e models.Enrollment, ev models.Evaluator, phase models.Phase, score float64) models.ScoreRecord {
	t.Helper()

	now := nextTime()
	s := models.ScoreRecord{
		ID:           uuid.NewString(),
		EnrollmentID: e.ID,
		EvaluatorID:  ev.ID,
		Phase:        phase,
		Score:        score,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	Exec(t, st, func(repo store.Repository) error {
		return repo.InsertScore(context.Background(), s)
	})
	return s
}

// SetStatus forces an enrollment status.
func SetStatus(t *testing.T, st store.Store, id string, status models.EnrollmentStatus) {
	t.Helper()
	Exec(t, st, func(repo store.Repository) error {
		return repo.UpdateEnrollmentStatus(context.Background(), id, status)
	})
}

// GetEnrollment reloads an enrollment.
func GetEnrollment(t *testing.T, st store.Store, id string) models.Enrollment {
	t.Helper()
	var e models.Enrollment
	Exec(t, st, func(repo store.Repository) error {
		var err error
		e, err = repo.GetEnrollment(context.Background(), id)
		return err
	})
	return e
}

// Admin returns an administrator actor.
func Admin() models.Actor {
	return models.Actor{ID: "admin-1", Role: models.RoleAdmin}
}

// Coordinator returns the coordinator of areaID.
func Coordinator(areaID string) models.Actor {
	return models.Actor{ID: "coord-" + areaID, Role: models.RoleCoordinator, AreaID: areaID}
}

// EvaluatorActor returns the actor bound to an evaluator registration.
func EvaluatorActor(ev models.Evaluator) models.Actor {
	return models.Actor{ID: ev.UserID, Role: models.RoleEvaluator, EvaluatorID: ev.ID}
}

// FixedClock returns a clock stuck at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// SignedRequest creates a request carrying actor headers signed with
// TestIdentitySalt.
func SignedRequest(method, path string, body interface{}, actor models.Actor) *http.Request {
	req := MakeRequest(method, path, body, nil)
	auth.SetHeaders(req.Header, actor, TestIdentitySalt)
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
