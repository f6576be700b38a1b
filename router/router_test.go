// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/olympiad/balancer"
	"github.com/danielhkuo/olympiad/closure"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/medals"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
	"github.com/danielhkuo/olympiad/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *store.SQLStore, *events.Recorder) {
	t.Helper()
	st := testutil.SetupTestStore(t)
	rec := &events.Recorder{}
	svc := NewServices(st, testutil.GetTestSettings(), rec)
	return NewRouter(svc, testutil.GetTestConfig()), st, rec
}

func TestHealthEndpoint(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "olympiad workflow API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	// Unknown paths are not swallowed by the root route
	req = httptest.NewRequest("GET", "/unknown", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	// Workflow routes exist and reject requests without an identity
	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/areas/math/assignments"},
		{"POST", "/scores"},
		{"POST", "/enrollments/e-1/disqualify"},
		{"POST", "/score-changes/c-1/approve"},
		{"POST", "/score-changes/c-1/reject"},
		{"POST", "/score-changes/c-1/request-info"},
		{"GET", "/areas/math/phases/classification/progress"},
		{"POST", "/areas/math/phases/classification/close"},
		{"GET", "/phases/classification/areas"},
		{"GET", "/competition"},
		{"POST", "/competition/close"},
		{"POST", "/competition/auto-close"},
		{"POST", "/competition/revert"},
		{"PUT", "/competition/deadline"},
		{"POST", "/areas/math/medals"},
		{"PUT", "/settings/passing-score"},
		{"PUT", "/settings/medals"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Route %s %s returned %d, expected 401", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},                 // Only GET is defined
		{"GET", "/scores"},                  // Only POST is defined
		{"POST", "/settings/passing-score"}, // Only PUT is defined
		{"DELETE", "/competition/close"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux, st, _ := newTestRouter(t)
	testutil.CreateEnrollment(t, st, "math", "grade-6")

	// A rejected closure is still counted
	req := testutil.SignedRequest("POST", "/areas/math/phases/classification/close", nil, testutil.Admin())
	mux.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "olympiad_workflow_area_closures_total") {
		t.Error("Expected area closure counter in metrics output")
	}
}

func TestWrap(t *testing.T) {
	t.Run("recovers panics", func(t *testing.T) {
		h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})

	t.Run("answers preflight", func(t *testing.T) {
		mux, _, _ := newTestRouter(t)
		h := Wrap(mux)

		req := httptest.NewRequest("OPTIONS", "/scores", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-User-Signature") {
			t.Error("Expected identity headers to be allowed")
		}
	})
}

// TestClassificationToMedalsWorkflow drives one area through the whole
// workflow over HTTP.
func TestClassificationToMedalsWorkflow(t *testing.T) {
	mux, st, rec := newTestRouter(t)
	h := Wrap(mux)

	enrollments := testutil.CreateEnrollments(t, st, "math", "grade-6", 10)
	ev := testutil.CreateEvaluator(t, st, "math", "")
	evaluator := testutil.EvaluatorActor(ev)
	coordinator := testutil.Coordinator("math")
	admin := testutil.Admin()

	do := func(method, path string, body interface{}, actor models.Actor, expected int) *httptest.ResponseRecorder {
		t.Helper()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, testutil.SignedRequest(method, path, body, actor))
		testutil.AssertStatus(t, w, expected)
		return w
	}

	// Step 1: Assign every enrollment to the evaluator
	w := do("POST", "/areas/math/assignments", models.AssignRequest{Phase: models.PhaseClassification, Confirm: true}, coordinator, http.StatusCreated)
	var assigned balancer.Result
	json.NewDecoder(w.Body).Decode(&assigned)
	if assigned.Created != 10 {
		t.Fatalf("Step 1 - Expected 10 assignments, got %d", assigned.Created)
	}

	// Step 2: Score them, six passing and four failing
	for i, e := range enrollments {
		score := 40.0
		if i < 6 {
			score = 60 + float64(i*6)
		}
		do("POST", "/scores", models.SubmitScoreRequest{
			EnrollmentID: e.ID,
			Phase:        models.PhaseClassification,
			Score:        score,
		}, evaluator, http.StatusCreated)
	}

	// Step 3: Progress is complete
	w = do("GET", "/areas/math/phases/classification/progress", nil, coordinator, http.StatusOK)
	var progress models.AreaClosure
	json.NewDecoder(w.Body).Decode(&progress)
	if progress.Percentage != 100 || progress.Evaluated != 10 {
		t.Fatalf("Step 3 - Unexpected progress: %+v", progress)
	}

	// Step 4: Close the area, then the competition
	w = do("POST", "/areas/math/phases/classification/close", nil, coordinator, http.StatusOK)
	var areaClosed closure.AreaResult
	json.NewDecoder(w.Body).Decode(&areaClosed)
	if areaClosed.Closure.ClassifiedCount != 6 || areaClosed.Closure.NotClassifiedCount != 4 {
		t.Fatalf("Step 4 - Unexpected area closure: %+v", areaClosed.Closure)
	}

	w = do("POST", "/competition/close", nil, admin, http.StatusOK)
	var compClosed closure.CompetitionResult
	json.NewDecoder(w.Body).Decode(&compClosed)
	if compClosed.Closure.MigratedCount != 6 {
		t.Fatalf("Step 4 - Expected 6 migrated, got %d", compClosed.Closure.MigratedCount)
	}

	// Step 5: Score the final phase
	for i, e := range enrollments[:6] {
		do("POST", "/scores", models.SubmitScoreRequest{
			EnrollmentID: e.ID,
			Phase:        models.PhaseFinal,
			Score:        float64(95 - i*5),
		}, evaluator, http.StatusCreated)
	}

	// Step 6: Reverting is refused once final scores exist
	do("POST", "/competition/revert", nil, admin, http.StatusConflict)

	// Step 7: Allocate medals
	w = do("POST", "/areas/math/medals", nil, coordinator, http.StatusOK)
	var result medals.Result
	json.NewDecoder(w.Body).Decode(&result)

	// Final means 95, 90, 85, 80, 75, 70 against gold 1, silver 2, bronze 3
	want := map[string]int{"gold": 1, "silver": 2, "bronze": 3}
	for tier, n := range want {
		if result.Counts[tier] != n {
			t.Errorf("Step 7 - Expected %d %s, got %d (counts %v)", n, tier, result.Counts[tier], result.Counts)
		}
	}
	if got := testutil.GetEnrollment(t, st, enrollments[0].ID); got.Status != models.EnrollmentMedalist {
		t.Errorf("Step 7 - Expected top enrollment to be a medalist, got %s", got.Status)
	}

	kinds := rec.Kinds()
	for _, k := range []events.Kind{events.KindAssignmentsConfirmed, events.KindAreaClosed, events.KindCompetitionClosed, events.KindMedalsAllocated} {
		found := false
		for _, got := range kinds {
			if got == k {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected a %s event, got %v", k, kinds)
		}
	}
}
