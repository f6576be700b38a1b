package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/olympiad/balancer"
	"github.com/danielhkuo/olympiad/closure"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/handlers"
	"github.com/danielhkuo/olympiad/medals"
	"github.com/danielhkuo/olympiad/middleware"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/review"
	"github.com/danielhkuo/olympiad/router"
	"github.com/danielhkuo/olympiad/store"
	"github.com/danielhkuo/olympiad/testutil"
)

type fixture struct {
	st  *store.SQLStore
	rec *events.Recorder

	assignments *handlers.AssignmentHandler
	scores      *handlers.ScoreHandler
	closures    *handlers.ClosureHandler
	medals      *handlers.MedalHandler
	settings    *handlers.SettingsHandler
}

func setup(t *testing.T) fixture {
	t.Helper()
	st := testutil.SetupTestStore(t)
	rec := &events.Recorder{}
	svc := router.NewServices(st, testutil.GetTestSettings(), rec)

	return fixture{
		st:          st,
		rec:         rec,
		assignments: handlers.NewAssignmentHandler(svc.Balancer),
		scores:      handlers.NewScoreHandler(svc.Review, svc.Engine),
		closures:    handlers.NewClosureHandler(svc.Closure),
		medals:      handlers.NewMedalHandler(svc.Medals),
		settings:    handlers.NewSettingsHandler(svc.Thresholds),
	}
}

// serve runs h behind identity verification, as the router does.
func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	middleware.WithActor(testutil.TestIdentitySalt, h)(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

func TestAssignHandler(t *testing.T) {
	f := setup(t)
	testutil.CreateEnrollments(t, f.st, "math", "grade-6", 10)
	ev := testutil.CreateEvaluator(t, f.st, "math", "")

	assign := func(actor models.Actor, body interface{}) *httptest.ResponseRecorder {
		req := testutil.SignedRequest("POST", "/areas/math/assignments", body, actor)
		req.SetPathValue("area", "math")
		return serve(f.assignments.Assign, req)
	}

	t.Run("preview", func(t *testing.T) {
		w := assign(testutil.Coordinator("math"), models.AssignRequest{Phase: models.PhaseClassification})
		testutil.AssertStatus(t, w, http.StatusOK)

		var res balancer.Result
		testutil.AssertJSON(t, w, &res)
		if res.Confirmed || res.Plan.Total() != 10 || res.Quota != 10 {
			t.Errorf("Unexpected preview: %+v", res)
		}
	})

	t.Run("confirm", func(t *testing.T) {
		w := assign(testutil.Admin(), models.AssignRequest{Phase: models.PhaseClassification, Confirm: true})
		testutil.AssertStatus(t, w, http.StatusCreated)

		var res balancer.Result
		testutil.AssertJSON(t, w, &res)
		if !res.Confirmed || res.Created != 10 {
			t.Errorf("Unexpected confirmation: %+v", res)
		}
	})

	tests := []struct {
		name   string
		actor  models.Actor
		body   interface{}
		status int
	}{
		{"evaluator", testutil.EvaluatorActor(ev), models.AssignRequest{Phase: models.PhaseClassification}, http.StatusForbidden},
		{"other coordinator", testutil.Coordinator("physics"), models.AssignRequest{Phase: models.PhaseClassification}, http.StatusForbidden},
		{"unknown phase", testutil.Admin(), models.AssignRequest{Phase: "semifinal"}, http.StatusBadRequest},
		{"negative quota", testutil.Admin(), models.AssignRequest{Phase: models.PhaseClassification, Quota: -1}, http.StatusBadRequest},
		{"final before closure", testutil.Admin(), models.AssignRequest{Phase: models.PhaseFinal}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertStatus(t, assign(tt.actor, tt.body), tt.status)
		})
	}

	t.Run("invalid JSON", func(t *testing.T) {
		req := testutil.SignedRequest("POST", "/areas/math/assignments", nil, testutil.Admin())
		req.SetPathValue("area", "math")
		testutil.AssertStatus(t, serve(f.assignments.Assign, req), http.StatusBadRequest)
	})

	t.Run("unsigned", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/areas/math/assignments", models.AssignRequest{Phase: models.PhaseClassification}, nil)
		testutil.AssertStatus(t, serve(f.assignments.Assign, req), http.StatusUnauthorized)
	})
}

func TestSubmitScoreHandler(t *testing.T) {
	f := setup(t)
	enr := testutil.CreateEnrollment(t, f.st, "math", "grade-6")
	other := testutil.CreateEnrollment(t, f.st, "math", "grade-6")
	ev := testutil.CreateEvaluator(t, f.st, "math", "")
	testutil.Assign(t, f.st, enr, ev, models.PhaseClassification)
	actor := testutil.EvaluatorActor(ev)

	submit := func(req models.SubmitScoreRequest) *httptest.ResponseRecorder {
		return serve(f.scores.SubmitScore, testutil.SignedRequest("POST", "/scores", req, actor))
	}
	score := func(v float64, justification string) models.SubmitScoreRequest {
		return models.SubmitScoreRequest{
			EnrollmentID:  enr.ID,
			Phase:         models.PhaseClassification,
			Score:         v,
			Justification: justification,
		}
	}

	w := submit(score(40, ""))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created review.SubmitResult
	testutil.AssertJSON(t, w, &created)
	if created.Outcome != review.OutcomeCreated || created.Status != models.EnrollmentNotClassified {
		t.Errorf("Unexpected first submission: %+v", created)
	}

	w = submit(score(60, ""))
	testutil.AssertStatus(t, w, http.StatusOK)
	var updated review.SubmitResult
	testutil.AssertJSON(t, w, &updated)
	if updated.Status != models.EnrollmentClassified || updated.Score.ModificationCount != 1 {
		t.Errorf("Unexpected free correction: %+v", updated)
	}

	testutil.AssertStatus(t, submit(score(70, "")), http.StatusBadRequest)

	w = submit(score(70, "recount of problem 3"))
	testutil.AssertStatus(t, w, http.StatusAccepted)
	var pending review.SubmitResult
	testutil.AssertJSON(t, w, &pending)
	if pending.Change == nil || pending.Change.Status != models.ChangePending || pending.Score.Score != 60 {
		t.Fatalf("Unexpected pending change: %+v", pending)
	}

	w = submit(score(75, "another recount"))
	testutil.AssertStatus(t, w, http.StatusConflict)
	if resp := errorBody(t, w); resp.Details["pending_change_id"] != pending.Change.ID {
		t.Errorf("Expected pending_change_id %s, got %v", pending.Change.ID, resp.Details)
	}

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name   string
			req    models.SubmitScoreRequest
			status int
		}{
			{"out of range", models.SubmitScoreRequest{EnrollmentID: enr.ID, Phase: models.PhaseClassification, Score: 101}, http.StatusBadRequest},
			{"missing enrollment id", models.SubmitScoreRequest{Phase: models.PhaseClassification, Score: 50}, http.StatusBadRequest},
			{"unknown enrollment", models.SubmitScoreRequest{EnrollmentID: "missing", Phase: models.PhaseClassification, Score: 50}, http.StatusNotFound},
			{"not assigned", models.SubmitScoreRequest{EnrollmentID: other.ID, Phase: models.PhaseClassification, Score: 50}, http.StatusForbidden},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				testutil.AssertStatus(t, submit(tt.req), tt.status)
			})
		}
	})

	t.Run("coordinators cannot score", func(t *testing.T) {
		req := testutil.SignedRequest("POST", "/scores", score(50, ""), testutil.Coordinator("math"))
		testutil.AssertStatus(t, serve(f.scores.SubmitScore, req), http.StatusForbidden)
	})
}

func TestScoreChangeHandlers(t *testing.T) {
	f := setup(t)
	enr := testutil.CreateEnrollment(t, f.st, "math", "grade-6")
	ev := testutil.CreateEvaluator(t, f.st, "math", "")
	testutil.Assign(t, f.st, enr, ev, models.PhaseClassification)
	actor := testutil.EvaluatorActor(ev)

	requestChange := func(v float64) string {
		t.Helper()
		w := serve(f.scores.SubmitScore, testutil.SignedRequest("POST", "/scores", models.SubmitScoreRequest{
			EnrollmentID:  enr.ID,
			Phase:         models.PhaseClassification,
			Score:         v,
			Justification: "recount",
		}, actor))
		testutil.AssertStatus(t, w, http.StatusAccepted)
		var res review.SubmitResult
		testutil.AssertJSON(t, w, &res)
		return res.Change.ID
	}
	decide := func(h http.HandlerFunc, id string, actor models.Actor, body interface{}) *httptest.ResponseRecorder {
		req := testutil.SignedRequest("POST", "/score-changes/"+id, body, actor)
		req.SetPathValue("id", id)
		return serve(h, req)
	}

	for _, v := range []float64{40, 45} {
		serve(f.scores.SubmitScore, testutil.SignedRequest("POST", "/scores", models.SubmitScoreRequest{
			EnrollmentID: enr.ID, Phase: models.PhaseClassification, Score: v,
		}, actor))
	}

	id := requestChange(70)
	coordinator := testutil.Coordinator("math")

	testutil.AssertStatus(t, decide(f.scores.Approve, id, testutil.Coordinator("physics"), nil), http.StatusForbidden)
	testutil.AssertStatus(t, decide(f.scores.Approve, id, testutil.Admin(), nil), http.StatusForbidden)
	testutil.AssertStatus(t, decide(f.scores.Approve, "missing", coordinator, nil), http.StatusNotFound)
	testutil.AssertStatus(t, decide(f.scores.RequestInfo, id, coordinator, nil), http.StatusBadRequest)

	w := decide(f.scores.RequestInfo, id, coordinator, models.ReviewRequest{Note: "attach the recount sheet"})
	testutil.AssertStatus(t, w, http.StatusOK)
	var info models.ScoreChange
	testutil.AssertJSON(t, w, &info)
	if info.Status != models.ChangeInfoRequested {
		t.Errorf("Expected info_requested, got %s", info.Status)
	}

	w = decide(f.scores.Approve, id, coordinator, models.ReviewRequest{Note: "sheet verified"})
	testutil.AssertStatus(t, w, http.StatusOK)
	var approved models.ScoreChange
	testutil.AssertJSON(t, w, &approved)
	if approved.Status != models.ChangeApproved || approved.ResolvedAt == nil {
		t.Errorf("Unexpected approval: %+v", approved)
	}
	if got := testutil.GetEnrollment(t, f.st, enr.ID); got.Status != models.EnrollmentClassified {
		t.Errorf("Expected classified after approving 70, got %s", got.Status)
	}

	testutil.AssertStatus(t, decide(f.scores.Reject, id, coordinator, nil), http.StatusConflict)

	second := requestChange(20)
	w = decide(f.scores.Reject, second, coordinator, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	if got := testutil.GetEnrollment(t, f.st, enr.ID); got.Status != models.EnrollmentClassified {
		t.Errorf("Rejected change altered the status: %s", got.Status)
	}
}

func TestDisqualifyHandler(t *testing.T) {
	f := setup(t)
	enr := testutil.CreateEnrollment(t, f.st, "math", "grade-6")

	disqualify := func(id string, actor models.Actor, reason string) *httptest.ResponseRecorder {
		req := testutil.SignedRequest("POST", "/enrollments/"+id+"/disqualify", models.DisqualifyRequest{Reason: reason}, actor)
		req.SetPathValue("id", id)
		return serve(f.scores.Disqualify, req)
	}

	testutil.AssertStatus(t, disqualify(enr.ID, testutil.Coordinator("math"), ""), http.StatusBadRequest)
	testutil.AssertStatus(t, disqualify(enr.ID, testutil.Coordinator("physics"), "copied answers"), http.StatusForbidden)
	testutil.AssertStatus(t, disqualify("missing", testutil.Admin(), "copied answers"), http.StatusNotFound)

	w := disqualify(enr.ID, testutil.Coordinator("math"), "copied answers")
	testutil.AssertStatus(t, w, http.StatusOK)
	var got models.Enrollment
	testutil.AssertJSON(t, w, &got)
	if got.Status != models.EnrollmentDisqualified {
		t.Errorf("Expected disqualified, got %s", got.Status)
	}

	testutil.AssertStatus(t, disqualify(enr.ID, testutil.Admin(), "again"), http.StatusConflict)
}

func TestAreaClosureHandlers(t *testing.T) {
	f := setup(t)
	enrollments := testutil.CreateEnrollments(t, f.st, "math", "grade-6", 4)
	ev := testutil.CreateEvaluator(t, f.st, "math", "")
	coordinator := testutil.Coordinator("math")

	areaRequest := func(method, action string, actor models.Actor) *http.Request {
		req := testutil.SignedRequest(method, "/areas/math/phases/classification/"+action, nil, actor)
		req.SetPathValue("area", "math")
		req.SetPathValue("phase", string(models.PhaseClassification))
		return req
	}

	for i, e := range enrollments[:3] {
		testutil.Assign(t, f.st, e, ev, models.PhaseClassification)
		testutil.AddScore(t, f.st, e, ev, models.PhaseClassification, float64(40+i*10))
	}

	w := serve(f.closures.GetProgress, areaRequest("GET", "progress", coordinator))
	testutil.AssertStatus(t, w, http.StatusOK)
	var progress models.AreaClosure
	testutil.AssertJSON(t, w, &progress)
	if progress.Percentage != 75 || progress.Status != models.ClosureActive {
		t.Errorf("Unexpected progress: %+v", progress)
	}

	w = serve(f.closures.CloseArea, areaRequest("POST", "close", coordinator))
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)
	if resp := errorBody(t, w); resp.Details["missing"] != 1.0 {
		t.Errorf("Expected 1 missing, got %v", resp.Details)
	}

	testutil.AssertStatus(t, serve(f.closures.CloseArea, areaRequest("POST", "close", testutil.Coordinator("physics"))), http.StatusForbidden)

	testutil.AddScore(t, f.st, enrollments[3], ev, models.PhaseClassification, 90)

	w = serve(f.closures.CloseArea, areaRequest("POST", "close", coordinator))
	testutil.AssertStatus(t, w, http.StatusOK)
	var closed closure.AreaResult
	testutil.AssertJSON(t, w, &closed)
	if closed.AlreadyClosed || closed.Closure.Status != models.ClosureClosed || closed.Closure.ClassifiedCount != 2 {
		t.Errorf("Unexpected closure: %+v", closed)
	}

	w = serve(f.closures.CloseArea, areaRequest("POST", "close", testutil.Admin()))
	testutil.AssertStatus(t, w, http.StatusOK)
	var again closure.AreaResult
	testutil.AssertJSON(t, w, &again)
	if !again.AlreadyClosed {
		t.Error("Expected already_closed on the second close")
	}
	closedEvents := 0
	for _, k := range f.rec.Kinds() {
		if k == events.KindAreaClosed {
			closedEvents++
		}
	}
	if closedEvents != 1 {
		t.Errorf("Expected one area.closed event, got %d", closedEvents)
	}

	list := testutil.SignedRequest("GET", "/phases/classification/areas", nil, testutil.Admin())
	list.SetPathValue("phase", string(models.PhaseClassification))
	w = serve(f.closures.ListAreas, list)
	testutil.AssertStatus(t, w, http.StatusOK)
	var areas []models.AreaClosure
	testutil.AssertJSON(t, w, &areas)
	if len(areas) != 1 || areas[0].Percentage != 100 {
		t.Errorf("Unexpected area list: %+v", areas)
	}
}

func TestCompetitionHandlers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	enrollments := testutil.CreateEnrollments(t, f.st, "math", "grade-6", 2)
	ev := testutil.CreateEvaluator(t, f.st, "math", "")
	for i, e := range enrollments {
		testutil.Assign(t, f.st, e, ev, models.PhaseClassification)
		testutil.AddScore(t, f.st, e, ev, models.PhaseClassification, float64(45+i*20))
	}

	post := func(h http.HandlerFunc, path string, actor models.Actor) *httptest.ResponseRecorder {
		return serve(h, testutil.SignedRequest("POST", path, nil, actor))
	}

	w := post(f.closures.CloseCompetition, "/competition/close", testutil.Admin())
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)
	if resp := errorBody(t, w); resp.Details["open_areas"] == nil {
		t.Errorf("Expected open_areas in details, got %v", resp.Details)
	}

	area := testutil.SignedRequest("POST", "/areas/math/phases/classification/close", nil, testutil.Admin())
	area.SetPathValue("area", "math")
	area.SetPathValue("phase", string(models.PhaseClassification))
	testutil.AssertStatus(t, serve(f.closures.CloseArea, area), http.StatusOK)

	testutil.AssertStatus(t, post(f.closures.CloseCompetition, "/competition/close", testutil.Coordinator("math")), http.StatusForbidden)

	w = post(f.closures.CloseCompetition, "/competition/close", testutil.Admin())
	testutil.AssertStatus(t, w, http.StatusOK)
	var closed closure.CompetitionResult
	testutil.AssertJSON(t, w, &closed)
	if closed.Closure.Status != models.CompetitionClosedByAdmin || closed.Closure.MigratedCount != 1 {
		t.Errorf("Unexpected competition closure: %+v", closed.Closure)
	}

	w = post(f.closures.AutoClose, "/competition/auto-close", testutil.Admin())
	testutil.AssertStatus(t, w, http.StatusOK)
	var auto closure.AutoResult
	testutil.AssertJSON(t, w, &auto)
	if auto.Closed || auto.Reason == "" {
		t.Errorf("Expected a skip reason, got %+v", auto)
	}

	end := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	deadline := testutil.SignedRequest("PUT", "/competition/deadline", models.DeadlineRequest{EndDate: &end}, testutil.Admin())
	testutil.AssertStatus(t, serve(f.closures.SetDeadline, deadline), http.StatusConflict)

	w = post(f.closures.RevertCompetition, "/competition/revert", testutil.Admin())
	testutil.AssertStatus(t, w, http.StatusOK)
	var reverted closure.CompetitionResult
	testutil.AssertJSON(t, w, &reverted)
	if reverted.Closure.Status != models.CompetitionActive {
		t.Errorf("Expected active after revert, got %s", reverted.Closure.Status)
	}
	testutil.Exec(t, f.st, func(repo store.Repository) error {
		got, err := repo.ListAssignments(ctx, "math", models.PhaseFinal)
		if err == nil && len(got) != 0 {
			t.Errorf("Revert left %d final assignments", len(got))
		}
		return err
	})

	testutil.AssertStatus(t, post(f.closures.RevertCompetition, "/competition/revert", testutil.Admin()), http.StatusConflict)

	deadline = testutil.SignedRequest("PUT", "/competition/deadline", models.DeadlineRequest{EndDate: &end}, testutil.Admin())
	w = serve(f.closures.SetDeadline, deadline)
	testutil.AssertStatus(t, w, http.StatusOK)

	earlier := end.Add(-time.Hour)
	extend := testutil.SignedRequest("PUT", "/competition/deadline", models.DeadlineRequest{ExtendedEndDate: &earlier}, testutil.Admin())
	testutil.AssertStatus(t, serve(f.closures.SetDeadline, extend), http.StatusBadRequest)

	later := end.Add(24 * time.Hour)
	extend = testutil.SignedRequest("PUT", "/competition/deadline", models.DeadlineRequest{ExtendedEndDate: &later}, testutil.Admin())
	w = serve(f.closures.SetDeadline, extend)
	testutil.AssertStatus(t, w, http.StatusOK)
	var comp models.CompetitionClosure
	testutil.AssertJSON(t, w, &comp)
	if comp.ExtendedEndDate == nil || !comp.Deadline().Equal(later) {
		t.Errorf("Expected extended deadline %v, got %+v", later, comp.Deadline())
	}

	w = serve(f.closures.GetCompetition, testutil.SignedRequest("GET", "/competition", nil, testutil.Coordinator("math")))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestMedalHandler(t *testing.T) {
	f := setup(t)
	enr := testutil.CreateEnrollment(t, f.st, "math", "grade-6")
	testutil.SetStatus(t, f.st, enr.ID, models.EnrollmentClassified)

	allocate := func(actor models.Actor) *httptest.ResponseRecorder {
		req := testutil.SignedRequest("POST", "/areas/math/medals", nil, actor)
		req.SetPathValue("area", "math")
		return serve(f.medals.Allocate, req)
	}

	testutil.AssertStatus(t, allocate(testutil.Coordinator("physics")), http.StatusForbidden)
	testutil.AssertStatus(t, allocate(testutil.Admin()), http.StatusConflict)

	closedBy := "admin-1"
	testutil.Exec(t, f.st, func(repo store.Repository) error {
		return repo.SaveCompetitionClosure(context.Background(), models.CompetitionClosure{
			Phase:     models.PhaseClassification,
			Status:    models.CompetitionClosedByAdmin,
			ClosedAt:  &testutil.BaseTime,
			ClosedBy:  &closedBy,
			UpdatedAt: testutil.BaseTime,
		})
	})
	testutil.AssertStatus(t, allocate(testutil.Admin()), http.StatusUnprocessableEntity)

	ev := testutil.CreateEvaluator(t, f.st, "math", "")
	testutil.AddScore(t, f.st, enr, ev, models.PhaseFinal, 93)

	w := allocate(testutil.Coordinator("math"))
	testutil.AssertStatus(t, w, http.StatusOK)
	var res medals.Result
	testutil.AssertJSON(t, w, &res)
	if len(res.Awards) != 1 || res.Awards[0].Tier == nil || *res.Awards[0].Tier != models.TierGold {
		t.Errorf("Unexpected allocation: %+v", res)
	}
	if res.InputsHash == "" {
		t.Error("Expected an inputs hash")
	}
}

func TestSettingsHandlers(t *testing.T) {
	f := setup(t)

	put := func(h http.HandlerFunc, path string, body interface{}, actor models.Actor) *httptest.ResponseRecorder {
		return serve(h, testutil.SignedRequest("PUT", path, body, actor))
	}

	tests := []struct {
		name   string
		h      http.HandlerFunc
		path   string
		body   interface{}
		actor  models.Actor
		status int
	}{
		{"passing score", f.settings.SetPassingScore, "/settings/passing-score", models.PassingScoreRequest{Value: 60}, testutil.Admin(), http.StatusOK},
		{"passing score by coordinator", f.settings.SetPassingScore, "/settings/passing-score", models.PassingScoreRequest{Value: 60}, testutil.Coordinator("math"), http.StatusForbidden},
		{"passing score out of range", f.settings.SetPassingScore, "/settings/passing-score", models.PassingScoreRequest{Value: 120}, testutil.Admin(), http.StatusBadRequest},
		{"medal tier", f.settings.SetMedalTier, "/settings/medals", models.MedalTierConfig{AreaID: "math", Tier: models.TierGold, MaxCount: 2, MinScore: 85, MaxScore: 100}, testutil.Admin(), http.StatusOK},
		{"unknown tier", f.settings.SetMedalTier, "/settings/medals", models.MedalTierConfig{AreaID: "math", Tier: "platinum", MaxCount: 1, MinScore: 95, MaxScore: 100}, testutil.Admin(), http.StatusBadRequest},
		{"inverted band", f.settings.SetMedalTier, "/settings/medals", models.MedalTierConfig{AreaID: "math", Tier: models.TierSilver, MaxCount: 1, MinScore: 90, MaxScore: 80}, testutil.Admin(), http.StatusBadRequest},
		{"medal tier by evaluator", f.settings.SetMedalTier, "/settings/medals", models.MedalTierConfig{AreaID: "math", Tier: models.TierGold}, models.Actor{ID: "u-1", Role: models.RoleEvaluator, EvaluatorID: "ev-1"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertStatus(t, put(tt.h, tt.path, tt.body, tt.actor), tt.status)
		})
	}
}
