package balancer_test

import (
	"context"
	"testing"

	"github.com/danielhkuo/olympiad/apperr"
	"github.com/danielhkuo/olympiad/balancer"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
	"github.com/danielhkuo/olympiad/testutil"
)

func listAssignments(t *testing.T, st store.Store, area string, phase models.Phase) []models.Assignment {
	t.Helper()
	var out []models.Assignment
	testutil.Exec(t, st, func(repo store.Repository) error {
		var err error
		out, err = repo.ListAssignments(context.Background(), area, phase)
		return err
	})
	return out
}

func TestAssignPreviewDoesNotWrite(t *testing.T) {
	st := testutil.SetupTestStore(t)
	svc := balancer.NewService(st, nil, 10)
	testutil.CreateEnrollments(t, st, "math", "grade-6", 25)
	for i := 0; i < 3; i++ {
		testutil.CreateEvaluator(t, st, "math", "")
	}

	req := balancer.Request{AreaID: "math", Phase: models.PhaseClassification, Quota: 10}
	first, err := svc.Assign(context.Background(), testutil.Admin(), req)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	second, err := svc.Assign(context.Background(), testutil.Admin(), req)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if first.Confirmed || first.Created != 0 {
		t.Errorf("preview should not confirm: %+v", first)
	}
	if first.Plan.Total() != 25 || second.Plan.Total() != 25 {
		t.Errorf("expected 25 planned, got %d and %d", first.Plan.Total(), second.Plan.Total())
	}
	if got := listAssignments(t, st, "math", models.PhaseClassification); len(got) != 0 {
		t.Errorf("preview wrote %d assignments", len(got))
	}
}

func TestAssignConfirmReplacesUnscored(t *testing.T) {
	st := testutil.SetupTestStore(t)
	rec := &events.Recorder{}
	svc := balancer.NewService(st, rec, 10)
	ctx := context.Background()

	enrollments := testutil.CreateEnrollments(t, st, "math", "grade-6", 6)
	ev1 := testutil.CreateEvaluator(t, st, "math", "")
	ev2 := testutil.CreateEvaluator(t, st, "math", "")
	testutil.CreateEvaluator(t, st, "math", "")

	req := balancer.Request{AreaID: "math", Phase: models.PhaseClassification, Quota: 3, Confirm: true}
	res, err := svc.Assign(ctx, testutil.Coordinator("math"), req)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !res.Confirmed || res.Created != 6 {
		t.Fatalf("expected 6 created, got %+v", res)
	}

	// ev1 scores its first enrollment; the assignment is consumed.
	testutil.AddScore(t, st, enrollments[0], ev1, models.PhaseClassification, 70)

	res, err = svc.Assign(ctx, testutil.Coordinator("math"), req)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Replaced != 5 || res.Created != 5 {
		t.Errorf("expected 5 replaced and 5 created, got %+v", res)
	}
	for _, a := range res.Plan.Allocations {
		if a.EvaluatorID == ev1.ID {
			t.Errorf("evaluator with a scored assignment must not be reused")
		}
	}
	if res.Plan.Allocations[0].EvaluatorID != ev2.ID {
		t.Errorf("expected first allocation for ev2, got %s", res.Plan.Allocations[0].EvaluatorID)
	}

	assignments := listAssignments(t, st, "math", models.PhaseClassification)
	if len(assignments) != 6 {
		t.Errorf("expected 1 kept plus 5 new assignments, got %d", len(assignments))
	}

	if kinds := rec.Kinds(); len(kinds) != 2 || kinds[0] != events.KindAssignmentsConfirmed {
		t.Errorf("unexpected events: %v", kinds)
	}
}

func TestAssignInsufficient(t *testing.T) {
	st := testutil.SetupTestStore(t)
	svc := balancer.NewService(st, nil, 10)
	testutil.CreateEnrollments(t, st, "math", "grade-6", 4)

	res, err := svc.Assign(context.Background(), testutil.Admin(), balancer.Request{
		AreaID: "math", Phase: models.PhaseClassification, Confirm: true,
	})
	if err != nil {
		t.Fatalf("expected structured result, got %v", err)
	}
	if res.Plan.Insufficient == nil || res.Plan.Insufficient.Enrollments != 4 || res.Plan.Insufficient.Evaluators != 0 {
		t.Errorf("unexpected insufficient result: %+v", res.Plan.Insufficient)
	}
	if res.Confirmed || res.Quota != 10 {
		t.Errorf("expected unconfirmed run with default quota, got %+v", res)
	}
}

func TestAssignRejects(t *testing.T) {
	st := testutil.SetupTestStore(t)
	svc := balancer.NewService(st, nil, 10)
	ctx := context.Background()

	testutil.CreateEnrollment(t, st, "math", "grade-6")
	testutil.CreateEvaluator(t, st, "math", "")
	testutil.Exec(t, st, func(repo store.Repository) error {
		_, err := repo.CloseAreaPhase(ctx, models.AreaClosure{
			AreaID: "physics", Phase: models.PhaseClassification, UpdatedAt: testutil.BaseTime,
		})
		return err
	})

	tests := []struct {
		name  string
		actor models.Actor
		req   balancer.Request
		kind  apperr.Kind
	}{
		{"other coordinator", testutil.Coordinator("physics"), balancer.Request{AreaID: "math", Phase: models.PhaseClassification}, apperr.KindAuthorization},
		{"evaluator", models.Actor{ID: "x", Role: models.RoleEvaluator}, balancer.Request{AreaID: "math", Phase: models.PhaseClassification}, apperr.KindAuthorization},
		{"negative quota", testutil.Admin(), balancer.Request{AreaID: "math", Phase: models.PhaseClassification, Quota: -1}, apperr.KindValidation},
		{"bad phase", testutil.Admin(), balancer.Request{AreaID: "math", Phase: "semifinal"}, apperr.KindValidation},
		{"closed phase", testutil.Admin(), balancer.Request{AreaID: "physics", Phase: models.PhaseClassification}, apperr.KindConflict},
		{"final before closure", testutil.Admin(), balancer.Request{AreaID: "math", Phase: models.PhaseFinal}, apperr.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Assign(ctx, tt.actor, tt.req)
			if !apperr.Is(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}
