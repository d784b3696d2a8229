package trigger_test

import (
	"context"
	"testing"
	"time"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/storage/memstore"
	"github.com/flowengine/engine/internal/trigger"
)

func newEnrollerFixture(t *testing.T, enabled bool) (*trigger.Enroller, *memstore.DB, *domain.Workflow) {
	t.Helper()
	db := memstore.New()
	wf := &domain.Workflow{
		ID: "wf-1", Name: "wf", Enabled: enabled,
		Nodes: []*domain.Node{{ID: "trigger", Type: domain.NodeTypeTriggerStart}},
	}
	db.PutWorkflow(wf)
	db.PutContact(&domain.Contact{ID: "c-1", Status: domain.StatusNew})
	return &trigger.Enroller{
		Workflows: db.Workflows(), Enrollments: db.Enrollments(), Executions: db.Executions(), MaxAttempts: 3,
	}, db, wf
}

func TestEnroller_EnrollContact_CreatesEnrollmentAndSeedExecution(t *testing.T) {
	enroller, db, _ := newEnrollerFixture(t, true)

	id, err := enroller.EnrollContact(context.Background(), "wf-1", "c-1", false)
	if err != nil {
		t.Fatalf("EnrollContact: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a non-empty enrollment id")
	}

	enrollment, err := db.Enrollments().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if enrollment.Status != domain.EnrollmentActive {
		t.Fatalf("status = %s, want active", enrollment.Status)
	}
}

func TestEnroller_EnrollContact_RejectsDisabledWorkflow(t *testing.T) {
	enroller, _, _ := newEnrollerFixture(t, false)

	if _, err := enroller.EnrollContact(context.Background(), "wf-1", "c-1", false); err == nil {
		t.Fatalf("expected error enrolling into a disabled workflow")
	}
}

func TestEnroller_EnrollContact_DuplicateWithoutSkipErrors(t *testing.T) {
	enroller, _, _ := newEnrollerFixture(t, true)

	if _, err := enroller.EnrollContact(context.Background(), "wf-1", "c-1", false); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if _, err := enroller.EnrollContact(context.Background(), "wf-1", "c-1", false); err == nil {
		t.Fatalf("expected error on duplicate active enrollment without skipDuplicates")
	}
}

func TestEnroller_EnrollContact_DuplicateWithSkipReturnsExisting(t *testing.T) {
	enroller, _, _ := newEnrollerFixture(t, true)

	first, err := enroller.EnrollContact(context.Background(), "wf-1", "c-1", true)
	if err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	second, err := enroller.EnrollContact(context.Background(), "wf-1", "c-1", true)
	if err != nil {
		t.Fatalf("second enroll: %v", err)
	}
	if first != second {
		t.Fatalf("expected skipDuplicates to return the same enrollment id, got %s and %s", first, second)
	}
}

func TestEnroller_InvokeSubWorkflow_RejectsCircularReference(t *testing.T) {
	enroller, _, _ := newEnrollerFixture(t, true)

	if _, err := enroller.InvokeSubWorkflow(context.Background(), "wf-1", "c-1", nil); err != nil {
		t.Fatalf("first invoke: %v", err)
	}
	if _, err := enroller.InvokeSubWorkflow(context.Background(), "wf-1", "c-1", nil); err == nil {
		t.Fatalf("expected circular sub-workflow error on repeated invoke while still active")
	}
}

func TestEnroller_EnrollContact_MissingWorkflowErrors(t *testing.T) {
	db := memstore.New()
	enroller := &trigger.Enroller{Workflows: db.Workflows(), Enrollments: db.Enrollments(), Executions: db.Executions(), MaxAttempts: 3}

	if _, err := enroller.EnrollContact(context.Background(), "missing", "c-1", false); err == nil {
		t.Fatalf("expected error enrolling into a nonexistent workflow")
	}
}

func TestEnroller_EnrollContact_NoTriggerNodeErrors(t *testing.T) {
	db := memstore.New()
	db.PutWorkflow(&domain.Workflow{ID: "wf-1", Name: "wf", Enabled: true, Nodes: []*domain.Node{{ID: "a", Type: domain.NodeTypeUpdateStatus}}})
	enroller := &trigger.Enroller{Workflows: db.Workflows(), Enrollments: db.Enrollments(), Executions: db.Executions(), MaxAttempts: 3}

	if _, err := enroller.EnrollContact(context.Background(), "wf-1", "c-1", false); err == nil {
		t.Fatalf("expected error enrolling into a workflow with no trigger node")
	}
}

func TestEnroller_EnrollContact_SeedExecutionDueImmediately(t *testing.T) {
	enroller, db, _ := newEnrollerFixture(t, true)
	before := time.Now()

	id, err := enroller.EnrollContact(context.Background(), "wf-1", "c-1", false)
	if err != nil {
		t.Fatalf("EnrollContact: %v", err)
	}

	claimed, err := db.Executions().ClaimDue(context.Background(), time.Now().Add(time.Second), 10, "runner-1", time.Minute)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(claimed) != 1 || claimed[0].Enrollment.ID != id {
		t.Fatalf("expected the seed execution to be immediately claimable, got %+v", claimed)
	}
	if claimed[0].Execution.NextRunAt == nil || claimed[0].Execution.NextRunAt.Before(before) {
		t.Fatalf("unexpected next_run_at on seed execution")
	}
}
