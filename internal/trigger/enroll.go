// Package trigger implements the Tick Scheduler and fan-out collaborators
// (C5, spec §4.5): the poll-based loop that claims due executions and
// dispatches them to the Executor Core, plus event-driven enrollment for
// contact-added/tag-added/status-changed triggers and scheduled/cron
// triggers.
package trigger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engineerr"
	"github.com/flowengine/engine/internal/store"
)

// Enroller implements enrollContact (spec §4.5/§8) and
// processor.SubWorkflowEnroller: create an enrollment and its seed
// execution positioned at the workflow's trigger_start node.
type Enroller struct {
	Workflows   store.WorkflowRepository
	Enrollments store.EnrollmentRepository
	Executions  store.ExecutionRepository
	MaxAttempts int
	Clock       func() time.Time
}

func (e *Enroller) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// EnrollContact enrolls contactID into workflowID, skipping if
// skipDuplicates is set and the contact already has an active enrollment
// there (spec P7, R3). Returns the new (or pre-existing, when skipped)
// enrollment id.
func (e *Enroller) EnrollContact(ctx context.Context, workflowID, contactID string, skipDuplicates bool) (string, error) {
	return e.enroll(ctx, workflowID, contactID, skipDuplicates, nil)
}

func (e *Enroller) enroll(ctx context.Context, workflowID, contactID string, skipDuplicates bool, initialData map[string]any) (string, error) {
	workflow, err := e.Workflows.Get(ctx, workflowID)
	if err != nil {
		return "", engineerr.Wrap(engineerr.WorkflowNotFound, workflowID, err)
	}
	if !workflow.Enabled {
		return "", engineerr.New(engineerr.WorkflowDisabled, workflowID)
	}
	trigger := workflow.TriggerNode()
	if trigger == nil {
		return "", engineerr.New(engineerr.NoTriggerNode, workflowID)
	}

	if existing, err := e.Enrollments.ActiveByWorkflowAndContact(ctx, workflowID, contactID); err == nil && existing != nil {
		if skipDuplicates {
			return existing.ID, nil
		}
		return "", engineerr.New(engineerr.CircularSubWorkflow, contactID)
	}

	now := e.now()
	enrollment := &domain.Enrollment{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		ContactID:  contactID,
		Status:     domain.EnrollmentActive,
		EnrolledAt: now,
	}
	if err := e.Enrollments.Create(ctx, enrollment); err != nil {
		return "", err
	}

	data := initialData
	if data == nil {
		data = map[string]any{}
	}
	execution := &domain.Execution{
		ID:            uuid.NewString(),
		EnrollmentID:  enrollment.ID,
		CurrentNodeID: trigger.ID,
		Status:        domain.ExecutionWaiting,
		NextRunAt:     &now,
		MaxAttempts:   e.MaxAttempts,
		ExecutionData: data,
	}
	if err := e.Executions.Create(ctx, execution); err != nil {
		return "", err
	}

	return enrollment.ID, nil
}

// InvokeSubWorkflow implements processor.SubWorkflowEnroller (spec §4.5):
// require the target to have a trigger_start node, refuse circular
// references via the active-enrollment lookup, and enroll immediately
// (start-and-proceed). The target's trigger type is not checked.
func (e *Enroller) InvokeSubWorkflow(ctx context.Context, targetWorkflowID, contactID string, inputs map[string]any) (string, error) {
	workflow, err := e.Workflows.Get(ctx, targetWorkflowID)
	if err != nil {
		return "", engineerr.Wrap(engineerr.WorkflowNotFound, targetWorkflowID, err)
	}
	trigger := workflow.TriggerNode()
	if trigger == nil {
		return "", engineerr.New(engineerr.NoTriggerNode, targetWorkflowID)
	}

	if existing, err := e.Enrollments.ActiveByWorkflowAndContact(ctx, targetWorkflowID, contactID); err == nil && existing != nil {
		return "", engineerr.New(engineerr.CircularSubWorkflow, targetWorkflowID)
	}

	return e.enroll(ctx, targetWorkflowID, contactID, false, map[string]any{"parent_input": inputs})
}
