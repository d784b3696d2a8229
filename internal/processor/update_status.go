package processor

import (
	"context"
	"fmt"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
)

// UpdateStatusProcessor mutates the contact's status. A failure here is
// returned as an error, never as a soft StepResult.Error; the executor
// treats it like any other returned error and retries it until the
// execution's max attempts are used.
type UpdateStatusProcessor struct {
	Deps *Deps
}

func (p UpdateStatusProcessor) Execute(ctx context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	status, _ := node.Data["status"].(string)
	if status == "" {
		return engine.StepResult{}, fmt.Errorf("update_status: missing status")
	}

	if err := p.Deps.Contacts.UpdateStatus(ctx, step.Contact.ID, domain.ContactStatus(status)); err != nil {
		return engine.StepResult{}, fmt.Errorf("update_status: %w", err)
	}
	step.Contact.Status = domain.ContactStatus(status)

	next, ok := step.Workflow.SuccessorByHandle(node.ID, "")
	result := engine.StepResult{OutputData: map[string]any{"status": status}}
	if ok {
		result.NextNodeID = &next
	}
	return result, nil
}
