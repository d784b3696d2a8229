package processor

import (
	"context"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
)

// TriggerStartProcessor is a pure pass-through: it carries no side effects
// and always advances immediately (spec §4.2).
type TriggerStartProcessor struct{}

func (TriggerStartProcessor) Execute(_ context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	next, ok := step.Workflow.SuccessorByHandle(node.ID, "")
	if !ok {
		return engine.StepResult{}, nil
	}
	return engine.StepResult{NextNodeID: &next}, nil
}
