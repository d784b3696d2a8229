package processor

import (
	"context"
	"fmt"

	"github.com/flowengine/engine/internal/condition"
	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
)

// ConditionalSplitProcessor evaluates a node's expression tree against the
// contact and routes to the "yes" or "no" handle (spec §4.2, P4). A raw
// "raw_expression" payload key, outside the closed spec operator set, is
// evaluated via expr-lang instead (spec §4.1 escape hatch). A chosen handle
// with no outgoing edge completes the workflow gracefully (spec §4.2, B2).
type ConditionalSplitProcessor struct {
	Deps *Deps
}

func (p ConditionalSplitProcessor) Execute(_ context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	raw, _ := node.Data["expression"].(map[string]any)

	var matched bool
	if rawExpr, ok := raw["raw_expression"].(string); ok && rawExpr != "" {
		result, err := p.Deps.RawExpr.Evaluate(rawExpr, step.Contact)
		if err != nil {
			return engine.StepResult{}, fmt.Errorf("conditional_split: %w", err)
		}
		matched = result
	} else {
		expr, err := p.Deps.Conditions.ParseAndCache(raw)
		if err != nil {
			return engine.StepResult{}, fmt.Errorf("conditional_split: %w", err)
		}
		matched = condition.Evaluate(expr, step.Contact)
	}

	handle := "no"
	if matched {
		handle = "yes"
	}

	next, ok := step.Workflow.SuccessorByHandle(node.ID, handle)
	if !ok {
		return engine.StepResult{}, nil
	}
	return engine.StepResult{NextNodeID: &next, OutputData: map[string]any{"branch": handle}}, nil
}
