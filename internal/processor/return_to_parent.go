package processor

import (
	"context"

	"github.com/expr-lang/expr"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
)

// ReturnToParentProcessor is always terminal: the executor completes the
// enrollment on a nil NextNodeID. Output-variable expressions are resolved
// here and recorded on the step's log entry for parent-workflow
// consumption (spec §4.2, §4.5).
type ReturnToParentProcessor struct{}

func (ReturnToParentProcessor) Execute(_ context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	status, _ := node.Data["return_status"].(string)
	outputs, _ := node.Data["output_variables"].(map[string]any)

	env := map[string]any{"contact": map[string]any{
		"first_name": step.Contact.FirstName,
		"last_name":  step.Contact.LastName,
		"status":     string(step.Contact.Status),
	}}

	resolved := make(map[string]any, len(outputs))
	for key, raw := range outputs {
		expression, ok := raw.(string)
		if !ok {
			resolved[key] = raw
			continue
		}
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			resolved[key] = expression
			continue
		}
		value, err := expr.Run(program, env)
		if err != nil {
			resolved[key] = expression
			continue
		}
		resolved[key] = value
	}

	return engine.StepResult{OutputData: map[string]any{"return_status": status, "output_variables": resolved}}, nil
}
