package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
	"github.com/flowengine/engine/internal/engineerr"
)

// SubWorkflowEnroller invokes a sub-workflow for call_sub_workflow (spec
// §4.5). It returns the new enrollment's id, or engineerr.CircularSubWorkflow
// if the contact already has an active enrollment in target.
type SubWorkflowEnroller interface {
	InvokeSubWorkflow(ctx context.Context, targetWorkflowID, contactID string, inputs map[string]any) (enrollmentID string, err error)
}

// CallSubWorkflowProcessor implements spec §4.5's invocation semantics:
// validate the target, detect circular references via active-enrollment
// lookup, resolve input mappings, and start-and-proceed (mode=sync never
// blocks the parent; see SPEC_FULL.md §9).
type CallSubWorkflowProcessor struct {
	Deps *Deps
}

func (p CallSubWorkflowProcessor) Execute(ctx context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	payload, err := domain.ParseCallSubWorkflow(node.Data)
	if err != nil {
		return engine.StepResult{}, fmt.Errorf("call_sub_workflow: %w", err)
	}

	inputs, err := resolveInputMappings(payload.InputMappings, step.Contact)
	if err != nil {
		return p.onFailure(node, step, payload, fmt.Sprintf("resolving input mappings: %v", err))
	}

	enrollmentID, err := p.Deps.Enroller.InvokeSubWorkflow(ctx, payload.TargetWorkflowID, step.Contact.ID, inputs)
	if err != nil {
		if errDetail, ok := err.(*engineerr.Error); ok && errDetail.Code == engineerr.CircularSubWorkflow {
			return p.onFailure(node, step, payload, "circular_reference")
		}
		return p.onFailure(node, step, payload, err.Error())
	}

	next, ok := step.Workflow.SuccessorByHandle(node.ID, "")
	result := engine.StepResult{
		OutputData: map[string]any{"sub_workflow_enrollment_id": enrollmentID},
		ExecutionData: map[string]any{
			"sub_workflow_calls": appendSubWorkflowCall(step.Execution.ExecutionData, enrollmentID, payload.Mode),
		},
	}
	if ok {
		result.NextNodeID = &next
	}
	return result, nil
}

func (p CallSubWorkflowProcessor) onFailure(node *domain.Node, step *engine.StepContext, payload domain.CallSubWorkflowPayload, reason string) (engine.StepResult, error) {
	if payload.OnFailure == domain.OnFailureFail {
		return engine.StepResult{}, fmt.Errorf("call_sub_workflow: %s", reason)
	}
	next, ok := step.Workflow.SuccessorByHandle(node.ID, "")
	result := engine.StepResult{OutputData: map[string]any{"reason": reason}, Error: reason}
	if ok {
		result.NextNodeID = &next
	}
	return result, nil
}

func appendSubWorkflowCall(data map[string]any, enrollmentID string, mode domain.SubWorkflowMode) []map[string]any {
	var calls []map[string]any
	if data != nil {
		if existing, ok := data["sub_workflow_calls"].([]map[string]any); ok {
			calls = append(calls, existing...)
		}
	}
	status := "started"
	if mode == domain.SubWorkflowSync {
		status = "pending"
	}
	return append(calls, map[string]any{"enrollment_id": enrollmentID, "status": status})
}

// resolveInputMappings evaluates each mapping's expr-lang expression
// against a {{contact.field}}-shaped environment (spec §4.5): a surrounding
// {{ }} is stripped, so "{{contact.first_name}}" and "contact.first_name"
// resolve alike. A mapping with no expr-lang-meaningful syntax is treated
// as a literal value.
func resolveInputMappings(mappings map[string]string, contact *domain.Contact) (map[string]any, error) {
	env := map[string]any{"contact": map[string]any{
		"first_name": contact.FirstName,
		"last_name":  contact.LastName,
		"email":      contact.Email,
		"phone":      contact.Phone,
		"status":     string(contact.Status),
	}}

	out := make(map[string]any, len(mappings))
	for key, expression := range mappings {
		source := strings.TrimSpace(expression)
		if strings.HasPrefix(source, "{{") && strings.HasSuffix(source, "}}") {
			source = strings.TrimSpace(source[2 : len(source)-2])
		}
		program, err := expr.Compile(source, expr.Env(env))
		if err != nil {
			out[key] = expression
			continue
		}
		value, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("input mapping %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}
