package processor

import (
	"context"
	"time"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
)

// TimeDelayProcessor suspends the execution until now + duration·unit
// (spec §4.2). It never advances past itself within a single batch.
type TimeDelayProcessor struct{}

func (TimeDelayProcessor) Execute(_ context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	payload, err := domain.ParseTimeDelay(node.Data)
	if err != nil {
		return engine.StepResult{}, err
	}

	next, ok := step.Workflow.SuccessorByHandle(node.ID, "")
	if !ok {
		return engine.StepResult{}, nil
	}

	runAt := step.Now.Add(delayDuration(payload))
	return engine.StepResult{NextNodeID: &next, NextRunAt: &runAt}, nil
}

func delayDuration(p domain.TimeDelayPayload) time.Duration {
	unit := time.Minute
	switch p.Unit {
	case domain.DurationHours:
		unit = time.Hour
	case domain.DurationDays:
		unit = 24 * time.Hour
	}
	return time.Duration(p.Duration * float64(unit))
}
