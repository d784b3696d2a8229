package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engineerr"
	"github.com/flowengine/engine/internal/infrastructure/logger"
	"github.com/flowengine/engine/internal/store"
)

// nodesPerBatchLimit is the hard cycle-breaker cap spec §4.4/§5 mandates:
// no user-level loop node exists, but backward edges in a user graph can
// still cycle, so the walk loop bails out after this many node advances in
// a single batch.
const nodesPerBatchLimit = 100

// Clock returns the current time; tests substitute a fixed clock to assert
// exact next_run_at values without sleeping.
type Clock func() time.Time

// Config carries the Executor Core's tunables (spec §6): retry backoff and
// default max attempts.
type Config struct {
	RetryDelay  time.Duration
	MaxAttempts int
}

// Executor is the Executor Core (C4): it loads one execution and walks it
// through nodes via the Registry until it must wait, terminate, or fail
// (spec §4.4). It never runs two steps of the same execution concurrently;
// that guarantee comes from the store's lease, not from this type.
type Executor struct {
	Executions store.ExecutionRepository
	Enrollments store.EnrollmentRepository
	Contacts   store.ContactRepository
	Logs       store.LogRepository
	Registry   Registry
	Notifier   ExecutionNotifier
	Logger     *logger.Logger
	Clock      Clock
	Config     Config
}

// Result summarizes one batch run for the caller (the Tick Scheduler).
type Result struct {
	ExecutionID   string
	FinalStatus   domain.ExecutionStatus
	NodesProcessed int
	Err           error
}

func (e *Executor) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Executor) log() *logger.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logger.Default()
}

// Run executes spec §4.4's algorithm for the execution loaded inside
// claimed. claimed's execution must already be status=processing (the
// caller's claim transitioned it); Run performs the attempts++ bookkeeping
// and the walk loop, persisting each transition through the repositories.
func (e *Executor) Run(ctx context.Context, claimed *store.ClaimedExecution) Result {
	execution := claimed.Execution
	enrollment := claimed.Enrollment
	contact := claimed.Contact
	workflow := claimed.Workflow

	result := Result{ExecutionID: execution.ID}

	safeNotify(ctx, e.Notifier, ExecutionEvent{
		Type: EventBatchStarted, ExecutionID: execution.ID, EnrollmentID: enrollment.ID,
		Timestamp: e.now(),
	}, e.log())

	if enrollment.Status != domain.EnrollmentActive {
		result.FinalStatus = execution.Status
		return result
	}

	if !workflow.Enabled {
		e.failExecution(ctx, execution, "Workflow is disabled")
		result.FinalStatus = domain.ExecutionFailed
		result.Err = engineerr.New(engineerr.WorkflowDisabled, workflow.ID)
		return result
	}

	// Attempts count batches, not nodes: one increment per Run call
	// regardless of how many nodes the walk loop below advances through
	// (spec §4.4 step 4 / invariant "attempts incremented on batch entry").
	now := e.now()
	execution.Attempts++
	execution.LastRunAt = &now
	e.Executions.Transition(ctx, execution.ID, store.ExecutionPatch{
		Status:    statusPtr(domain.ExecutionProcessing),
		LastRunAt: &now,
		Attempts:  &execution.Attempts,
	})

	nodesProcessed := 0
	currentNodeID := execution.CurrentNodeID

	for {
		node := workflow.NodeByID(currentNodeID)
		if node == nil {
			e.failExecution(ctx, execution, fmt.Sprintf("Current node not found: %s", currentNodeID))
			result.FinalStatus = domain.ExecutionFailed
			result.Err = engineerr.New(engineerr.NodeNotFound, currentNodeID)
			return result
		}

		processor, ok := e.Registry.Get(node.Type)
		if !ok {
			e.failExecution(ctx, execution, fmt.Sprintf("No processor for node type %s", node.Type))
			result.FinalStatus = domain.ExecutionFailed
			result.Err = engineerr.New(engineerr.UnknownNodeType, string(node.Type))
			return result
		}

		stepCtx := &StepContext{
			Workflow: workflow, Enrollment: enrollment, Execution: execution,
			Contact: contact, Now: e.now(),
		}

		start := e.now()
		stepResult, err := e.invoke(ctx, processor, node, stepCtx)
		duration := e.now().Sub(start)

		if err != nil {
			e.appendLog(ctx, execution, enrollment, node, domain.LogActionExecute, domain.LogStatusFailed, node.Data, nil, err.Error(), duration)

			maxAttempts := execution.MaxAttempts
			if maxAttempts <= 0 {
				maxAttempts = e.Config.MaxAttempts
			}
			if execution.Attempts < maxAttempts {
				nextRun := e.now().Add(e.Config.RetryDelay)
				msg := err.Error()
				e.Executions.Transition(ctx, execution.ID, store.ExecutionPatch{
					Status:       statusPtr(domain.ExecutionWaiting),
					NextRunAt:    &nextRun,
					ErrorMessage: &msg,
					ReleaseLease: true,
				})
				result.FinalStatus = domain.ExecutionWaiting
				result.NodesProcessed = nodesProcessed
				return result
			}

			e.failExecution(ctx, execution, err.Error())
			result.FinalStatus = domain.ExecutionFailed
			result.Err = engineerr.Wrap(engineerr.AttemptsExhausted, execution.ID, err)
			return result
		}

		action := domain.LogActionExecute
		logStatus := domain.LogStatusCompleted
		if stepResult.StopEnrollment {
			action = domain.LogActionStop
		}
		if stepResult.Error != "" {
			logStatus = domain.LogStatusFailed
		}
		e.appendLog(ctx, execution, enrollment, node, action, logStatus, node.Data, stepResult.OutputData, stepResult.Error, duration)

		safeNotify(ctx, e.Notifier, ExecutionEvent{
			Type: EventNodeAdvanced, ExecutionID: execution.ID, EnrollmentID: enrollment.ID,
			NodeID: node.ID, NodeType: string(node.Type), Status: string(logStatus),
			DurationMS: duration.Milliseconds(), Timestamp: e.now(),
		}, e.log())

		if stepResult.StopEnrollment {
			now := e.now()
			e.Enrollments.Stop(ctx, enrollment.ID, stepResult.StopReason, now)
			e.Executions.Transition(ctx, execution.ID, store.ExecutionPatch{
				Status: statusPtr(domain.ExecutionCompleted), ReleaseLease: true,
			})
			safeNotify(ctx, e.Notifier, ExecutionEvent{
				Type: EventEnrollmentStopped, ExecutionID: execution.ID, EnrollmentID: enrollment.ID,
				Message: stepResult.StopReason, Timestamp: now,
			}, e.log())
			result.FinalStatus = domain.ExecutionCompleted
			result.NodesProcessed = nodesProcessed + 1
			return result
		}

		if stepResult.NextNodeID == nil {
			now := e.now()
			e.Enrollments.Complete(ctx, enrollment.ID, now)
			e.Executions.Transition(ctx, execution.ID, store.ExecutionPatch{
				Status: statusPtr(domain.ExecutionCompleted), ReleaseLease: true,
			})
			safeNotify(ctx, e.Notifier, ExecutionEvent{
				Type: EventBatchCompleted, ExecutionID: execution.ID, EnrollmentID: enrollment.ID,
				Timestamp: now,
			}, e.log())
			result.FinalStatus = domain.ExecutionCompleted
			result.NodesProcessed = nodesProcessed + 1
			return result
		}

		if len(stepResult.ExecutionData) > 0 {
			if execution.ExecutionData == nil {
				execution.ExecutionData = map[string]any{}
			}
			for k, v := range stepResult.ExecutionData {
				execution.ExecutionData[k] = v
			}
		}

		nextNodeID := *stepResult.NextNodeID

		if stepResult.NextRunAt != nil {
			patch := store.ExecutionPatch{
				CurrentNodeID:      &nextNodeID,
				Status:             statusPtr(domain.ExecutionWaiting),
				NextRunAt:          stepResult.NextRunAt,
				ClearErrorMessage:  true,
				MergeExecutionData: stepResult.ExecutionData,
				ReleaseLease:       true,
			}
			e.Executions.Transition(ctx, execution.ID, patch)
			safeNotify(ctx, e.Notifier, ExecutionEvent{
				Type: EventBatchWaiting, ExecutionID: execution.ID, EnrollmentID: enrollment.ID,
				Timestamp: e.now(),
			}, e.log())
			result.FinalStatus = domain.ExecutionWaiting
			result.NodesProcessed = nodesProcessed + 1
			return result
		}

		e.Executions.Transition(ctx, execution.ID, store.ExecutionPatch{
			CurrentNodeID:      &nextNodeID,
			MergeExecutionData: stepResult.ExecutionData,
		})

		currentNodeID = nextNodeID
		execution.CurrentNodeID = nextNodeID
		nodesProcessed++

		if nodesProcessed > nodesPerBatchLimit {
			e.failExecution(ctx, execution, "Too many nodes processed (possible infinite loop)")
			result.FinalStatus = domain.ExecutionFailed
			result.Err = engineerr.New(engineerr.CycleLimitExceeded, execution.ID)
			result.NodesProcessed = nodesProcessed
			return result
		}
	}
}

// invoke runs the processor, converting a panic into an error so a single
// broken processor cannot crash a tick batch (spec §4.4 step 5c:
// "invoke processor inside a try/catch").
func (e *Executor) invoke(ctx context.Context, p Processor, node *domain.Node, step *StepContext) (res StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return p.Execute(ctx, node, step)
}

func (e *Executor) failExecution(ctx context.Context, execution *domain.Execution, reason string) {
	safeNotify(ctx, e.Notifier, ExecutionEvent{
		Type: EventBatchFailed, ExecutionID: execution.ID, Message: reason, Timestamp: e.now(),
	}, e.log())
	e.Executions.Transition(ctx, execution.ID, store.ExecutionPatch{
		Status:       statusPtr(domain.ExecutionFailed),
		ErrorMessage: &reason,
		ReleaseLease: true,
	})
}

func (e *Executor) appendLog(ctx context.Context, execution *domain.Execution, enrollment *domain.Enrollment, node *domain.Node, action domain.LogAction, status domain.LogStatus, input, output map[string]any, errMsg string, duration time.Duration) {
	e.Logs.Append(ctx, &domain.ExecutionLog{
		ID:           uuid.NewString(),
		ExecutionID:  execution.ID,
		EnrollmentID: enrollment.ID,
		NodeID:       node.ID,
		NodeType:     node.Type,
		Action:       action,
		Status:       status,
		Input:        input,
		Output:       output,
		Error:        errMsg,
		DurationMS:   duration.Milliseconds(),
		CreatedAt:    e.now(),
	})
}

func statusPtr(s domain.ExecutionStatus) *domain.ExecutionStatus { return &s }
