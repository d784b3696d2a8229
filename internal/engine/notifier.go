package engine

import (
	"context"
	"time"

	"github.com/flowengine/engine/internal/infrastructure/logger"
)

// EventType enumerates the lifecycle events ExecutionNotifier observes.
// In-process only; spec §1 excludes real-time streaming to a UI, but an
// in-process notifier is ambient observability any complete engine has,
// grounded on the teacher's ExecutionEvent/ExecutionNotifier pattern in
// pkg/engine/event.go and dag_executor.go's safeNotify.
type EventType string

const (
	EventBatchStarted   EventType = "batch_started"
	EventNodeAdvanced   EventType = "node_advanced"
	EventBatchWaiting   EventType = "batch_waiting"
	EventBatchCompleted EventType = "batch_completed"
	EventBatchFailed    EventType = "batch_failed"
	EventEnrollmentStopped EventType = "enrollment_stopped"
)

// ExecutionEvent is one lifecycle notification emitted by the Executor Core.
type ExecutionEvent struct {
	Type         EventType
	ExecutionID  string
	EnrollmentID string
	NodeID       string
	NodeType     string
	Status       string
	Message      string
	DurationMS   int64
	Timestamp    time.Time
}

// ExecutionNotifier receives ExecutionEvents. Implementations must not
// block the executor; a notifier that blocks delays the whole tick batch.
type ExecutionNotifier interface {
	Notify(ctx context.Context, event ExecutionEvent)
}

// LogNotifier is the default ExecutionNotifier: it writes a structured log
// line per event. Grounded on the teacher's safeNotify default behavior of
// falling back to stdout when no notifier is wired, but using the
// project's zerolog-backed logger instead of fmt.Printf.
type LogNotifier struct {
	Logger *logger.Logger
}

func (n LogNotifier) Notify(_ context.Context, event ExecutionEvent) {
	log := n.Logger
	if log == nil {
		log = logger.Default()
	}
	log.Debug("execution event",
		"type", string(event.Type),
		"execution_id", event.ExecutionID,
		"enrollment_id", event.EnrollmentID,
		"node_id", event.NodeID,
		"node_type", event.NodeType,
		"status", event.Status,
		"message", event.Message,
		"duration_ms", event.DurationMS,
	)
}

// safeNotify wraps notifier.Notify with panic recovery so a broken
// notifier implementation can never take down a tick batch.
func safeNotify(ctx context.Context, notifier ExecutionNotifier, event ExecutionEvent, log *logger.Logger) {
	if notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if log == nil {
				log = logger.Default()
			}
			log.Error("execution notifier panicked", "panic", r)
		}
	}()
	notifier.Notify(ctx, event)
}
