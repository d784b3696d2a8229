package trigger

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/flowengine/engine/internal/infrastructure/cache"
	"github.com/flowengine/engine/internal/infrastructure/logger"
	"github.com/flowengine/engine/internal/store"
)

// EventType is the closed set of contact lifecycle events that can fan out
// to workflow enrollment (spec §4.5, "analogous fan-outs exist for
// tag-added, status-changed, scheduled, and manual triggers").
type EventType string

const (
	EventContactAdded  EventType = "contact_added"
	EventTagAdded      EventType = "tag_added"
	EventStatusChanged EventType = "status_changed"
)

// ContactEvent is published on Redis pub/sub whenever a collaborator
// outside this module's scope (the CRUD API) mutates a contact in a way
// that can satisfy a trigger_start.trigger_config.type.
type ContactEvent struct {
	Type      EventType `json:"type"`
	ContactID string    `json:"contact_id"`
	Tag       string    `json:"tag,omitempty"`
	Status    string    `json:"status,omitempty"`
}

const eventChannel = "flowengine:contact-events"

// EventListener subscribes to ContactEvents over Redis pub/sub and enrolls
// the contact into every enabled workflow whose trigger_start config
// matches, grounded on the teacher's EventListener (Redis pub/sub fan-out),
// generalized from an open trigger-type registry to this engine's closed
// trigger_config.type set.
type EventListener struct {
	Workflows store.WorkflowRepository
	Enroller  *Enroller
	Cache     *cache.RedisCache
	Logger    *logger.Logger

	pubsub      *redis.PubSub
	stopChan    chan struct{}
	stoppedChan chan struct{}
	mu          sync.Mutex
	running     bool
}

func (l *EventListener) log() *logger.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return logger.Default()
}

// Start subscribes to the contact-events channel and begins dispatching in
// the background until Stop is called or ctx is canceled.
func (l *EventListener) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.stopChan = make(chan struct{})
	l.stoppedChan = make(chan struct{})
	l.pubsub = l.Cache.Client().Subscribe(ctx, eventChannel)
	l.running = true
	l.mu.Unlock()

	go l.listen(ctx)
}

// Stop unsubscribes and waits for the listener goroutine to exit.
func (l *EventListener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopChan)
	l.mu.Unlock()

	if l.pubsub != nil {
		l.pubsub.Close()
	}
	<-l.stoppedChan
}

func (l *EventListener) listen(ctx context.Context) {
	defer close(l.stoppedChan)
	ch := l.pubsub.Channel()

	for {
		select {
		case <-l.stopChan:
			return
		case msg, ok := <-ch:
			if !ok || msg == nil {
				continue
			}
			var event ContactEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				l.log().Warn("event listener: malformed event", "error", err.Error())
				continue
			}
			go l.dispatch(context.Background(), event)
		}
	}
}

// dispatch enrolls event.ContactID into every enabled workflow whose
// trigger_start matches the event (spec §4.5). skipDuplicates is always
// true here: event fan-out must never duplicate an already-active
// enrollment (P7).
func (l *EventListener) dispatch(ctx context.Context, event ContactEvent) {
	workflows, err := l.Workflows.List(ctx)
	if err != nil {
		l.log().Error("event listener: listing workflows failed", "error", err.Error())
		return
	}

	for _, workflow := range workflows {
		if !workflow.Enabled {
			continue
		}
		trigger := workflow.TriggerNode()
		if trigger == nil {
			continue
		}
		if !l.matches(trigger.Data, event) {
			continue
		}
		if _, err := l.Enroller.EnrollContact(ctx, workflow.ID, event.ContactID, true); err != nil {
			l.log().Warn("event listener: enroll failed",
				"workflow_id", workflow.ID, "contact_id", event.ContactID, "error", err.Error())
		}
	}
}

func (l *EventListener) matches(triggerConfig map[string]any, event ContactEvent) bool {
	raw, _ := triggerConfig["type"].(string)
	if EventType(raw) != event.Type {
		return false
	}
	switch event.Type {
	case EventTagAdded:
		tag, _ := triggerConfig["tag"].(string)
		return tag == "" || tag == event.Tag
	case EventStatusChanged:
		status, _ := triggerConfig["status"].(string)
		return status == "" || status == event.Status
	default:
		return true
	}
}
