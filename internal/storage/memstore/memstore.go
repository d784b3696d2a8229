// Package memstore implements the Execution State Store interfaces
// (internal/store) entirely in memory, for fast deterministic tests of the
// Executor Core and Tick Scheduler. The teacher repository has no
// in-memory repository of its own to ground this on (its tests mock at the
// interface/bun-query level instead); this package follows ordinary Go
// testing idiom — mutex-guarded maps satisfying the production interfaces
// — rather than any specific teacher file.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/store"
)

// DB is the shared in-memory backing store, guarded by one mutex to
// simulate a single-database transaction boundary. Its data is exposed
// through the per-entity repository wrappers below (Workflows, Contacts,
// Enrollments, Executions, Messages), mirroring the production split into
// one repository type per entity.
type DB struct {
	mu sync.Mutex

	workflows   map[string]*domain.Workflow
	contacts    map[string]*domain.Contact
	enrollments map[string]*domain.Enrollment
	executions  map[string]*domain.Execution
	logs        []*domain.ExecutionLog
	messages    map[string]*domain.Message
	templates   map[string]*domain.Template
	settings    *domain.ProviderSettings
}

// New creates an empty DB.
func New() *DB {
	return &DB{
		workflows:   make(map[string]*domain.Workflow),
		contacts:    make(map[string]*domain.Contact),
		enrollments: make(map[string]*domain.Enrollment),
		executions:  make(map[string]*domain.Execution),
		messages:    make(map[string]*domain.Message),
		templates:   make(map[string]*domain.Template),
		settings:    &domain.ProviderSettings{},
	}
}

// Workflows returns a store.WorkflowRepository backed by db.
func (db *DB) Workflows() *WorkflowStore { return &WorkflowStore{db: db} }

// Contacts returns a store.ContactRepository backed by db.
func (db *DB) Contacts() *ContactStore { return &ContactStore{db: db} }

// Enrollments returns a store.EnrollmentRepository backed by db.
func (db *DB) Enrollments() *EnrollmentStore { return &EnrollmentStore{db: db} }

// Executions returns a store.ExecutionRepository backed by db.
func (db *DB) Executions() *ExecutionStore { return &ExecutionStore{db: db} }

// Logs returns a store.LogRepository backed by db.
func (db *DB) Logs() *LogStore { return &LogStore{db: db} }

// Messages returns a store.MessageRepository backed by db.
func (db *DB) Messages() *MessageStore { return &MessageStore{db: db} }

// Templates returns a store.TemplateRepository backed by db.
func (db *DB) Templates() *TemplateStore { return &TemplateStore{db: db} }

// Settings returns a store.SettingsRepository backed by db.
func (db *DB) Settings() *SettingsStore { return &SettingsStore{db: db} }

// PutTemplate seeds a template directly for test setup.
func (db *DB) PutTemplate(t *domain.Template) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.templates[t.ID] = t
}

// PutSettings replaces the stored provider settings for test setup.
func (db *DB) PutSettings(s *domain.ProviderSettings) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.settings = s
}

// PutWorkflow seeds a workflow directly, bypassing validation, for test setup.
func (db *DB) PutWorkflow(wf *domain.Workflow) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.workflows[wf.ID] = wf
}

// PutContact seeds a contact directly for test setup.
func (db *DB) PutContact(c *domain.Contact) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.contacts[c.ID] = c
}

// AllLogs returns a snapshot of every appended log, in append order.
func (db *DB) AllLogs() []*domain.ExecutionLog {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]*domain.ExecutionLog, len(db.logs))
	copy(out, db.logs)
	return out
}

// WorkflowStore implements store.WorkflowRepository.
type WorkflowStore struct{ db *DB }

var _ store.WorkflowRepository = (*WorkflowStore)(nil)

func (w *WorkflowStore) Get(ctx context.Context, id string) (*domain.Workflow, error) {
	w.db.mu.Lock()
	defer w.db.mu.Unlock()
	wf, ok := w.db.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow not found: %s", id)
	}
	return wf, nil
}

func (w *WorkflowStore) SaveGraph(ctx context.Context, wf *domain.Workflow) error {
	w.db.mu.Lock()
	defer w.db.mu.Unlock()
	w.db.workflows[wf.ID] = wf
	return nil
}

func (w *WorkflowStore) List(ctx context.Context) ([]*domain.Workflow, error) {
	w.db.mu.Lock()
	defer w.db.mu.Unlock()
	out := make([]*domain.Workflow, 0, len(w.db.workflows))
	for _, wf := range w.db.workflows {
		out = append(out, wf)
	}
	return out, nil
}

// ContactStore implements store.ContactRepository.
type ContactStore struct{ db *DB }

var _ store.ContactRepository = (*ContactStore)(nil)

func (c *ContactStore) Get(ctx context.Context, id string) (*domain.Contact, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	contact, ok := c.db.contacts[id]
	if !ok {
		return nil, fmt.Errorf("contact not found: %s", id)
	}
	return contact, nil
}

func (c *ContactStore) UpdateStatus(ctx context.Context, id string, status domain.ContactStatus) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	contact, ok := c.db.contacts[id]
	if !ok {
		return fmt.Errorf("contact not found: %s", id)
	}
	contact.Status = status
	contact.UpdatedAt = time.Now()
	return nil
}

// EnrollmentStore implements store.EnrollmentRepository.
type EnrollmentStore struct{ db *DB }

var _ store.EnrollmentRepository = (*EnrollmentStore)(nil)

func (e *EnrollmentStore) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	e.db.enrollments[enrollment.ID] = enrollment
	return nil
}

func (e *EnrollmentStore) Get(ctx context.Context, id string) (*domain.Enrollment, error) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	enrollment, ok := e.db.enrollments[id]
	if !ok {
		return nil, fmt.Errorf("enrollment not found: %s", id)
	}
	return enrollment, nil
}

func (e *EnrollmentStore) ActiveByWorkflowAndContact(ctx context.Context, workflowID, contactID string) (*domain.Enrollment, error) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	for _, enrollment := range e.db.enrollments {
		if enrollment.WorkflowID == workflowID && enrollment.ContactID == contactID && enrollment.Status == domain.EnrollmentActive {
			return enrollment, nil
		}
	}
	return nil, nil
}

func (e *EnrollmentStore) Complete(ctx context.Context, id string, at time.Time) error {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	enrollment, ok := e.db.enrollments[id]
	if !ok {
		return fmt.Errorf("enrollment not found: %s", id)
	}
	enrollment.Status = domain.EnrollmentCompleted
	enrollment.CompletedAt = &at
	return nil
}

func (e *EnrollmentStore) Stop(ctx context.Context, id string, reason string, at time.Time) error {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	enrollment, ok := e.db.enrollments[id]
	if !ok {
		return fmt.Errorf("enrollment not found: %s", id)
	}
	enrollment.Status = domain.EnrollmentStopped
	enrollment.StoppedAt = &at
	enrollment.StopReason = reason
	return nil
}

func (e *EnrollmentStore) Fail(ctx context.Context, id string) error {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	enrollment, ok := e.db.enrollments[id]
	if !ok {
		return fmt.Errorf("enrollment not found: %s", id)
	}
	enrollment.Status = domain.EnrollmentFailed
	return nil
}

// ExecutionStore implements store.ExecutionRepository.
type ExecutionStore struct{ db *DB }

var _ store.ExecutionRepository = (*ExecutionStore)(nil)

func (x *ExecutionStore) Create(ctx context.Context, execution *domain.Execution) error {
	x.db.mu.Lock()
	defer x.db.mu.Unlock()
	x.db.executions[execution.ID] = execution
	return nil
}

func (x *ExecutionStore) Get(ctx context.Context, id string) (*domain.Execution, error) {
	x.db.mu.Lock()
	defer x.db.mu.Unlock()
	execution, ok := x.db.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution not found: %s", id)
	}
	return execution, nil
}

// ClaimDue implements the atomic claim (spec §4.3): while this store is
// single-process and guarded by one mutex, it still enforces the same
// observable contract — a row is never handed to two callers, and a lease
// that has not expired is never reclaimed.
func (x *ExecutionStore) ClaimDue(ctx context.Context, now time.Time, limit int, leaseHolder string, leaseTTL time.Duration) ([]*store.ClaimedExecution, error) {
	x.db.mu.Lock()
	defer x.db.mu.Unlock()

	var claimed []*store.ClaimedExecution
	for _, execution := range x.db.executions {
		if len(claimed) >= limit {
			break
		}

		due := execution.Status == domain.ExecutionWaiting && execution.NextRunAt != nil && !execution.NextRunAt.After(now)
		leaseExpired := execution.Status == domain.ExecutionProcessing && execution.LeaseExpiresAt != nil && execution.LeaseExpiresAt.Before(now)
		if !due && !leaseExpired {
			continue
		}

		expiry := now.Add(leaseTTL)
		execution.Status = domain.ExecutionProcessing
		execution.LeaseHolder = leaseHolder
		execution.LeaseExpiresAt = &expiry

		enrollment := x.db.enrollments[execution.EnrollmentID]
		if enrollment == nil {
			continue
		}
		contact := x.db.contacts[enrollment.ContactID]
		workflow := x.db.workflows[enrollment.WorkflowID]

		claimed = append(claimed, &store.ClaimedExecution{
			Execution: execution, Enrollment: enrollment, Contact: contact, Workflow: workflow,
		})
	}
	return claimed, nil
}

func (x *ExecutionStore) Transition(ctx context.Context, id string, patch store.ExecutionPatch) error {
	x.db.mu.Lock()
	defer x.db.mu.Unlock()
	execution, ok := x.db.executions[id]
	if !ok {
		return fmt.Errorf("execution not found: %s", id)
	}

	if patch.CurrentNodeID != nil {
		execution.CurrentNodeID = *patch.CurrentNodeID
	}
	if patch.Status != nil {
		execution.Status = *patch.Status
	}
	if patch.NextRunAt != nil {
		execution.NextRunAt = patch.NextRunAt
	}
	if patch.ClearNextRunAt {
		execution.NextRunAt = nil
	}
	if patch.LastRunAt != nil {
		execution.LastRunAt = patch.LastRunAt
	}
	if patch.Attempts != nil {
		execution.Attempts = *patch.Attempts
	}
	if patch.ErrorMessage != nil {
		execution.ErrorMessage = *patch.ErrorMessage
	}
	if patch.ClearErrorMessage {
		execution.ErrorMessage = ""
	}
	if len(patch.MergeExecutionData) > 0 {
		if execution.ExecutionData == nil {
			execution.ExecutionData = map[string]any{}
		}
		for k, v := range patch.MergeExecutionData {
			execution.ExecutionData[k] = v
		}
	}
	if patch.ReleaseLease {
		execution.LeaseHolder = ""
		execution.LeaseExpiresAt = nil
	}
	return nil
}

// LogStore implements store.LogRepository.
type LogStore struct{ db *DB }

var _ store.LogRepository = (*LogStore)(nil)

func (l *LogStore) Append(ctx context.Context, log *domain.ExecutionLog) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	l.db.logs = append(l.db.logs, log)
	return nil
}

// MessageStore implements store.MessageRepository.
type MessageStore struct{ db *DB }

var _ store.MessageRepository = (*MessageStore)(nil)

func (m *MessageStore) Create(ctx context.Context, msg *domain.Message) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.messages[msg.ID] = msg
	return nil
}

func (m *MessageStore) Update(ctx context.Context, msg *domain.Message) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.messages[msg.ID] = msg
	return nil
}

func (m *MessageStore) HasInboundSince(ctx context.Context, contactID string, since time.Time, channel *domain.Channel) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, msg := range m.db.messages {
		if msg.ContactID != contactID || msg.Direction != domain.DirectionInbound {
			continue
		}
		if msg.CreatedAt.Before(since) {
			continue
		}
		if channel != nil && msg.Channel != *channel {
			continue
		}
		return true, nil
	}
	return false, nil
}

// TemplateStore implements store.TemplateRepository.
type TemplateStore struct{ db *DB }

var _ store.TemplateRepository = (*TemplateStore)(nil)

func (t *TemplateStore) Get(ctx context.Context, id string) (*domain.Template, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	tmpl, ok := t.db.templates[id]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", id)
	}
	return tmpl, nil
}

// SettingsStore implements store.SettingsRepository.
type SettingsStore struct{ db *DB }

var _ store.SettingsRepository = (*SettingsStore)(nil)

func (s *SettingsStore) Get(ctx context.Context) (*domain.ProviderSettings, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	settings := *s.db.settings
	return &settings, nil
}
