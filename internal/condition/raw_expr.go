package condition

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/flowengine/engine/internal/domain"
)

// RawExpressionEvaluator is the escape hatch spec §4.1 allows for
// conditional_split nodes whose payload carries a "raw_expression" string
// instead of a group tree: a boolean expr-lang expression evaluated against
// the contact's fields. It is grounded on the teacher's
// ExprConditionEvaluator, keeping expr-lang compilation and a bounded
// program cache, but swaps the env from node output to a contact projection.
// When the cache is full the earliest-inserted program is evicted; a cache
// hit does not refresh an entry's position.
type RawExpressionEvaluator struct {
	mu      sync.RWMutex
	compile map[string]*vm.Program
	order   []string
	cap     int
}

// NewRawExpressionEvaluator creates an evaluator caching up to capacity
// compiled programs. A non-positive capacity falls back to 100.
func NewRawExpressionEvaluator(capacity int) *RawExpressionEvaluator {
	if capacity <= 0 {
		capacity = 100
	}
	return &RawExpressionEvaluator{
		compile: make(map[string]*vm.Program),
		cap:     capacity,
	}
}

// Evaluate compiles (or reuses a cached compilation of) raw and runs it
// against contactEnv(contact). The expression must evaluate to a bool.
func (e *RawExpressionEvaluator) Evaluate(raw string, contact *domain.Contact) (bool, error) {
	if raw == "" {
		return true, nil
	}

	env := contactEnv(contact)

	program, err := e.compileAndCache(raw, env)
	if err != nil {
		return false, fmt.Errorf("condition: compile raw expression: %w", err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("condition: run raw expression: %w", err)
	}

	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition: raw expression must return bool, got %T", result)
	}
	return b, nil
}

func (e *RawExpressionEvaluator) compileAndCache(raw string, env map[string]any) (*vm.Program, error) {
	e.mu.RLock()
	if p, ok := e.compile[raw]; ok {
		e.mu.RUnlock()
		return p, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(raw, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.compile[raw]; !ok {
		if len(e.order) >= e.cap {
			oldest := e.order[0]
			e.order = e.order[1:]
			delete(e.compile, oldest)
		}
		e.order = append(e.order, raw)
	}
	e.compile[raw] = program
	return program, nil
}

// contactEnv projects a contact into the flat field map expr-lang
// expressions run against, mirroring the field set the tree evaluator
// resolves (spec §4.1): standard fields, custom fields, and tags.
func contactEnv(contact *domain.Contact) map[string]any {
	env := map[string]any{
		"first_name":     contact.FirstName,
		"last_name":      contact.LastName,
		"email":          contact.Email,
		"phone":          contact.Phone,
		"status":         string(contact.Status),
		"replied":        contact.Replied,
		"do_not_contact": contact.DoNotContact,
		"tags":           contact.Tags,
	}
	if contact.LastContactedAt != nil {
		env["last_contacted"] = contact.LastContactedAt.Format("2006-01-02T15:04:05Z07:00")
	} else {
		env["last_contacted"] = ""
	}
	for k, v := range contact.CustomFields {
		env[k] = v
	}
	return env
}
