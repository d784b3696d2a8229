package processor

import (
	"context"
	"testing"
	"time"

	"github.com/flowengine/engine/internal/adapter"
	"github.com/flowengine/engine/internal/condition"
	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
	"github.com/flowengine/engine/internal/storage/memstore"
)

func testDeps(db *memstore.DB) *Deps {
	return &Deps{
		Contacts:   db.Contacts(),
		Messages:   db.Messages(),
		Templates:  db.Templates(),
		Settings:   db.Settings(),
		SMS:        adapter.LogSMSSender{},
		Email:      adapter.LogEmailSender{},
		Conditions: condition.NewCache(10),
		RawExpr:    condition.NewRawExpressionEvaluator(10),
	}
}

func testWorkflow(nodes []*domain.Node, edges []*domain.Edge) *domain.Workflow {
	return &domain.Workflow{ID: "wf-1", Name: "Test", Enabled: true, Nodes: nodes, Edges: edges}
}

func TestTriggerStartProcessor_AdvancesToSuccessor(t *testing.T) {
	wf := testWorkflow(
		[]*domain.Node{{ID: "trigger", Type: domain.NodeTypeTriggerStart}, {ID: "next", Type: domain.NodeTypeReturnToParent}},
		[]*domain.Edge{{SourceNodeID: "trigger", TargetNodeID: "next"}},
	)
	step := &engine.StepContext{Workflow: wf}
	result, err := TriggerStartProcessor{}.Execute(context.Background(), wf.NodeByID("trigger"), step)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.NextNodeID == nil || *result.NextNodeID != "next" {
		t.Fatalf("got %+v, want next=next", result)
	}
}

func TestTriggerStartProcessor_NoEdgeCompletes(t *testing.T) {
	wf := testWorkflow([]*domain.Node{{ID: "trigger", Type: domain.NodeTypeTriggerStart}}, nil)
	result, err := TriggerStartProcessor{}.Execute(context.Background(), wf.NodeByID("trigger"), &engine.StepContext{Workflow: wf})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.NextNodeID != nil {
		t.Fatalf("expected nil next node, got %v", *result.NextNodeID)
	}
}

func TestTimeDelayProcessor_SchedulesFutureRun(t *testing.T) {
	wf := testWorkflow(
		[]*domain.Node{
			{ID: "delay", Type: domain.NodeTypeTimeDelay, Data: map[string]any{"duration": float64(2), "unit": "hours"}},
			{ID: "next", Type: domain.NodeTypeReturnToParent},
		},
		[]*domain.Edge{{SourceNodeID: "delay", TargetNodeID: "next"}},
	)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	step := &engine.StepContext{Workflow: wf, Now: now}

	result, err := TimeDelayProcessor{}.Execute(context.Background(), wf.NodeByID("delay"), step)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := now.Add(2 * time.Hour)
	if result.NextRunAt == nil || !result.NextRunAt.Equal(want) {
		t.Fatalf("got next_run_at %v, want %v", result.NextRunAt, want)
	}
}

func TestTimeDelayProcessor_ZeroDurationStillYields(t *testing.T) {
	wf := testWorkflow(
		[]*domain.Node{
			{ID: "delay", Type: domain.NodeTypeTimeDelay, Data: map[string]any{"duration": float64(0), "unit": "minutes"}},
			{ID: "next", Type: domain.NodeTypeReturnToParent},
		},
		[]*domain.Edge{{SourceNodeID: "delay", TargetNodeID: "next"}},
	)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	result, err := TimeDelayProcessor{}.Execute(context.Background(), wf.NodeByID("delay"), &engine.StepContext{Workflow: wf, Now: now})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.NextRunAt == nil || !result.NextRunAt.Equal(now) {
		t.Fatalf("got %v, want %v", result.NextRunAt, now)
	}
}

func TestConditionalSplitProcessor_RoutesByEvaluation(t *testing.T) {
	db := memstore.New()
	deps := testDeps(db)

	node := &domain.Node{
		ID:   "split",
		Type: domain.NodeTypeConditionalSplit,
		Data: map[string]any{"expression": map[string]any{
			"groups": []any{map[string]any{
				"conditions": []any{map[string]any{"field": "status", "operator": "equals", "value": "new"}},
			}},
		}},
	}
	wf := testWorkflow(
		[]*domain.Node{node, {ID: "yes-node", Type: domain.NodeTypeReturnToParent}, {ID: "no-node", Type: domain.NodeTypeReturnToParent}},
		[]*domain.Edge{
			{SourceNodeID: "split", TargetNodeID: "yes-node", SourceHandle: "yes"},
			{SourceNodeID: "split", TargetNodeID: "no-node", SourceHandle: "no"},
		},
	)

	newContact := &domain.Contact{ID: "c-1", Status: domain.StatusNew}
	p := ConditionalSplitProcessor{Deps: deps}
	result, err := p.Execute(context.Background(), node, &engine.StepContext{Workflow: wf, Contact: newContact})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.NextNodeID == nil || *result.NextNodeID != "yes-node" {
		t.Fatalf("got %+v, want yes-node", result)
	}

	qualifiedContact := &domain.Contact{ID: "c-2", Status: domain.StatusQualified}
	result, err = p.Execute(context.Background(), node, &engine.StepContext{Workflow: wf, Contact: qualifiedContact})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.NextNodeID == nil || *result.NextNodeID != "no-node" {
		t.Fatalf("got %+v, want no-node", result)
	}
}

func TestConditionalSplitProcessor_NoEdgeOnChosenHandleCompletes(t *testing.T) {
	db := memstore.New()
	deps := testDeps(db)
	node := &domain.Node{
		ID:   "split",
		Type: domain.NodeTypeConditionalSplit,
		Data: map[string]any{"expression": map[string]any{
			"groups": []any{map[string]any{
				"conditions": []any{map[string]any{"field": "status", "operator": "equals", "value": "new"}},
			}},
		}},
	}
	wf := testWorkflow([]*domain.Node{node}, nil)
	p := ConditionalSplitProcessor{Deps: deps}
	result, err := p.Execute(context.Background(), node, &engine.StepContext{Workflow: wf, Contact: &domain.Contact{Status: domain.StatusNew}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.NextNodeID != nil {
		t.Fatalf("expected nil next node, got %v", *result.NextNodeID)
	}
}

func TestSendSMSProcessor_SkipsWithoutPhone(t *testing.T) {
	db := memstore.New()
	deps := testDeps(db)
	node := &domain.Node{ID: "sms", Type: domain.NodeTypeSendSMS, Data: map[string]any{"template_id": "t-1"}}
	wf := testWorkflow([]*domain.Node{node}, nil)

	p := SendSMSProcessor{Deps: deps}
	result, err := p.Execute(context.Background(), node, &engine.StepContext{
		Workflow: wf, Contact: &domain.Contact{ID: "c-1"}, Execution: &domain.Execution{ID: "x-1"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.OutputData["reason"] == nil {
		t.Fatalf("expected skip reason, got %+v", result)
	}
}

func TestSendSMSProcessor_FailsWithoutSettings(t *testing.T) {
	db := memstore.New()
	db.PutTemplate(&domain.Template{ID: "t-1", Body: "Hi {{first_name}}"})
	deps := testDeps(db)
	node := &domain.Node{ID: "sms", Type: domain.NodeTypeSendSMS, Data: map[string]any{"template_id": "t-1"}}
	wf := testWorkflow([]*domain.Node{node}, nil)

	p := SendSMSProcessor{Deps: deps}
	_, err := p.Execute(context.Background(), node, &engine.StepContext{
		Workflow: wf, Contact: &domain.Contact{ID: "c-1", Phone: "+15551234567"}, Execution: &domain.Execution{ID: "x-1"},
	})
	if err == nil {
		t.Fatal("expected error when no SMS settings configured")
	}
}

func TestSendSMSProcessor_SendsAndAppendsMessageID(t *testing.T) {
	db := memstore.New()
	db.PutTemplate(&domain.Template{ID: "t-1", Body: "Hi {{first_name}}"})
	db.PutSettings(&domain.ProviderSettings{SMSAccountSID: "AC", SMSAuthToken: "tok", SMSFromNumber: "+1000"})
	deps := testDeps(db)

	node := &domain.Node{ID: "sms", Type: domain.NodeTypeSendSMS, Data: map[string]any{"template_id": "t-1"}}
	next := &domain.Node{ID: "next", Type: domain.NodeTypeReturnToParent}
	wf := testWorkflow([]*domain.Node{node, next}, []*domain.Edge{{SourceNodeID: "sms", TargetNodeID: "next"}})

	execution := &domain.Execution{ID: "x-1"}
	p := SendSMSProcessor{Deps: deps}
	result, err := p.Execute(context.Background(), node, &engine.StepContext{
		Workflow: wf, Contact: &domain.Contact{ID: "c-1", FirstName: "Ana", Phone: "+15551234567"}, Execution: execution,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.NextNodeID == nil || *result.NextNodeID != "next" {
		t.Fatalf("got %+v, want next=next", result)
	}
	ids, ok := result.ExecutionData["sent_message_ids"].([]string)
	if !ok || len(ids) != 1 {
		t.Fatalf("expected one sent message id, got %+v", result.ExecutionData)
	}
}

func TestUpdateStatusProcessor_MutatesContact(t *testing.T) {
	db := memstore.New()
	contact := &domain.Contact{ID: "c-1", Status: domain.StatusNew}
	db.PutContact(contact)
	deps := testDeps(db)

	node := &domain.Node{ID: "update", Type: domain.NodeTypeUpdateStatus, Data: map[string]any{"status": "contacted"}}
	wf := testWorkflow([]*domain.Node{node}, nil)

	p := UpdateStatusProcessor{Deps: deps}
	_, err := p.Execute(context.Background(), node, &engine.StepContext{Workflow: wf, Contact: contact})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got, _ := db.Contacts().Get(context.Background(), "c-1")
	if got.Status != domain.StatusContacted {
		t.Fatalf("got status %q, want contacted", got.Status)
	}
}

func TestStopOnReplyProcessor_StopsOnInboundReply(t *testing.T) {
	db := memstore.New()
	enrolledAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db.Messages().Create(context.Background(), &domain.Message{
		ID: "m-1", ContactID: "c-1", Direction: domain.DirectionInbound, Channel: domain.ChannelSMSMessage,
		CreatedAt: enrolledAt.Add(time.Hour),
	})
	deps := testDeps(db)

	node := &domain.Node{ID: "stop", Type: domain.NodeTypeStopOnReply, Data: map[string]any{"channel": "sms"}}
	wf := testWorkflow([]*domain.Node{node}, nil)

	p := StopOnReplyProcessor{Deps: deps}
	result, err := p.Execute(context.Background(), node, &engine.StepContext{
		Workflow: wf, Contact: &domain.Contact{ID: "c-1"},
		Enrollment: &domain.Enrollment{ID: "e-1", EnrolledAt: enrolledAt},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.StopEnrollment || result.StopReason != "Contact replied via sms" {
		t.Fatalf("got %+v, want stop via sms", result)
	}
}

func TestStopOnReplyProcessor_PassesThroughWithoutReply(t *testing.T) {
	db := memstore.New()
	deps := testDeps(db)

	node := &domain.Node{ID: "stop", Type: domain.NodeTypeStopOnReply, Data: map[string]any{"channel": "sms"}}
	next := &domain.Node{ID: "next", Type: domain.NodeTypeReturnToParent}
	wf := testWorkflow([]*domain.Node{node, next}, []*domain.Edge{{SourceNodeID: "stop", TargetNodeID: "next"}})

	p := StopOnReplyProcessor{Deps: deps}
	result, err := p.Execute(context.Background(), node, &engine.StepContext{
		Workflow: wf, Contact: &domain.Contact{ID: "c-1"},
		Enrollment: &domain.Enrollment{ID: "e-1", EnrolledAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.StopEnrollment {
		t.Fatal("expected pass-through, got StopEnrollment=true")
	}
	if result.NextNodeID == nil || *result.NextNodeID != "next" {
		t.Fatalf("got %+v, want next=next", result)
	}
}

func TestReturnToParentProcessor_ResolvesOutputVariables(t *testing.T) {
	node := &domain.Node{ID: "return", Type: domain.NodeTypeReturnToParent, Data: map[string]any{
		"return_status":    "qualified",
		"output_variables": map[string]any{"name": "contact.first_name"},
	}}
	wf := testWorkflow([]*domain.Node{node}, nil)

	result, err := ReturnToParentProcessor{}.Execute(context.Background(), node, &engine.StepContext{
		Workflow: wf, Contact: &domain.Contact{FirstName: "Ana"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	outputs, ok := result.OutputData["output_variables"].(map[string]any)
	if !ok || outputs["name"] != "Ana" {
		t.Fatalf("got %+v, want name=Ana", result.OutputData)
	}
}

type stubEnroller struct {
	enrollmentID string
	err          error
}

func (s stubEnroller) InvokeSubWorkflow(context.Context, string, string, map[string]any) (string, error) {
	return s.enrollmentID, s.err
}

func TestCallSubWorkflowProcessor_Success(t *testing.T) {
	db := memstore.New()
	deps := testDeps(db)
	deps.Enroller = stubEnroller{enrollmentID: "e-child"}

	node := &domain.Node{ID: "call", Type: domain.NodeTypeCallSubWorkflow, Data: map[string]any{
		"target_workflow_id": "wf-child",
	}}
	next := &domain.Node{ID: "next", Type: domain.NodeTypeReturnToParent}
	wf := testWorkflow([]*domain.Node{node, next}, []*domain.Edge{{SourceNodeID: "call", TargetNodeID: "next"}})

	p := CallSubWorkflowProcessor{Deps: deps}
	result, err := p.Execute(context.Background(), node, &engine.StepContext{
		Workflow: wf, Contact: &domain.Contact{ID: "c-1"}, Execution: &domain.Execution{ID: "x-1"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.OutputData["sub_workflow_enrollment_id"] != "e-child" {
		t.Fatalf("got %+v", result.OutputData)
	}
}
