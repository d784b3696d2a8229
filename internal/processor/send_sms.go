package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowengine/engine/internal/adapter"
	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
	"github.com/flowengine/engine/internal/template"
)

// SendSMSProcessor implements spec §4.2's send_sms semantics: skip
// (no error) when the contact has no phone or opted out; fail when
// credentials or the template are missing; otherwise render, persist,
// and dispatch.
type SendSMSProcessor struct {
	Deps *Deps
}

func (p SendSMSProcessor) Execute(ctx context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	contact := step.Contact

	if contact.Phone == "" || contact.DoNotContact {
		reason := "skipped: contact has no phone"
		if contact.DoNotContact {
			reason = "skipped: contact opted out"
		}
		next, ok := step.Workflow.SuccessorByHandle(node.ID, "")
		result := engine.StepResult{OutputData: map[string]any{"reason": reason}}
		if ok {
			result.NextNodeID = &next
		}
		return result, nil
	}

	payload, err := domain.ParseSendMessage(node.Data)
	if err != nil {
		return engine.StepResult{}, fmt.Errorf("send_sms: %w", err)
	}

	settings, err := p.Deps.Settings.Get(ctx)
	if err != nil {
		return engine.StepResult{}, fmt.Errorf("send_sms: loading settings: %w", err)
	}
	if !settings.SMSConfigured() {
		return engine.StepResult{}, fmt.Errorf("send_sms: %s", "SMS provider is not configured")
	}

	tmpl, err := p.Deps.Templates.Get(ctx, payload.TemplateID)
	if err != nil {
		return engine.StepResult{}, fmt.Errorf("send_sms: loading template: %w", err)
	}

	values := template.ContactValues(contact)
	body := template.Substitute(tmpl.Body, values)

	from := settings.SMSFromNumber
	if payload.FromOverride != "" {
		from = payload.FromOverride
	}

	msg := &domain.Message{
		ID:          uuid.NewString(),
		ContactID:   contact.ID,
		Channel:     domain.ChannelSMSMessage,
		Direction:   domain.DirectionOutbound,
		Body:        body,
		Status:      domain.MessageQueued,
		Source:      domain.SourceWorkflow,
		TemplateID:  payload.TemplateID,
		ExecutionID: step.Execution.ID,
		CreatedAt:   step.Now,
		UpdatedAt:   step.Now,
	}
	if err := p.Deps.Messages.Create(ctx, msg); err != nil {
		return engine.StepResult{}, fmt.Errorf("send_sms: persisting message: %w", err)
	}

	result, sendErr := p.Deps.SMS.SendSMS(ctx, adapter.SMSSettings{
		AccountSID:  settings.SMSAccountSID,
		AuthToken:   settings.SMSAuthToken,
		PhoneNumber: from,
	}, adapter.SMSMessage{To: contact.Phone, Body: body, From: from})
	if sendErr != nil {
		msg.Status = domain.MessageFailed
		msg.ProviderError = sendErr.Error()
		p.Deps.Messages.Update(ctx, msg)
		return engine.StepResult{}, fmt.Errorf("send_sms: provider error: %w", sendErr)
	}

	if !result.Success {
		msg.Status = domain.MessageFailed
		msg.ProviderError = result.Error
		p.Deps.Messages.Update(ctx, msg)
		return engine.StepResult{OutputData: map[string]any{"reason": result.Error}, Error: result.Error}, nil
	}

	msg.Status = domain.MessageSent
	msg.ProviderID = result.SID
	p.Deps.Messages.Update(ctx, msg)

	next, ok := step.Workflow.SuccessorByHandle(node.ID, "")
	out := engine.StepResult{
		ExecutionData: map[string]any{"sent_message_ids": appendMessageID(step.Execution.ExecutionData, msg.ID)},
		OutputData:    map[string]any{"message_id": msg.ID},
	}
	if ok {
		out.NextNodeID = &next
	}
	return out, nil
}

// appendMessageID returns the execution's sent_message_ids list with id
// appended, tolerating a nil or freshly-decoded (any-typed) prior value.
func appendMessageID(data map[string]any, id string) []string {
	var ids []string
	if data != nil {
		switch existing := data["sent_message_ids"].(type) {
		case []string:
			ids = append(ids, existing...)
		case []any:
			for _, v := range existing {
				if s, ok := v.(string); ok {
					ids = append(ids, s)
				}
			}
		}
	}
	return append(ids, id)
}
