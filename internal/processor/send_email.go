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

// SendEmailProcessor mirrors SendSMSProcessor (spec §4.2) but requires both
// a non-empty body and subject after substitution, and substitutes a
// subjectOverride when present.
type SendEmailProcessor struct {
	Deps *Deps
}

func (p SendEmailProcessor) Execute(ctx context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	contact := step.Contact

	if contact.Email == "" || contact.DoNotContact {
		reason := "skipped: contact has no email"
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
		return engine.StepResult{}, fmt.Errorf("send_email: %w", err)
	}

	settings, err := p.Deps.Settings.Get(ctx)
	if err != nil {
		return engine.StepResult{}, fmt.Errorf("send_email: loading settings: %w", err)
	}
	if !settings.EmailConfigured() {
		return engine.StepResult{}, fmt.Errorf("send_email: email provider is not configured")
	}

	tmpl, err := p.Deps.Templates.Get(ctx, payload.TemplateID)
	if err != nil {
		return engine.StepResult{}, fmt.Errorf("send_email: loading template: %w", err)
	}

	values := template.ContactValues(contact)
	body := template.Substitute(tmpl.Body, values)
	subject := template.Substitute(tmpl.Subject, values)
	if payload.SubjectOverride != "" {
		subject = template.Substitute(payload.SubjectOverride, values)
	}
	if body == "" || subject == "" {
		return engine.StepResult{}, fmt.Errorf("send_email: body and subject must be non-empty after substitution")
	}

	from := adapter.EmailAddress{Email: settings.EmailFromAddr, Name: settings.EmailFromName}
	if payload.FromOverride != "" {
		from.Email = payload.FromOverride
	}

	msg := &domain.Message{
		ID:          uuid.NewString(),
		ContactID:   contact.ID,
		Channel:     domain.ChannelEmailMessage,
		Direction:   domain.DirectionOutbound,
		Subject:     subject,
		Body:        body,
		Status:      domain.MessageQueued,
		Source:      domain.SourceWorkflow,
		TemplateID:  payload.TemplateID,
		ExecutionID: step.Execution.ID,
		CreatedAt:   step.Now,
		UpdatedAt:   step.Now,
	}
	if err := p.Deps.Messages.Create(ctx, msg); err != nil {
		return engine.StepResult{}, fmt.Errorf("send_email: persisting message: %w", err)
	}

	result, sendErr := p.Deps.Email.SendEmail(ctx, adapter.EmailSettings{
		APIKey:    settings.EmailAPIKey,
		FromEmail: from.Email,
		FromName:  from.Name,
	}, adapter.EmailMessage{To: contact.Email, Subject: subject, Body: body, From: from})
	if sendErr != nil {
		msg.Status = domain.MessageFailed
		msg.ProviderError = sendErr.Error()
		p.Deps.Messages.Update(ctx, msg)
		return engine.StepResult{}, fmt.Errorf("send_email: provider error: %w", sendErr)
	}

	if !result.Success {
		msg.Status = domain.MessageFailed
		msg.ProviderError = result.Error
		p.Deps.Messages.Update(ctx, msg)
		return engine.StepResult{OutputData: map[string]any{"reason": result.Error}, Error: result.Error}, nil
	}

	msg.Status = domain.MessageSent
	msg.ProviderID = result.MessageID
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
