package processor

import (
	"context"
	"fmt"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
)

// StopOnReplyProcessor stops the enrollment iff an inbound message exists
// for the contact at or after enrollment.EnrolledAt on the configured
// channel (spec §4.2, P6). With no reply it behaves as pass-through, which
// the spec notes is ambiguous for a typically-terminal node (§9).
type StopOnReplyProcessor struct {
	Deps *Deps
}

func (p StopOnReplyProcessor) Execute(ctx context.Context, node *domain.Node, step *engine.StepContext) (engine.StepResult, error) {
	channelRaw, _ := node.Data["channel"].(string)
	var channel *domain.Channel
	switch domain.ChannelFilter(channelRaw) {
	case domain.ChannelSMS:
		c := domain.ChannelSMSMessage
		channel = &c
	case domain.ChannelEmail:
		c := domain.ChannelEmailMessage
		channel = &c
	case domain.ChannelAny, "":
		channel = nil
	default:
		return engine.StepResult{}, fmt.Errorf("stop_on_reply: unknown channel %q", channelRaw)
	}

	replied, err := p.Deps.Messages.HasInboundSince(ctx, step.Contact.ID, step.Enrollment.EnrolledAt, channel)
	if err != nil {
		return engine.StepResult{}, fmt.Errorf("stop_on_reply: %w", err)
	}

	if replied {
		label := channelRaw
		if label == "" {
			label = string(domain.ChannelAny)
		}
		return engine.StepResult{
			StopEnrollment: true,
			StopReason:     fmt.Sprintf("Contact replied via %s", label),
		}, nil
	}

	next, ok := step.Workflow.SuccessorByHandle(node.ID, "")
	result := engine.StepResult{}
	if ok {
		result.NextNodeID = &next
	}
	return result, nil
}
