package processor

import (
	"time"

	"github.com/flowengine/engine/internal/adapter"
	"github.com/flowengine/engine/internal/condition"
	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
	"github.com/flowengine/engine/internal/store"
)

// Deps bundles the collaborators builtin processors need: repositories for
// the side effects they cause (messages, contacts, templates, settings),
// the outbound provider adapters, and the condition/expression evaluators
// conditional_split relies on. One Deps is shared by every processor
// instance; processors themselves hold no mutable state (spec §4.2 "pure
// function").
type Deps struct {
	Contacts  store.ContactRepository
	Messages  store.MessageRepository
	Templates store.TemplateRepository
	Settings  store.SettingsRepository

	SMS   adapter.SMSSender
	Email adapter.EmailSender

	Conditions *condition.Cache
	RawExpr    *condition.RawExpressionEvaluator

	// Enroller invokes a sub-workflow on behalf of call_sub_workflow. It is
	// an interface, not a concrete *trigger.Enroller, to avoid an import
	// cycle between internal/processor and internal/trigger.
	Enroller SubWorkflowEnroller

	Clock func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

// RegisterBuiltins registers every spec §4.2 node processor against reg,
// mirroring the teacher's builtin.RegisterBuiltins(manager) entry point.
func RegisterBuiltins(reg *Registry, deps *Deps) error {
	regs := map[domain.NodeType]engine.Processor{
		domain.NodeTypeTriggerStart:     TriggerStartProcessor{},
		domain.NodeTypeTimeDelay:        TimeDelayProcessor{},
		domain.NodeTypeConditionalSplit: ConditionalSplitProcessor{Deps: deps},
		domain.NodeTypeSendSMS:          SendSMSProcessor{Deps: deps},
		domain.NodeTypeSendEmail:        SendEmailProcessor{Deps: deps},
		domain.NodeTypeUpdateStatus:     UpdateStatusProcessor{Deps: deps},
		domain.NodeTypeStopOnReply:      StopOnReplyProcessor{Deps: deps},
		domain.NodeTypeCallSubWorkflow:  CallSubWorkflowProcessor{Deps: deps},
		domain.NodeTypeReturnToParent:   ReturnToParentProcessor{},
	}
	for nodeType, p := range regs {
		if err := reg.Register(nodeType, p); err != nil {
			return err
		}
	}
	return nil
}
