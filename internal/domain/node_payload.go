package domain

import "fmt"

// DurationUnit is the closed set of units time_delay accepts.
type DurationUnit string

const (
	DurationMinutes DurationUnit = "minutes"
	DurationHours   DurationUnit = "hours"
	DurationDays    DurationUnit = "days"
)

// ChannelFilter is the closed set of channels stop_on_reply can filter by.
type ChannelFilter string

const (
	ChannelSMS   ChannelFilter = "sms"
	ChannelEmail ChannelFilter = "email"
	ChannelAny   ChannelFilter = "any"
)

// SubWorkflowMode controls whether call_sub_workflow proceeds immediately
// or records a pending join marker (see spec §4.5/§9).
type SubWorkflowMode string

const (
	SubWorkflowAsync SubWorkflowMode = "async"
	SubWorkflowSync  SubWorkflowMode = "sync"
)

// OnFailurePolicy controls call_sub_workflow behavior when the target
// workflow cannot be invoked.
type OnFailurePolicy string

const (
	OnFailureContinue OnFailurePolicy = "continue"
	OnFailureFail     OnFailurePolicy = "fail"
)

// validateNodePayload checks the minimal required keys for each node type
// are present with the expected shape. Per spec §9, unknown keys are
// ignored and missing required keys fail at save time, not at runtime.
func validateNodePayload(n *Node) error {
	switch n.Type {
	case NodeTypeTimeDelay:
		if _, ok := n.Data["duration"]; !ok {
			return missingField(n, "duration")
		}
		if _, ok := n.Data["unit"]; !ok {
			return missingField(n, "unit")
		}
	case NodeTypeConditionalSplit:
		if _, ok := n.Data["expression"]; !ok {
			return missingField(n, "expression")
		}
	case NodeTypeSendSMS:
		if _, ok := n.Data["template_id"]; !ok {
			return missingField(n, "template_id")
		}
	case NodeTypeSendEmail:
		if _, ok := n.Data["template_id"]; !ok {
			return missingField(n, "template_id")
		}
	case NodeTypeUpdateStatus:
		if _, ok := n.Data["status"]; !ok {
			return missingField(n, "status")
		}
	case NodeTypeStopOnReply:
		if _, ok := n.Data["channel"]; !ok {
			return missingField(n, "channel")
		}
	case NodeTypeCallSubWorkflow:
		if _, ok := n.Data["target_workflow_id"]; !ok {
			return missingField(n, "target_workflow_id")
		}
	case NodeTypeTriggerStart, NodeTypeReturnToParent:
		// no required keys
	}
	return nil
}

func missingField(n *Node, field string) error {
	return &ValidationError{Field: "nodes", Message: fmt.Sprintf("node %s (%s) missing required field %q", n.ID, n.Type, field)}
}

// TimeDelayPayload is the parsed shape of a time_delay node's Data.
type TimeDelayPayload struct {
	Duration float64
	Unit     DurationUnit
}

// ParseTimeDelay extracts and validates the time_delay payload.
func ParseTimeDelay(data map[string]any) (TimeDelayPayload, error) {
	var p TimeDelayPayload
	d, ok := toFloat(data["duration"])
	if !ok {
		return p, fmt.Errorf("time_delay: duration must be numeric")
	}
	p.Duration = d

	unit, _ := data["unit"].(string)
	switch DurationUnit(unit) {
	case DurationMinutes, DurationHours, DurationDays:
		p.Unit = DurationUnit(unit)
	default:
		return p, fmt.Errorf("time_delay: unknown unit %q", unit)
	}
	return p, nil
}

// SendMessagePayload is the shared shape of send_sms / send_email payloads.
type SendMessagePayload struct {
	TemplateID      string
	FromOverride    string
	SubjectOverride string
}

// ParseSendMessage extracts template id and optional overrides.
func ParseSendMessage(data map[string]any) (SendMessagePayload, error) {
	var p SendMessagePayload
	tid, _ := data["template_id"].(string)
	if tid == "" {
		return p, fmt.Errorf("template_id is required")
	}
	p.TemplateID = tid
	p.FromOverride, _ = data["from_override"].(string)
	p.SubjectOverride, _ = data["subject_override"].(string)
	return p, nil
}

// CallSubWorkflowPayload is the parsed shape of a call_sub_workflow node.
type CallSubWorkflowPayload struct {
	TargetWorkflowID string
	InputMappings    map[string]string
	Mode             SubWorkflowMode
	OnFailure        OnFailurePolicy
}

// ParseCallSubWorkflow extracts the sub-workflow invocation payload.
func ParseCallSubWorkflow(data map[string]any) (CallSubWorkflowPayload, error) {
	var p CallSubWorkflowPayload
	p.TargetWorkflowID, _ = data["target_workflow_id"].(string)
	if p.TargetWorkflowID == "" {
		return p, fmt.Errorf("target_workflow_id is required")
	}

	p.InputMappings = make(map[string]string)
	if raw, ok := data["input_mappings"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				p.InputMappings[k] = s
			}
		}
	}

	mode, _ := data["mode"].(string)
	switch SubWorkflowMode(mode) {
	case SubWorkflowSync:
		p.Mode = SubWorkflowSync
	default:
		p.Mode = SubWorkflowAsync
	}

	onFailure, _ := data["on_failure"].(string)
	switch OnFailurePolicy(onFailure) {
	case OnFailureFail:
		p.OnFailure = OnFailureFail
	default:
		p.OnFailure = OnFailureContinue
	}
	return p, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
