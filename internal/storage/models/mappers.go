package models

import "github.com/flowengine/engine/internal/domain"

// WorkflowToDomain assembles a domain.Workflow from its row plus the
// already-loaded Nodes/Edges relations.
func WorkflowToDomain(m *WorkflowModel) *domain.Workflow {
	wf := &domain.Workflow{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Enabled:     m.Enabled,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, n := range m.Nodes {
		wf.Nodes = append(wf.Nodes, NodeToDomain(n))
	}
	for _, e := range m.Edges {
		wf.Edges = append(wf.Edges, EdgeToDomain(e))
	}
	return wf
}

func NodeToDomain(m *NodeModel) *domain.Node {
	return &domain.Node{
		ID:         m.ID,
		WorkflowID: m.WorkflowID,
		Type:       domain.NodeType(m.Type),
		Position:   domain.Position{X: m.PositionX, Y: m.PositionY},
		Data:       m.Data,
	}
}

func NodeFromDomain(n *domain.Node) *NodeModel {
	return &NodeModel{
		ID:         n.ID,
		WorkflowID: n.WorkflowID,
		Type:       string(n.Type),
		PositionX:  n.Position.X,
		PositionY:  n.Position.Y,
		Data:       n.Data,
	}
}

func EdgeToDomain(m *EdgeModel) *domain.Edge {
	return &domain.Edge{
		ID:           m.ID,
		WorkflowID:   m.WorkflowID,
		SourceNodeID: m.SourceNodeID,
		TargetNodeID: m.TargetNodeID,
		SourceHandle: m.SourceHandle,
		Label:        m.Label,
	}
}

func EdgeFromDomain(e *domain.Edge) *EdgeModel {
	return &EdgeModel{
		ID:           e.ID,
		WorkflowID:   e.WorkflowID,
		SourceNodeID: e.SourceNodeID,
		TargetNodeID: e.TargetNodeID,
		SourceHandle: e.SourceHandle,
		Label:        e.Label,
	}
}

func ContactToDomain(m *ContactModel) *domain.Contact {
	return &domain.Contact{
		ID:              m.ID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Email:           m.Email,
		Phone:           m.Phone,
		Status:          domain.ContactStatus(m.Status),
		DoNotContact:    m.DoNotContact,
		Replied:         m.Replied,
		LastContactedAt: m.LastContactedAt,
		Tags:            m.Tags,
		CustomFields:    m.CustomFields,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func EnrollmentToDomain(m *EnrollmentModel) *domain.Enrollment {
	return &domain.Enrollment{
		ID:          m.ID,
		WorkflowID:  m.WorkflowID,
		ContactID:   m.ContactID,
		Status:      domain.EnrollmentStatus(m.Status),
		EnrolledAt:  m.EnrolledAt,
		CompletedAt: m.CompletedAt,
		StoppedAt:   m.StoppedAt,
		StopReason:  m.StopReason,
	}
}

func EnrollmentFromDomain(e *domain.Enrollment) *EnrollmentModel {
	return &EnrollmentModel{
		ID:          e.ID,
		WorkflowID:  e.WorkflowID,
		ContactID:   e.ContactID,
		Status:      string(e.Status),
		EnrolledAt:  e.EnrolledAt,
		CompletedAt: e.CompletedAt,
		StoppedAt:   e.StoppedAt,
		StopReason:  e.StopReason,
	}
}

func ExecutionToDomain(m *ExecutionModel) *domain.Execution {
	data := m.ExecutionData
	if data == nil {
		data = map[string]any{}
	}
	return &domain.Execution{
		ID:             m.ID,
		EnrollmentID:   m.EnrollmentID,
		CurrentNodeID:  m.CurrentNodeID,
		Status:         domain.ExecutionStatus(m.Status),
		NextRunAt:      m.NextRunAt,
		LastRunAt:      m.LastRunAt,
		Attempts:       m.Attempts,
		MaxAttempts:    m.MaxAttempts,
		ErrorMessage:   m.ErrorMessage,
		ExecutionData:  data,
		LeaseHolder:    m.LeaseHolder,
		LeaseExpiresAt: m.LeaseExpiresAt,
	}
}

func ExecutionFromDomain(e *domain.Execution) *ExecutionModel {
	return &ExecutionModel{
		ID:             e.ID,
		EnrollmentID:   e.EnrollmentID,
		CurrentNodeID:  e.CurrentNodeID,
		Status:         string(e.Status),
		NextRunAt:      e.NextRunAt,
		LastRunAt:      e.LastRunAt,
		Attempts:       e.Attempts,
		MaxAttempts:    e.MaxAttempts,
		ErrorMessage:   e.ErrorMessage,
		ExecutionData:  e.ExecutionData,
		LeaseHolder:    e.LeaseHolder,
		LeaseExpiresAt: e.LeaseExpiresAt,
	}
}

func LogFromDomain(l *domain.ExecutionLog) *ExecutionLogModel {
	return &ExecutionLogModel{
		ID:           l.ID,
		ExecutionID:  l.ExecutionID,
		EnrollmentID: l.EnrollmentID,
		NodeID:       l.NodeID,
		NodeType:     string(l.NodeType),
		Action:       string(l.Action),
		Status:       string(l.Status),
		Input:        l.Input,
		Output:       l.Output,
		Error:        l.Error,
		DurationMS:   l.DurationMS,
		CreatedAt:    l.CreatedAt,
	}
}

func MessageToDomain(m *MessageModel) *domain.Message {
	return &domain.Message{
		ID:            m.ID,
		ContactID:     m.ContactID,
		Channel:       domain.Channel(m.Channel),
		Direction:     domain.Direction(m.Direction),
		Subject:       m.Subject,
		Body:          m.Body,
		Status:        domain.MessageStatus(m.Status),
		ProviderID:    m.ProviderID,
		ProviderError: m.ProviderError,
		Source:        domain.MessageSource(m.Source),
		TemplateID:    m.TemplateID,
		ExecutionID:   m.ExecutionID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func MessageFromDomain(m *domain.Message) *MessageModel {
	return &MessageModel{
		ID:            m.ID,
		ContactID:     m.ContactID,
		Channel:       string(m.Channel),
		Direction:     string(m.Direction),
		Subject:       m.Subject,
		Body:          m.Body,
		Status:        string(m.Status),
		ProviderID:    m.ProviderID,
		ProviderError: m.ProviderError,
		Source:        string(m.Source),
		TemplateID:    m.TemplateID,
		ExecutionID:   m.ExecutionID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func TemplateToDomain(m *TemplateModel) *domain.Template {
	return &domain.Template{
		ID:        m.ID,
		Name:      m.Name,
		Channel:   domain.Channel(m.Channel),
		Subject:   m.Subject,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func SettingsToDomain(m *ProviderSettingsModel) *domain.ProviderSettings {
	return &domain.ProviderSettings{
		SMSAccountSID: m.SMSAccountSID,
		SMSAuthToken:  m.SMSAuthToken,
		SMSFromNumber: m.SMSFromNumber,
		EmailAPIKey:   m.EmailAPIKey,
		EmailFromAddr: m.EmailFromAddr,
		EmailFromName: m.EmailFromName,
	}
}
