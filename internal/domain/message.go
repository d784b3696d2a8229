package domain

import "time"

// Channel is the transport a Message was sent or received over.
type Channel string

const (
	ChannelSMSMessage   Channel = "sms"
	ChannelEmailMessage Channel = "email"
)

// Direction distinguishes inbound replies from outbound sends.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// MessageStatus tracks a message through provider dispatch.
type MessageStatus string

const (
	MessageQueued    MessageStatus = "queued"
	MessageScheduled MessageStatus = "scheduled"
	MessageSent      MessageStatus = "sent"
	MessageFailed    MessageStatus = "failed"
	MessageDelivered MessageStatus = "delivered"
)

// MessageSource identifies who initiated the message.
type MessageSource string

const (
	SourceManual   MessageSource = "manual"
	SourceWorkflow MessageSource = "workflow"
)

// Message is an outbound or inbound communication with a contact.
type Message struct {
	ID            string        `json:"id"`
	ContactID     string        `json:"contact_id"`
	Channel       Channel       `json:"channel"`
	Direction     Direction     `json:"direction"`
	Subject       string        `json:"subject,omitempty"`
	Body          string        `json:"body"`
	Status        MessageStatus `json:"status"`
	ProviderID    string        `json:"provider_id,omitempty"`
	ProviderError string        `json:"provider_error,omitempty"`
	Source        MessageSource `json:"source"`
	TemplateID    string        `json:"template_id,omitempty"`
	ExecutionID   string        `json:"execution_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
