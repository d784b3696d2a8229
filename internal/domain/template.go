package domain

import "time"

// Template is a reusable message body (and, for email, subject) that
// send_sms/send_email nodes reference by id (spec §6, "templates" table).
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Channel   Channel   `json:"channel"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
