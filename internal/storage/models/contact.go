package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ContactModel is the contacts table row. The engine only ever writes
// Status (update_status); every other column is owned by the CRUD API
// outside this module's scope.
type ContactModel struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID              string            `bun:"id,pk"`
	FirstName       string            `bun:"first_name"`
	LastName        string            `bun:"last_name"`
	Email           string            `bun:"email"`
	Phone           string            `bun:"phone"`
	Status          string            `bun:"status,notnull"`
	DoNotContact    bool              `bun:"do_not_contact,notnull"`
	Replied         bool              `bun:"replied,notnull"`
	LastContactedAt *time.Time        `bun:"last_contacted_at"`
	Tags            []string          `bun:"tags,type:jsonb"`
	CustomFields    map[string]string `bun:"custom_fields,type:jsonb"`
	CreatedAt       time.Time         `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull,default:current_timestamp"`
}
