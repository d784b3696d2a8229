package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TemplateModel is the templates table row.
type TemplateModel struct {
	bun.BaseModel `bun:"table:templates,alias:t"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Channel   string    `bun:"channel,notnull"`
	Subject   string    `bun:"subject"`
	Body      string    `bun:"body,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ProviderSettingsModel is the provider_settings table row. A single row (id=1)
// holds the Twilio/SendGrid-equivalent credentials (spec §6).
type ProviderSettingsModel struct {
	bun.BaseModel `bun:"table:provider_settings,alias:ps"`

	ID             int    `bun:"id,pk"`
	SMSAccountSID  string `bun:"sms_account_sid"`
	SMSAuthToken   string `bun:"sms_auth_token"`
	SMSFromNumber  string `bun:"sms_from_number"`
	EmailAPIKey    string `bun:"email_api_key"`
	EmailFromAddr  string `bun:"email_from_addr"`
	EmailFromName  string `bun:"email_from_name"`
}
