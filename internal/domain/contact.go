package domain

import (
	"strings"
	"time"
)

// ContactStatus is the contact lifecycle status.
type ContactStatus string

const (
	StatusNew          ContactStatus = "new"
	StatusContacted    ContactStatus = "contacted"
	StatusResponded    ContactStatus = "responded"
	StatusQualified    ContactStatus = "qualified"
	StatusDisqualified ContactStatus = "disqualified"
)

// Contact is a messageable person. The engine treats contacts as
// read-mostly; only the update_status processor mutates one. Replied and
// LastContactedAt are derived read-only projections over message history,
// kept on the struct because the condition evaluator's standard field set
// (spec §4.1) names them directly.
type Contact struct {
	ID              string            `json:"id"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	Email           string            `json:"email,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	Status          ContactStatus     `json:"status"`
	DoNotContact    bool              `json:"do_not_contact"`
	Replied         bool              `json:"replied"`
	LastContactedAt *time.Time        `json:"last_contacted_at,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	CustomFields    map[string]string `json:"custom_fields,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// FullName joins first and last name with a single space, trimming either
// half if absent.
func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// HasTag reports case-insensitive tag membership.
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
