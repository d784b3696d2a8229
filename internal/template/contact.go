package template

import "github.com/flowengine/engine/internal/domain"

// ContactValues projects a contact's standard placeholder keys (spec §6:
// first_name, last_name, full_name, email, phone) plus its custom fields
// into the flat map Substitute consumes.
func ContactValues(contact *domain.Contact) map[string]string {
	values := map[string]string{
		"first_name": contact.FirstName,
		"last_name":  contact.LastName,
		"full_name":  contact.FullName(),
		"email":      contact.Email,
		"phone":      contact.Phone,
	}
	for k, v := range contact.CustomFields {
		values[k] = v
	}
	return values
}
