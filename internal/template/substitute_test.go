package template

import (
	"testing"

	"github.com/flowengine/engine/internal/domain"
)

func TestSubstitute_ReplacesKnownKeys(t *testing.T) {
	t.Parallel()
	got := Substitute("Hi {{first_name}}, your code is {{code}}", map[string]string{
		"first_name": "Ana",
		"code":       "1234",
	})
	want := "Hi Ana, your code is 1234"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSubstitute_CaseInsensitiveKey(t *testing.T) {
	t.Parallel()
	got := Substitute("Hi {{First_Name}}", map[string]string{"first_name": "Ana"})
	if got != "Hi Ana" {
		t.Errorf("got %q", got)
	}
}

func TestSubstitute_UnresolvedLeftLiteral(t *testing.T) {
	t.Parallel()
	got := Substitute("Hi {{nickname}}", map[string]string{"first_name": "Ana"})
	if got != "Hi {{nickname}}" {
		t.Errorf("unresolved token should be left literal, got %q", got)
	}
}

func TestSubstitute_NoTokens(t *testing.T) {
	t.Parallel()
	got := Substitute("plain text", map[string]string{"first_name": "Ana"})
	if got != "plain text" {
		t.Errorf("got %q", got)
	}
}

func TestContactValues_IncludesStandardAndCustomFields(t *testing.T) {
	t.Parallel()
	c := &domain.Contact{
		FirstName:    "Ana",
		LastName:     "Ruiz",
		Email:        "ana@example.com",
		Phone:        "+1555",
		CustomFields: map[string]string{"plan": "pro"},
	}
	values := ContactValues(c)
	if values["full_name"] != "Ana Ruiz" {
		t.Errorf("expected full_name to be composed, got %q", values["full_name"])
	}
	if values["plan"] != "pro" {
		t.Errorf("expected custom field 'plan' to be present")
	}
}
