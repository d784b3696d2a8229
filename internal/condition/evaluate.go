package condition

import (
	"strconv"
	"strings"

	"github.com/flowengine/engine/internal/domain"
)

// Evaluate runs expr against contact and returns the boolean result.
// Empty expression and empty group both evaluate to true (spec §4.1).
func Evaluate(expr *Expression, contact *domain.Contact) bool {
	if expr == nil || len(expr.Groups) == 0 {
		return true
	}

	result := expr.GroupOperator == GroupAnd
	for _, g := range expr.Groups {
		gr := evaluateGroup(g, contact)
		switch expr.GroupOperator {
		case GroupOr:
			result = result || gr
		default:
			result = result && gr
		}
	}
	return result
}

func evaluateGroup(g Group, contact *domain.Contact) bool {
	if len(g.Conditions) == 0 {
		return true
	}

	result := g.LogicalOperator == LogicalAnd
	for _, c := range g.Conditions {
		cr := evaluateCondition(c, contact)
		switch g.LogicalOperator {
		case LogicalOr:
			result = result || cr
		default:
			result = result && cr
		}
	}
	return result
}

func evaluateCondition(c Condition, contact *domain.Contact) bool {
	actual := resolveField(contact, c.Field)

	switch c.Operator {
	case OpEquals:
		return strings.EqualFold(actual, c.Value)
	case OpNotEquals:
		return !strings.EqualFold(actual, c.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	case OpNotContains:
		return !strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(strings.ToLower(actual), strings.ToLower(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(strings.ToLower(actual), strings.ToLower(c.Value))
	case OpIsEmpty:
		return strings.TrimSpace(actual) == ""
	case OpIsNotEmpty:
		return strings.TrimSpace(actual) != ""
	case OpGreaterThan:
		af, aok := parseFloat(actual)
		bf, bok := parseFloat(c.Value)
		return aok && bok && af > bf
	case OpLessThan:
		af, aok := parseFloat(actual)
		bf, bok := parseFloat(c.Value)
		return aok && bok && af < bf
	default:
		return false
	}
}

// resolveField implements the standard-field → custom-field → tag
// resolution order from spec §4.1. Missing fields resolve to "".
func resolveField(contact *domain.Contact, field string) string {
	switch strings.ToLower(field) {
	case "first_name":
		return contact.FirstName
	case "last_name":
		return contact.LastName
	case "email":
		return contact.Email
	case "phone":
		return contact.Phone
	case "status":
		return string(contact.Status)
	case "replied":
		return strconv.FormatBool(contact.Replied)
	case "last_contacted":
		if contact.LastContactedAt == nil {
			return ""
		}
		return contact.LastContactedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	for name, value := range contact.CustomFields {
		if strings.EqualFold(name, field) {
			return value
		}
	}

	if contact.HasTag(field) {
		return "true"
	}

	return ""
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
