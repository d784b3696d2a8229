package condition

import "fmt"

// Parse decodes a conditional_split node's "expression" payload into an
// Expression tree. A legacy flat payload ({field,operator,value} with no
// "groups" key) is auto-migrated into a one-group/one-condition tree, per
// spec §4.1.
func Parse(raw map[string]any) (*Expression, error) {
	if raw == nil {
		return &Expression{}, nil
	}

	if groupsRaw, ok := raw["groups"]; ok {
		return parseTree(groupsRaw, raw["group_operator"])
	}

	if _, ok := raw["field"]; ok {
		cond, err := parseCondition(raw)
		if err != nil {
			return nil, err
		}
		return &Expression{
			Groups: []Group{{
				Conditions:      []Condition{cond},
				LogicalOperator: LogicalAnd,
			}},
			GroupOperator: GroupAnd,
		}, nil
	}

	// Empty expression ⇒ true per spec §4.1; an empty tree evaluates that way.
	return &Expression{}, nil
}

func parseTree(groupsRaw any, groupOpRaw any) (*Expression, error) {
	groupsList, ok := groupsRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("condition: groups must be a list")
	}

	expr := &Expression{GroupOperator: toGroupOperator(groupOpRaw)}
	for _, g := range groupsList {
		gm, ok := g.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("condition: group must be an object")
		}
		group := Group{LogicalOperator: toLogicalOperator(gm["logical_operator"])}

		condsRaw, _ := gm["conditions"].([]any)
		for _, c := range condsRaw {
			cm, ok := c.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("condition: condition must be an object")
			}
			cond, err := parseCondition(cm)
			if err != nil {
				return nil, err
			}
			group.Conditions = append(group.Conditions, cond)
		}
		expr.Groups = append(expr.Groups, group)
	}
	return expr, nil
}

func parseCondition(m map[string]any) (Condition, error) {
	field, _ := m["field"].(string)
	op, _ := m["operator"].(string)
	value := stringify(m["value"])

	if field == "" {
		return Condition{}, fmt.Errorf("condition: field is required")
	}
	return Condition{Field: field, Operator: Operator(op), Value: value}, nil
}

func toGroupOperator(v any) GroupOperator {
	if s, ok := v.(string); ok && GroupOperator(s) == GroupOr {
		return GroupOr
	}
	return GroupAnd
}

func toLogicalOperator(v any) LogicalOperator {
	if s, ok := v.(string); ok && LogicalOperator(s) == LogicalOr {
		return LogicalOr
	}
	return LogicalAnd
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
