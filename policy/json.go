package policy

import (
	"encoding/json"
	"fmt"
)

// Wire operation names.
const (
	opEquals    = "=="
	opNotEquals = "!="
	opAnyOf     = "anyOf"
	opAnd       = "and"
	opOr        = "or"
	opNot       = "not"
)

func (r equals) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{opEquals, r.selector, r.value})
}

func (r notEquals) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{opNotEquals, r.selector, r.value})
}

func (r anyOf) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{opAnyOf, r.selector, r.options})
}

func (r and) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{opAnd, r.children})
}

func (r or) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{opOr, r.children})
}

func (r not) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{opNot, r.child})
}

func (p *Policy) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("policy must be an array of rules: %s", err)
	}
	rules := make(Policy, 0, len(raw))
	for _, item := range raw {
		rule, err := parseRule(item)
		if err != nil {
			return err
		}
		rules = append(rules, rule)
	}
	*p = rules
	return nil
}

func parseRule(b []byte) (Rule, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("rule must be an array: %s", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("rule is empty")
	}
	op, err := unmarshalString(raw[0])
	if err != nil {
		return nil, fmt.Errorf("rule operator must be a string: %s", err)
	}

	switch op {
	case opEquals, opNotEquals:
		sel, value, err := parseOperator(op, raw)
		if err != nil {
			return nil, err
		}
		if op == opEquals {
			return equals{sel, value}, nil
		}
		return notEquals{sel, value}, nil
	case opAnyOf:
		sel, value, err := parseOperator(op, raw)
		if err != nil {
			return nil, err
		}
		options, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("'anyOf' options must be an array")
		}
		return anyOf{sel, options}, nil
	case opAnd, opOr:
		children, err := parseChildren(op, raw)
		if err != nil {
			return nil, err
		}
		if op == opAnd {
			return And(children...)
		}
		return Or(children...)
	case opNot:
		if len(raw) != 2 {
			return nil, fmt.Errorf("'not' takes exactly one rule")
		}
		child, err := parseRule(raw[1])
		if err != nil {
			return nil, err
		}
		return Not(child), nil
	}
	return nil, fmt.Errorf("unknown policy operator %q", op)
}

func parseOperator(op string, raw []json.RawMessage) (Selector, any, error) {
	if len(raw) != 3 {
		return Selector{}, nil, fmt.Errorf("%q takes a selector and a value", op)
	}
	var sel Selector
	if err := json.Unmarshal(raw[1], &sel); err != nil {
		return Selector{}, nil, err
	}
	var value any
	if err := json.Unmarshal(raw[2], &value); err != nil {
		return Selector{}, nil, err
	}
	return sel, value, nil
}

func parseChildren(op string, raw []json.RawMessage) ([]Rule, error) {
	if len(raw) != 2 {
		return nil, fmt.Errorf("%q takes a rule array", op)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw[1], &items); err != nil {
		return nil, fmt.Errorf("%q children must be an array: %s", op, err)
	}
	children := make([]Rule, 0, len(items))
	for _, item := range items {
		child, err := parseRule(item)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func marshalString(str string) ([]byte, error) {
	return json.Marshal(str)
}

func unmarshalString(b []byte) (string, error) {
	var str string
	err := json.Unmarshal(b, &str)
	return str, err
}
