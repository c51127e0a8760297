// Package policy implements the NUC policy expression language: a small tree
// of selector-based operators combined with and/or/not connectors, evaluated
// against the JSON form of an invocation payload plus an external context.
package policy

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Rule is a single node of a policy expression tree. It is a closed union:
// the operator leaves Equals, NotEquals and AnyOf, and the connectors And,
// Or and Not.
type Rule interface {
	evaluate(payload any, context any) bool
	shape() Shape

	json.Marshaler
}

// Policy is an ordered rule list evaluated as an implicit top-level AND.
type Policy []Rule

// Evaluate runs every rule against the payload and context, short-circuiting
// on the first rule that does not hold.
func (p Policy) Evaluate(payload any, context any) bool {
	for _, rule := range p {
		if !rule.evaluate(payload, context) {
			return false
		}
	}
	return true
}

// Shape describes the size of a policy tree: the longest root-to-leaf path
// and the widest fan-out at any node. It exists as a resource-exhaustion
// guard and plays no part in evaluation.
type Shape struct {
	MaxDepth int
	MaxWidth int
}

// TreeShape computes the aggregate shape across all rules in the policy.
// An empty policy has zero depth and width.
func (p Policy) TreeShape() Shape {
	var agg Shape
	for _, rule := range p {
		s := rule.shape()
		if s.MaxDepth > agg.MaxDepth {
			agg.MaxDepth = s.MaxDepth
		}
		if s.MaxWidth > agg.MaxWidth {
			agg.MaxWidth = s.MaxWidth
		}
	}
	return agg
}

type equals struct {
	selector Selector
	value    any
}

type notEquals struct {
	selector Selector
	value    any
}

type anyOf struct {
	selector Selector
	options  []any
}

type and struct {
	children []Rule
}

type or struct {
	children []Rule
}

type not struct {
	child Rule
}

// Equals matches when the selected value deep-equals the literal.
func Equals(selector Selector, value any) Rule {
	return equals{selector, normalize(value)}
}

// NotEquals matches when the selected value does not deep-equal the literal,
// including when the selector resolves to nothing at all.
func NotEquals(selector Selector, value any) Rule {
	return notEquals{selector, normalize(value)}
}

// AnyOf matches when the selected value deep-equals any of the options.
func AnyOf(selector Selector, options ...any) Rule {
	normalized := make([]any, len(options))
	for i, option := range options {
		normalized[i] = normalize(option)
	}
	return anyOf{selector, normalized}
}

// And matches when every child matches. Empty child lists are rejected here
// so they can never reach evaluation.
func And(children ...Rule) (Rule, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("'and' requires at least one child rule")
	}
	return and{children}, nil
}

// Or matches when at least one child matches. Empty child lists are rejected.
func Or(children ...Rule) (Rule, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("'or' requires at least one child rule")
	}
	return or{children}, nil
}

// Not matches when its child does not.
func Not(child Rule) Rule {
	return not{child}
}

func (r equals) evaluate(payload any, context any) bool {
	value, ok := r.selector.Select(payload, context)
	return ok && reflect.DeepEqual(value, r.value)
}

func (r notEquals) evaluate(payload any, context any) bool {
	value, ok := r.selector.Select(payload, context)
	return !ok || !reflect.DeepEqual(value, r.value)
}

func (r anyOf) evaluate(payload any, context any) bool {
	value, ok := r.selector.Select(payload, context)
	if !ok {
		return false
	}
	for _, option := range r.options {
		if reflect.DeepEqual(value, option) {
			return true
		}
	}
	return false
}

func (r and) evaluate(payload any, context any) bool {
	for _, child := range r.children {
		if !child.evaluate(payload, context) {
			return false
		}
	}
	return true
}

func (r or) evaluate(payload any, context any) bool {
	for _, child := range r.children {
		if child.evaluate(payload, context) {
			return true
		}
	}
	return false
}

func (r not) evaluate(payload any, context any) bool {
	return !r.child.evaluate(payload, context)
}

func (r equals) shape() Shape {
	return Shape{MaxDepth: 1, MaxWidth: 1}
}

func (r notEquals) shape() Shape {
	return Shape{MaxDepth: 1, MaxWidth: 1}
}

func (r anyOf) shape() Shape {
	return Shape{MaxDepth: 1, MaxWidth: max(len(r.options), 1)}
}

func (r and) shape() Shape {
	return connectorShape(r.children)
}

func (r or) shape() Shape {
	return connectorShape(r.children)
}

func (r not) shape() Shape {
	s := r.child.shape()
	return Shape{MaxDepth: s.MaxDepth + 1, MaxWidth: s.MaxWidth}
}

func connectorShape(children []Rule) Shape {
	agg := Shape{MaxWidth: len(children)}
	for _, child := range children {
		s := child.shape()
		if s.MaxDepth > agg.MaxDepth {
			agg.MaxDepth = s.MaxDepth
		}
		if s.MaxWidth > agg.MaxWidth {
			agg.MaxWidth = s.MaxWidth
		}
	}
	agg.MaxDepth++
	return agg
}

// normalize passes a literal through JSON so that evaluation compares
// decoded-JSON representations on both sides (numbers as float64, objects as
// map[string]any).
func normalize(value any) any {
	b, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return value
	}
	return out
}
