package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func payloadFixture(t *testing.T) map[string]any {
	t.Helper()
	var payload map[string]any
	err := json.Unmarshal([]byte(`{
		"cmd": "/nil/db",
		"args": {"foo": 42, "bar": "baz", "nested": {"ok": true}}
	}`), &payload)
	require.NoError(t, err)
	return payload
}

func TestEquals(t *testing.T) {
	payload := payloadFixture(t)

	require.True(t, Policy{Equals(MustSelector(".args.foo"), 42)}.Evaluate(payload, nil))
	require.False(t, Policy{Equals(MustSelector(".args.foo"), 43)}.Evaluate(payload, nil))
	require.True(t, Policy{Equals(MustSelector(".args.nested"), map[string]any{"ok": true})}.Evaluate(payload, nil))

	// a missing key equals nothing
	require.False(t, Policy{Equals(MustSelector(".args.missing"), nil)}.Evaluate(payload, nil))
}

func TestNotEquals(t *testing.T) {
	payload := payloadFixture(t)

	require.False(t, Policy{NotEquals(MustSelector(".args.foo"), 42)}.Evaluate(payload, nil))
	require.True(t, Policy{NotEquals(MustSelector(".args.foo"), 43)}.Evaluate(payload, nil))

	// a missing key differs from everything
	require.True(t, Policy{NotEquals(MustSelector(".args.missing"), nil)}.Evaluate(payload, nil))
}

func TestAnyOf(t *testing.T) {
	payload := payloadFixture(t)

	require.True(t, Policy{AnyOf(MustSelector(".args.bar"), "qux", "baz")}.Evaluate(payload, nil))
	require.False(t, Policy{AnyOf(MustSelector(".args.bar"), "qux", "zap")}.Evaluate(payload, nil))
	require.False(t, Policy{AnyOf(MustSelector(".args.missing"), "baz")}.Evaluate(payload, nil))
}

func TestAnyOfSingletonEqualsEquivalence(t *testing.T) {
	payload := payloadFixture(t)
	for _, value := range []any{42, "baz", true, nil} {
		sel := MustSelector(".args.foo")
		require.Equal(t,
			Policy{Equals(sel, value)}.Evaluate(payload, nil),
			Policy{AnyOf(sel, value)}.Evaluate(payload, nil),
		)
	}
}

func TestConnectors(t *testing.T) {
	payload := payloadFixture(t)
	yes := Equals(MustSelector(".args.foo"), 42)
	no := Equals(MustSelector(".args.foo"), 43)

	both, err := And(yes, no)
	require.NoError(t, err)
	require.False(t, Policy{both}.Evaluate(payload, nil))

	either, err := Or(yes, no)
	require.NoError(t, err)
	require.True(t, Policy{either}.Evaluate(payload, nil))

	require.False(t, Policy{Not(yes)}.Evaluate(payload, nil))
	require.True(t, Policy{Not(no)}.Evaluate(payload, nil))
}

func TestNotInvertsEverything(t *testing.T) {
	payload := payloadFixture(t)
	rules := []Rule{
		Equals(MustSelector(".args.foo"), 42),
		NotEquals(MustSelector(".cmd"), "/nil/db"),
		AnyOf(MustSelector(".args.bar"), "baz"),
	}
	for _, rule := range rules {
		require.Equal(t,
			!Policy{rule}.Evaluate(payload, nil),
			Policy{Not(rule)}.Evaluate(payload, nil),
		)
	}
}

func TestEmptyConnectorsRejected(t *testing.T) {
	_, err := And()
	require.Error(t, err)
	_, err = Or()
	require.Error(t, err)
}

func TestEmptyPolicyHolds(t *testing.T) {
	require.True(t, Policy{}.Evaluate(payloadFixture(t), nil))
}

func TestContextSelector(t *testing.T) {
	payload := payloadFixture(t)
	context := map[string]any{"user": map[string]any{"id": "alice"}}

	require.True(t, Policy{Equals(MustSelector("$.user.id"), "alice")}.Evaluate(payload, context))
	require.False(t, Policy{Equals(MustSelector("$.user.id"), "bob")}.Evaluate(payload, context))
	require.True(t, Policy{Equals(MustSelector("$."), context)}.Evaluate(payload, context))
	require.True(t, Policy{Equals(MustSelector("."), payload)}.Evaluate(payload, context))
}

func TestSelectorParse(t *testing.T) {
	for _, str := range []string{".", "$.", ".args.foo", "$.a_b-c.d0"} {
		sel, err := ParseSelector(str)
		require.NoError(t, err)
		require.Equal(t, str, sel.String())
	}
	for _, str := range []string{"", "args", "..", ".args..foo", ".args.fo o", "$args", ".args.f*o"} {
		_, err := ParseSelector(str)
		require.Error(t, err, "expected %q to fail", str)
	}
}

func TestTreeShape(t *testing.T) {
	leaf := Equals(MustSelector(".a"), 1)
	require.Equal(t, Shape{MaxDepth: 1, MaxWidth: 1}, Policy{leaf}.TreeShape())

	wide := AnyOf(MustSelector(".a"), 1, 2, 3, 4)
	require.Equal(t, Shape{MaxDepth: 1, MaxWidth: 4}, Policy{wide}.TreeShape())

	inner, err := Or(leaf, leaf, leaf)
	require.NoError(t, err)
	outer, err := And(inner, leaf)
	require.NoError(t, err)
	require.Equal(t, Shape{MaxDepth: 3, MaxWidth: 3}, Policy{outer}.TreeShape())
	require.Equal(t, Shape{MaxDepth: 4, MaxWidth: 3}, Policy{Not(outer)}.TreeShape())

	require.Equal(t, Shape{}, Policy{}.TreeShape())
}

func TestJSONRoundTrip(t *testing.T) {
	src := `[
		["==",".args.foo",42],
		["!=","$.role","admin"],
		["anyOf",".cmd",["/nil","/nil/db"]],
		["and",[["==",".a",1],["not",["or",[["==",".b",2]]]]]]
	]`
	var p Policy
	require.NoError(t, json.Unmarshal([]byte(src), &p))
	require.Len(t, p, 4)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, src, string(out))
}

func TestJSONParseErrors(t *testing.T) {
	for _, src := range []string{
		`{"==": 1}`,
		`[["=="]]`,
		`[["==",".a"]]`,
		`[["and",[]]]`,
		`[["or",[]]]`,
		`[["not"]]`,
		`[["anyOf",".a",42]]`,
		`[["like",".a","x"]]`,
		`[["==","args.a",1]]`,
	} {
		var p Policy
		require.Error(t, json.Unmarshal([]byte(src), &p), "expected %q to fail", src)
	}
}

func TestWireValuesCompareAgainstConstructedLiterals(t *testing.T) {
	var p Policy
	require.NoError(t, json.Unmarshal([]byte(`[["==",".args.foo",42]]`), &p))
	require.True(t, p.Evaluate(payloadFixture(t), nil))
}
