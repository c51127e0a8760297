package policy

import (
	"fmt"
	"regexp"
	"strings"
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Selector addresses a value inside the payload being evaluated (`.` prefix)
// or inside the caller-supplied evaluation context (`$.` prefix). The bare
// prefix selects the whole object.
type Selector struct {
	context bool
	path    []string
}

// ParseSelector parses a selector string, e.g. ".args.foo" or "$.user.id".
func ParseSelector(str string) (Selector, error) {
	source := str
	var sel Selector
	if strings.HasPrefix(str, "$") {
		sel.context = true
		str = str[1:]
	}
	if !strings.HasPrefix(str, ".") {
		return Selector{}, fmt.Errorf("selector %q must start with '.' or '$.'", source)
	}
	str = str[1:]
	if str == "" {
		return sel, nil
	}
	for _, segment := range strings.Split(str, ".") {
		if !segmentPattern.MatchString(segment) {
			return Selector{}, fmt.Errorf("selector %q has invalid segment %q", source, segment)
		}
		sel.path = append(sel.path, segment)
	}
	return sel, nil
}

// MustSelector is like ParseSelector but panics on error. Intended for
// statically known selectors.
func MustSelector(str string) Selector {
	sel, err := ParseSelector(str)
	if err != nil {
		panic(err)
	}
	return sel
}

func (s Selector) String() string {
	var b strings.Builder
	if s.context {
		b.WriteString("$")
	}
	if len(s.path) == 0 {
		b.WriteString(".")
	}
	for _, segment := range s.path {
		b.WriteString(".")
		b.WriteString(segment)
	}
	return b.String()
}

// Select walks the addressed object key by key. The second return is false
// when any intermediate key is missing or a non-object is traversed.
func (s Selector) Select(payload any, context any) (any, bool) {
	value := payload
	if s.context {
		value = context
	}
	for _, segment := range s.path {
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

func (s Selector) MarshalJSON() ([]byte, error) {
	return marshalString(s.String())
}

func (s *Selector) UnmarshalJSON(b []byte) error {
	str, err := unmarshalString(b)
	if err != nil {
		return err
	}
	sel, err := ParseSelector(str)
	if err != nil {
		return err
	}
	*s = sel
	return nil
}
