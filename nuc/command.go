package nuc

import (
	"fmt"
	"strings"
)

// Command is a slash-delimited capability path. The root capability is "/".
type Command string

// RevokeCommand is the reserved revocation command. It is accepted as an
// attenuation of any parent command so that every capability holder can
// issue revocation invocations.
const RevokeCommand Command = "/nuc/revoke"

// ParseCommand checks that a command string is well formed.
func ParseCommand(str string) (Command, error) {
	if !strings.HasPrefix(str, "/") {
		return "", fmt.Errorf("command %q must start with '/'", str)
	}
	return Command(str), nil
}

// Segments returns the path components of the command, with empty components
// filtered out. The root command has no segments.
func (c Command) Segments() []string {
	var segments []string
	for _, segment := range strings.Split(string(c), "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// IsAttenuationOf reports whether c narrows (or equals) the parent command:
// the parent's segments must be a prefix of c's segments. The reserved
// revoke command attenuates any parent.
func (c Command) IsAttenuationOf(parent Command) bool {
	if c == RevokeCommand {
		return true
	}
	child := c.Segments()
	prefix := parent.Segments()
	if len(child) < len(prefix) {
		return false
	}
	for i, segment := range prefix {
		if child[i] != segment {
			return false
		}
	}
	return true
}

func (c Command) String() string {
	return string(c)
}
