package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abczzz13/ipfilter"
)

// RuleValue is one configured rule. In YAML it is either a scalar
// ("10.0.0.1", "10.0.0.0/8", "10.0.0.1-10.0.0.9") or a two-element
// sequence holding the low and high bounds of a range.
type RuleValue []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *RuleValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*v = RuleValue{s}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		if len(values) == 0 || len(values) > 2 {
			return fmt.Errorf("line %d: rule must have one or two values, got %d", node.Line, len(values))
		}
		*v = RuleValue(values)
		return nil
	default:
		return fmt.Errorf("line %d: rule must be a string or a [low, high] pair", node.Line)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (v RuleValue) MarshalYAML() (any, error) {
	if len(v) == 1 {
		return v[0], nil
	}
	return []string(v), nil
}

// UnmarshalText reads a single environment list element. Ranges are written
// as "low-high".
func (v *RuleValue) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return fmt.Errorf("empty rule")
	}
	*v = RuleValue{s}
	return nil
}

// Entry converts v to a filter entry.
func (v RuleValue) Entry() ipfilter.Entry {
	return ipfilter.Entry(append([]string(nil), v...))
}

func (v RuleValue) String() string {
	return strings.Join(v, "-")
}
