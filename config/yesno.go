package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// YesNo is a boolean written as "yes" or "no" in the config file.
// true/false and 1/0 are accepted too.
type YesNo bool

// Bool returns the value as a plain bool.
func (y YesNo) Bool() bool { return bool(y) }

// String returns "yes" or "no".
func (y YesNo) String() string {
	if y {
		return "yes"
	}
	return "no"
}

// MarshalYAML implements yaml.Marshaler.
func (y YesNo) MarshalYAML() (interface{}, error) {
	return y.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (y *YesNo) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected yes or no", value.Line)
	}
	b, err := parseYesNo(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*y = YesNo(b)
	return nil
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid yes/no value %q", s)
	}
}
