package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OptionalNumber is a form field that may arrive as a JSON number, a numeric
// string, an empty string or null. Set is false for the last two. NaN and
// infinities are rejected.
type OptionalNumber struct {
	Set   bool
	Value float64
}

// UnmarshalJSON implements json.Unmarshaler
func (n *OptionalNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = OptionalNumber{}
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		if raw == "" {
			*n = OptionalNumber{}
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("not a number: %s", data)
	}
	*n = OptionalNumber{Set: true, Value: v}
	return nil
}

// MarshalJSON implements json.Marshaler
func (n OptionalNumber) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Float returns the value or nil when the field was absent
func (n OptionalNumber) Float() *float64 {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

// Int returns the value truncated to an int, or nil when absent. Callers check
// the range first.
func (n OptionalNumber) Int() *int {
	if !n.Set {
		return nil
	}
	v := int(n.Value)
	return &v
}

// OptionalFlag is a checkbox-like form field: a JSON bool or one of the
// strings true/false, yes/no, 1/0, on/off. Empty strings and null are unset.
type OptionalFlag struct {
	Set   bool
	Value bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *OptionalFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*f = OptionalFlag{}
		return nil
	case "true":
		*f = OptionalFlag{Set: true, Value: true}
		return nil
	case "false":
		*f = OptionalFlag{Set: true, Value: false}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("not a flag: %s", data)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		*f = OptionalFlag{}
	case "true", "yes", "1", "on":
		*f = OptionalFlag{Set: true, Value: true}
	case "false", "no", "0", "off":
		*f = OptionalFlag{Set: true, Value: false}
	default:
		return fmt.Errorf("not a flag: %s", data)
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (f OptionalFlag) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// True reports whether the flag was given and is true
func (f OptionalFlag) True() bool {
	return f.Set && f.Value
}
