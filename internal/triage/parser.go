package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/thomas-vilte/triagemate/internal/ai"
)

var (
	errNoJSONObject = errors.New("no JSON object found in completion")
	errSchema       = errors.New("completion does not match the verdict schema")
)

// ParseCompletion turns raw model text into an untyped verdict mapping.
// It tries a strict parse first, then the first balanced {...} span, which
// covers prose and code fences around the object.
func ParseCompletion(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ai.ErrEmptyResponse
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err == nil && raw != nil {
		return raw, nil
	}

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if span, ok := balancedObject(text[start:]); ok {
			raw = nil
			if err := json.Unmarshal([]byte(span), &raw); err == nil && raw != nil {
				return raw, nil
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, errNoJSONObject
}

// balancedObject returns the prefix of s (which starts with '{') up to the
// matching closing brace, skipping braces inside JSON strings.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// checkShape rejects parsed output whose required fields are absent or of the wrong type.
func checkShape(raw map[string]any) error {
	required := []struct {
		field string
		ok    func(any) bool
	}{
		{"summary", isString},
		{"type", isString},
		{"priority_score", func(v any) bool { return isString(v) || isNumber(v) }},
		{"suggested_labels", func(v any) bool { return isString(v) || isList(v) }},
	}

	for _, r := range required {
		v, present := raw[r.field]
		if !present {
			return fmt.Errorf("%w: missing field %q", errSchema, r.field)
		}
		if !r.ok(v) {
			return fmt.Errorf("%w: field %q has type %T", errSchema, r.field, v)
		}
	}

	if v, present := raw["potential_impact"]; present && v != nil && !isString(v) {
		return fmt.Errorf("%w: field %q has type %T", errSchema, "potential_impact", v)
	}
	return nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	}
	return false
}
