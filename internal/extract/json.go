// Package extract recovers structured JSON from free-form model output.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoObject means the text contains no balanced top-level JSON object at
// all, as opposed to containing one that fails to parse.
var ErrNoObject = errors.New("extract: no JSON object found")

// FirstObject returns the first balanced top-level {...} in text, parsed.
// Brace matching is depth-aware and string-aware, so nested objects and
// braces inside string literals do not truncate the candidate. If no balanced
// candidate exists the whole text is tried as a last resort.
func FirstObject(text string) (map[string]any, error) {
	candidate, found := firstBalancedObject(text)
	if found {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			return nil, fmt.Errorf("extract: parse object: %w", err)
		}
		return obj, nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, ErrNoObject
	}
	return obj, nil
}

// FirstRaw returns the first balanced top-level object as raw JSON text, for
// callers that decode into their own types. Validity of the candidate is the
// caller's unmarshal to decide.
func FirstRaw(text string) (string, error) {
	if candidate, found := firstBalancedObject(text); found {
		return candidate, nil
	}
	var probe map[string]any
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return "", ErrNoObject
	}
	return text, nil
}

// ObjectOrEmpty is the forgiving form: any failure yields an empty map.
func ObjectOrEmpty(text string) map[string]any {
	obj, err := FirstObject(text)
	if err != nil {
		return map[string]any{}
	}
	return obj
}

func firstBalancedObject(text string) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
