package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoCandidates is returned when the search output holds no usable product.
var ErrNoCandidates = errors.New("no product candidates in search output")

// ToolError is an inline {"error": ...} payload returned by a pipeline tool.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseCandidates extracts product candidates from the raw Step 1 output.
// A bare {"error": ...} object is reported as *ToolError.
func ParseCandidates(raw string) ([]ProductCandidate, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrNoCandidates
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		if msg, ok := obj["error"].(string); ok {
			return nil, &ToolError{Message: msg}
		}
		if items, ok := obj["products"].([]interface{}); ok {
			return candidatesFrom(items)
		}
		return nil, ErrNoCandidates
	}

	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		var items []interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &items); err != nil {
			continue
		}
		if out, err := candidatesFrom(items); err == nil {
			return out, nil
		}
	}

	return scanArrays(text)
}

// scanArrays returns the first array of named products starting at any '['.
// Citation markers like [1] are skipped.
func scanArrays(text string) ([]ProductCandidate, error) {
	var lastErr error
	decoded := false
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		var items []interface{}
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&items); err != nil {
			lastErr = err
			continue
		}
		decoded = true
		if out, err := candidatesFrom(items); err == nil {
			return out, nil
		}
	}
	if !decoded && lastErr != nil {
		return nil, fmt.Errorf("decode candidate array: %w", lastErr)
	}
	return nil, ErrNoCandidates
}

func candidatesFrom(items []interface{}) ([]ProductCandidate, error) {
	out := make([]ProductCandidate, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name := strings.TrimSpace(stringOf(m["name"]))
		if name == "" {
			continue
		}
		out = append(out, ProductCandidate{
			Name:        name,
			Brand:       strings.TrimSpace(stringOf(m["brand"])),
			Description: stringOf(m["description"]),
			Features:    stringsOf(m["features"]),
		})
	}
	if len(out) == 0 {
		return nil, ErrNoCandidates
	}
	return out, nil
}

func stringOf(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringsOf(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, f := range t {
			if s, ok := f.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return []string{}
		}
		return []string{t}
	default:
		return []string{}
	}
}
