package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidJSON is returned when neither the strict nor the salvage decode
// yields a JSON object.
var ErrInvalidJSON = errors.New("invalid JSON response from language model")

// DecodeJSON decodes a model reply into out. Code fences are stripped and the
// whole text is decoded first; on failure the first balanced {...} span is
// decoded instead.
func DecodeJSON(raw string, out interface{}) error {
	cleaned := StripCodeFence(raw)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	if span, ok := firstObject(cleaned); ok {
		if err := json.Unmarshal([]byte(span), out); err == nil {
			return nil
		}
	}

	return ErrInvalidJSON
}

// StripCodeFence removes a leading ```json (or bare ```) fence and a trailing
// ``` fence.
func StripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 && !strings.Contains(cleaned[:nl], "{") {
			cleaned = cleaned[nl+1:]
		} else {
			cleaned = strings.TrimPrefix(cleaned, "json")
			cleaned = strings.TrimPrefix(cleaned, "JSON")
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// firstObject returns the first balanced {...} span of s, ignoring braces
// inside JSON strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
