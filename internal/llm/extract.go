package llm

import (
	"encoding/json"
	"strings"
)

// extractJSON pulls a JSON object out of raw model output. Models routinely
// wrap JSON in prose or fenced code blocks despite instructions not to, so
// this tries, in order: the whole string, a fenced ```json block, and the
// first balanced {...} substring.
func extractJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)

	if obj, err := unmarshalObject(raw); err == nil {
		return obj, nil
	}

	if fenced := extractFenced(raw); fenced != "" {
		if obj, err := unmarshalObject(fenced); err == nil {
			return obj, nil
		}
	}

	if span := extractBalancedBraces(raw); span != "" {
		if obj, err := unmarshalObject(span); err == nil {
			return obj, nil
		}
	}

	return nil, errNotJSON
}

var errNotJSON = &notJSONError{}

type notJSONError struct{}

func (*notJSONError) Error() string { return "llm: response did not contain a valid JSON object" }

func unmarshalObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func extractFenced(s string) string {
	const openMarker = "```json"
	start := strings.Index(s, openMarker)
	if start == -1 {
		start = strings.Index(s, "```")
		if start == -1 {
			return ""
		}
		start += len("```")
	} else {
		start += len(openMarker)
	}
	rest := s[start:]
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

func extractBalancedBraces(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
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
				return s[start : i+1]
			}
		}
	}
	return ""
}
