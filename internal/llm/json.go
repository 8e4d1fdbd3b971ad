package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("llm: response contains no JSON object")

// ExtractJSON pulls a JSON object out of model output. Markdown code fences
// are stripped first; if the remainder is not valid JSON the outermost
// {...} span is tried.
func ExtractJSON(content string) (json.RawMessage, error) {
	clean := stripFences(strings.TrimSpace(content))
	if json.Valid([]byte(clean)) && strings.HasPrefix(clean, "{") {
		return json.RawMessage(clean), nil
	}

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start == -1 || end <= start {
		return nil, ErrNoJSON
	}
	span := clean[start : end+1]
	if !json.Valid([]byte(span)) {
		return nil, ErrNoJSON
	}
	return json.RawMessage(span), nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag line, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
