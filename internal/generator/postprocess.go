package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest  = errors.New("invalid generation request")
	ErrInvalidResponse = errors.New("invalid model response")
)

func invalidResponse(task Task, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidResponse, task, reason)
}

// decodeResponse strips markdown fences and surrounding chatter before
// decoding the first JSON object in raw.
func decodeResponse(task Task, raw string, out any) error {
	text := stripFences(raw)
	if text == "" {
		return invalidResponse(task, "empty response")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return invalidResponse(task, "no JSON object found")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return invalidResponse(task, err.Error())
	}
	return nil
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
