package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeJSON unmarshals a model reply into target. Replies wrapped in a code
// fence or surrounded by prose are narrowed to the JSON value first; if that
// still does not parse, jsonrepair gets one attempt (trailing commas, single
// quotes, unclosed brackets).
func DecodeJSON(content string, target any) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("empty payload")
	}
	firstErr := json.Unmarshal([]byte(content), target)
	if firstErr == nil {
		return nil
	}
	body := extractJSON(content)
	if body != content && json.Unmarshal([]byte(body), target) == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(body)
	if err != nil {
		return fmt.Errorf("%w (repair: %v; payload: %s)", firstErr, err, snippet(body))
	}
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("%w (repaired payload: %s)", err, snippet(repaired))
	}
	return nil
}

// extractJSON strips a ``` or ```json fence and any text outside the outermost
// object or array.
func extractJSON(content string) string {
	text := strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(text, "```"); ok {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		if idx := strings.LastIndex(rest, "```"); idx >= 0 {
			rest = rest[:idx]
		}
		text = strings.TrimSpace(rest)
	}
	if text == "" || text[0] == '{' || text[0] == '[' {
		return text
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		if start < 0 {
			continue
		}
		if end := strings.LastIndex(text, pair[1]); end > start {
			return strings.TrimSpace(text[start : end+1])
		}
		return strings.TrimSpace(text[start:])
	}
	return text
}

// snippet flattens whitespace and caps content for error messages.
func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > 160 {
		return string(runes[:160]) + "..."
	}
	return clean
}
