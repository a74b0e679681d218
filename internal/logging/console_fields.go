package logging

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

type infoField struct {
	label string
	value string
}

const maxInfoFields = 8

// infoOrder lists keys shown first, in this order, on info and warn lines.
var infoOrder = []string{
	FieldEventType,
	FieldDecisionType,
	FieldDecisionResult,
	FieldDecisionReason,
	"video_path",
	"output_path",
	"source_language",
	"utterances",
	"dubbed",
	"pass_through",
	"speakers",
	"peak",
	"gain",
	"voice",
	"translator",
	"publisher",
	"error",
	FieldErrorHint,
	FieldImpact,
	"elapsed",
}

var infoLabels = map[string]string{
	FieldEventType:      "Event",
	FieldDecisionType:   "Decision",
	FieldDecisionResult: "Result",
	FieldDecisionReason: "Reason",
	FieldErrorHint:      "Hint",
	"utterance_count":   "Utterances",
	"pass_through":      "Pass-through",
}

// infoFields picks the fields worth showing on an info line and counts the
// rest. Header fields are dropped; identifiers, paths and long values are
// only visible at debug level.
func infoFields(fields []kv) ([]infoField, int) {
	ordered := slices.Clone(fields)
	slices.SortStableFunc(ordered, func(a, b kv) int {
		return infoRank(a.key) - infoRank(b.key)
	})

	var shown []infoField
	hidden := 0
	for _, f := range ordered {
		switch f.key {
		case FieldComponent, FieldStage, FieldLanguage:
			continue
		}
		value := humanValue(f.key, f.value)
		if debugOnly(f.key, value) || len(shown) >= maxInfoFields {
			hidden++
			continue
		}
		shown = append(shown, infoField{label: label(f.key), value: value})
	}
	return shown, hidden
}

func infoRank(key string) int {
	if i := slices.Index(infoOrder, key); i >= 0 {
		return i
	}
	return len(infoOrder)
}

func debugOnly(key, value string) bool {
	switch key {
	case "error", FieldErrorHint, FieldImpact:
		return false
	case FieldRunID, "args", "sample_rate", "channels", "frames":
		return true
	}
	if strings.HasSuffix(key, "_id") && key != "speaker_id" {
		return true
	}
	if strings.HasSuffix(key, "_dir") || (strings.HasSuffix(key, "_path") && key != "video_path" && key != "output_path") {
		return true
	}
	return len(value) > 120
}

// label turns snake_case keys into title case ("needs_normalization" ->
// "Needs Normalization").
func label(key string) string {
	if l, ok := infoLabels[key]; ok {
		return l
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

// humanValue formats booleans as yes/no, durations rounded, *_seconds with
// two decimals and caps error text.
func humanValue(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case v.Kind() == slog.KindDuration:
		d := v.Duration()
		if d < time.Second {
			return d.Round(time.Millisecond).String()
		}
		return d.Round(100 * time.Millisecond).String()
	case v.Kind() == slog.KindFloat64 && strings.HasSuffix(key, "_seconds"):
		return fmt.Sprintf("%.2fs", v.Float64())
	case key == "error":
		msg := attrString(v)
		if len(msg) > 200 {
			msg = msg[:200] + "…"
		}
		return msg
	}
	return formatValue(v)
}

// attrString is the raw text of a value, unquoted.
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	if v.Kind() == slog.KindTime {
		return formatTimestamp(v.Time())
	}
	return v.String()
}

// formatValue is attrString quoted when the text contains spaces, '=' or
// quotes, or is empty.
func formatValue(v slog.Value) string {
	s := attrString(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
