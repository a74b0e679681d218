package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// prettyHandler renders one header line per record followed by indented
// fields. Info records show a curated subset, debug records show everything.
type prettyHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  *slog.LevelVar
	source bool
	attrs  []kv
	groups []string
}

type kv struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, level *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, level: level, source: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	fields := append([]kv(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = flatten(fields, h.groups, attr)
		return true
	})
	fields = lastWins(fields)

	var buf bytes.Buffer
	h.writeHeader(&buf, record, fields)
	if record.Level < slog.LevelInfo {
		for _, f := range fields {
			buf.WriteString("    " + f.key + ": " + formatValue(f.value) + "\n")
		}
	} else {
		shown, hidden := infoFields(fields)
		for _, f := range shown {
			buf.WriteString("    - " + f.label + ": " + f.value + "\n")
		}
		if hidden == 1 {
			buf.WriteString("    + 1 more field hidden\n")
		} else if hidden > 1 {
			buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// writeHeader writes "ts LEVEL [component] stage (lang) – message [file:line]".
func (h *prettyHandler) writeHeader(buf *bytes.Buffer, record slog.Record, fields []kv) {
	lookup := func(key string) string {
		for _, f := range fields {
			if f.key == key {
				return strings.TrimSpace(attrString(f.value))
			}
		}
		return ""
	}
	buf.WriteString(formatTimestamp(record.Time))
	buf.WriteString(" " + levelLabel(record.Level))
	if component := lookup(FieldComponent); component != "" {
		buf.WriteString(" [" + component + "]")
	}
	stage, lang := lookup(FieldStage), lookup(FieldLanguage)
	switch {
	case stage != "" && lang != "":
		buf.WriteString(" " + stage + " (" + lang + ")")
	case stage != "":
		buf.WriteString(" " + stage)
	case lang != "":
		buf.WriteString(" (" + lang + ")")
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(" – " + message)
	if h.source {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]kv(nil), h.attrs...)
	for _, attr := range attrs {
		clone.attrs = flatten(clone.attrs, h.groups, attr)
	}
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// flatten appends attr to dst, expanding groups into dotted keys.
func flatten(dst []kv, prefix []string, attr slog.Attr) []kv {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, member := range value.Group() {
			dst = flatten(dst, next, member)
		}
		return dst
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), key), ".")
	}
	return append(dst, kv{key: key, value: value})
}

// lastWins drops earlier duplicates of a key while keeping first-seen order.
func lastWins(fields []kv) []kv {
	index := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
