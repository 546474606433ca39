package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "15:04:05.000"

// consoleHandler renders one human readable line per record:
//
//	15:04:05.000 INFO  coordinator [worker 4242 · add/16] unit assigned remaining=3
//
// The component, worker, and namespace are lifted into the line prefix. The
// run id is omitted because every line of a build shares it.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	group     string
	subject   subject
	preset    []field
}

type subject struct {
	component string
	worker    string
	namespace string
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.preset = append([]field(nil), h.preset...)
	for _, attr := range attrs {
		clone.add(&clone.subject, &clone.preset, h.group, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = joinKey(h.group, name)
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	subj := h.subject
	fields := append([]field(nil), h.preset...)
	record.Attrs(func(attr slog.Attr) bool {
		h.add(&subj, &fields, h.group, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(ts.Local().Format(consoleTimeLayout))
	fmt.Fprintf(&buf, " %-5s ", levelLabel(record.Level))
	if subj.component != "" {
		buf.WriteString(subj.component)
		buf.WriteByte(' ')
	}
	if label := subj.label(); label != "" {
		buf.WriteString("[" + label + "] ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range fields {
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(consoleValue(f.value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// add flattens attr into fields, lifting subject keys at the top level.
func (h *consoleHandler) add(subj *subject, fields *[]field, group string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := group
		if attr.Key != "" {
			inner = joinKey(group, attr.Key)
		}
		for _, a := range attr.Value.Group() {
			h.add(subj, fields, inner, a)
		}
		return
	}
	if group == "" {
		switch attr.Key {
		case FieldComponent:
			subj.component = attr.Value.String()
			return
		case FieldWorkerPID:
			subj.worker = attr.Value.String()
			return
		case FieldNamespace:
			subj.namespace = attr.Value.String()
			return
		case FieldRunID:
			return
		}
	}
	*fields = append(*fields, field{key: joinKey(group, attr.Key), value: attr.Value})
}

func (s subject) label() string {
	switch {
	case s.worker != "" && s.namespace != "":
		return "worker " + s.worker + " · " + s.namespace
	case s.worker != "":
		return "worker " + s.worker
	default:
		return s.namespace
	}
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

func consoleValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Local().Format(time.DateTime)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
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
