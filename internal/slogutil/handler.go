// Package slogutil provides the slog handler and logger setup used by yt.
package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Style selects how a LineHandler lays out a record.
type Style int

const (
	// StyleFile is the log file layout:
	// 2024-01-02T15:04:05Z [warn] Index lock busy | id=ab12 run=1f2e3d4c
	StyleFile Style = iota
	// StyleConsole is the terminal layout, without timestamps or the
	// per-invocation run id:
	// yt: warn: Index lock busy (id=ab12)
	StyleConsole
)

// RunKey is the attribute carrying the invocation id. Console output hides it.
const RunKey = "run"

// LineHandler writes one record per line in the configured Style.
type LineHandler struct {
	w      io.Writer
	level  slog.Leveler
	style  Style
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

// NewLineHandler creates a file-style handler writing to w.
func NewLineHandler(w io.Writer, opts *slog.HandlerOptions) *LineHandler {
	return NewStyledHandler(w, StyleFile, opts)
}

// NewStyledHandler creates a handler writing to w in the given style.
func NewStyledHandler(w io.Writer, style Style, opts *slog.HandlerOptions) *LineHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &LineHandler{w: w, level: level, style: style, mu: &sync.Mutex{}}
}

func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		if h.keep(a) {
			attrs = append(attrs, a)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a = h.qualify(a); h.keep(a) {
			attrs = append(attrs, a)
		}
		return true
	})

	var b strings.Builder
	if h.style == StyleConsole {
		b.WriteString("yt: ")
		b.WriteString(levelString(r.Level))
		b.WriteString(": ")
		b.WriteString(r.Message)
		if len(attrs) > 0 {
			b.WriteString(" (")
			writeAttrs(&b, attrs)
			b.WriteByte(')')
		}
	} else {
		b.WriteString(r.Time.UTC().Format(time.RFC3339))
		b.WriteString(" [")
		b.WriteString(levelString(r.Level))
		b.WriteString("] ")
		b.WriteString(r.Message)
		if len(attrs) > 0 {
			b.WriteString(" | ")
			writeAttrs(&b, attrs)
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	for _, a := range attrs {
		merged = append(merged, h.qualify(a))
	}
	clone := *h
	clone.attrs = merged
	return &clone
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *LineHandler) keep(a slog.Attr) bool {
	if a.Key == "" {
		return false
	}
	return h.style != StyleConsole || a.Key != RunKey
}

func (h *LineHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	return slog.Attr{Key: strings.Join(h.groups, ".") + "." + a.Key, Value: a.Value}
}

func writeAttrs(b *strings.Builder, attrs []slog.Attr) {
	for i, a := range attrs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(a.Value))
	}
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

// formatValue quotes strings that would otherwise break key=value parsing,
// such as record titles.
func formatValue(v slog.Value) string {
	var s string
	switch v = v.Resolve(); v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		s = fmt.Sprint(v.Any())
	}
	if s == "" || strings.ContainsAny(s, " =\"\n\t") {
		return strconv.Quote(s)
	}
	return s
}
