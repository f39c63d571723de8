package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// ConsoleHandler is a slog.Handler for terminal output:
// [LEVEL] [system] [HH:MM:SS] message key=value
//
// The "system" attribute names the pipeline stage (import, match,
// ledger, rates) and is lifted into its own bracket instead of being
// printed as a trailing key=value pair.
type ConsoleHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Level
	system string
	colors bool
	attrs  []slog.Attr
}

// NewConsoleHandler creates a console handler writing to w. Colors are
// enabled only when w is a terminal.
func NewConsoleHandler(w io.Writer, level slog.Level) *ConsoleHandler {
	colors := false
	if f, ok := w.(*os.File); ok {
		colors = term.IsTerminal(int(f.Fd()))
	}
	return &ConsoleHandler{
		w:      w,
		mu:     &sync.Mutex{},
		level:  level,
		colors: colors,
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 128)

	buf = h.paint(buf, levelColor(r.Level))
	buf = append(buf, '[')
	buf = append(buf, levelName(r.Level)...)
	buf = append(buf, ']')
	buf = h.paint(buf, ansiReset)

	if h.system != "" {
		buf = append(buf, " ["...)
		buf = append(buf, h.system...)
		buf = append(buf, ']')
	}

	buf = h.paint(buf, ansiGray)
	buf = append(buf, " ["...)
	buf = r.Time.AppendFormat(buf, time.TimeOnly)
	buf = append(buf, ']')
	buf = h.paint(buf, ansiReset)

	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	for _, a := range h.attrs {
		buf = appendAttr(buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	for _, a := range attrs {
		if a.Key == "system" {
			next.system = a.Value.String()
		}
	}
	return &next
}

// WithGroup is accepted but groups are not rendered; flat key=value
// output reads better for a short-lived CLI run.
func (h *ConsoleHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *ConsoleHandler) paint(buf []byte, code string) []byte {
	if !h.colors {
		return buf
	}
	return append(buf, code...)
}

func appendAttr(buf []byte, a slog.Attr) []byte {
	if a.Key == "system" {
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return fmt.Appendf(buf, "%v", a.Value.Any())
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiCyan
	default:
		return ansiGray
	}
}

func levelName(level slog.Level) string {
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
