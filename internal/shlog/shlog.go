// Package shlog wires a colorized slog.Handler for pshell's internal debug
// tracing, gated by the PSHELL_DEBUG environment flag (see
// SPEC_FULL.md §2.1). The driver also prints its error messages through it
// at Error level; a stage's own stdout/stderr output always goes through
// sink.Sink, never through this logger.
package shlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// New returns a logger that writes to w. If debug is false the returned
// logger discards everything below slog.LevelError. If noColor is true (or
// w isn't a terminal) output is plain text.
func New(w io.Writer, debug bool, noColor bool) *slog.Logger {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	useColor := !noColor
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		useColor = false
	}
	return slog.New(&handler{w: w, level: level, color: useColor})
}

// Default builds a shlog.Logger from the process's PSHELL_DEBUG /
// PSHELL_NO_COLOR environment, writing to stderr.
func Default() *slog.Logger {
	debug := os.Getenv("PSHELL_DEBUG") == "1"
	noColor := os.Getenv("PSHELL_NO_COLOR") == "true"
	return New(os.Stderr, debug, noColor)
}

type handler struct {
	w      io.Writer
	level  slog.Level
	color  bool
	groups []string
	attrs  []slog.Attr
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(append([]string{}, h.groups...), name)
	return &nh
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *handler) Handle(_ context.Context, record slog.Record) error {
	color.NoColor = !h.color
	color.Output = h.w

	c := color.New()
	if _, err := c.Fprintf(h.w, "%s ", record.Time.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("shlog: write time: %w", err)
	}

	switch record.Level {
	case slog.LevelDebug:
		c = color.New(color.FgCyan)
	case slog.LevelInfo:
		c = color.New(color.FgBlue)
	case slog.LevelWarn:
		c = color.New(color.FgYellow)
	case slog.LevelError:
		c = color.New(color.FgRed)
	default:
		c = color.New()
	}
	if _, err := c.Fprintf(h.w, "%-5s ", record.Level); err != nil {
		return fmt.Errorf("shlog: write level: %w", err)
	}

	plain := color.New()
	if _, err := plain.Fprintf(h.w, "%s", record.Message); err != nil {
		return fmt.Errorf("shlog: write message: %w", err)
	}

	kv := map[string]slog.Value{}
	for _, a := range h.attrs {
		kv[a.Key] = a.Value
	}
	record.Attrs(func(a slog.Attr) bool {
		kv[a.Key] = a.Value
		return true
	})

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := plain.Fprintf(h.w, " %s=%s", k, kv[k]); err != nil {
			return fmt.Errorf("shlog: write %s: %w", k, err)
		}
	}
	_, err := fmt.Fprintln(h.w)
	return err
}
