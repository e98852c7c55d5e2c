// Package logging sets up the toolchain's structured logger: a
// human-readable stderr handler always on, fanned out via
// github.com/samber/slog-multi to an in-memory ring buffer handler when
// running in debug mode, so `cmd/aya run --debug`'s REPL can show recent log
// lines without re-running the program. Grounded in dependency only —
// gvm/vm/run.go uses bare fmt.Println/Printf (see SPEC_FULL.md's AMBIENT STACK
// rationale for why this repo departs from that and uses log/slog instead).
package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// RingBuffer is a fixed-capacity slog.Handler that keeps the most recent N
// formatted log lines in memory, read back by the debug REPL's "log" command.
type RingBuffer struct {
	mu    sync.Mutex
	lines []string
	cap   int
	attrs []slog.Attr
}

// NewRingBuffer allocates a buffer holding at most capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{cap: capacity}
}

func (r *RingBuffer) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle formats and stores the record, evicting the oldest line once full.
func (r *RingBuffer) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := rec.Level.String() + ": " + rec.Message
	rec.Attrs(func(a slog.Attr) bool {
		line += " " + a.String()
		return true
	})
	for _, a := range r.attrs {
		line += " " + a.String()
	}

	r.lines = append(r.lines, line)
	if len(r.lines) > r.cap {
		r.lines = r.lines[len(r.lines)-r.cap:]
	}
	return nil
}

// WithAttrs returns a handler that appends attrs to every future line, after
// the record's own attributes.
func (r *RingBuffer) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RingBuffer{cap: r.cap, lines: r.lines, attrs: append(append([]slog.Attr{}, r.attrs...), attrs...)}
}

// WithGroup is a no-op: the ring buffer flattens attributes rather than
// nesting groups, since its only consumer is a REPL's plain-text display.
func (r *RingBuffer) WithGroup(_ string) slog.Handler {
	return r
}

// Lines returns a snapshot of the buffered lines, oldest first.
func (r *RingBuffer) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// New builds the toolchain's logger. In non-debug mode it is a plain stderr
// text handler; in debug mode its output is fanned out to stderr and to the
// returned RingBuffer via slog-multi, so the debug REPL can inspect recent
// log activity without parsing stderr.
func New(debug bool, level slog.Level) (*slog.Logger, *RingBuffer) {
	stderr := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if !debug {
		return slog.New(stderr), nil
	}

	ring := NewRingBuffer(256)
	fanout := slogmulti.Fanout(stderr, ring)
	return slog.New(fanout), ring
}
