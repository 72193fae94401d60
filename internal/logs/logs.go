// Package logs formats slog records one per line and optionally rotates them
// into a file.
package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Handler writes "2006/01/02 15:04:05 LEVEL: message key=value ..." lines.
type Handler struct {
	out    io.Writer
	level  slog.Leveler
	prefix string   // group path, "a.b."
	attrs  []string // preformatted by WithAttrs
	mu     *sync.Mutex
}

// NewHandler returns a Handler writing records at or above level to out.
func NewHandler(out io.Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{out: out, level: level, mu: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		h2.attrs = appendAttr(h2.attrs, h.prefix, a)
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	strs := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	strs = append(strs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		strs = appendAttr(strs, h.prefix, a)
		return true
	})
	b := []byte(strings.Join(strs, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(b)
	return err
}

func appendAttr(strs []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return strs
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			strs = appendAttr(strs, prefix, ga)
		}
		return strs
	}
	return append(strs, prefix+a.Key+"="+a.Value.String())
}

// Writer returns the rotated logfile, or stderr when logfile is empty.
func Writer(logfile string) io.Writer {
	if logfile == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
	}
}

// New returns a logger for the command line tools writing to Writer(logfile).
func New(logfile string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewHandler(Writer(logfile), level))
}
