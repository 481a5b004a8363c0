package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"

	"github.com/andyballingall/portpub/internal/fs"
)

const (
	LogFile   = ".portpub.log"
	LogEnvVar = "PORTPUB_LOG_FILE"
)

// setupLogger configures a logger that writes structured logs to a file
// and clean, human-readable logs to the console.
func setupLogger(stderr io.Writer, logLevel *slog.LevelVar, env fs.EnvProvider, dir string,
	useColour bool,
) (*slog.Logger, io.Closer, error) {
	// 1. Determine log file path
	logPath := env.Get(LogEnvVar)
	if logPath == "" {
		logPath = filepath.Join(dir, LogFile)
	}

	// 2. Open log file
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	var logCloser io.Closer
	var fileHandler slog.Handler

	if err == nil {
		logCloser = f
		fileHandler = slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: slog.LevelDebug, // File always gets full debug info
		})
	}

	// 3. Create console handler
	consoleHandler := newConsoleHandler(stderr, logLevel, useColour)

	// 4. Combine handlers
	var handlers []slog.Handler
	if fileHandler != nil {
		handlers = append(handlers, fileHandler)
	}
	handlers = append(handlers, consoleHandler)

	multi := &multiHandler{
		handlers: handlers,
	}

	return slog.New(multi), logCloser, err
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

//nolint:gocritic // slog.Record is passed by value in the interface
func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

// palette holds the colours used for each log level on the console.
type palette struct {
	info  *color.Color
	warn  *color.Color
	error *color.Color
}

func newPalette(useColour bool) palette {
	p := palette{
		info:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		error: color.New(color.FgRed),
	}
	if !useColour {
		p.info.DisableColor()
		p.warn.DisableColor()
		p.error.DisableColor()
	}
	return p
}

type consoleHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  *slog.LevelVar
	attrs  []slog.Attr
	colour palette
}

func newConsoleHandler(w io.Writer, level *slog.LevelVar, useColour bool) *consoleHandler {
	return &consoleHandler{
		w:      w,
		mu:     &sync.Mutex{},
		level:  level,
		colour: newPalette(useColour),
	}
}

func (c *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= c.level.Level()
}

// Handle formats the record into a single line and writes it in one call, so records
// logged from concurrent goroutines never interleave.
//
//nolint:gocritic // slog.Record is passed by value in the interface
func (c *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var buf bytes.Buffer

	// Clean output for the console
	switch {
	case record.Level >= slog.LevelError:
		c.colour.error.Fprintf(&buf, "Error: %s", record.Message)
	case record.Level >= slog.LevelWarn:
		c.colour.warn.Fprintf(&buf, "Warning: %s", record.Message)
	case record.Level >= slog.LevelInfo:
		c.colour.info.Fprint(&buf, record.Message)
	default:
		buf.WriteString(record.Message)
	}

	// Show attributes added via WithAttrs
	for _, a := range c.attrs {
		c.formatAttr(&buf, a)
	}

	// Show attributes from the record
	record.Attrs(func(a slog.Attr) bool {
		c.formatAttr(&buf, a)
		return true
	})

	buf.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.w.Write(buf.Bytes())
	return err
}

func (c *consoleHandler) formatAttr(buf *bytes.Buffer, a slog.Attr) {
	if a.Key == "error" || a.Key == "err" {
		fmt.Fprintf(buf, ": %v", a.Value)
	} else if c.level.Level() <= slog.LevelDebug {
		fmt.Fprintf(buf, " %s=%v", a.Key, a.Value)
	}
}

func (c *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &consoleHandler{
		w:      c.w,
		mu:     c.mu,
		level:  c.level,
		attrs:  append(append([]slog.Attr{}, c.attrs...), attrs...),
		colour: c.colour,
	}
}

func (c *consoleHandler) WithGroup(_ string) slog.Handler {
	// Grouping not deeply supported in this simple console output for now
	return c
}
