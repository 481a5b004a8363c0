package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("success with dir", func(t *testing.T) {
		t.Parallel()
		tempDir := t.TempDir()
		logLevel := &slog.LevelVar{}
		logLevel.Set(slog.LevelInfo)
		stderr := &bytes.Buffer{}

		logger, closer, err := setupLogger(stderr, logLevel, &mockEnvProvider{}, tempDir, false)
		require.NoError(t, err)
		require.NotNil(t, closer)
		defer closer.Close()

		logger.Info("test message", "key", "value")

		// Check console output
		assert.Equal(t, "test message\n", stderr.String()) // Info doesn't show attrs by default

		// Check file output
		data, err := os.ReadFile(filepath.Join(tempDir, LogFile))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"test message"`)
		assert.Contains(t, string(data), `"key":"value"`)
	})

	t.Run("file gets debug records", func(t *testing.T) {
		t.Parallel()
		tempDir := t.TempDir()
		logLevel := &slog.LevelVar{}
		logLevel.Set(slog.LevelInfo)
		stderr := &bytes.Buffer{}

		logger, closer, err := setupLogger(stderr, logLevel, &mockEnvProvider{}, tempDir, false)
		require.NoError(t, err)
		defer closer.Close()

		logger.Debug("running command", "cmd", "git fetch -at")

		assert.Empty(t, stderr.String())
		data, err := os.ReadFile(filepath.Join(tempDir, LogFile))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"cmd":"git fetch -at"`)
	})

	t.Run("success with env var override", func(t *testing.T) {
		t.Parallel()
		tempDir := t.TempDir()
		logFile := filepath.Join(tempDir, "custom.log")
		env := &mockEnvProvider{values: map[string]string{LogEnvVar: logFile}}

		logger, closer, err := setupLogger(&bytes.Buffer{}, &slog.LevelVar{}, env, t.TempDir(), false)
		require.NoError(t, err)
		defer closer.Close()

		logger.Info("custom log")
		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "custom log")
	})

	t.Run("fallback on file error", func(t *testing.T) {
		t.Parallel()
		logLevel := &slog.LevelVar{}
		stderr := &bytes.Buffer{}

		// Point to a non-existent directory that cannot be created
		logger, closer, err := setupLogger(stderr, logLevel, &mockEnvProvider{}, "/non/existent/path/unwritable", false)
		require.Error(t, err)
		assert.Nil(t, closer)
		assert.NotNil(t, logger)

		logger.Info("fallback message")
		assert.Contains(t, stderr.String(), "fallback message")
	})
}

func TestConsoleHandler_Thorough(t *testing.T) {
	t.Parallel()

	t.Run("levels", func(t *testing.T) {
		t.Parallel()
		logLevel := &slog.LevelVar{}
		buf := &bytes.Buffer{}
		handler := newConsoleHandler(buf, logLevel, false)

		tests := []struct {
			level slog.Level
			msg   string
			want  string
		}{
			{slog.LevelDebug, "d", "d\n"},
			{slog.LevelInfo, "i", "i\n"},
			{slog.LevelWarn, "w", "Warning: w\n"},
			{slog.LevelError, "e", "Error: e\n"},
		}
		for _, tt := range tests {
			buf.Reset()
			logLevel.Set(slog.LevelDebug) // Enable all
			err := handler.Handle(context.Background(), slog.Record{Level: tt.level, Message: tt.msg})
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		}
	})

	t.Run("colours", func(t *testing.T) {
		t.Parallel()
		logLevel := &slog.LevelVar{}
		buf := &bytes.Buffer{}
		handler := newConsoleHandler(buf, logLevel, true)
		handler.colour.info.EnableColor()
		handler.colour.warn.EnableColor()
		handler.colour.error.EnableColor()

		tests := []struct {
			level slog.Level
			code  string
		}{
			{slog.LevelInfo, "\x1b[32m"},
			{slog.LevelWarn, "\x1b[33m"},
			{slog.LevelError, "\x1b[31m"},
		}
		for _, tt := range tests {
			buf.Reset()
			err := handler.Handle(context.Background(), slog.Record{Level: tt.level, Message: "status"})
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.code)
			assert.Contains(t, buf.String(), "status")
		}
	})

	t.Run("attributes and formatting", func(t *testing.T) {
		t.Parallel()
		logLevel := &slog.LevelVar{}
		buf := &bytes.Buffer{}
		handler := newConsoleHandler(buf, logLevel, false)

		logLevel.Set(slog.LevelDebug)

		// Test formatAttr with error
		rec := slog.NewRecord(time.Now(), slog.LevelError, "msg", 0)
		rec.AddAttrs(slog.Attr{Key: "err", Value: slog.StringValue("boom")})
		err := handler.Handle(context.Background(), rec)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Error: msg: boom")

		// Test attributes on non-debug mode (should be hidden unless error)
		buf.Reset()
		logLevel.Set(slog.LevelInfo)
		rec2 := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
		rec2.AddAttrs(slog.Attr{Key: "foo", Value: slog.StringValue("bar")})
		err2 := handler.Handle(context.Background(), rec2)
		require.NoError(t, err2)
		assert.Equal(t, "msg\n", buf.String())

		// Test WithAttrs
		buf.Reset()
		logLevel.Set(slog.LevelDebug)
		h2 := handler.WithAttrs([]slog.Attr{slog.Int("pid", 123)})
		err3 := h2.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))
		require.NoError(t, err3)
		assert.Contains(t, buf.String(), "msg pid=123")

		// Test WithGroup
		h3 := h2.WithGroup("somegroup")
		assert.Equal(t, h2, h3) // Currently returns self
	})

	t.Run("concurrent records are written whole", func(t *testing.T) {
		t.Parallel()
		logLevel := &slog.LevelVar{}
		logLevel.Set(slog.LevelDebug)
		w := &writeRecorder{}
		logger := slog.New(newConsoleHandler(w, logLevel, false)).With("worker", "copy")

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				logger.Debug("copied file", "index", i, "path", "/usr/local/share/vcpkg/versions/baseline.json")
			}()
		}
		wg.Wait()

		require.Len(t, w.writes, 20)
		for _, line := range w.writes {
			assert.Regexp(t, `^copied file worker=copy index=\d+ path=/usr/local/share/vcpkg/versions/baseline.json\n$`, line)
		}
	})
}

// writeRecorder keeps each Write call separately.
type writeRecorder struct {
	mu     sync.Mutex
	writes []string
}

func (w *writeRecorder) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, string(p))
	return len(p), nil
}

type errHandler struct{}

func (e *errHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (e *errHandler) Handle(context.Context, slog.Record) error { return errors.New("handler error") }
func (e *errHandler) WithAttrs(_ []slog.Attr) slog.Handler      { return e }
func (e *errHandler) WithGroup(_ string) slog.Handler           { return e }

func TestMultiHandler_Thorough(t *testing.T) {
	t.Parallel()

	t.Run("Enabled", func(t *testing.T) {
		t.Parallel()
		h1 := newConsoleHandler(&bytes.Buffer{}, &slog.LevelVar{}, false)
		h2 := newConsoleHandler(&bytes.Buffer{}, &slog.LevelVar{}, false)
		multi := &multiHandler{handlers: []slog.Handler{h1, h2}}

		assert.True(t, multi.Enabled(context.Background(), slog.LevelInfo))

		// False case: none enabled
		h1.level.Set(slog.LevelError)
		h2.level.Set(slog.LevelError)
		assert.False(t, multi.Enabled(context.Background(), slog.LevelInfo))
	})

	t.Run("Handle error propagation", func(t *testing.T) {
		t.Parallel()
		eh := &errHandler{}
		m2 := &multiHandler{handlers: []slog.Handler{eh}}
		err := m2.Handle(context.Background(), slog.Record{Level: slog.LevelInfo})
		require.Error(t, err)
	})

	t.Run("WithAttrs and WithGroup", func(t *testing.T) {
		t.Parallel()
		h1 := newConsoleHandler(&bytes.Buffer{}, &slog.LevelVar{}, false)
		h2 := newConsoleHandler(&bytes.Buffer{}, &slog.LevelVar{}, false)
		multi := &multiHandler{handlers: []slog.Handler{h1, h2}}

		m3 := multi.WithAttrs([]slog.Attr{slog.String("v", "1")})
		assert.IsType(t, &multiHandler{}, m3)

		m4 := m3.WithGroup("g")
		assert.IsType(t, &multiHandler{}, m4)
	})
}
