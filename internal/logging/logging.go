package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var level = new(slog.LevelVar)

func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs a text logger as the slog default. An empty filename logs
// to standard error; standard output carries the protocol.
func Init(levelStr string, filename string) (io.Closer, error) {
	level.Set(ParseLevel(levelStr))

	var out io.WriteCloser = nopCloser{os.Stderr}
	if filename != "" {
		logfile, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = logfile
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return out, nil
}

// SetLevel changes the level of the default logger installed by Init.
func SetLevel(levelStr string) {
	level.Set(ParseLevel(levelStr))
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
