package config

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds a text logger. Output goes to l.File when set, otherwise
// to fallback; a nil fallback discards.
func (l LogConfig) NewLogger(fallback io.Writer) (*slog.Logger, func() error, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	closeFn := func() error { return nil }

	if l.File != "" {
		f, err := os.OpenFile(l.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = f.Close
	}
	if w == nil {
		w = io.Discard
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}
