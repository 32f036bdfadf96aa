package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/signsofter/caseobserver-dashboard/internal/config"
)

// NewLogger builds the process logger from cfg and installs it with
// slog.SetDefault. Logs go to stderr; stdout belongs to command output.
//
// Format "json" selects slog.JSONHandler, anything else slog.TextHandler.
// Source locations are added only to text output at debug level.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	asJSON := strings.EqualFold(cfg.Format, "json")

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: !asJSON && level == slog.LevelDebug,
	}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel accepts debug, info, warn and error in any case. Unknown
// values fall back to info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
