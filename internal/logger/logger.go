package logger

import (
	"log/slog"
	"os"
)

// Setup installs the process-wide structured logger. Level names are
// case-insensitive ("debug", "INFO", ...); anything unparseable falls back
// to info so a typo in LOG_LEVEL never silences the service.
func Setup(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	slog.SetDefault(slog.New(handler))
}
