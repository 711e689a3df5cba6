package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// dirExists returns true if the given path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		logWarn("Error checking directory existence: %v", err)
		return false
	}
	return info.IsDir()
}

// formatUptime returns a human-readable string for a duration.
func formatUptime(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())
	switch {
	case hours > 0:
		return fmt.Sprintf("%d hour%s, %d minute%s, %d second%s",
			hours, plural(hours),
			minutes, plural(minutes),
			seconds, plural(seconds))
	case minutes > 0:
		return fmt.Sprintf("%d minute%s, %d second%s",
			minutes, plural(minutes),
			seconds, plural(seconds))
	default:
		return fmt.Sprintf("%d second%s", seconds, plural(seconds))
	}
}

// plural returns "s" if n != 1, otherwise "".
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// requestID returns the request ID stored by requestIDMiddleware, if any.
func requestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// logInfo logs an info-level message.
func logInfo(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

// logWarn logs a warning-level message.
func logWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...))
}

// logFatal logs a fatal error and exits.
func logFatal(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

// logInfoCtx logs an info-level message tagged with the request ID.
func logInfoCtx(ctx context.Context, format string, v ...any) {
	logCtx(ctx, slog.LevelInfo, format, v...)
}

// logWarnCtx logs a warning-level message tagged with the request ID.
func logWarnCtx(ctx context.Context, format string, v ...any) {
	logCtx(ctx, slog.LevelWarn, format, v...)
}

func logCtx(ctx context.Context, level slog.Level, format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	if id := requestID(ctx); id != "" {
		slog.Log(ctx, level, msg, slog.String("request_id", id))
		return
	}
	slog.Log(ctx, level, msg)
}
