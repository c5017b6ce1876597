// Package logging configures structured logging for cellflowd,
// grounded on marmos91-dittofs/internal/logger: a package-level Init
// building a slog.Handler from a small Config (level, format, output),
// with an atomic level so it can be changed at runtime without
// rebuilding the handler, plus context-aware logging helpers mirroring
// logger.go's DebugCtx/InfoCtx/WarnCtx/ErrorCtx + appendContextFields.
// dittofs's variants pull a logger out of the context too; this
// repo's call sites already carry their *slog.Logger explicitly (see
// internal/session and internal/transport), so the *Ctx helpers here
// take the logger as a parameter and use the context only for the
// session_id/cell correlation fields.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls how the root logger is built.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var level = new(slog.LevelVar)

// Init builds and returns the root *slog.Logger for cfg. The returned
// logger's level can be changed afterwards with SetLevel, which takes
// effect immediately since both handlers reference the same LevelVar.
func Init(cfg Config) (*slog.Logger, error) {
	out, err := resolveOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	SetLevel(cfg.Level)

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), nil
}

// SetLevel changes the active log level at runtime. Unrecognized
// values are silently treated as info, matching dittofs's
// ignore-invalid-input behavior for this kind of knob.
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// appendContextFields prepends the session_id/cell fields carried by
// ctx's LogContext (if any) to args, the same shape dittofs's
// appendContextFields builds from its own LogContext.
func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	fields := make([]any, 0, 4+len(args))
	if lc.SessionID != "" {
		fields = append(fields, "session_id", lc.SessionID)
	}
	if lc.Cell != "" {
		fields = append(fields, "cell", lc.Cell)
	}
	return append(fields, args...)
}

// DebugCtx logs at debug level, tagging the record with ctx's
// session_id/cell fields when present.
func DebugCtx(ctx context.Context, log *slog.Logger, msg string, args ...any) {
	log.Debug(msg, appendContextFields(ctx, args)...)
}

// InfoCtx logs at info level, tagging the record with ctx's
// session_id/cell fields when present.
func InfoCtx(ctx context.Context, log *slog.Logger, msg string, args ...any) {
	log.Info(msg, appendContextFields(ctx, args)...)
}

// WarnCtx logs at warn level, tagging the record with ctx's
// session_id/cell fields when present.
func WarnCtx(ctx context.Context, log *slog.Logger, msg string, args ...any) {
	log.Warn(msg, appendContextFields(ctx, args)...)
}

// ErrorCtx logs at error level, tagging the record with ctx's
// session_id/cell fields when present.
func ErrorCtx(ctx context.Context, log *slog.Logger, msg string, args ...any) {
	log.Error(msg, appendContextFields(ctx, args)...)
}

func resolveOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open %q: %w", output, err)
		}
		return f, nil
	}
}
