package logging

import "context"

// contextKey is a private type for the context key, avoiding
// collisions with keys set by other packages — the same idiom as
// marmos91-dittofs/internal/logger/context.go's contextKey.
type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds the session-scoped fields this server correlates
// logs by: the connection's session id (internal/transport assigns
// one uuid.UUID per websocket connection) and, while a command is
// being dispatched, the cell it targets. This mirrors dittofs's
// LogContext (trace_id/span_id/procedure/...) narrowed to the two
// fields this server's unit of work actually has.
type LogContext struct {
	SessionID string
	Cell      string
}

// WithContext returns a copy of ctx carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext stored in ctx, or nil if none
// was set.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a freshly accepted session.
func NewLogContext(sessionID string) *LogContext {
	return &LogContext{SessionID: sessionID}
}

// WithCell returns a copy of lc with Cell set, leaving lc itself
// untouched. Calling WithCell on a nil *LogContext yields a
// LogContext carrying only the cell, so callers never need a nil
// check before chaining.
func (lc *LogContext) WithCell(cell string) *LogContext {
	if lc == nil {
		return &LogContext{Cell: cell}
	}
	clone := *lc
	clone.Cell = cell
	return &clone
}
