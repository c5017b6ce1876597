package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rlayton/cellflow/internal/cellid"
	"github.com/rlayton/cellflow/internal/engine"
	"github.com/rlayton/cellflow/internal/logging"
	"github.com/rlayton/cellflow/internal/value"
)

// Conn is the minimal transport surface a Session needs: a framed
// text message source/sink. internal/transport's websocket adapter
// implements this; a test can supply any fake. ReadMessage returns
// io.EOF (exactly) once the peer has closed the connection.
type Conn interface {
	ReadMessage() (string, error)
	WriteMessage(msg string) error
}

// Handle runs one client session to completion: it reads commands
// until the connection closes or a transport error occurs, dispatches
// each to eng, and writes replies per the contract below. It returns
// nil on a clean close (io.EOF) and a non-nil error for any transport
// failure; command-level errors (bad syntax, parse failures) are
// reported to the client as reply text and never end the session.
//
// ctx carries the session's internal/logging.LogContext (session_id,
// and per-command cell) so log records emitted while dispatching can
// be correlated back to the connection; a ctx with no LogContext set
// (context.Background(), as in a bare unit test) logs without those
// fields rather than panicking.
//
// Reply contract (original_source/src/lib.rs's handle_connection is
// authoritative):
//   - get: always replies with Reply::Value(name, value) — the cell's
//     display name (spec.md §6.2) followed by its rendered value. A
//     cell whose forward deps currently hold an error renders as the
//     fixed text "Cell depends on another error cell" in place of the
//     value half. A cell with a direct local error renders
//     "#ERROR: <message>" (value.Value.String()).
//   - set: silent on success. On any failure (malformed command,
//     unknown cell syntax, expression parse failure) replies with
//     "ERROR: <message>".
func Handle(ctx context.Context, conn Conn, eng *engine.Engine, log *slog.Logger) error {
	for {
		line, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		reply, ok := dispatch(ctx, eng, line, log)
		if !ok {
			continue
		}
		if err := conn.WriteMessage(reply); err != nil {
			return err
		}
	}
}

// dispatch executes one command line and returns the reply to send,
// if any. ok is false for a silent success (a well-formed set). Log
// calls use ctx's session_id (and, once the target cell is known,
// cell) so every record from this command can be correlated back to
// its session without threading extra parameters everywhere.
func dispatch(ctx context.Context, eng *engine.Engine, line string, log *slog.Logger) (reply string, ok bool) {
	cmd, err := ParseCommand(line)
	if err != nil {
		logging.WarnCtx(ctx, log, "malformed command", "line", line, "err", err)
		return "ERROR: " + err.Error(), true
	}

	cellCtx := logging.WithContext(ctx, logging.FromContext(ctx).WithCell(cmd.Cell))

	id, err := cellid.Parse(cmd.Cell)
	if err != nil {
		return "ERROR: " + err.Error(), true
	}

	switch cmd.Kind {
	case KindGet:
		return formatGetReply(id, eng.Get(id)), true
	case KindSet:
		if err := eng.Set(id, cmd.Expr); err != nil {
			logging.DebugCtx(cellCtx, log, "set failed", "err", err)
			return "ERROR: " + err.Error(), true
		}
		return "", false
	default:
		return "ERROR: unreachable command kind", true
	}
}

// formatGetReply renders a value reply as "<display name> <value>",
// per spec.md §6.2 and original_source/src/lib.rs's Reply::Value(name,
// value). A tainted cell's value half is the fixed transitive-error
// text; otherwise it is the value's own rendering (including local
// errors and absent cells, which render as "#ERROR: ..." and "").
func formatGetReply(id cellid.ID, v value.Value) string {
	rendered := v.String()
	if v.IsTransitive() {
		rendered = "Cell depends on another error cell"
	}
	return fmt.Sprintf("%s %s", id.String(), rendered)
}
