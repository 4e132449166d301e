// Package logsink writes one structured log line per node update.
package logsink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calcgraph/calcgraph/internal/sink"
)

// Factory handles "log" sinks. Supported params:
//   - level:   "debug" | "info" | "warn" (default "info")
//   - message: log line text (default "node updated")
type Factory struct{}

func New() *Factory { return &Factory{} }

func (*Factory) Type() string { return "log" }

func (*Factory) New(node string, params map[string]interface{}) (sink.Sink, error) {
	level := slog.LevelInfo
	if raw, ok := params["level"]; ok {
		name, _ := raw.(string)
		switch name {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		default:
			return nil, fmt.Errorf("log sink on %s: unknown level %q", node, raw)
		}
	}
	message, _ := params["message"].(string)
	if message == "" {
		message = "node updated"
	}
	return &logSink{level: level, message: message}, nil
}

type logSink struct {
	level   slog.Level
	message string
}

func (s *logSink) Consume(u sink.Update) {
	attrs := []any{"node", u.Node, "new", u.New}
	switch {
	case u.FromUnset:
		attrs = append(attrs, "from", "unset")
	case u.ToUnset:
		attrs = append(attrs, "old", u.Old, "to", "unset")
	default:
		attrs = append(attrs, "old", u.Old)
	}
	slog.Default().Log(context.Background(), s.level, s.message, attrs...)
}
