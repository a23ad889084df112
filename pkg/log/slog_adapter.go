package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event with payload-specific attributes.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.ConnectionID != "" {
		attrs = append(attrs, slog.String("conn_id", event.ConnectionID))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("area", int(event.Frame.Area)),
			slog.Int("frame_size", event.Frame.Size),
		)
	case event.Packet != nil:
		attrs = append(attrs,
			slog.Int("count", event.Packet.Count),
			slog.Any("handles", event.Packet.Handles),
			slog.Any("values", event.Packet.Values),
		)
		if event.Packet.Dropped {
			attrs = append(attrs, slog.Bool("dropped", true))
		}
	case event.Command != nil:
		attrs = append(attrs, slog.String("command", event.Command.Text))
		if event.Command.Ignored != "" {
			attrs = append(attrs, slog.String("ignored", event.Command.Ignored))
		}
	case event.Response != nil:
		attrs = append(attrs, slog.String("line", event.Response.Line))
	case event.Scan != nil:
		attrs = append(attrs,
			slog.Int("subscriptions", event.Scan.Subscriptions),
			slog.Int("changed", event.Scan.Changed),
			slog.Duration("duration", event.Scan.Duration),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
