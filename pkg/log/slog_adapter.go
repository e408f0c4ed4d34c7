package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
// Rejections and errors are logged at Warn.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("subscription_id", event.SubscriptionID),
		slog.String("category", event.Category.String()),
	}
	if event.ProviderID != "" {
		attrs = append(attrs, slog.String("provider_id", event.ProviderID))
	}
	if event.ProxyID != "" {
		attrs = append(attrs, slog.String("proxy_id", event.ProxyID))
	}
	if event.Member != "" {
		attrs = append(attrs, slog.String("member", event.Member))
	}

	level := slog.LevelDebug
	switch {
	case event.Lifecycle != nil:
		attrs = append(attrs,
			slog.String("old_state", event.Lifecycle.OldState),
			slog.String("new_state", event.Lifecycle.NewState),
		)
		if event.Lifecycle.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Lifecycle.Reason))
		}
		if event.Lifecycle.Qos != "" {
			attrs = append(attrs, slog.String("qos", event.Lifecycle.Qos))
		}
	case event.Publication != nil:
		attrs = append(attrs, slog.String("trigger", event.Publication.Trigger.String()))
		if event.Publication.Error != "" {
			attrs = append(attrs, slog.String("error", event.Publication.Error))
		} else {
			attrs = append(attrs, slog.Any("payload", event.Publication.Payload))
		}
	case event.Rejection != nil:
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("reason", event.Rejection.Reason))
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "publication trace", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
