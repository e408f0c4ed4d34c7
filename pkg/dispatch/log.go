package dispatch

import (
	"context"
	"log/slog"

	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

// LogDispatcher logs every publication.
type LogDispatcher struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogDispatcher creates a dispatcher that logs at Info level.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger, level: slog.LevelInfo}
}

// WithLevel returns a copy logging at level.
func (d *LogDispatcher) WithLevel(level slog.Level) *LogDispatcher {
	c := *d
	c.level = level
	return &c
}

// SendPublication implements publication.Dispatcher.
func (d *LogDispatcher) SendPublication(info publication.MessagingInfo, pub publication.Publication) {
	attrs := []slog.Attr{
		slog.String("subscription_id", pub.SubscriptionID),
		slog.String("from", info.From),
		slog.String("to", info.To),
		slog.String("expiry_date", info.ExpiryDate),
	}
	if pub.Error != nil {
		attrs = append(attrs, slog.String("error", pub.Error.Error()))
	} else {
		attrs = append(attrs, slog.Any("response", pub.Response))
	}
	d.logger.LogAttrs(context.Background(), d.level, "publication", attrs...)
}

var _ publication.Dispatcher = (*LogDispatcher)(nil)
