package publication

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/metric"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

// ExpiredPolicy decides what happens to requests whose expiry date has
// already passed when they arrive.
type ExpiredPolicy uint8

const (
	// DropExpired silently drops the request: no state, no error, no
	// onSubscribed callback.
	DropExpired ExpiredPolicy = iota

	// RejectExpired rejects the request with ErrExpiredOnArrival.
	RejectExpired
)

// String returns a human-readable policy name.
func (p ExpiredPolicy) String() string {
	switch p {
	case DropExpired:
		return "drop"
	case RejectExpired:
		return "reject"
	default:
		return "unknown"
	}
}

// Config holds publication manager configuration.
type Config struct {
	// Limits are the QoS floors. The zero value selects qos.DefaultLimits.
	Limits qos.Limits

	// ExpiredRequests selects the expired-on-arrival policy.
	ExpiredRequests ExpiredPolicy

	// Clock drives all timers. Nil selects the real clock.
	Clock clockwork.Clock

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// TraceLogger records engine decisions. Nil disables tracing.
	TraceLogger log.Logger

	// Store persists admitted requests. Nil disables persistence.
	Store Store

	// MeterProvider creates the engine metrics. Nil selects the global one.
	MeterProvider metric.MeterProvider
}

// DefaultConfig returns the default publication manager configuration.
func DefaultConfig() Config {
	return Config{
		Limits:          qos.DefaultLimits(),
		ExpiredRequests: DropExpired,
	}
}

// RequestOption customizes a single subscription request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	onSubscribed func(subscriptionID string)
}

// WithOnSubscribed registers a callback invoked once the subscription is
// admitted. It is not invoked for rejected or dropped requests.
func WithOnSubscribed(fn func(subscriptionID string)) RequestOption {
	return func(o *requestOptions) {
		o.onSubscribed = fn
	}
}

func applyRequestOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
