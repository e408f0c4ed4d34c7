package publication

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
)

const meterName = "github.com/mash-protocol/mash-pubsub/pkg/publication"

// metrics holds the engine's OpenTelemetry instruments.
type metrics struct {
	publications     metric.Int64Counter
	getterFailures   metric.Int64Counter
	rejections       metric.Int64Counter
	staleCompletions metric.Int64Counter
	active           metric.Int64UpDownCounter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	m := &metrics{}
	var err error

	m.publications, err = meter.Int64Counter(
		"publication.sent.total",
		metric.WithDescription("Publications handed to the dispatcher"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publications counter: %w", err)
	}

	m.getterFailures, err = meter.Int64Counter(
		"publication.getter.failures.total",
		metric.WithDescription("Attribute getter calls that failed or panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create getterFailures counter: %w", err)
	}

	m.rejections, err = meter.Int64Counter(
		"publication.subscriptions.rejected.total",
		metric.WithDescription("Subscription requests rejected at admission"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rejections counter: %w", err)
	}

	m.staleCompletions, err = meter.Int64Counter(
		"publication.getter.discarded.total",
		metric.WithDescription("Getter results discarded because the subscription terminated"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create staleCompletions counter: %w", err)
	}

	m.active, err = meter.Int64UpDownCounter(
		"publication.subscriptions.active",
		metric.WithDescription("Active subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active subscriptions counter: %w", err)
	}

	return m, nil
}

func (m *metrics) recordPublication(kind MemberKind, trigger log.Trigger) {
	m.publications.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("member_kind", kind.String()),
		attribute.String("trigger", trigger.String()),
	))
}

func (m *metrics) recordGetterFailure() {
	m.getterFailures.Add(context.Background(), 1)
}

func (m *metrics) recordRejection(err error) {
	m.rejections.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("reason", err.Error()),
	))
}

func (m *metrics) recordStaleCompletion() {
	m.staleCompletions.Add(context.Background(), 1)
}

func (m *metrics) recordActive(delta int64) {
	m.active.Add(context.Background(), delta)
}
