package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/fatih/color"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/mash-protocol/mash-pubsub/pkg/config"
	"github.com/mash-protocol/mash-pubsub/pkg/dispatch"
	"github.com/mash-protocol/mash-pubsub/pkg/log"
	"github.com/mash-protocol/mash-pubsub/pkg/persistence"
	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

// runtime owns every long-lived component of the command.
type runtime struct {
	manager    *publication.Manager
	thermostat *thermostat
	dispatcher *dispatch.BreakerDispatcher
	store      publication.Store
	trace      *log.FileLogger
	meters     *sdkmetric.MeterProvider
	reader     *sdkmetric.ManualReader
}

func newRuntime(cfg *config.Config, logger *slog.Logger, out io.Writer) (_ *runtime, err error) {
	rt := &runtime{
		thermostat: newThermostat(),
	}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	rt.reader = sdkmetric.NewManualReader()
	rt.meters = sdkmetric.NewMeterProvider(sdkmetric.WithReader(rt.reader))

	if rt.store, err = openStore(cfg.Store); err != nil {
		return nil, err
	}

	traceLoggers := []log.Logger{log.NewSlogAdapter(logger)}
	if cfg.Trace.File != "" {
		if rt.trace, err = log.NewFileLogger(cfg.Trace.File); err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		traceLoggers = append(traceLoggers, rt.trace)
	}

	rt.dispatcher, err = dispatch.NewBreakerDispatcher(consoleTransport(out), cfg.BreakerConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	pubCfg := cfg.PublicationManagerConfig()
	pubCfg.Logger = logger
	pubCfg.TraceLogger = log.NewMultiLogger(traceLoggers...)
	pubCfg.Store = rt.store
	pubCfg.MeterProvider = rt.meters

	if rt.manager, err = publication.NewManager(rt.dispatcher, pubCfg); err != nil {
		return nil, fmt.Errorf("create publication manager: %w", err)
	}
	if err = rt.manager.AddPublicationProvider(thermostatID, rt.thermostat.provider); err != nil {
		return nil, fmt.Errorf("add provider: %w", err)
	}

	return rt, nil
}

func openStore(cfg config.StoreConfig) (publication.Store, error) {
	switch cfg.Type {
	case config.StoreFile:
		return persistence.NewFileStore(cfg.Path), nil
	case config.StoreBadger:
		store, err := persistence.OpenBadgerStore(persistence.BadgerConfig{Dir: cfg.Path})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}

// consoleTransport prints every publication as a single line. Values are
// green, getter errors red.
func consoleTransport(out io.Writer) dispatch.Transport {
	value := color.New(color.FgGreen)
	failure := color.New(color.FgRed)

	return dispatch.Func(func(_ context.Context, info publication.MessagingInfo, pub publication.Publication) error {
		if pub.Error != nil {
			_, err := failure.Fprintf(out, "[PUB] %s -> %s sub=%s error=%q expires=%s\n",
				info.From, info.To, pub.SubscriptionID, pub.Error.Error(), info.ExpiryDate)
			return err
		}
		_, err := value.Fprintf(out, "[PUB] %s -> %s sub=%s value=%v expires=%s\n",
			info.From, info.To, pub.SubscriptionID, pub.Response, info.ExpiryDate)
		return err
	})
}

// Report writes dispatcher statistics and engine metrics to w.
func (rt *runtime) Report(ctx context.Context, w io.Writer) error {
	stats := rt.dispatcher.Stats()
	fmt.Fprintf(w, "Subscriptions: %d\n", rt.manager.Count())
	fmt.Fprintf(w, "Dispatch:      sent=%d failed=%d dropped=%d expired=%d rejected=%d\n",
		stats.Sent, stats.Failed, stats.Dropped, stats.Expired, stats.Rejected)

	var rm metricdata.ResourceMetrics
	if err := rt.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	values := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				values[m.Name] += dp.Value
			}
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Metrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-42s %d\n", name, values[name])
	}
	return nil
}

// Close shuts the components down in dependency order.
func (rt *runtime) Close() error {
	var errs []error

	if rt.manager != nil {
		rt.manager.Shutdown()
	}
	if rt.dispatcher != nil {
		if err := rt.dispatcher.Close(); err != nil && !errors.Is(err, dispatch.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if c, ok := rt.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.trace != nil {
		if err := rt.trace.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.meters != nil {
		if err := rt.meters.Shutdown(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}

	rt.manager = nil
	rt.dispatcher = nil
	rt.store = nil
	rt.trace = nil
	rt.meters = nil
	return errors.Join(errs...)
}
