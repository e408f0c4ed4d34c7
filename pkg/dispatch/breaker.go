package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

// DropPolicy selects which publication is dropped when the queue is full.
type DropPolicy string

const (
	// DropNewest drops the publication being enqueued.
	DropNewest DropPolicy = "newest"

	// DropOldest drops the oldest queued publication.
	DropOldest DropPolicy = "oldest"
)

// ErrClosed is returned by Close on a dispatcher that is already closed.
var ErrClosed = errors.New("dispatcher closed")

// BreakerConfig configures a BreakerDispatcher.
type BreakerConfig struct {
	// Workers is the number of delivery goroutines.
	Workers int

	// QueueSize bounds the number of queued publications.
	QueueSize int

	// DropPolicy applies when the queue is full.
	DropPolicy DropPolicy

	// SendTimeout bounds a single Transport.Send call.
	SendTimeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens
	// the breaker of a proxy.
	FailureThreshold uint32

	// ResetTimeout is how long a breaker stays open before probing again.
	ResetTimeout time.Duration

	// ShutdownTimeout bounds how long Close waits for the queue to drain.
	ShutdownTimeout time.Duration

	// RateLimit caps transport sends per second across all workers.
	// Zero disables the limit.
	RateLimit float64

	// RateBurst is the number of sends allowed above RateLimit at once.
	// Zero selects 1.
	RateBurst int

	// Clock is used to drop publications past their expiry date.
	Clock clockwork.Clock

	// Logger receives delivery failures and breaker state changes.
	Logger *slog.Logger
}

// DefaultBreakerConfig returns the default configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Workers:          4,
		QueueSize:        1024,
		DropPolicy:       DropNewest,
		SendTimeout:      5 * time.Second,
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		ShutdownTimeout:  5 * time.Second,
	}
}

// Stats are delivery counters.
type Stats struct {
	Sent     uint64
	Failed   uint64
	Dropped  uint64
	Expired  uint64
	Rejected uint64
}

type job struct {
	info publication.MessagingInfo
	pub  publication.Publication
}

// BreakerDispatcher queues publications and delivers them through a
// Transport with a circuit breaker per subscriber proxy.
type BreakerDispatcher struct {
	cfg       BreakerConfig
	transport Transport
	clock     clockwork.Clock
	logger    *slog.Logger

	queue   chan job
	limiter *rate.Limiter

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker

	sent     atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
	expired  atomic.Uint64
	rejected atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool
}

// NewBreakerDispatcher starts a dispatcher delivering through transport.
func NewBreakerDispatcher(transport Transport, cfg BreakerConfig) (*BreakerDispatcher, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	defaults := DefaultBreakerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.DropPolicy == "" {
		cfg.DropPolicy = defaults.DropPolicy
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaults.SendTimeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaults.ResetTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &BreakerDispatcher{
		cfg:       cfg,
		transport: transport,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		queue:     make(chan job, cfg.QueueSize),
		limiter:   rate.NewLimiter(limit, cfg.RateBurst),
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	d.logger.Debug("dispatcher started",
		slog.Int("workers", cfg.Workers),
		slog.Int("queue_size", cfg.QueueSize))

	return d, nil
}

// SendPublication implements publication.Dispatcher. It never blocks.
func (d *BreakerDispatcher) SendPublication(info publication.MessagingInfo, pub publication.Publication) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return
	}

	j := job{info: info, pub: pub}
	select {
	case d.queue <- j:
		return
	default:
	}

	if d.cfg.DropPolicy == DropOldest {
		select {
		case <-d.queue:
			d.dropped.Add(1)
		default:
		}
		select {
		case d.queue <- j:
			return
		default:
		}
	}

	d.dropped.Add(1)
	d.logger.Warn("publication queue full, publication dropped",
		slog.String("subscription_id", pub.SubscriptionID),
		slog.String("to", info.To))
}

// Stats returns a snapshot of the delivery counters.
func (d *BreakerDispatcher) Stats() Stats {
	return Stats{
		Sent:     d.sent.Load(),
		Failed:   d.failed.Load(),
		Dropped:  d.dropped.Load(),
		Expired:  d.expired.Load(),
		Rejected: d.rejected.Load(),
	}
}

// BreakerState returns the breaker state for a proxy.
func (d *BreakerDispatcher) BreakerState(proxyID string) gobreaker.State {
	return d.breaker(proxyID).State()
}

// Close stops accepting publications and waits for queued ones to be
// delivered, up to ShutdownTimeout.
func (d *BreakerDispatcher) Close() error {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(d.cfg.ShutdownTimeout):
		d.cancel()
		d.logger.Warn("dispatcher shutdown timeout, some publications may be lost",
			slog.Int("queue_depth", len(d.queue)))
		return nil
	}
}

func (d *BreakerDispatcher) worker() {
	defer d.wg.Done()

	for j := range d.queue {
		if d.ctx.Err() != nil {
			d.dropped.Add(1)
			continue
		}
		d.deliver(j)
	}
}

func (d *BreakerDispatcher) deliver(j job) {
	if err := d.limiter.Wait(d.ctx); err != nil {
		d.dropped.Add(1)
		return
	}

	if expired(j.info, d.clock.Now()) {
		d.expired.Add(1)
		d.logger.Debug("publication expired before delivery",
			slog.String("subscription_id", j.pub.SubscriptionID),
			slog.String("to", j.info.To))
		return
	}

	_, err := d.breaker(j.info.To).Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(d.ctx, d.cfg.SendTimeout)
		defer cancel()
		return nil, d.transport.Send(ctx, j.info, j.pub)
	})

	switch {
	case err == nil:
		d.sent.Add(1)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		d.rejected.Add(1)
	default:
		d.failed.Add(1)
		d.logger.Debug("publication delivery failed",
			slog.String("subscription_id", j.pub.SubscriptionID),
			slog.String("to", j.info.To),
			slog.String("error", err.Error()))
	}
}

func (d *BreakerDispatcher) breaker(proxyID string) *gobreaker.CircuitBreaker {
	d.breakersMu.Lock()
	defer d.breakersMu.Unlock()

	cb, ok := d.breakers[proxyID]
	if ok {
		return cb
	}

	threshold := d.cfg.FailureThreshold
	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        proxyID,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     d.cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			d.logger.Warn("publication circuit breaker state changed",
				slog.String("proxy", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	d.breakers[proxyID] = cb
	return cb
}

// expired reports whether the publication expiry date (epoch milliseconds)
// has passed. Unparseable dates never expire.
func expired(info publication.MessagingInfo, now time.Time) bool {
	ms, err := strconv.ParseInt(info.ExpiryDate, 10, 64)
	if err != nil {
		return false
	}
	return now.UnixMilli() > ms
}

var _ publication.Dispatcher = (*BreakerDispatcher)(nil)
