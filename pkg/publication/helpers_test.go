package publication_test

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/mash-pubsub/pkg/provider"
	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

const (
	providerID = "thermostat"
	proxyID    = "proxy-1"
	waitFor    = 2 * time.Second
	tick       = time.Millisecond
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// sent is one recorded publication.
type sent struct {
	at   time.Time
	info publication.MessagingInfo
	pub  publication.Publication
}

// recorder is a Dispatcher that records every publication with the fake
// clock time it was handed over at.
type recorder struct {
	clock clockwork.Clock

	mu   sync.Mutex
	sent []sent
}

func (r *recorder) SendPublication(info publication.MessagingInfo, pub publication.Publication) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{at: r.clock.Now(), info: info, pub: pub})
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recorder) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

func (r *recorder) last() sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

// waitCount blocks until exactly n publications were recorded.
func (r *recorder) waitCount(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.count() >= n }, waitFor, tick,
		"expected %d publications", n)
	require.Equal(t, n, r.count(), "unexpected extra publications")
}

// assertStays checks that no further publication shows up.
func (r *recorder) assertStays(t *testing.T, n int) {
	t.Helper()
	require.Never(t, func() bool { return r.count() != n }, 50*time.Millisecond, tick,
		"publication count changed from %d", n)
}

// fixture is a manager wired to a thermostat provider on a fake clock.
type fixture struct {
	clock *clockwork.FakeClock
	rec   *recorder
	mgr   *publication.Manager

	temperature *provider.Value
	alarm       *provider.Broadcast
	provider    *provider.Static
}

func newFixture(t *testing.T, configure ...func(*publication.Config)) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(epoch)
	rec := &recorder{clock: clock}

	config := publication.DefaultConfig()
	config.Clock = clock
	for _, fn := range configure {
		fn(&config)
	}

	mgr, err := publication.NewManager(rec, config)
	require.NoError(t, err)
	t.Cleanup(mgr.Shutdown)

	f := &fixture{
		clock:       clock,
		rec:         rec,
		mgr:         mgr,
		temperature: provider.NewValue(20),
		alarm:       provider.NewBroadcast([]string{"level", "message"}, "minLevel"),
	}
	f.alarm.AddFilter(provider.FilterFunc(minLevelFilter))
	f.provider = provider.NewStatic().
		WithAttribute("temperature", f.temperature).
		WithEvent("alarm", f.alarm)

	require.NoError(t, mgr.AddPublicationProvider(providerID, f.provider))
	return f
}

// advance moves the fake clock forward.
func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
}

func (f *fixture) subscribe(t *testing.T, id string, q publication.SubscriptionRequest) string {
	t.Helper()
	if q.SubscriptionID == "" {
		q.SubscriptionID = id
	}
	got, err := f.mgr.HandleSubscriptionRequest(proxyID, providerID, q)
	require.NoError(t, err)
	return got
}

func (f *fixture) fireAlarm(t *testing.T, level int, partitions ...string) {
	t.Helper()
	out := f.alarm.NewOutputParameters()
	require.NoError(t, out.Set("level", level))
	require.NoError(t, out.Set("message", "level "+strconv.Itoa(level)))
	f.alarm.Fire(out, partitions...)
}

// minLevelFilter passes alarms at or above the subscriber's minLevel.
func minLevelFilter(out provider.OutputParameters, params provider.FilterParameters) bool {
	raw, ok := params["minLevel"]
	if !ok {
		return true
	}
	threshold, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	level, _ := out.Get("level")
	v, ok := level.(int)
	return ok && v >= threshold
}

func offset(s sent) time.Duration {
	return s.at.Sub(epoch)
}
