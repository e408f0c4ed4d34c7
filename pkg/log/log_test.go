package log

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLogger struct {
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.events = append(c.events, event)
}

func publicationEvent(id string, trigger Trigger, at time.Time) Event {
	return Event{
		Timestamp:      at,
		SubscriptionID: id,
		ProviderID:     "provider-1",
		ProxyID:        "proxy-1",
		Member:         "temperature",
		Category:       CategoryPublication,
		Publication: &PublicationEvent{
			Trigger: trigger,
			Payload: "21.5",
		},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	event := publicationEvent("sub-1", TriggerHeartbeat, at)

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	got, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.True(t, got.Timestamp.Equal(at), "timestamp %v, want %v", got.Timestamp, at)
	assert.Equal(t, "sub-1", got.SubscriptionID)
	assert.Equal(t, CategoryPublication, got.Category)
	require.NotNil(t, got.Publication)
	assert.Equal(t, TriggerHeartbeat, got.Publication.Trigger)
	assert.Equal(t, "21.5", got.Publication.Payload)
	assert.Nil(t, got.Lifecycle)
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.mlog")

	fl, err := NewFileLogger(path)
	require.NoError(t, err)

	start := time.Now()
	fl.Log(publicationEvent("sub-1", TriggerInitial, start))
	fl.Log(publicationEvent("sub-2", TriggerInitial, start.Add(time.Second)))
	fl.Log(publicationEvent("sub-1", TriggerChange, start.Add(2*time.Second)))
	fl.Log(Event{
		Timestamp:      start.Add(3 * time.Second),
		SubscriptionID: "sub-1",
		Category:       CategoryLifecycle,
		Lifecycle:      &LifecycleEvent{OldState: "ACTIVE", NewState: "TERMINATED", Reason: "stop"},
	})
	require.NoError(t, fl.Close())

	written, failed := fl.Stats()
	assert.Equal(t, 4, written)
	assert.Equal(t, 0, failed)

	// Logging after close is ignored
	fl.Log(publicationEvent("sub-3", TriggerInitial, start))

	all, err := ReadAll(path, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	sub1, err := ReadAll(path, Filter{SubscriptionID: "sub-1"})
	require.NoError(t, err)
	assert.Len(t, sub1, 3)

	change := TriggerChange
	changes, err := ReadAll(path, Filter{Trigger: &change})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "sub-1", changes[0].SubscriptionID)

	lifecycle := CategoryLifecycle
	stops, err := ReadAll(path, Filter{Category: &lifecycle})
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "stop", stops[0].Lifecycle.Reason)

	end := start.Add(time.Second)
	early, err := ReadAll(path, Filter{TimeEnd: &end})
	require.NoError(t, err)
	assert.Len(t, early, 1)
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.mlog"))
	assert.Error(t, err)
}

func TestMultiLogger(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(publicationEvent("sub-1", TriggerInitial, time.Now()))

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	adapter.Log(publicationEvent("sub-1", TriggerHeartbeat, time.Now()))
	adapter.Log(Event{
		SubscriptionID: "sub-2",
		Category:       CategoryRejection,
		Rejection:      &RejectionEvent{Reason: "misses attribute pressure"},
	})

	out := buf.String()
	assert.Contains(t, out, "subscription_id=sub-1")
	assert.Contains(t, out, "trigger=HEARTBEAT")
	assert.Contains(t, out, "level=WARN")
	assert.True(t, strings.Contains(out, "misses attribute pressure"))
}

func TestCategoryAndTriggerStrings(t *testing.T) {
	assert.Equal(t, "LIFECYCLE", CategoryLifecycle.String())
	assert.Equal(t, "UNKNOWN", Category(99).String())
	assert.Equal(t, "BROADCAST", TriggerBroadcast.String())
	assert.Equal(t, "UNKNOWN", Trigger(99).String())

	var n NoopLogger
	n.Log(Event{})
}
