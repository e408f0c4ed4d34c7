package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/mash-pubsub/pkg/config"
	"github.com/mash-protocol/mash-pubsub/pkg/provider"
	"github.com/mash-protocol/mash-pubsub/pkg/publication"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testRuntimeConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Type = config.StoreFile
	cfg.Store.Path = filepath.Join(dir, "subscriptions.json")
	cfg.Trace.File = filepath.Join(dir, "trace.cbor")
	return cfg
}

func TestRuntimePublishesAndRestores(t *testing.T) {
	cfg := testRuntimeConfig(t)
	logger := slog.New(slog.DiscardHandler)
	out := &syncBuffer{}

	rt, err := newRuntime(cfg, logger, out)
	require.NoError(t, err)

	id, err := rt.manager.HandleSubscriptionRequest("proxy-1", thermostatID, publication.SubscriptionRequest{
		SubscriptionID:   "sub-1",
		SubscribedToName: attrTemperature,
		Qos:              qos.OnChange(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", id)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "sub=sub-1 value=[20]")
	}, 2*time.Second, time.Millisecond)

	var report bytes.Buffer
	require.Eventually(t, func() bool {
		report.Reset()
		if err := rt.Report(context.Background(), &report); err != nil {
			return false
		}
		return bytes.Contains(report.Bytes(), []byte("sent=1"))
	}, 2*time.Second, time.Millisecond)
	assert.Contains(t, report.String(), "Subscriptions: 1")
	assert.Contains(t, report.String(), "publication.sent.total")

	require.NoError(t, rt.Close())

	restarted, err := newRuntime(cfg, logger, out)
	require.NoError(t, err)
	defer restarted.Close()

	assert.Equal(t, []string{"sub-1"}, restarted.manager.SubscriptionIDs())
}

func TestRuntimeRejectsBadStore(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o644))

	cfg := config.Default()
	cfg.Store.Type = config.StoreBadger
	cfg.Store.Path = notADir

	_, err := newRuntime(cfg, slog.New(slog.DiscardHandler), &syncBuffer{})
	assert.Error(t, err)
}

func TestConsoleTransport(t *testing.T) {
	var out bytes.Buffer
	tr := consoleTransport(&out)
	info := publication.MessagingInfo{From: thermostatID, To: "proxy-1", ExpiryDate: "1767225610000"}

	require.NoError(t, tr.Send(context.Background(), info, publication.Publication{
		SubscriptionID: "s1",
		Response:       []any{21.5},
	}))
	require.NoError(t, tr.Send(context.Background(), info, publication.Publication{
		SubscriptionID: "s2",
		Error:          errors.New("sensor offline"),
	}))

	assert.Contains(t, out.String(), "thermostat -> proxy-1 sub=s1 value=[21.5] expires=1767225610000")
	assert.Contains(t, out.String(), `sub=s2 error="sensor offline"`)
}

func TestThermostat(t *testing.T) {
	th := newThermostat()

	assert.Equal(t, []string{attrSetpoint, attrTemperature}, th.Attributes())
	assert.Equal(t, []string{eventAlarm}, th.Events())

	require.NoError(t, th.Set(attrTemperature, "23.5"))
	v, err := th.temperature.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 23.5, v)

	assert.Error(t, th.Set(attrTemperature, "warm"))
	assert.Error(t, th.Set("humidity", "40"))
	assert.NoError(t, th.Fire(1, "check", nil))
}

func TestMinLevelFilter(t *testing.T) {
	out := provider.NewOutputParameters("level", "message")
	require.NoError(t, out.Set("level", 2))

	assert.True(t, minLevelFilter(out, nil))
	assert.True(t, minLevelFilter(out, provider.FilterParameters{"minLevel": "2"}))
	assert.False(t, minLevelFilter(out, provider.FilterParameters{"minLevel": "3"}))
	assert.False(t, minLevelFilter(out, provider.FilterParameters{"minLevel": "high"}))
}
