package publication_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/mash-pubsub/pkg/provider"
	"github.com/mash-protocol/mash-pubsub/pkg/publication"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

func (f *fixture) subscribeAlarm(t *testing.T, req publication.BroadcastSubscriptionRequest) string {
	t.Helper()
	req.SubscribedToName = "alarm"
	id, err := f.mgr.HandleEventSubscriptionRequest(proxyID, providerID, req)
	require.NoError(t, err)
	return id
}

func TestBroadcastDelivery(t *testing.T) {
	f := newFixture(t)
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		SubscriptionID: "alarms",
		Qos:            qos.Multicast(5 * time.Second),
	})

	assert.True(t, f.mgr.HasSubscriptionsForProviderEvent(providerID, "alarm"))
	assert.False(t, f.mgr.HasSubscriptionsForProviderAttribute(providerID, "alarm"))
	f.rec.assertStays(t, 0)

	f.fireAlarm(t, 3)

	require.Equal(t, 1, f.rec.count())
	got := f.rec.last()
	assert.Equal(t, "alarms", got.pub.SubscriptionID)
	assert.Equal(t, []any{3, "level 3"}, got.pub.Response)
	assert.Equal(t, "1767225605000", got.info.ExpiryDate, "multicast validity is the publication TTL")
}

func TestBroadcastPartitions(t *testing.T) {
	f := newFixture(t)
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		SubscriptionID: "kitchen",
		Qos:            qos.Multicast(time.Second),
		Partitions:     []string{"floor1", "kitchen"},
	})
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		SubscriptionID: "everything",
		Qos:            qos.Multicast(time.Second),
	})

	f.fireAlarm(t, 1, "floor1", "garage")
	f.fireAlarm(t, 2, "floor1")
	f.fireAlarm(t, 3, "floor1", "kitchen")

	var kitchen, everything int
	for _, s := range f.rec.all() {
		switch s.pub.SubscriptionID {
		case "kitchen":
			kitchen++
			assert.Equal(t, 3, s.pub.Response[0])
		case "everything":
			everything++
		}
	}
	assert.Equal(t, 1, kitchen)
	assert.Equal(t, 3, everything)
}

func TestBroadcastFilters(t *testing.T) {
	f := newFixture(t)
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		SubscriptionID:   "critical",
		Qos:              qos.Multicast(time.Second),
		FilterParameters: provider.FilterParameters{"minLevel": "5"},
	})

	f.fireAlarm(t, 3)
	assert.Equal(t, 0, f.rec.count())

	f.fireAlarm(t, 7)
	require.Equal(t, 1, f.rec.count())
	assert.Equal(t, 7, f.rec.last().pub.Response[0])
}

func TestBroadcastFilterPanicSuppressesDelivery(t *testing.T) {
	f := newFixture(t)
	f.alarm.AddFilter(provider.FilterFunc(func(provider.OutputParameters, provider.FilterParameters) bool {
		panic("bad filter")
	}))
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		Qos:              qos.Multicast(time.Second),
		FilterParameters: provider.FilterParameters{"minLevel": "1"},
	})

	f.fireAlarm(t, 9)
	assert.Equal(t, 0, f.rec.count())
	assert.Equal(t, 1, f.mgr.Count(), "a filter panic does not end the subscription")
}

func TestBroadcastWithoutFilterParametersSkipsFilters(t *testing.T) {
	f := newFixture(t)
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		Qos: qos.Multicast(time.Second),
	})

	f.fireAlarm(t, 0)
	assert.Equal(t, 1, f.rec.count())
}

func TestBroadcastThrottle(t *testing.T) {
	f := newFixture(t)
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		SubscriptionID: "throttled",
		Qos:            qos.Multicast(time.Second).WithMinInterval(500 * time.Millisecond),
	})

	f.fireAlarm(t, 1)
	require.Equal(t, 1, f.rec.count())

	f.advance(100 * time.Millisecond)
	f.fireAlarm(t, 2)
	f.fireAlarm(t, 3)
	assert.Equal(t, 1, f.rec.count())

	f.advance(400 * time.Millisecond)
	f.rec.waitCount(t, 2)
	got := f.rec.last()
	assert.Equal(t, 3, got.pub.Response[0], "latest fire wins")
	assert.Equal(t, 500*time.Millisecond, offset(got))

	// Nothing pending: the next window stays quiet.
	f.advance(time.Second)
	f.rec.assertStays(t, 2)
}

func TestBroadcastOnChangeQos(t *testing.T) {
	f := newFixture(t)
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		Qos: qos.OnChange(0),
	})

	f.fireAlarm(t, 1)
	f.fireAlarm(t, 2)
	assert.Equal(t, 2, f.rec.count())
}

func TestBroadcastAdmissionErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    publication.BroadcastSubscriptionRequest
		want   error
		detail string
	}{
		{
			name:   "unknown event",
			req:    publication.BroadcastSubscriptionRequest{SubscribedToName: "fire", Qos: qos.Multicast(time.Second)},
			want:   publication.ErrUnknownEvent,
			detail: "misses event",
		},
		{
			name:   "periodic qos",
			req:    publication.BroadcastSubscriptionRequest{SubscribedToName: "alarm", Qos: qos.Periodic(time.Second)},
			want:   publication.ErrInvalidQos,
			detail: "not valid for broadcasts",
		},
		{
			name: "undeclared filter parameter",
			req: publication.BroadcastSubscriptionRequest{
				SubscribedToName: "alarm",
				Qos:              qos.Multicast(time.Second),
				FilterParameters: provider.FilterParameters{"room": "kitchen"},
			},
			want:   publication.ErrInvalidFilterParameters,
			detail: "room",
		},
		{
			name: "invalid partition",
			req: publication.BroadcastSubscriptionRequest{
				SubscribedToName: "alarm",
				Qos:              qos.Multicast(time.Second),
				Partitions:       []string{"floor1", "kitchen/sink"},
			},
			want:   publication.ErrInvalidPartition,
			detail: "kitchen/sink",
		},
		{
			name: "empty partition",
			req: publication.BroadcastSubscriptionRequest{
				SubscribedToName: "alarm",
				Qos:              qos.Multicast(time.Second),
				Partitions:       []string{""},
			},
			want: publication.ErrInvalidPartition,
		},
		{
			name: "negative min interval",
			req: publication.BroadcastSubscriptionRequest{
				SubscribedToName: "alarm",
				Qos:              qos.Multicast(time.Second).WithMinInterval(-time.Millisecond),
			},
			want: qos.ErrMinIntervalTooSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.mgr.HandleEventSubscriptionRequest(proxyID, providerID, tt.req)

			var subErr *publication.SubscriptionError
			require.ErrorAs(t, err, &subErr)
			assert.ErrorIs(t, err, tt.want)
			if tt.detail != "" {
				assert.Contains(t, subErr.DetailMessage, tt.detail)
			}
			assert.False(t, f.mgr.HasSubscriptionsForProviderEvent(providerID, "alarm"))
		})
	}
}

func TestBroadcastExpiry(t *testing.T) {
	f := newFixture(t)
	f.subscribeAlarm(t, publication.BroadcastSubscriptionRequest{
		Qos: qos.Multicast(time.Second).WithExpiry(epoch.Add(time.Second)),
	})

	f.fireAlarm(t, 1)
	require.Equal(t, 1, f.rec.count())

	f.advance(time.Second)
	require.Eventually(t, func() bool { return f.mgr.Count() == 0 }, waitFor, tick)

	f.fireAlarm(t, 2)
	assert.Equal(t, 1, f.rec.count())
}
