package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/mash-pubsub/pkg/provider"
	"github.com/mash-protocol/mash-pubsub/pkg/publication"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

func newRestoreManager(t *testing.T, store publication.Store, out chan<- publication.Publication) *publication.Manager {
	t.Helper()

	config := publication.DefaultConfig()
	config.Store = store
	mgr, err := publication.NewManager(publication.DispatcherFunc(func(_ publication.MessagingInfo, pub publication.Publication) {
		out <- pub
	}), config)
	require.NoError(t, err)
	t.Cleanup(mgr.Shutdown)
	return mgr
}

func TestSubscriptionsSurviveRestart(t *testing.T) {
	stores := map[string]func(t *testing.T) publication.Store{
		"file": func(t *testing.T) publication.Store {
			return NewFileStore(filepath.Join(t.TempDir(), "subs.json"))
		},
		"badger": func(t *testing.T) publication.Store {
			return setupBadgerStore(t)
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			thermostat := provider.NewStatic().WithAttribute("temperature", provider.NewValue(21))

			first := make(chan publication.Publication, 8)
			mgr := newRestoreManager(t, store, first)
			require.NoError(t, mgr.AddPublicationProvider("thermostat", thermostat))

			_, err := mgr.HandleSubscriptionRequest("proxy-1", "thermostat", publication.SubscriptionRequest{
				SubscriptionID:   "kept",
				SubscribedToName: "temperature",
				Qos:              qos.Periodic(time.Hour),
			})
			require.NoError(t, err)
			_, err = mgr.HandleSubscriptionRequest("proxy-1", "thermostat", publication.SubscriptionRequest{
				SubscriptionID:   "stopped",
				SubscribedToName: "temperature",
				Qos:              qos.Periodic(time.Hour),
			})
			require.NoError(t, err)
			mgr.HandleSubscriptionStop(publication.SubscriptionStop{SubscriptionID: "stopped"})
			mgr.Shutdown()

			stored, err := store.Load()
			require.NoError(t, err)
			require.Len(t, stored, 1)
			assert.Equal(t, "kept", stored[0].SubscriptionID())

			second := make(chan publication.Publication, 8)
			restarted := newRestoreManager(t, store, second)
			require.NoError(t, restarted.AddPublicationProvider("thermostat", thermostat))

			assert.Equal(t, []string{"kept"}, restarted.SubscriptionIDs())
			select {
			case pub := <-second:
				assert.Equal(t, "kept", pub.SubscriptionID)
				assert.Equal(t, []any{21}, pub.Response)
			case <-time.After(2 * time.Second):
				t.Fatal("restored subscription did not publish")
			}
		})
	}
}
