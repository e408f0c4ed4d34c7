package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

func setupBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadgerStore(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore_SaveLoad(t *testing.T) {
	store := setupBadgerStore(t)

	require.NoError(t, store.Save(broadcastSub("b", storedAt.Add(time.Second))))
	require.NoError(t, store.Save(attributeSub("a", storedAt)))

	subs, err := store.Load()
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, "a", subs[0].SubscriptionID())
	assert.Equal(t, publication.MemberAttribute, subs[0].Kind)
	assert.True(t, subs[0].StoredAt.Equal(storedAt))
	assert.True(t, subs[0].Request.Qos.ExpiryDate.Equal(storedAt.Add(90*time.Minute)))

	assert.Equal(t, "b", subs[1].SubscriptionID())
	assert.Equal(t, []string{"floor1", "kitchen"}, subs[1].Broadcast.Partitions)
	assert.Equal(t, "3", subs[1].Broadcast.FilterParameters["minLevel"])
	assert.Equal(t, 250*time.Millisecond, subs[1].Broadcast.Qos.MinInterval)
}

func TestBadgerStore_SaveReplaces(t *testing.T) {
	store := setupBadgerStore(t)

	sub := attributeSub("a", storedAt)
	require.NoError(t, store.Save(sub))
	sub.ProxyID = "proxy-9"
	require.NoError(t, store.Save(sub))

	subs, err := store.Load()
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "proxy-9", subs[0].ProxyID)
}

func TestBadgerStore_Delete(t *testing.T) {
	store := setupBadgerStore(t)

	require.NoError(t, store.Save(attributeSub("a", storedAt)))
	require.NoError(t, store.Save(attributeSub("b", storedAt)))
	require.NoError(t, store.Delete("a"))
	require.NoError(t, store.Delete("never-saved"))

	subs, err := store.Load()
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "b", subs[0].SubscriptionID())
}

func TestBadgerStore_RejectsMissingID(t *testing.T) {
	store := setupBadgerStore(t)
	assert.Error(t, store.Save(publication.StoredSubscription{ProviderID: "thermostat"}))
}

func TestBadgerStore_Persistent(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenBadgerStore(BadgerConfig{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, store.Save(attributeSub("a", storedAt)))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "second close is a no-op")

	reopened, err := OpenBadgerStore(BadgerConfig{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	subs, err := reopened.Load()
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "a", subs[0].SubscriptionID())
}
