package persistence

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

// keyPrefix namespaces subscription records.
//
// Key format: sub:{subscriptionID}
const keyPrefix = "sub:"

// recordMode keeps expiry dates at full precision.
var recordMode = mustEncMode(cbor.EncOptions{Time: cbor.TimeRFC3339Nano})

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("persistence: cbor encoder mode: %v", err))
	}
	return em
}

// BadgerConfig holds BadgerDB configuration.
type BadgerConfig struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the database in memory only.
	InMemory bool

	// GCInterval is the value log GC interval. Zero selects 5 minutes.
	GCInterval time.Duration
}

// BadgerStore persists subscription requests in BadgerDB.
type BadgerStore struct {
	db *badger.DB

	gcStopCh chan struct{}
	gcDone   chan struct{}
	closed   bool
	mu       sync.Mutex
}

// OpenBadgerStore opens (or creates) a BadgerDB-backed store.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.NumVersionsToKeep = 1

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	s := &BadgerStore{
		db:       db,
		gcStopCh: make(chan struct{}),
		gcDone:   make(chan struct{}),
	}
	go s.runGC(interval, cfg.InMemory)

	return s, nil
}

// Save adds or replaces a request.
func (s *BadgerStore) Save(sub publication.StoredSubscription) error {
	id := sub.SubscriptionID()
	if id == "" {
		return errors.New("stored subscription has no ID")
	}

	data, err := recordMode.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+id), data)
	})
}

// Delete removes a request. Unknown IDs are ignored.
func (s *BadgerStore) Delete(subscriptionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + subscriptionID))
	})
}

// Load returns all stored requests ordered by StoredAt.
func (s *BadgerStore) Load() ([]publication.StoredSubscription, error) {
	var subs []publication.StoredSubscription

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var sub publication.StoredSubscription
				if err := cbor.Unmarshal(val, &sub); err != nil {
					return fmt.Errorf("failed to unmarshal %s: %w", item.Key(), err)
				}
				subs = append(subs, sub)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortStored(subs)
	return subs, nil
}

// Close stops value log GC and closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.gcStopCh)
	<-s.gcDone

	return s.db.Close()
}

// runGC runs value log garbage collection periodically.
func (s *BadgerStore) runGC(interval time.Duration, inMemory bool) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if inMemory {
				continue
			}
			// Returns an error when nothing was rewritten.
			_ = s.db.RunValueLogGC(0.5)
		case <-s.gcStopCh:
			return
		}
	}
}

var _ publication.Store = (*BadgerStore)(nil)
