package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// SubscriptionState is the on-disk content of a FileStore.
type SubscriptionState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Subscriptions holds the admitted requests by subscription ID.
	Subscriptions map[string]publication.StoredSubscription `json:"subscriptions,omitempty"`
}

// FileStore persists subscription requests to a JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a new file store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save adds or replaces a request.
func (s *FileStore) Save(sub publication.StoredSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return err
	}
	state.Subscriptions[sub.SubscriptionID()] = sub
	return s.write(state)
}

// Delete removes a request. Unknown IDs are ignored.
func (s *FileStore) Delete(subscriptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := state.Subscriptions[subscriptionID]; !ok {
		return nil
	}
	delete(state.Subscriptions, subscriptionID)
	return s.write(state)
}

// Load returns all stored requests ordered by StoredAt.
// A missing file yields an empty result.
func (s *FileStore) Load() ([]publication.StoredSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return nil, err
	}

	subs := make([]publication.StoredSubscription, 0, len(state.Subscriptions))
	for _, sub := range state.Subscriptions {
		subs = append(subs, sub)
	}
	sortStored(subs)
	return subs, nil
}

// Clear removes the state file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStore) read() (*SubscriptionState, error) {
	state := &SubscriptionState{}

	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, state); err != nil {
			return nil, err
		}
	}

	if state.Subscriptions == nil {
		state.Subscriptions = make(map[string]publication.StoredSubscription)
	}
	return state, nil
}

func (s *FileStore) write(state *SubscriptionState) error {
	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// sortStored orders requests by StoredAt, then by ID.
func sortStored(subs []publication.StoredSubscription) {
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].StoredAt.Equal(subs[j].StoredAt) {
			return subs[i].StoredAt.Before(subs[j].StoredAt)
		}
		return subs[i].SubscriptionID() < subs[j].SubscriptionID()
	})
}

var _ publication.Store = (*FileStore)(nil)
