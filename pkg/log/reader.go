package log

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects trace events. Empty fields match everything.
type Filter struct {
	SubscriptionID string
	ProviderID     string
	ProxyID        string
	Member         string
	Category       *Category
	Trigger        *Trigger
	TimeStart      *time.Time
	TimeEnd        *time.Time
}

func (f *Filter) matches(event Event) bool {
	if f.SubscriptionID != "" && event.SubscriptionID != f.SubscriptionID {
		return false
	}
	if f.ProviderID != "" && event.ProviderID != f.ProviderID {
		return false
	}
	if f.ProxyID != "" && event.ProxyID != f.ProxyID {
		return false
	}
	if f.Member != "" && event.Member != f.Member {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Trigger != nil && (event.Publication == nil || event.Publication.Trigger != *f.Trigger) {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams trace events from a CBOR file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader opens a trace file and reads every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a trace file and reads events matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll returns every event in path matching filter.
func ReadAll(path string, filter Filter) ([]Event, error) {
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var events []Event
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}
