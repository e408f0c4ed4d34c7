package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
)

// FilterOptions specifies event selection criteria as given on the
// command line.
type FilterOptions struct {
	SubscriptionID string
	ProviderID     string
	ProxyID        string
	Member         string
	Category       string
	Trigger        string
	TimeStart      string
	TimeEnd        string
}

// BuildFilter converts command line options to a log.Filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		SubscriptionID: opts.SubscriptionID,
		ProviderID:     opts.ProviderID,
		ProxyID:        opts.ProxyID,
		Member:         opts.Member,
	}

	if opts.Category != "" {
		c, err := ParseCategory(opts.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}

	if opts.Trigger != "" {
		tr, err := ParseTrigger(opts.Trigger)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Trigger = &tr
	}

	if opts.TimeStart != "" {
		t, err := ParseTime("time-start", opts.TimeStart)
		if err != nil {
			return log.Filter{}, err
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := ParseTime("time-end", opts.TimeEnd)
		if err != nil {
			return log.Filter{}, err
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// RunFilter copies the events of path matching filter to output and
// returns how many were written.
func RunFilter(path, output string, filter log.Filter) (int, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	if _, failed := logger.Stats(); failed > 0 {
		return count, fmt.Errorf("failed to write %d events", failed)
	}
	return count, nil
}
