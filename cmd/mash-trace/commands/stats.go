package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents        int
	EventsByCategory   map[log.Category]int
	PublicationsByTrig map[log.Trigger]int
	Subscriptions      map[string]*SubscriptionStats
	GetterErrors       int
	TimeRange          struct {
		Start time.Time
		End   time.Time
	}
}

// SubscriptionStats holds statistics for a single subscription.
type SubscriptionStats struct {
	FirstSeen    time.Time
	LastSeen     time.Time
	ProviderID   string
	Member       string
	ProxyID      string
	Qos          string
	Publications int
	FinalState   string
	Rejected     bool
}

// CollectStats reads path and aggregates its events.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:   make(map[log.Category]int),
		PublicationsByTrig: make(map[log.Trigger]int),
		Subscriptions:      make(map[string]*SubscriptionStats),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.SubscriptionID == "" {
		return
	}

	sub, ok := s.Subscriptions[event.SubscriptionID]
	if !ok {
		sub = &SubscriptionStats{
			FirstSeen:  event.Timestamp,
			LastSeen:   event.Timestamp,
			ProviderID: event.ProviderID,
			Member:     event.Member,
			ProxyID:    event.ProxyID,
		}
		s.Subscriptions[event.SubscriptionID] = sub
	}
	if event.Timestamp.After(sub.LastSeen) {
		sub.LastSeen = event.Timestamp
	}

	switch {
	case event.Lifecycle != nil:
		sub.FinalState = event.Lifecycle.NewState
		if event.Lifecycle.Qos != "" {
			sub.Qos = event.Lifecycle.Qos
		}
	case event.Publication != nil:
		sub.Publications++
		s.PublicationsByTrig[event.Publication.Trigger]++
		if event.Publication.Error != "" {
			s.GetterErrors++
		}
	case event.Rejection != nil:
		sub.Rejected = true
	}
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Publication Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryLifecycle, log.CategoryPublication, log.CategoryRejection, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Publications by Trigger:")
	for _, tr := range []log.Trigger{log.TriggerInitial, log.TriggerChange, log.TriggerHeartbeat, log.TriggerBroadcast} {
		if count := stats.PublicationsByTrig[tr]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", tr.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Subscriptions: %d\n", len(stats.Subscriptions))
	if len(stats.Subscriptions) > 0 {
		type subInfo struct {
			id    string
			stats *SubscriptionStats
		}
		subs := make([]subInfo, 0, len(stats.Subscriptions))
		for id, ss := range stats.Subscriptions {
			subs = append(subs, subInfo{id, ss})
		}
		sort.Slice(subs, func(i, j int) bool {
			if subs[i].stats.FirstSeen.Equal(subs[j].stats.FirstSeen) {
				return subs[i].id < subs[j].id
			}
			return subs[i].stats.FirstSeen.Before(subs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, sub := range subs {
			fmt.Fprintf(w, "  [%s] %s/%s -> %s\n", shortenID(sub.id), sub.stats.ProviderID, sub.stats.Member, sub.stats.ProxyID)
			if sub.stats.Rejected {
				fmt.Fprintln(w, "           Rejected")
				continue
			}
			fmt.Fprintf(w, "           %s, %d publications, state %s\n", sub.stats.Qos, sub.stats.Publications, sub.stats.FinalState)
		}
	}

	if stats.GetterErrors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Getter errors: %d\n", stats.GetterErrors)
	}
}
