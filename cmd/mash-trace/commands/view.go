// Package commands implements the mash-trace CLI commands.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// RunView writes every event matching filter in human-readable form.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [sub:id] CATEGORY provider/member -> proxy
	ts := event.Timestamp.UTC().Format(timestampLayout)
	fmt.Fprintf(w, "%s [sub:%s] %-11s %s\n", ts, shortenID(event.SubscriptionID), event.Category.String(), route(event))

	switch {
	case event.Lifecycle != nil:
		formatLifecycleDetails(w, event.Lifecycle)
	case event.Publication != nil:
		formatPublicationDetails(w, event.Publication)
	case event.Rejection != nil:
		fmt.Fprintf(w, "  Reason: %s\n", event.Rejection.Reason)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a subscription ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func route(event log.Event) string {
	var b strings.Builder
	b.WriteString(event.ProviderID)
	if event.Member != "" {
		b.WriteString("/")
		b.WriteString(event.Member)
	}
	if event.ProxyID != "" {
		b.WriteString(" -> ")
		b.WriteString(event.ProxyID)
	}
	return b.String()
}

func formatLifecycleDetails(w io.Writer, lc *log.LifecycleEvent) {
	if lc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", lc.OldState, lc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", lc.NewState)
	}
	if lc.Qos != "" {
		fmt.Fprintf(w, "  QoS: %s\n", lc.Qos)
	}
	if lc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", lc.Reason)
	}
}

func formatPublicationDetails(w io.Writer, pub *log.PublicationEvent) {
	fmt.Fprintf(w, "  Trigger: %s\n", pub.Trigger.String())
	if pub.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", pub.Error)
	} else if pub.Payload != nil {
		payload, err := json.Marshal(pub.Payload)
		if err == nil {
			fmt.Fprintf(w, "  Payload: %s\n", payload)
		} else {
			fmt.Fprintf(w, "  Payload: %v\n", pub.Payload)
		}
	}
	if !pub.ExpiryDate.IsZero() {
		fmt.Fprintf(w, "  Expires: %s\n", pub.ExpiryDate.UTC().Format(timestampLayout))
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Error: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// ParseCategory parses a category flag value.
func ParseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "lifecycle":
		return log.CategoryLifecycle, nil
	case "publication":
		return log.CategoryPublication, nil
	case "rejection":
		return log.CategoryRejection, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (valid: lifecycle, publication, rejection, error)", s)
	}
}

// ParseTrigger parses a trigger flag value.
func ParseTrigger(s string) (log.Trigger, error) {
	switch strings.ToLower(s) {
	case "initial":
		return log.TriggerInitial, nil
	case "change":
		return log.TriggerChange, nil
	case "heartbeat":
		return log.TriggerHeartbeat, nil
	case "broadcast":
		return log.TriggerBroadcast, nil
	default:
		return 0, fmt.Errorf("invalid trigger: %s (valid: initial, change, heartbeat, broadcast)", s)
	}
}

// ParseTime parses an RFC3339 flag value.
func ParseTime(name, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %w", name, err)
	}
	return t, nil
}
