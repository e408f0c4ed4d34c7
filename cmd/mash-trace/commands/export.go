package commands

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
)

// RunExport exports the events of path matching filter to the specified
// format. An empty output writes to stdout.
func RunExport(path, format, output string, filter log.Filter) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

// jsonEvent is the JSONL export record. Enum fields are written by name.
type jsonEvent struct {
	Timestamp      string         `json:"timestamp"`
	SubscriptionID string         `json:"subscription_id"`
	ProviderID     string         `json:"provider_id,omitempty"`
	ProxyID        string         `json:"proxy_id,omitempty"`
	Member         string         `json:"member,omitempty"`
	Category       string         `json:"category"`
	Details        map[string]any `json:"details,omitempty"`
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		rec := jsonEvent{
			Timestamp:      event.Timestamp.UTC().Format(timestampLayout),
			SubscriptionID: event.SubscriptionID,
			ProviderID:     event.ProviderID,
			ProxyID:        event.ProxyID,
			Member:         event.Member,
			Category:       event.Category.String(),
			Details:        details(event),
		}
		if err := encoder.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func details(event log.Event) map[string]any {
	switch {
	case event.Lifecycle != nil:
		return map[string]any{
			"old_state": event.Lifecycle.OldState,
			"new_state": event.Lifecycle.NewState,
			"reason":    event.Lifecycle.Reason,
			"qos":       event.Lifecycle.Qos,
		}
	case event.Publication != nil:
		d := map[string]any{"trigger": event.Publication.Trigger.String()}
		if event.Publication.Error != "" {
			d["error"] = event.Publication.Error
		} else {
			d["payload"] = event.Publication.Payload
		}
		if !event.Publication.ExpiryDate.IsZero() {
			d["expiry_date"] = event.Publication.ExpiryDate.UnixMilli()
		}
		return d
	case event.Rejection != nil:
		return map[string]any{"reason": event.Rejection.Reason}
	case event.Error != nil:
		return map[string]any{"message": event.Error.Message, "context": event.Error.Context}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "subscription_id", "provider_id", "proxy_id", "member", "category", "detail", "expiry_ms"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		detail := ""
		expiry := ""
		switch {
		case event.Lifecycle != nil:
			detail = event.Lifecycle.NewState
		case event.Publication != nil:
			detail = event.Publication.Trigger.String()
			if !event.Publication.ExpiryDate.IsZero() {
				expiry = strconv.FormatInt(event.Publication.ExpiryDate.UnixMilli(), 10)
			}
		case event.Rejection != nil:
			detail = event.Rejection.Reason
		case event.Error != nil:
			detail = event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format(timestampLayout),
			event.SubscriptionID,
			event.ProviderID,
			event.ProxyID,
			event.Member,
			event.Category.String(),
			detail,
			expiry,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
}
