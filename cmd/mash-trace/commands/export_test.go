package commands

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
)

var traceStart = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

// createTestTraceFile writes events to a temporary trace file.
func createTestTraceFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.cbor")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

// sampleTrace is a subscription admitted, publishing twice and stopped,
// plus one rejected request.
func sampleTrace() []log.Event {
	return []log.Event{
		{
			Timestamp:      traceStart,
			SubscriptionID: "sub-00000001",
			ProviderID:     "thermostat",
			ProxyID:        "proxy-1",
			Member:         "temperature",
			Category:       log.CategoryLifecycle,
			Lifecycle:      &log.LifecycleEvent{NewState: "active", Qos: "MIXED"},
		},
		{
			Timestamp:      traceStart.Add(time.Millisecond),
			SubscriptionID: "sub-00000001",
			ProviderID:     "thermostat",
			ProxyID:        "proxy-1",
			Member:         "temperature",
			Category:       log.CategoryPublication,
			Publication: &log.PublicationEvent{
				Trigger:    log.TriggerInitial,
				Payload:    21.5,
				ExpiryDate: traceStart.Add(10 * time.Second),
			},
		},
		{
			Timestamp:      traceStart.Add(time.Second),
			SubscriptionID: "sub-00000001",
			ProviderID:     "thermostat",
			ProxyID:        "proxy-1",
			Member:         "temperature",
			Category:       log.CategoryPublication,
			Publication:    &log.PublicationEvent{Trigger: log.TriggerHeartbeat, Error: "sensor offline"},
		},
		{
			Timestamp:      traceStart.Add(2 * time.Second),
			SubscriptionID: "sub-00000001",
			ProviderID:     "thermostat",
			ProxyID:        "proxy-1",
			Member:         "temperature",
			Category:       log.CategoryLifecycle,
			Lifecycle:      &log.LifecycleEvent{OldState: "active", NewState: "stopped", Reason: "stop"},
		},
		{
			Timestamp:      traceStart.Add(3 * time.Second),
			SubscriptionID: "sub-2",
			ProviderID:     "thermostat",
			ProxyID:        "proxy-2",
			Member:         "humidity",
			Category:       log.CategoryRejection,
			Rejection:      &log.RejectionEvent{Reason: "Provider: thermostat misses attribute humidity"},
		},
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestTraceFile(t, sampleTrace())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out, log.Filter{}); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		records = append(records, rec)
	}

	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	if records[0]["category"] != "LIFECYCLE" {
		t.Errorf("expected LIFECYCLE, got %v", records[0]["category"])
	}
	if records[0]["timestamp"] != "2026-01-28T10:15:32.123456Z" {
		t.Errorf("unexpected timestamp %v", records[0]["timestamp"])
	}

	details, ok := records[1]["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details on publication record")
	}
	if details["trigger"] != "INITIAL" {
		t.Errorf("expected INITIAL trigger, got %v", details["trigger"])
	}
	if details["payload"] != 21.5 {
		t.Errorf("expected payload 21.5, got %v", details["payload"])
	}
	if details["expiry_date"] != float64(traceStart.Add(10*time.Second).UnixMilli()) {
		t.Errorf("unexpected expiry_date %v", details["expiry_date"])
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestTraceFile(t, sampleTrace())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out, log.Filter{ProxyID: "proxy-1"}); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,subscription_id") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[2], "PUBLICATION,INITIAL,") {
		t.Errorf("expected initial publication row, got %s", lines[2])
	}
	if !strings.Contains(lines[4], "LIFECYCLE,stopped") {
		t.Errorf("expected stopped row, got %s", lines[4])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestTraceFile(t, sampleTrace())

	err := RunExport(path, "xml", "", log.Filter{})
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}
