// Command mash-trace is a tool for viewing and analyzing publication trace
// files.
//
// Trace files are written by mash-pubsub with the --trace-file flag, or by
// any program that sets publication.Config.TraceLogger to a log.FileLogger.
//
// Usage:
//
//	mash-trace <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSONL or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	mash-trace view pubsub.cbor
//
//	# View only heartbeat publications
//	mash-trace view --category publication --trigger heartbeat pubsub.cbor
//
//	# Export one subscription to CSV
//	mash-trace export --format csv --subscription sub-1 pubsub.cbor
//
//	# Keep only rejections
//	mash-trace filter --category rejection -o rejected.cbor pubsub.cbor
//
//	# Show statistics
//	mash-trace stats pubsub.cbor
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mash-protocol/mash-pubsub/cmd/mash-trace/commands"
	"github.com/mash-protocol/mash-pubsub/pkg/log"
)

const usage = `mash-trace - Publication Trace Analyzer

Usage:
  mash-trace <command> [flags] <file.cbor>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSONL or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "mash-trace <command> --help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "mash-trace %s - %s\n\nUsage:\n  mash-trace %s [flags] <file.cbor>\n\nFlags:\n", name, synopsis, name)
		fs.PrintDefaults()
	}
	return fs
}

func addFilterFlags(fs *flag.FlagSet, opts *commands.FilterOptions) {
	fs.StringVar(&opts.SubscriptionID, "subscription", "", "Filter by subscription ID")
	fs.StringVar(&opts.ProviderID, "provider", "", "Filter by provider ID")
	fs.StringVar(&opts.ProxyID, "proxy", "", "Filter by subscribing proxy ID")
	fs.StringVar(&opts.Member, "member", "", "Filter by attribute or event name")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (lifecycle, publication, rejection, error)")
	fs.StringVar(&opts.Trigger, "trigger", "", "Filter publications by trigger (initial, change, heartbeat, broadcast)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
}

// parseArgs parses fs and returns the trace file path and event filter.
func parseArgs(fs *flag.FlagSet, args []string, opts *commands.FilterOptions) (string, log.Filter) {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	var filter log.Filter
	if opts != nil {
		var err error
		if filter, err = commands.BuildFilter(*opts); err != nil {
			fatal(err)
		}
	}
	return fs.Arg(0), filter
}

func runView(args []string) {
	fs := newFlagSet("view", "View trace file in human-readable format")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)

	path, filter := parseArgs(fs, args, &opts)
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export trace file to JSONL or CSV format")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "Output file (default: stdout)")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)

	path, filter := parseArgs(fs, args, &opts)
	if err := commands.RunExport(path, *format, *output, filter); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter trace file and write to new file")
	output := fs.StringP("output", "o", "", "Output file (required)")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)

	path, filter := parseArgs(fs, args, &opts)
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	count, err := commands.RunFilter(path, *output, filter)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the trace file")
	path, _ := parseArgs(fs, args, nil)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
