// Package interactive provides the interactive command-line interface
// for mash-pubsub.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

// Provider is the simulated provider driven from the shell.
type Provider interface {
	ID() string
	Attributes() []string
	Events() []string
	Set(attribute, value string) error
	Fire(level int, message string, partitions []string) error
}

// Reporter writes runtime statistics.
type Reporter interface {
	Report(ctx context.Context, w io.Writer) error
}

// Shell handles interactive mode for mash-pubsub.
type Shell struct {
	manager  *publication.Manager
	provider Provider
	reporter Reporter
	rl       *readline.Instance
	out      io.Writer
	now      func() time.Time
}

// New creates a new interactive shell.
func New(manager *publication.Manager, p Provider, reporter Reporter) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pubsub> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		manager:  manager,
		provider: p,
		reporter: reporter,
		rl:       rl,
		out:      rl.Stdout(),
		now:      time.Now,
	}, nil
}

// Run reads commands until quit, EOF or ctx cancellation.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if !s.execute(ctx, line) {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// execute runs one command line and reports whether the shell should
// keep running.
func (s *Shell) execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "subscribe", "sub":
		s.cmdSubscribe(args)

	case "subscribe-event", "sube":
		s.cmdSubscribeEvent(args)

	case "stop":
		s.cmdStop(args)

	case "list", "ls":
		s.cmdList()

	case "set":
		s.cmdSet(args)

	case "fire":
		s.cmdFire(args)

	case "status":
		s.cmdStatus(ctx)

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintf(s.out, `
Commands:
  subscribe <attr> periodic <period> [opts]          Periodic subscription
  subscribe <attr> onchange <minInterval> [opts]     On-change subscription
  subscribe <attr> mixed <min> <max> [opts]          Mixed subscription
      opts: proxy=<id> id=<subId> expiry=<dur> ttl=<dur> alert=<dur>
  subscribe-event <event> [opts]                     Broadcast subscription
      opts: proxy=<id> id=<subId> expiry=<dur> validity=<dur> min=<dur>
            onchange=<dur> partitions=a,b <filterParam>=<value>
  stop <subscriptionId>                              Stop a subscription
  list                                               List subscriptions
  set <attr> <value>                                 Change an attribute
  fire <level> <message> [partition...]              Fire the alarm event
  status                                             Dispatch and metric counters
  help                                               Show this help
  quit                                               Exit

Provider %s: attributes %s, events %s
Durations are Go durations (500ms, 2s) or bare milliseconds.
`, s.provider.ID(), strings.Join(s.provider.Attributes(), ", "), strings.Join(s.provider.Events(), ", "))
}

func (s *Shell) cmdSubscribe(args []string) {
	name, req, err := parseAttributeArgs(args, s.now())
	if err != nil {
		fmt.Fprintf(s.out, "Usage error: %v\n", err)
		return
	}

	id, err := s.manager.HandleSubscriptionRequest(req.proxyID, s.provider.ID(), publication.SubscriptionRequest{
		SubscriptionID:   req.subscriptionID,
		SubscribedToName: name,
		Qos:              req.qos,
	})
	s.printAdmission(id, err)
}

func (s *Shell) cmdSubscribeEvent(args []string) {
	name, req, err := parseEventArgs(args, s.now())
	if err != nil {
		fmt.Fprintf(s.out, "Usage error: %v\n", err)
		return
	}

	id, err := s.manager.HandleEventSubscriptionRequest(req.proxyID, s.provider.ID(), publication.BroadcastSubscriptionRequest{
		SubscriptionID:   req.subscriptionID,
		SubscribedToName: name,
		Qos:              req.qos,
		FilterParameters: req.filters,
		Partitions:       req.partitions,
	})
	s.printAdmission(id, err)
}

func (s *Shell) printAdmission(id string, err error) {
	if err != nil {
		fmt.Fprintf(s.out, "Subscription failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Subscribed: %s\n", id)
}

func (s *Shell) cmdStop(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: stop <subscriptionId>")
		return
	}
	s.manager.HandleSubscriptionStop(publication.SubscriptionStop{SubscriptionID: args[0]})
	fmt.Fprintln(s.out, "OK")
}

func (s *Shell) cmdList() {
	ids := s.manager.SubscriptionIDs()
	if len(ids) == 0 {
		fmt.Fprintln(s.out, "No active subscriptions")
		return
	}

	fmt.Fprintf(s.out, "\nActive subscriptions (%d):\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(s.out, "  %s\n", id)
	}
	fmt.Fprintln(s.out)
}

func (s *Shell) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: set <attr> <value>")
		fmt.Fprintln(s.out, "  Example: set temperature 23.5")
		return
	}
	if err := s.provider.Set(args[0], args[1]); err != nil {
		fmt.Fprintf(s.out, "Set failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "OK")
}

func (s *Shell) cmdFire(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: fire <level> <message> [partition...]")
		fmt.Fprintln(s.out, "  Example: fire 3 overheat livingroom")
		return
	}
	level, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid level: %s\n", args[0])
		return
	}
	if err := s.provider.Fire(level, args[1], args[2:]); err != nil {
		fmt.Fprintf(s.out, "Fire failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "OK")
}

func (s *Shell) cmdStatus(ctx context.Context) {
	if s.reporter == nil {
		fmt.Fprintf(s.out, "Subscriptions: %d\n", s.manager.Count())
		return
	}
	if err := s.reporter.Report(ctx, s.out); err != nil {
		fmt.Fprintf(s.out, "Status failed: %v\n", err)
	}
}
