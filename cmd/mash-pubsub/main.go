// Command mash-pubsub runs the publication engine against a simulated
// thermostat provider.
//
// The command wires together:
//   - YAML configuration with command line overrides
//   - structured logging and an optional CBOR trace file
//   - a file or badger subscription store
//   - a circuit-breaking dispatcher printing publications to stdout
//   - an interactive shell for subscribing, stopping and firing events
//
// Usage:
//
//	mash-pubsub [flags]
//
// Flags:
//
//	--config string       Configuration file path
//	--log-level string    Log level: debug, info, warn, error
//	--log-format string   Log format: text, json
//	--trace-file string   Append CBOR trace events to this file
//	--store string        Subscription store: none, file, badger
//	--store-path string   Store file or directory
//	--interactive         Start the interactive shell
//	--simulate            Drift the simulated temperature
//
// Examples:
//
//	# Interactive session with a JSON state file
//	mash-pubsub --interactive --store file --store-path subs.json
//
//	# Headless simulation with tracing
//	mash-pubsub --simulate --trace-file pubsub.cbor --log-level debug
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/mash-protocol/mash-pubsub/cmd/mash-pubsub/interactive"
	"github.com/mash-protocol/mash-pubsub/pkg/config"
)

// Command-line flags.
var (
	configFile      string
	logLevel        string
	logFormat       string
	traceFile       string
	storeType       string
	storePath       string
	interactiveMode bool
	simulate        bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&logFormat, "log-format", "", "Log format: text, json")
	flag.StringVar(&traceFile, "trace-file", "", "Append CBOR trace events to this file")
	flag.StringVar(&storeType, "store", "", "Subscription store: none, file, badger")
	flag.StringVar(&storePath, "store-path", "", "Store file or directory")
	flag.BoolVarP(&interactiveMode, "interactive", "i", false, "Start the interactive shell")
	flag.BoolVar(&simulate, "simulate", false, "Drift the simulated temperature")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	logger.Info("mash-pubsub started",
		"provider", thermostatID,
		"store", cfg.Store.Type,
		"restored", rt.manager.Count())

	if simulate {
		go runSimulation(ctx, rt.thermostat, logger)
	}

	if interactiveMode {
		shell, err := interactive.New(rt.manager, rt.thermostat, rt)
		if err != nil {
			logger.Error("Failed to start interactive shell", "error", err)
			os.Exit(1)
		}
		go shell.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if traceFile != "" {
		cfg.Trace.File = traceFile
	}
	if storeType != "" {
		cfg.Store.Type = storeType
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
