// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// icecap-resource inspects the static resources of a World of Warcraft
// client: the MPQ archives below the data directory and the client
// databases and minimap textures inside them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/suprsokr/icecap/config"
	"github.com/suprsokr/icecap/mpq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env carries what every command needs.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
}

// command is one subcommand of the tool.
type command struct {
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"list":    {"list", runList},
	"exists":  {"exists <name>", runExists},
	"cat":     {"cat <name>", runCat},
	"info":    {"info <archive>", runInfo},
	"dbc":     {"dbc [--id N] <name>", runDBC},
	"minimap": {"minimap", runMinimap},
}

var commandOrder = []string{"list", "exists", "cat", "info", "dbc", "minimap"}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var configPath, dataRoot, logLevel string

	flagSet := pflag.NewFlagSet("icecap-resource", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "path to icecap.yaml (default: $"+config.EnvVar+")")
	flagSet.StringVar(&dataRoot, "data-root", "", "client data directory, overrides data_root")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error, overrides log_level")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetInterspersed(false)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return errors.New("no command given")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := loadConfig(configPath, dataRoot, logLevel)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	e := &env{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		stdout: stdout,
	}
	return cmd.run(ctx, e, rest[1:])
}

// loadConfig reads the config file from --config or ICECAP_CONFIG and
// applies flag overrides. Without a file, --data-root is required.
func loadConfig(path, dataRoot, logLevel string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if dataRoot != "" {
		cfg.DataRoot = dataRoot
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadChain opens every archive below the configured data root.
func (e *env) loadChain(ctx context.Context) (*mpq.Chain, error) {
	opts := []mpq.LoadOption{
		mpq.WithLoadLogger(e.logger),
		mpq.WithChainOptions(mpq.WithPriorities(e.cfg.ArchivePriorities)),
	}
	if e.cfg.Concurrency > 0 {
		opts = append(opts, mpq.WithConcurrency(e.cfg.Concurrency))
	}
	return mpq.LoadArchives(ctx, e.cfg.DataRoot, opts...)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `icecap-resource reads MPQ archives and client databases.

Usage:
  icecap-resource [flags] <command> [args]

Commands:
`)
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprint(w, "\nFlags:\n")
	fmt.Fprint(w, flagSet.FlagUsages())
}
