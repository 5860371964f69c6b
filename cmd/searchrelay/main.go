// Searchrelay bridges a hosted web-search MCP endpoint into a local
// tool registry.
//
// It registers six search tools (web, news, image, video, scholar, and
// site-restricted search) backed by the endpoint's remote tools, and
// provides a CLI for listing and invoking them. Configuration is loaded
// from a single YAML file discovered automatically (see
// [config.DefaultSearchPaths]); defaults are used when no file exists.
//
// Usage:
//
//	searchrelay tools              List the registered local tools
//	searchrelay remote             List the endpoint's remote tools
//	searchrelay call <tool> [json] Invoke a local tool with JSON arguments
//	searchrelay journal [n]        Show recent invocations and totals
//	searchrelay version            Print version and build information
//	searchrelay -o json version    Output as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/searchrelay/searchrelay/internal/buildinfo"
	"github.com/searchrelay/searchrelay/internal/config"
	"github.com/searchrelay/searchrelay/internal/journal"
	"github.com/searchrelay/searchrelay/internal/mcp"
	"github.com/searchrelay/searchrelay/internal/relay"
	"github.com/searchrelay/searchrelay/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full lifecycle can be driven from tests.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the searchrelay command. All OS-level
// dependencies are injected as parameters. Arguments are parsed by hand:
// the flag package relies on package-level globals (flag.CommandLine),
// which makes it impossible to call run() concurrently from tests, and
// the argument surface is small enough that manual parsing is clearer
// than bringing in a CLI framework.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "version":
		return printVersion(stdout, outputFmt)
	case "tools":
		return withApp(configPath, stderr, func(a *app) error {
			return runTools(stdout, outputFmt, a)
		})
	case "remote":
		return withApp(configPath, stderr, func(a *app) error {
			return runRemote(ctx, stdout, outputFmt, a)
		})
	case "call":
		return withApp(configPath, stderr, func(a *app) error {
			return runCall(ctx, stdout, a, cmdArgs)
		})
	case "journal":
		return withApp(configPath, stderr, func(a *app) error {
			return runJournal(stdout, a, cmdArgs)
		})
	case "":
		printUsage(stdout)
		return fmt.Errorf("no command given")
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, `searchrelay - hosted web-search tools for a local tool registry

Usage:
  searchrelay [flags] <command> [args]

Commands:
  tools              List the registered local tools
  remote             List the endpoint's remote tools
  call <tool> [json] Invoke a local tool with JSON arguments
  journal [n]        Show the n most recent invocations and totals (default 20)
  version            Print version and build information

Flags:
  -config <path>     Config file (default: see config search paths)
  -o text|json       Output format (default text)`)
	return nil
}

func printVersion(w io.Writer, outputFmt string) error {
	if outputFmt == "json" {
		return json.NewEncoder(w).Encode(buildinfo.Info())
	}
	fmt.Fprintln(w, buildinfo.String())
	return nil
}

// app bundles the wired components behind every endpoint-facing command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *mcp.Client
	registry *tools.Registry
	jrnl     *journal.Store
}

// withApp loads config, wires the app, runs fn, and tears down.
func withApp(configPath string, stderr io.Writer, fn func(*app) error) error {
	a, err := buildApp(configPath, stderr)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// buildApp loads configuration and constructs the client, registry, and
// optional journal. A missing config file is not an error unless it was
// named explicitly: the defaults describe a working endpoint.
func buildApp(configPath string, stderr io.Writer) (*app, error) {
	var cfg *config.Config
	path, err := config.FindConfig(configPath)
	switch {
	case err == nil:
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	case configPath != "":
		return nil, err
	default:
		cfg = config.Default()
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))

	transport := mcp.NewHTTPTransport(mcp.HTTPConfig{
		URL:          cfg.Endpoint.URL,
		AllowedTools: relay.AllowedRemoteTools,
		Timeout:      time.Duration(cfg.Endpoint.TimeoutSec) * time.Second,
		Logger:       logger,
	})
	client := mcp.NewClient(transport, logger)

	var jrnl *journal.Store
	if cfg.Journal.Enabled {
		jrnl, err = journal.NewStore(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}

	registry := tools.NewRegistry()
	n := relay.RegisterAll(registry, client, jrnl, logger)
	logger.Debug("registered tools", "count", n, "endpoint", cfg.Endpoint.URL)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		registry: registry,
		jrnl:     jrnl,
	}, nil
}

func (a *app) close() {
	if a.jrnl != nil {
		a.jrnl.Close()
	}
}

func runTools(stdout io.Writer, outputFmt string, a *app) error {
	if outputFmt == "json" {
		return json.NewEncoder(stdout).Encode(a.registry.List())
	}
	for _, name := range a.registry.Names() {
		t := a.registry.Get(name)
		fmt.Fprintf(stdout, "%-16s %s\n", t.Name, t.Description)
	}
	return nil
}

func runRemote(ctx context.Context, stdout io.Writer, outputFmt string, a *app) error {
	remote, err := a.client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("list remote tools: %w", err)
	}
	if outputFmt == "json" {
		return json.NewEncoder(stdout).Encode(remote)
	}
	for _, t := range remote {
		fmt.Fprintf(stdout, "%-16s %s\n", t.Name, t.Description)
	}
	return nil
}

func runCall(ctx context.Context, stdout io.Writer, a *app, cmdArgs []string) error {
	if len(cmdArgs) < 1 {
		return fmt.Errorf("usage: call <tool> [json-args]")
	}
	name := cmdArgs[0]
	argsJSON := ""
	if len(cmdArgs) > 1 {
		argsJSON = strings.Join(cmdArgs[1:], " ")
	}

	text, err := a.registry.Execute(ctx, name, argsJSON)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, text)
	return nil
}

func runJournal(stdout io.Writer, a *app, cmdArgs []string) error {
	if a.jrnl == nil {
		return fmt.Errorf("journal is not enabled in the config")
	}

	limit := 20
	if len(cmdArgs) > 0 {
		n, err := strconv.Atoi(cmdArgs[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid journal limit: %s", cmdArgs[0])
		}
		limit = n
	}

	now := time.Now()
	sum, err := a.jrnl.Summary(now.Add(-24*time.Hour), now.Add(time.Minute))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "last 24h: %d calls, %d errors, %v total\n\n",
		sum.TotalCalls, sum.TotalErrors, sum.TotalDuration)

	recent, err := a.jrnl.Recent(limit)
	if err != nil {
		return err
	}
	for _, rec := range recent {
		line := fmt.Sprintf("%s  %-16s %-6s %v",
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			rec.Tool, rec.Outcome, rec.Duration)
		if rec.Error != "" {
			line += "  " + rec.Error
		}
		fmt.Fprintln(stdout, line)
	}
	return nil
}
