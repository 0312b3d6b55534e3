// Package main provides the interactive MCP chat CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/minhyannv/mcp-chat-go/pkg/chat"
	configpkg "github.com/minhyannv/mcp-chat-go/pkg/config"
	loggerpkg "github.com/minhyannv/mcp-chat-go/pkg/logger"
	"github.com/minhyannv/mcp-chat-go/pkg/mcp"
)

// main is the program entry point.
func main() {
	if err := run(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires config, server session, and REPL. The session is closed on
// every exit path, including query errors and user quit.
func run(args []string) error {
	cfg, err := parseCLIConfig(args)
	if err != nil {
		return err
	}

	appLogger := loggerpkg.NewWriterLogger(os.Stderr)
	ctx := context.Background()

	session, err := mcp.Connect(ctx, cfg.ServerSpec,
		mcp.WithLogger(appLogger),
		mcp.WithVerbose(cfg.Verbose),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			loggerpkg.Error(appLogger, "close session", map[string]any{"error": cerr.Error()})
		}
	}()

	completer := chat.NewOpenAICompleter(cfg.APIKey, cfg.BaseURL)
	loop, err := chat.NewLoop(completer, session, cfg.Model, cfg.MaxRounds,
		chat.WithLogger(appLogger),
		chat.WithVerbose(cfg.Verbose),
	)
	if err != nil {
		return err
	}

	return runREPL(ctx, loop, os.Stdin, os.Stdout)
}

// parseCLIConfig loads env + flags + the positional server spec.
func parseCLIConfig(args []string) (configpkg.Config, error) {
	_ = godotenv.Load()

	defaults := configpkg.DefaultConfig()
	fs := flag.NewFlagSet("mcp-chat-go", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	maxRounds := fs.Int("max_rounds", defaults.MaxRounds, "Max model/tool rounds per query")
	verbose := fs.Bool("verbose", defaults.Verbose, "Verbose round and tool-call logging")
	serversFile := fs.String("servers", "", "YAML file mapping server names to specs")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: mcp-chat-go [flags] <server: script.py|script.js|url|name>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return configpkg.Config{}, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return configpkg.Config{}, fmt.Errorf("server argument is required")
	}

	servers, err := configpkg.LoadServers(*serversFile)
	if err != nil {
		return configpkg.Config{}, err
	}

	cfg := defaults
	cfg.ServerSpec = configpkg.ResolveServer(fs.Arg(0), servers)
	cfg.ServersFile = *serversFile
	cfg.MaxRounds = *maxRounds
	cfg.Verbose = *verbose
	cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if model := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); model != "" {
		cfg.Model = model
	}
	return configpkg.Normalize(cfg), nil
}
