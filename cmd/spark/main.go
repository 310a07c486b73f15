package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/spark/internal/config"
	"github.com/hpungsan/spark/internal/db"
	"github.com/hpungsan/spark/internal/mcp"
	"github.com/hpungsan/spark/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// writerBuffer is the number of queued persistence writes before callers block.
const writerBuffer = 256

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "folder": true,
	"list": true, "create": true, "update": true, "delete": true,
	"import": true, "export": true, "preview": true, "expand": true,
	"settings": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ _ __   __ _ _ __| | __
  / __| '_ \ / _' | '__| |/ /
  \__ \ |_) | (_| | |  |   <
  |___/ .__/ \__,_|_|  |_|\_\
      |_|

  Text shortcut expansion

  Usage: spark <command> [options]
         spark --help

  MCP server mode requires piped input.`)
}

// newLogger writes leveled text logs to stderr. Stdout is reserved for
// CLI output and the MCP stdio transport.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	os.Exit(run())
}

func run() int {
	config.LoadDotEnv()

	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return 0
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'spark --help' for usage.\n")
		return 1
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		return 1
	}

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		return 1
	}
	config.ApplyEnv(cfg)
	logger := newLogger(cfg.LogLevel)

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		return 1
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	writer := db.NewWriter(database, logger, writerBuffer)
	// Runs before database.Close so queued writes land.
	defer writer.Close()

	engine := ops.New(ops.Options{
		Config:     cfg,
		Persister:  writer,
		Logger:     logger,
		ExportsDir: filepath.Join(baseDir, "exports"),
	})
	if err := engine.Load(context.Background(), database, cfg.Owner); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load snippets: %v\n", err)
		return 1
	}

	if isCLIMode() {
		app := newCLIApp(engine, logger)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	// MCP server mode (default)
	if err := mcp.Run(engine, logger, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
