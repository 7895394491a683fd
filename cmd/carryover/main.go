package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/db"
	"github.com/hpungsan/carryover/internal/logging"
	"github.com/hpungsan/carryover/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// configDirEnv overrides the config directory when --config-dir is absent.
const configDirEnv = "CARRYOVER_CONFIG_DIR"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"heartbeat": true, "session-start": true, "pre-compact": true,
	"log": true, "handovers": true, "latest-handover": true,
	"help": true,
}

// commandArg returns the first argument that is not a global flag.
func commandArg(args []string) string {
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config-dir" || arg == "-config-dir":
			i++
		case strings.HasPrefix(arg, "--config-dir=") || strings.HasPrefix(arg, "-config-dir="):
		default:
			return arg
		}
	}
	return ""
}

// configDirArg returns the --config-dir value from args, if any.
func configDirArg(args []string) string {
	for i := 1; i < len(args); i++ {
		arg := args[i]
		if (arg == "--config-dir" || arg == "-config-dir") && i+1 < len(args) {
			return args[i+1]
		}
		for _, prefix := range []string{"--config-dir=", "-config-dir="} {
			if v, ok := strings.CutPrefix(arg, prefix); ok {
				return v
			}
		}
	}
	return ""
}

// resolveConfigDir picks the flag value, then $CARRYOVER_CONFIG_DIR, then the
// directory holding the executable.
func resolveConfigDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(configDirEnv); v != "" {
		return v
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	arg := commandArg(args)
	if arg == "" {
		return false // No command → MCP server
	}
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ __ _ _ __ _ __ _   _  _____   _____ _ __
  / __/ _' | '__| '__| | | |/ _ \ \ / / _ \ '__|
 | (_| (_| | |  | |  | |_| | (_) \ V /  __/ |
  \___\__,_|_|  |_|   \__, |\___/ \_/ \___|_|
                      |___/
  Session memory hooks for coding agents

  Usage: carryover <command> [options]
         carryover --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if commandArg(os.Args) == "" && isTerminal() {
		printBanner()
		return
	}

	// CLI mode: known subcommand, --help or --version. Hook commands load
	// their own config and never exit non-zero on internal failures.
	if isCLIMode(os.Args) {
		if err := newCLIApp().Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if arg := commandArg(os.Args); arg != "" && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", arg)
		fmt.Fprintf(os.Stderr, "Run 'carryover --help' for usage.\n")
		os.Exit(1)
	}

	dir := resolveConfigDir(configDirArg(os.Args))
	cfg := config.LoadOrDefault(dir, logging.New(os.Stderr, config.DefaultLogLevel))
	logger := logging.New(os.Stderr, cfg.LogLevel)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_types", "types", unknown)
	}

	database, err := db.Init(cfg.StateDBDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// MCP server mode (default)
	if err := mcp.Run(db.NewWatchStore(database), cfg, Version, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
