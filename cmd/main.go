// Package main is the token-saver CLI: the hook endpoints Claude Code and
// Gemini CLI call into, the wrap runner those hooks rewrite commands
// through, and the install/stats/audit/update tooling around them.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/ppgranger/token-saver/internal/config"
)

func main() {
	loadEnvFiles()

	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return
	}

	switch args[0] {
	case "hook":
		// Hook endpoints always exit 0: a failing hook must never block
		// the host agent's tool call.
		runHookCommand(args[1:])
	case "wrap":
		os.Exit(runWrapCommand(args[1:]))
	case "install":
		runInstallCommand(args[1:])
	case "uninstall", "remove":
		runUninstallCommand(args[1:])
	case "stats":
		runStatsCommand(args[1:])
	case "audit":
		runAuditCommand(args[1:])
	case "update":
		if err := doUpdate(); err != nil {
			printError(fmt.Sprintf("Update failed: %v", err))
			os.Exit(1)
		}
	case "version", "-v", "--version":
		printVersion()
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "token-saver: unknown command %q\n\n", args[0])
		printHelp()
		os.Exit(2)
	}
}

// loadEnvFiles loads TOKEN_SAVER_* overrides from the data directory's
// .env and from a local .env. Real environment variables always win.
func loadEnvFiles() {
	dataEnv := filepath.Join(config.DataDir(), ".env")
	if _, err := os.Stat(dataEnv); err == nil {
		_ = godotenv.Load(dataEnv)
	}
	_ = godotenv.Load()
}

func printHelp() {
	fmt.Println("token-saver - compress verbose tool output to save tokens")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  token-saver <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  install      Register hooks for Claude Code and/or Gemini CLI")
	fmt.Println("  uninstall    Remove hooks, the installed binary, and data")
	fmt.Println("  stats        Show savings statistics")
	fmt.Println("  audit        Run the built-in compression audit corpus")
	fmt.Println("  update       Check for and apply updates")
	fmt.Println("  wrap         Run a command and compress its output")
	fmt.Println("  hook         Agent hook endpoint (pretool|aftertool|session)")
	fmt.Println("  version      Show current version")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  install:    --target claude|gemini|both    (default: claude)")
	fmt.Println("  uninstall:  --target claude|gemini|both    (default: both)")
	fmt.Println("              --keep-data                    keep ~/.token-saver")
	fmt.Println("              --yes                          skip the confirmation prompt")
	fmt.Println("  stats:      --json                         machine-readable output")
	fmt.Println("  audit:      --verbose                      print compressed previews")
	fmt.Println("  wrap:       --dry-run                      report savings, keep output")
	fmt.Println("              --timeout N                    kill the command after N seconds")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  token-saver install --target both")
	fmt.Println("  token-saver stats")
	fmt.Println("  token-saver wrap -- git status")
	fmt.Println("  token-saver wrap --dry-run -- npm test")
	fmt.Println("  token-saver uninstall --keep-data")
}
