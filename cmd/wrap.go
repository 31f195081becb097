package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/engine"
	"github.com/ppgranger/token-saver/internal/monitoring"
	"github.com/ppgranger/token-saver/internal/tracker"
	"github.com/ppgranger/token-saver/internal/wrap"
)

// runWrapCommand executes everything after the flags (conventionally after
// "--") through the shell and emits the compressed output in its place.
// The returned exit code mirrors the wrapped command's.
func runWrapCommand(args []string) int {
	fs := flag.NewFlagSet("wrap", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "report savings on stderr, print the original output")
	timeout := fs.Int("timeout", 0, "kill the command after this many seconds (0: config default)")
	_ = fs.Parse(args) // ExitOnError handles errors

	command := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if command == "" {
		fmt.Fprintln(os.Stderr, "usage: token-saver wrap [--dry-run] [--timeout N] -- COMMAND")
		return 2
	}

	cfg := config.Load()
	log := monitoring.ForHooks(config.DataDir(), cfg.Debug)

	secs := cfg.WrapTimeout
	if *timeout > 0 {
		secs = *timeout
	}
	limit := time.Duration(secs) * time.Second

	eng, err := engine.New(cfg, log)
	if err != nil {
		// Compression is best-effort; the command itself must still run.
		log.Error().Err(err).Msg("wrap: engine init failed, running uncompressed")
		res := wrap.Run(command, limit)
		fmt.Fprint(os.Stdout, res.Output)
		return res.ExitCode
	}

	opts := wrap.Options{
		Timeout: limit,
		DryRun:  *dryRun,
		Log:     log,
	}

	t, err := tracker.OpenDefault(cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("wrap: savings tracker unavailable")
		return wrap.Execute(command, eng, nil, opts)
	}
	defer t.Close()
	return wrap.Execute(command, eng, t, opts)
}
