// Package wrap executes a shell command, compresses its combined output, and
// reproduces the command's exit code.
//
// DESIGN: The wrapped command must behave as if it ran bare: stdin is
// inherited, SIGINT/SIGTERM are forwarded to the child's process group, and
// the child's exit code is passed through. Only stdout changes: verbose
// output comes back compressed. Exit codes 124/127 mirror the timeout(1) and
// shell conventions for timeouts and spawn failures.
package wrap

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ppgranger/token-saver/internal/engine"
	"github.com/ppgranger/token-saver/internal/monitoring"
)

// Result is the raw outcome of running a wrapped command.
type Result struct {
	// Output is stdout with stderr appended after a separating newline.
	Output   string
	ExitCode int
	TimedOut bool
	// Err is non-nil only when the shell itself could not be started.
	Err error
}

// Recorder persists one savings event. Satisfied by *tracker.Tracker; nil
// disables recording.
type Recorder interface {
	RecordSaving(command, processor string, originalSize, compressedSize int, platform string)
}

// Options configure Execute.
type Options struct {
	// Timeout kills the command after this long. Zero means no timeout.
	Timeout time.Duration
	// DryRun prints compression stats to stderr and the original output to
	// stdout, leaving the transcript untouched.
	DryRun bool
	Stdout io.Writer
	Stderr io.Writer
	Log    *monitoring.Logger
}

// Run executes command through the system shell, merging stdout and stderr
// and forwarding SIGINT/SIGTERM to the child's process group.
func Run(command string, timeout time.Duration) Result {
	cmd := shellCommand(command)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = os.Stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: 127, Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	for {
		select {
		case sig := <-sigCh:
			forwardSignal(cmd, sig)
		case <-timer:
			killProcessGroup(cmd)
			<-done
			return Result{
				Output:   mergeOutput(stdout.String(), stderr.String()),
				ExitCode: 124,
				TimedOut: true,
			}
		case err := <-done:
			return Result{
				Output:   mergeOutput(stdout.String(), stderr.String()),
				ExitCode: exitCode(err),
			}
		}
	}
}

// Execute runs command, compresses its output, records the saving, and
// returns the exit code the process should finish with.
func Execute(command string, eng *engine.Engine, rec Recorder, opts Options) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	log := opts.Log
	if log == nil {
		log = monitoring.Nop()
	}

	res := Run(command, opts.Timeout)
	if res.Err != nil {
		fmt.Fprintf(opts.Stderr, "[token-saver] Failed to execute: %v\n", res.Err)
		return 127
	}
	if res.TimedOut {
		fmt.Fprintf(opts.Stderr, "[token-saver] Command timed out after %ds: %s\n",
			int(opts.Timeout.Seconds()), command)
		return 124
	}
	if strings.TrimSpace(res.Output) == "" {
		return res.ExitCode
	}

	cres := eng.Compress(command, res.Output)

	if opts.DryRun {
		saved := len(res.Output) - len(cres.Text)
		ratio := 0.0
		if len(res.Output) > 0 {
			ratio = float64(saved) / float64(len(res.Output)) * 100
		}
		fmt.Fprintf(opts.Stderr,
			"[token-saver dry-run] processor=%s original=%d compressed=%d saved=%d (%.1f%%)\n",
			cres.Processor, len(res.Output), len(cres.Text), saved, ratio)
		fmt.Fprint(opts.Stdout, res.Output)
		return res.ExitCode
	}

	if cres.Compressed {
		log.Debug().
			Str("processor", cres.Processor).
			Int("original", len(res.Output)).
			Int("compressed", len(cres.Text)).
			Msg("wrap: compressed")
		if rec != nil {
			rec.RecordSaving(command, cres.Processor, len(res.Output), len(cres.Text), "claude_code")
		}
	} else {
		log.Debug().Str("processor", cres.Processor).Int("len", len(res.Output)).
			Msg("wrap: not compressed")
	}

	fmt.Fprint(opts.Stdout, cres.Text)
	return res.ExitCode
}

// mergeOutput appends stderr after stdout so error context survives
// compression without interleaving.
func mergeOutput(stdout, stderr string) string {
	if stderr == "" {
		return stdout
	}
	if stdout == "" {
		return stderr
	}
	return stdout + "\n" + stderr
}
