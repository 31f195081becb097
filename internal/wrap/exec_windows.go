//go:build windows

package wrap

import (
	"os"
	"os/exec"
)

func shellCommand(command string) *exec.Cmd {
	// #nosec G204 -- the command string is what the agent was about to run.
	return exec.Command("cmd", "/C", command)
}

// Process groups and signal forwarding are POSIX-only; on Windows the child
// shares the console and receives Ctrl+C directly.
func setProcessGroup(*exec.Cmd) {}

func forwardSignal(*exec.Cmd, os.Signal) {}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 127
}
