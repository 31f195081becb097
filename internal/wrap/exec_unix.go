//go:build !windows

package wrap

import (
	"os"
	"os/exec"
	"syscall"
)

func shellCommand(command string) *exec.Cmd {
	// #nosec G204 -- the command string is what the agent was about to run.
	return exec.Command("sh", "-c", command)
}

// setProcessGroup puts the child in its own process group so signals reach
// the whole pipeline sh spawns, and so the terminal's Ctrl+C goes to us for
// forwarding instead of hitting the child twice.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func forwardSignal(cmd *exec.Cmd, sig os.Signal) {
	if cmd.Process == nil {
		return
	}
	s, ok := sig.(syscall.Signal)
	if !ok {
		return
	}
	// Negative pid targets the process group.
	_ = syscall.Kill(-cmd.Process.Pid, s)
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

// exitCode derives the exit code from Wait's error, mapping signal deaths to
// the shell's 128+N convention (SIGINT -> 130).
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return 127
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}
