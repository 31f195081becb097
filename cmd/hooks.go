package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/engine"
	"github.com/ppgranger/token-saver/internal/hooks"
	"github.com/ppgranger/token-saver/internal/monitoring"
	"github.com/ppgranger/token-saver/internal/tracker"
	"github.com/ppgranger/token-saver/internal/version"
)

// maxHookInput caps how much stdin a hook reads. Agent payloads carry one
// tool call's input or output; anything near this size is malformed.
const maxHookInput = 10 << 20

// runHookCommand reads the agent's JSON payload from stdin and writes the
// response to stdout. It never returns a non-zero exit: hooks fail open.
func runHookCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: token-saver hook <pretool|aftertool|session>")
		return
	}

	cfg := config.Load()
	log := monitoring.ForHooks(config.DataDir(), cfg.Debug)

	var response []byte
	switch args[0] {
	case "pretool":
		response = runPreTool(cfg, log)
	case "aftertool":
		response = runAfterTool(cfg, log)
	case "session":
		response = runSession(cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "token-saver: unknown hook %q\n", args[0])
		return
	}
	if len(response) > 0 {
		_, _ = os.Stdout.Write(response)
	}
}

func readHookInput(log *monitoring.Logger) []byte {
	raw, err := io.ReadAll(io.LimitReader(os.Stdin, maxHookInput))
	if err != nil {
		log.Error().Err(err).Msg("hook: reading stdin failed")
		return nil
	}
	return raw
}

// runPreTool rewrites compressible Bash commands to run through wrap. The
// rewrite targets the running executable, which is the installed binary
// the hook was registered with.
func runPreTool(cfg *config.Config, log *monitoring.Logger) []byte {
	raw := readHookInput(log)
	if raw == nil {
		return nil
	}
	binary, err := os.Executable()
	if err != nil {
		log.Error().Err(err).Msg("pretool: cannot locate executable")
		return nil
	}
	return hooks.NewPreToolHook(cfg, binary, log).Handle(raw)
}

// runAfterTool compresses Gemini tool output post hoc via a deny+reason
// response. A broken tracker downgrades to compression without recording.
func runAfterTool(cfg *config.Config, log *monitoring.Logger) []byte {
	raw := readHookInput(log)
	if raw == nil {
		return nil
	}
	eng, err := engine.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("aftertool: engine init failed")
		return nil
	}

	t, err := tracker.OpenDefault(cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("aftertool: savings tracker unavailable")
		return hooks.AfterTool(raw, eng, nil, log)
	}
	defer t.Close()
	return hooks.AfterTool(raw, eng, t, log)
}

// runSession emits the session-start stats banner, with a best-effort
// update notice appended. The version probe uses a 1s timeout so the hook
// stays well inside Claude's 3s budget.
func runSession(cfg *config.Config, log *monitoring.Logger) []byte {
	t, err := tracker.OpenDefault(cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("session: savings tracker unavailable")
		return nil
	}
	message := t.FormatStatsMessage()
	_ = t.Close()

	return hooks.SessionMessage(message, version.CheckForUpdate(nil))
}
