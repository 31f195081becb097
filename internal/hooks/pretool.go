// Package hooks implements the handlers behind `token-saver hook ...`.
//
// DESIGN: Handlers take the raw stdin payload and return the response body
// (or nil for "no response"), leaving process I/O and exit codes to the cmd
// layer. Every failure path fails open: a hook that errors must never block
// or alter the host agent's tool call.
package hooks

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/monitoring"
	"github.com/ppgranger/token-saver/internal/platform"
	"github.com/ppgranger/token-saver/internal/processors"
)

// excludedRes lists command shapes that must never be wrapped: interactive
// editors, remote shells, privilege escalation, env-prefixed invocations, and
// token-saver itself.
var excludedRes = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(vi|vim|nano|emacs|code)\b`),
	regexp.MustCompile(`^\s*(ssh|scp|rsync)\b`),
	regexp.MustCompile(`^\s*sudo\b`),
	regexp.MustCompile(`^\s*env\s+\S+=`),
	regexp.MustCompile(`token.saver`),
}

// PreToolHook rewrites compressible Bash commands to run through the wrap
// subcommand.
type PreToolHook struct {
	patterns []*regexp.Regexp
	binary   string
	log      *monitoring.Logger
}

// NewPreToolHook compiles the hook patterns contributed by the processor
// registry. binary is the token-saver executable path spliced into rewrites.
func NewPreToolHook(cfg *config.Config, binary string, log *monitoring.Logger) *PreToolHook {
	if log == nil {
		log = monitoring.Nop()
	}
	var compiled []*regexp.Regexp
	for _, p := range processors.CollectHookPatterns(cfg) {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Warn().Str("pattern", p).Err(err).Msg("skipping unparseable hook pattern")
			continue
		}
		compiled = append(compiled, re)
	}
	return &PreToolHook{patterns: compiled, binary: binary, log: log}
}

// Handle evaluates a PreToolUse payload and returns the rewrite envelope, or
// nil when the command should run untouched.
func (h *PreToolHook) Handle(raw []byte) []byte {
	if !gjson.ValidBytes(raw) {
		h.log.Debug().Msg("pretool: invalid JSON payload")
		return nil
	}
	if tool := gjson.GetBytes(raw, "tool_name").String(); tool != "Bash" {
		h.log.Debug().Str("tool", tool).Msg("pretool: skipping non-Bash tool")
		return nil
	}

	command := platform.Command(raw, platform.ClaudeCode)
	if command == "" || !h.Compressible(command) {
		h.log.Debug().Str("command", truncate(command, 200)).Msg("pretool: not compressible")
		return nil
	}

	rewritten := h.binary + " wrap -- " + platform.ShellQuote(command)
	out, err := platform.RewritePreTool(raw, rewritten)
	if err != nil {
		h.log.Error().Err(err).Msg("pretool: rewrite failed")
		return nil
	}
	h.log.Debug().Str("from", truncate(command, 200)).Str("to", truncate(rewritten, 200)).
		Msg("pretool: rewriting command")
	return out
}

// Compressible reports whether a command is worth wrapping: it must match a
// processor hook pattern and trip no exclusion.
func (h *PreToolHook) Compressible(command string) bool {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false
	}
	if hasUnquotedControl(cmd) {
		return false
	}
	for _, re := range excludedRes {
		if re.MatchString(cmd) {
			return false
		}
	}
	for _, re := range h.patterns {
		if re.MatchString(cmd) {
			return true
		}
	}
	return false
}

// hasUnquotedControl reports whether cmd contains shell control operators
// (pipes, &&, redirections, process substitution) outside of quotes. Wrapping
// such commands would change how the shell composes them.
func hasUnquotedControl(cmd string) bool {
	var inSingle, inDouble bool
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '|' || c == '>':
			return true
		case c == '&' && i+1 < len(cmd) && cmd[i+1] == '&':
			return true
		case c == '<' && i+1 < len(cmd) && cmd[i+1] == '(':
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
