// Package platform abstracts the hook envelopes of the agent CLIs that embed
// token-saver. Claude Code and Gemini CLI both speak JSON over stdin/stdout
// but disagree on event names, field paths, and response shapes; this package
// keeps those differences out of the hook handlers.
package platform

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Platform identifies the host agent that invoked a hook. The string value
// doubles as the platform tag stored with savings records.
type Platform string

const (
	ClaudeCode Platform = "claude_code"
	GeminiCLI  Platform = "gemini_cli"
	Unknown    Platform = "unknown"
)

// Detect identifies the host from a hook payload. Event names are
// authoritative; payload structure is the fallback for hosts that omit them.
func Detect(raw []byte) Platform {
	switch gjson.GetBytes(raw, "hook_event_name").String() {
	case "PreToolUse", "PostToolUse", "SessionStart":
		return ClaudeCode
	case "BeforeTool", "AfterTool":
		return GeminiCLI
	}
	if gjson.GetBytes(raw, "tool_input").Exists() && gjson.GetBytes(raw, "tool_response").Exists() {
		return GeminiCLI
	}
	if gjson.GetBytes(raw, "tool_name").Exists() {
		return ClaudeCode
	}
	return Unknown
}

// Command extracts the shell command from a hook payload. Gemini tool
// definitions use either "command" or "cmd".
func Command(raw []byte, p Platform) string {
	switch p {
	case ClaudeCode:
		return gjson.GetBytes(raw, "tool_input.command").String()
	case GeminiCLI:
		if cmd := gjson.GetBytes(raw, "tool_input.command").String(); cmd != "" {
			return cmd
		}
		return gjson.GetBytes(raw, "tool_input.cmd").String()
	}
	return ""
}

// ToolOutput extracts the tool output from a Gemini AfterTool payload.
// llmContent wins over output; list values are joined with newlines.
func ToolOutput(raw []byte) string {
	content := gjson.GetBytes(raw, "tool_response.llmContent")
	if !content.Exists() {
		content = gjson.GetBytes(raw, "tool_response.output")
	}
	if content.IsArray() {
		parts := make([]string, 0, 4)
		for _, item := range content.Array() {
			parts = append(parts, item.String())
		}
		return strings.Join(parts, "\n")
	}
	return content.String()
}

// RewritePreTool builds the PreToolUse response that swaps the Bash command
// for newCommand. The original tool_input is carried over wholesale so
// sibling fields (description, timeout) survive the rewrite.
func RewritePreTool(raw []byte, newCommand string) ([]byte, error) {
	toolInput := gjson.GetBytes(raw, "tool_input").Raw
	if toolInput == "" {
		toolInput = "{}"
	}
	updated, err := sjson.Set(toolInput, "command", newCommand)
	if err != nil {
		return nil, err
	}

	out := `{"hookSpecificOutput":{"hookEventName":"PreToolUse","permissionDecision":"allow"}}`
	out, err = sjson.SetRaw(out, "hookSpecificOutput.updatedInput", updated)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// DenyAfterTool builds the Gemini AfterTool response that replaces the tool
// output with reason.
func DenyAfterTool(reason string) ([]byte, error) {
	out, err := sjson.Set(`{"decision":"deny"}`, "reason", reason)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// ShellQuote wraps arg in single quotes so it can be spliced into a shell
// command line verbatim.
func ShellQuote(arg string) string {
	return "'" + strings.ReplaceAll(arg, "'", "'\\''") + "'"
}
