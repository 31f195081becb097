package platform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ppgranger/token-saver/internal/platform"
)

func TestDetectByEventName(t *testing.T) {
	cases := []struct {
		payload string
		want    platform.Platform
	}{
		{`{"hook_event_name":"PreToolUse"}`, platform.ClaudeCode},
		{`{"hook_event_name":"PostToolUse"}`, platform.ClaudeCode},
		{`{"hook_event_name":"SessionStart"}`, platform.ClaudeCode},
		{`{"hook_event_name":"BeforeTool"}`, platform.GeminiCLI},
		{`{"hook_event_name":"AfterTool"}`, platform.GeminiCLI},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, platform.Detect([]byte(tc.payload)), tc.payload)
	}
}

func TestDetectByStructure(t *testing.T) {
	gemini := `{"tool_input":{"command":"ls"},"tool_response":{"output":"x"}}`
	assert.Equal(t, platform.GeminiCLI, platform.Detect([]byte(gemini)))

	claude := `{"tool_name":"Bash","tool_input":{"command":"ls"}}`
	assert.Equal(t, platform.ClaudeCode, platform.Detect([]byte(claude)))

	assert.Equal(t, platform.Unknown, platform.Detect([]byte(`{"foo":"bar"}`)))
}

func TestCommandExtraction(t *testing.T) {
	claude := []byte(`{"tool_input":{"command":"git status"}}`)
	assert.Equal(t, "git status", platform.Command(claude, platform.ClaudeCode))

	gemini := []byte(`{"tool_input":{"cmd":"ls -la"}}`)
	assert.Equal(t, "ls -la", platform.Command(gemini, platform.GeminiCLI))

	geminiCommand := []byte(`{"tool_input":{"command":"pwd"}}`)
	assert.Equal(t, "pwd", platform.Command(geminiCommand, platform.GeminiCLI))

	assert.Empty(t, platform.Command([]byte(`{}`), platform.Unknown))
}

func TestToolOutputPrefersLLMContent(t *testing.T) {
	raw := []byte(`{"tool_response":{"llmContent":"from llm","output":"from output"}}`)
	assert.Equal(t, "from llm", platform.ToolOutput(raw))

	raw = []byte(`{"tool_response":{"output":"plain output"}}`)
	assert.Equal(t, "plain output", platform.ToolOutput(raw))
}

func TestToolOutputJoinsLists(t *testing.T) {
	raw := []byte(`{"tool_response":{"llmContent":["line one","line two"]}}`)
	assert.Equal(t, "line one\nline two", platform.ToolOutput(raw))
}

func TestToolOutputEmpty(t *testing.T) {
	assert.Empty(t, platform.ToolOutput([]byte(`{}`)))
	assert.Empty(t, platform.ToolOutput([]byte(`{"tool_response":{}}`)))
}

func TestRewritePreToolPreservesSiblings(t *testing.T) {
	raw := []byte(`{
		"tool_name": "Bash",
		"tool_input": {"command": "git status", "description": "Check status", "timeout": 5000}
	}`)

	out, err := platform.RewritePreTool(raw, "token-saver wrap -- 'git status'")
	require.NoError(t, err)

	body := string(out)
	assert.Equal(t, "PreToolUse", gjson.Get(body, "hookSpecificOutput.hookEventName").String())
	assert.Equal(t, "allow", gjson.Get(body, "hookSpecificOutput.permissionDecision").String())
	assert.Equal(t, "token-saver wrap -- 'git status'",
		gjson.Get(body, "hookSpecificOutput.updatedInput.command").String())
	assert.Equal(t, "Check status",
		gjson.Get(body, "hookSpecificOutput.updatedInput.description").String())
	assert.Equal(t, int64(5000),
		gjson.Get(body, "hookSpecificOutput.updatedInput.timeout").Int())
}

func TestRewritePreToolWithoutToolInput(t *testing.T) {
	out, err := platform.RewritePreTool([]byte(`{}`), "wrapped")
	require.NoError(t, err)
	assert.Equal(t, "wrapped", gjson.Get(string(out), "hookSpecificOutput.updatedInput.command").String())
}

func TestDenyAfterTool(t *testing.T) {
	out, err := platform.DenyAfterTool("compressed text\nwith \"quotes\"")
	require.NoError(t, err)

	body := string(out)
	assert.Equal(t, "deny", gjson.Get(body, "decision").String())
	assert.Equal(t, "compressed text\nwith \"quotes\"", gjson.Get(body, "reason").String())
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'git status'", platform.ShellQuote("git status"))
	assert.Equal(t, `'it'\''s'`, platform.ShellQuote("it's"))
	assert.Equal(t, "''", platform.ShellQuote(""))
}
