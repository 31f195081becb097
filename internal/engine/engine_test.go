package engine_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/engine"
)

func newEngine(t *testing.T, cfg *config.Config) *engine.Engine {
	t.Helper()
	e, err := engine.New(cfg, nil)
	require.NoError(t, err)
	return e
}

func TestShortOutputPassesThrough(t *testing.T) {
	e := newEngine(t, config.Default())

	res := e.Compress("git status", "short output")
	assert.False(t, res.Compressed)
	assert.Equal(t, "short output", res.Text)
	assert.Equal(t, "none", res.Processor)
}

func TestEmptyOutputPassesThrough(t *testing.T) {
	e := newEngine(t, config.Default())

	res := e.Compress("git status", "")
	assert.False(t, res.Compressed)
	assert.Equal(t, "", res.Text)
}

func TestDisabledPassesThrough(t *testing.T) {
	cfg := config.Default()
	cfg.Enabled = false
	e := newEngine(t, cfg)

	long := strings.Repeat("the same line\n", 200)
	res := e.Compress("git status", long)
	assert.False(t, res.Compressed)
	assert.Equal(t, long, res.Text)
	assert.Equal(t, "none", res.Processor)
}

func TestGitStatusCompressed(t *testing.T) {
	e := newEngine(t, config.Default())

	lines := []string{
		"On branch main",
		"Your branch is up to date with 'origin/main'.",
		"",
		"Changes not staged for commit:",
		`  (use "git add <file>..." to update what will be committed)`,
		"",
	}
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf(" M src/file%d.py", i))
	}
	output := strings.Join(lines, "\n")

	res := e.Compress("git status", output)
	assert.True(t, res.Compressed)
	assert.Equal(t, "git", res.Processor)
	assert.Less(t, len(res.Text), len(output))
}

// The ratio gate: Compressed is true exactly when the fractional size
// reduction reaches min_compression_ratio.
func TestRatioGate(t *testing.T) {
	cfg := config.Default()
	e := newEngine(t, cfg)

	// Unique incompressible lines: nothing to collapse, no processor wins.
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, fmt.Sprintf("unique_line_content_%d_%s", i, strings.Repeat("x", 50)))
	}
	output := strings.Join(lines, "\n")

	res := e.Compress("unknown_cmd", output)
	gain := float64(len(output)-len(res.Text)) / float64(len(output))
	if res.Compressed {
		assert.GreaterOrEqual(t, gain, cfg.MinCompressionRatio)
	} else {
		assert.Equal(t, output, res.Text)
	}
}

func TestRepeatedLinesCollapseThroughGeneric(t *testing.T) {
	e := newEngine(t, config.Default())

	output := strings.Repeat("Building module...\n", 50) + "Done.\n"
	res := e.Compress("some_unrecognized_cmd", output)
	require.True(t, res.Compressed)
	assert.Equal(t, "generic", res.Processor)
	assert.Contains(t, res.Text, "(x50)")
}

// A specialized processor that achieves nothing must not block the generic
// safety net: the second pass runs the full generic processor over the
// original output and wins when it meets the ratio.
func TestFallbackSecondPass(t *testing.T) {
	e := newEngine(t, config.Default())

	// `env` output shaped so the env processor keeps nearly everything
	// (few, non-system variables with long unique values) while exact
	// duplicates give the generic pass an easy win.
	lines := []string{"MY_APP_SETTING=" + strings.Repeat("v", 40)}
	for i := 0; i < 60; i++ {
		lines = append(lines, "DUPLICATE_ENTRY=same value as every other line here")
	}
	output := strings.Join(lines, "\n")

	res := e.Compress("env", output)
	require.True(t, res.Compressed)
	assert.Equal(t, "generic", res.Processor)
	assert.Contains(t, res.Text, "(x60)")
}

func TestANSIStrippedAfterSpecializedProcessor(t *testing.T) {
	e := newEngine(t, config.Default())

	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("\x1b[32m M src/file%d.py\x1b[0m", i))
	}
	output := "On branch main\n\n" + strings.Join(lines, "\n")

	res := e.Compress("git status", output)
	assert.NotContains(t, res.Text, "\x1b[")
}

// A large test-run log keeps both failures verbatim, gains a pass-count
// summary, and sheds the boilerplate session header.
func TestPytestLogScenario(t *testing.T) {
	e := newEngine(t, config.Default())

	lines := []string{
		"============================= test session starts ==============================",
		"platform linux -- Python 3.11.6, pytest-7.4.3, pluggy-1.3.0",
		"rootdir: /home/dev/project",
		"configfile: pyproject.toml",
		"plugins: cov-4.1.0, mock-3.12.0",
		"collected 500 items",
		"",
	}
	for i := 0; i < 498; i++ {
		lines = append(lines, fmt.Sprintf("tests/test_mod%d.py::test_func PASSED", i))
	}
	lines = append(lines,
		"tests/test_auth.py::test_login FAILED",
		"tests/test_db.py::test_migrate FAILED",
		"",
		"=================================== FAILURES ===================================",
		"___________________________________ test_login ________________________________",
		"    def test_login():",
		">       assert client.login('bob') == 200",
		"E       AssertionError: assert 403 == 200",
		"tests/test_auth.py:42: AssertionError",
		"__________________________________ test_migrate _______________________________",
		"    def test_migrate():",
		">       run_migrations()",
		"E       OperationalError: table users already exists",
		"tests/test_db.py:17: OperationalError",
		"=========================== short test summary info ===========================",
		"FAILED tests/test_auth.py::test_login - AssertionError: assert 403 == 200",
		"FAILED tests/test_db.py::test_migrate - OperationalError",
		"========================= 2 failed, 498 passed in 12.34s ======================",
	)
	output := strings.Join(lines, "\n")

	res := e.Compress("pytest", output)
	require.True(t, res.Compressed)
	assert.Equal(t, "test", res.Processor)

	assert.Contains(t, res.Text, "498 tests passed")
	assert.Contains(t, res.Text, "AssertionError: assert 403 == 200")
	assert.Contains(t, res.Text, "OperationalError: table users already exists")
	assert.NotContains(t, res.Text, "platform linux")
	assert.NotContains(t, res.Text, "rootdir:")
	assert.NotContains(t, res.Text, "plugins:")
}

// Every changed line of a multi-file diff survives verbatim, with at most
// the configured context window around each change.
func TestDiffScenario(t *testing.T) {
	cfg := config.Default()
	e := newEngine(t, cfg)

	var lines []string
	var changed []string
	for f := 0; f < 5; f++ {
		lines = append(lines,
			fmt.Sprintf("diff --git a/src/mod%d.py b/src/mod%d.py", f, f),
			fmt.Sprintf("index abc%d..def%d 100644", f, f),
			fmt.Sprintf("--- a/src/mod%d.py", f),
			fmt.Sprintf("+++ b/src/mod%d.py", f),
			"@@ -10,60 +10,60 @@",
		)
		for c := 0; c < 2; c++ {
			for i := 0; i < 20; i++ {
				lines = append(lines, fmt.Sprintf(" context f%d c%d pre %d", f, c, i))
			}
			minus := fmt.Sprintf("-removed f%d c%d", f, c)
			plus := fmt.Sprintf("+added f%d c%d", f, c)
			lines = append(lines, minus, plus)
			changed = append(changed, minus, plus)
			for i := 0; i < 20; i++ {
				lines = append(lines, fmt.Sprintf(" context f%d c%d post %d", f, c, i))
			}
		}
	}
	output := strings.Join(lines, "\n")

	res := e.Compress("git diff", output)
	require.True(t, res.Compressed)
	assert.Equal(t, "git", res.Processor)

	for _, line := range changed {
		assert.Contains(t, res.Text, line+"\n")
	}
	assert.NotContains(t, res.Text, "index abc")
	assert.NotContains(t, res.Text, "--- a/")
	assert.NotContains(t, res.Text, "+++ b/")

	// Per change: at most maxContext lines on each side.
	contextCount := 0
	for _, line := range strings.Split(res.Text, "\n") {
		if strings.HasPrefix(line, " context") {
			contextCount++
		}
	}
	assert.LessOrEqual(t, contextCount, 5*2*2*cfg.MaxDiffContextLines)
}

func TestConcurrentCompressSafe(t *testing.T) {
	e := newEngine(t, config.Default())

	output := strings.Repeat("Building module...\n", 60)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				res := e.Compress("npm run build", output)
				assert.NotEmpty(t, res.Text)
			}
		}()
	}
	wg.Wait()
}

func TestResultNamedAfterWinnerWhenUncompressed(t *testing.T) {
	cfg := config.Default()
	cfg.MinInputLength = 10
	e := newEngine(t, cfg)

	// Already compact git output: the git processor wins dispatch but cannot
	// meaningfully shrink it, and neither can the generic second pass.
	output := "On branch main\nnothing to commit, working tree clean"
	res := e.Compress("git status", output)
	assert.False(t, res.Compressed)
	assert.Equal(t, "git", res.Processor)
	assert.Equal(t, output, res.Text)
}
