package processors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/processors"
)

func TestGrepGroupsMatchesByFile(t *testing.T) {
	p := processors.NewSearch(config.Default())

	var lines []string
	for i := 1; i <= 12; i++ {
		lines = append(lines, fmt.Sprintf("pkg/util/retry.go:%d:    if err != nil {", i*3))
	}
	for i := 1; i <= 7; i++ {
		lines = append(lines, fmt.Sprintf("internal/api/server.go:%d:    logger.Error(err)", i*10))
	}
	lines = append(lines,
		`internal/api/client.go:5:    return fmt.Errorf("request: %w", err)`,
		"internal/api/client.go:9:    err := do(req)",
	)

	want := []string{"21 matches across 3 files:", "pkg/util/retry.go: (12 matches)"}
	for i := 1; i <= 3; i++ {
		want = append(want, fmt.Sprintf("  %d:    if err != nil {", i*3))
	}
	want = append(want, "  ... (9 more)", "internal/api/server.go: (7 matches)")
	for i := 1; i <= 3; i++ {
		want = append(want, fmt.Sprintf("  %d:    logger.Error(err)", i*10))
	}
	want = append(want,
		"  ... (4 more)",
		`internal/api/client.go:5:    return fmt.Errorf("request: %w", err)`,
		"internal/api/client.go:9:    err := do(req)",
	)

	got := p.Process("grep -rn 'err' .", strings.Join(lines, "\n"))
	assert.Equal(t, strings.Join(want, "\n"), got)
}

func TestGrepTruncatesFileList(t *testing.T) {
	p := processors.NewSearch(config.Default())

	var lines []string
	for i := 0; i < 25; i++ {
		lines = append(lines, fmt.Sprintf("f%02d.go:1:var x int", i))
	}

	want := []string{"25 matches across 25 files:"}
	for i := 0; i < 20; i++ {
		want = append(want, fmt.Sprintf("f%02d.go:1:var x int", i))
	}
	want = append(want, "... (5 more files)")

	got := p.Process("rg 'var x'", strings.Join(lines, "\n"))
	assert.Equal(t, strings.Join(want, "\n"), got)
}

func TestGrepFewMatchesUntouched(t *testing.T) {
	p := processors.NewSearch(config.Default())

	in := "main.go:3:import \"fmt\"\nmain.go:9:fmt.Println(x)"
	assert.Equal(t, in, p.Process("grep -n fmt main.go", in))
}

func TestFdGroupsPathsByDirectory(t *testing.T) {
	p := processors.NewSearch(config.Default())

	var paths []string
	for i := 0; i < 9; i++ {
		paths = append(paths, fmt.Sprintf("src/app/mod_%02d.py", i))
	}
	for i := 0; i < 3; i++ {
		paths = append(paths, fmt.Sprintf("src/app/notes_%d.txt", i))
	}
	for i := 0; i < 6; i++ {
		paths = append(paths, fmt.Sprintf("src/lib/helper_%02d.py", i))
	}
	paths = append(paths, "tests/test_a.py", "tests/test_b.py", "tests/test_c.py", "tests/test_d.py")

	want := strings.Join([]string{
		"22 files in 3 directories:",
		"  src/app/ (12 files: *.py:9, *.txt:3)",
		"  src/lib/: helper_00.py, helper_01.py, helper_02.py ...",
		"  tests/: test_a.py, test_b.py, test_c.py, test_d.py",
	}, "\n")
	assert.Equal(t, want, p.Process("fd -e py -e txt", strings.Join(paths, "\n")))
}

func TestFdShortListingUntouched(t *testing.T) {
	p := processors.NewSearch(config.Default())

	in := "src/main.py\nsrc/cli.py\ntests/test_cli.py"
	assert.Equal(t, in, p.Process("fd -e py", in))
}
