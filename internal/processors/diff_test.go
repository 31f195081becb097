package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduceDiffBoundsContextAndDropsMetadata(t *testing.T) {
	in := []string{
		"diff --git a/main.go b/main.go",
		"index abc1234..def5678 100644",
		"--- a/main.go",
		"+++ b/main.go",
		"@@ -1,9 +1,9 @@",
		" ctx1",
		" ctx2",
		" ctx3",
		" ctx4",
		"-old line",
		"+new line",
		" trail1",
		" trail2",
		" trail3",
		" trail4",
	}
	want := []string{
		"diff --git a/main.go b/main.go",
		"@@ -1,9 +1,9 @@",
		" ctx2",
		" ctx3",
		" ctx4",
		"-old line",
		"+new line",
		" trail1",
		" trail2",
		" trail3",
	}
	assert.Equal(t, want, reduceDiff(in, 30, 3))
}

func TestReduceDiffTruncatesLongHunks(t *testing.T) {
	in := []string{
		"@@ -1,6 +1,6 @@",
		"+a",
		"+b",
		"+c",
		"+d",
		"+e",
	}
	want := []string{
		"@@ -1,6 +1,6 @@",
		"+a",
		"+b",
		"+c",
		"  ... (truncated after 3 lines)",
	}
	assert.Equal(t, want, reduceDiff(in, 3, 1))
}

func TestReduceDiffFlushesTruncationPerFile(t *testing.T) {
	in := []string{
		"diff --git a/a.go b/a.go",
		"@@ -1,3 +1,3 @@",
		"+x",
		"+y",
		"+z",
		"diff --git a/b.go b/b.go",
		"@@ -1 +1 @@",
		"+only",
		"2 files changed, 4 insertions(+)",
	}
	want := []string{
		"diff --git a/a.go b/a.go",
		"@@ -1,3 +1,3 @@",
		"+x",
		"+y",
		"  ... (truncated after 2 lines)",
		"diff --git a/b.go b/b.go",
		"@@ -1 +1 @@",
		"+only",
		"2 files changed, 4 insertions(+)",
	}
	assert.Equal(t, want, reduceDiff(in, 2, 2))
}

func TestReduceDiffContextWithoutChangesVanishes(t *testing.T) {
	in := []string{
		"@@ -1,4 +1,4 @@",
		" unchanged1",
		" unchanged2",
		" unchanged3",
	}
	want := []string{"@@ -1,4 +1,4 @@"}
	assert.Equal(t, want, reduceDiff(in, 30, 3))
}

func TestReduceDiffStatStripsBars(t *testing.T) {
	in := []string{
		" src/main.go       | 24 ++++++++++----",
		" src/util.go       |  8 ++--",
		" README.md         |  3 +++",
		" logo.png          | Bin 0 -> 1024 bytes",
		" 4 files changed, 25 insertions(+), 10 deletions(-)",
	}
	want := []string{
		" src/main.go       | 24",
		" src/util.go       |  8",
		" README.md         |  3",
		" logo.png          | Bin 0 -> 1024 bytes",
		" 4 files changed, 25 insertions(+), 10 deletions(-)",
	}
	assert.Equal(t, want, reduceDiffStat(in))
}
