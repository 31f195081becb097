package processors

import (
	"fmt"
	"regexp"
	"strings"
)

// Unchanged lines around an edit carry little information, so a bounded
// window of context survives around each change and everything else is
// dropped. Blob-hash and path-restatement metadata lines are redundant with
// the file marker and never survive.

var (
	diffStatBarRE = regexp.MustCompile(`^(\s*.+?\s+\|\s+\d+)\s+[+\-]+\s*$`)
	diffSummaryRE = regexp.MustCompile(`^\s*\d+ files? changed`)
)

// reduceDiff scans unified-diff lines and keeps every +/- line (up to a
// per-hunk cap) with at most maxContext context lines on each side.
//
// State per hunk: a count of consumed lines, a truncation flag, a bounded
// buffer of potential leading context, and a countdown of trailing context
// still owed after the last change. File and hunk markers flush a truncation
// notice for the previous hunk and reset the state.
func reduceDiff(lines []string, maxHunk, maxContext int) []string {
	var result []string
	hunkLines := 0
	truncated := false
	statLine := ""
	var leading []string
	trailing := 0

	flushTruncation := func() {
		if truncated {
			result = append(result, fmt.Sprintf("  ... (truncated after %d lines)", maxHunk))
		}
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "diff --git"), strings.HasPrefix(line, "@@"):
			leading = nil
			trailing = 0
			flushTruncation()
			result = append(result, line)
			hunkLines = 0
			truncated = false

		case strings.HasPrefix(line, "index "),
			strings.HasPrefix(line, "---"),
			strings.HasPrefix(line, "+++"):
			// Redundant with the diff --git marker.

		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, "-"):
			hunkLines++
			if hunkLines <= maxHunk {
				if len(leading) > 0 {
					start := len(leading) - maxContext
					if start < 0 {
						start = 0
					}
					result = append(result, leading[start:]...)
					leading = nil
				}
				result = append(result, line)
				trailing = maxContext
			} else {
				truncated = true
			}

		case strings.HasPrefix(line, " "):
			hunkLines++
			if hunkLines <= maxHunk {
				if trailing > 0 {
					result = append(result, line)
					trailing--
				} else {
					leading = append(leading, line)
					if len(leading) > maxContext {
						leading = leading[1:]
					}
				}
			} else {
				truncated = true
			}

		case diffSummaryRE.MatchString(line):
			statLine = line
		}
	}

	flushTruncation()
	if statLine != "" {
		result = append(result, statLine)
	}
	return result
}

// reduceDiffStat strips the +/- bar glyphs from `git diff --stat` lines,
// keeping filename and change count verbatim.
func reduceDiffStat(lines []string) []string {
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if m := diffStatBarRE.FindStringSubmatch(line); m != nil {
			result = append(result, m[1])
		} else {
			result = append(result, line)
		}
	}
	return result
}
