package processors

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	ansiCSIRE  = regexp.MustCompile("\x1b\\[[0-9;?]*[ -/]*[@-~]")
	ansiOSCRE  = regexp.MustCompile("\x1b\\][^\x07\x1b]*(?:\x07|\x1b\\\\)")
	ansiMiscRE = regexp.MustCompile("\x1b[@-_]")

	digitRunRE    = regexp.MustCompile(`\d+`)
	warningTypeRE = regexp.MustCompile(`(\w+Warning):\s*(.+)`)
	warningSrcRE  = regexp.MustCompile(`^\s*/|^\s+\w+`)
)

// stripANSI removes terminal escape sequences: CSI (colors, cursor movement),
// OSC (titles, hyperlinks), and stray two-byte escapes.
func stripANSI(s string) string {
	if !strings.Contains(s, "\x1b") {
		return s
	}
	s = ansiOSCRE.ReplaceAllString(s, "")
	s = ansiCSIRE.ReplaceAllString(s, "")
	s = ansiMiscRE.ReplaceAllString(s, "")
	return s
}

// collapseBlankLines squeezes runs of blank lines down to one.
func collapseBlankLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return out
}

// collapseExactRuns folds consecutive identical non-blank lines into a single
// instance with a repeat count.
func collapseExactRuns(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			out = append(out, line)
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && lines[j] == line {
			j++
		}
		if run := j - i; run >= 2 {
			out = append(out, fmt.Sprintf("%s (x%d)", line, run))
		} else {
			out = append(out, line)
		}
		i = j
	}
	return out
}

// numericShape returns the line with digit runs removed, and whether the line
// qualifies for near-duplicate collapsing. Qualifying lines are numeric-heavy
// (more digits than letters, so progress meters and counters) and keep enough
// surrounding text to distinguish genuinely different lines.
func numericShape(line string) (string, bool) {
	digits, letters := 0, 0
	for _, r := range line {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if digits == 0 || digits <= letters {
		return "", false
	}
	shape := digitRunRE.ReplaceAllString(line, "")
	if len(strings.ReplaceAll(shape, " ", "")) < 10 {
		return "", false
	}
	return shape, true
}

// collapseNumericRuns folds runs of lines that differ only in embedded
// numbers (curl progress meters, byte counters) into one representative line
// plus a count. Short runs pass through untouched.
func collapseNumericRuns(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		shape, ok := numericShape(lines[i])
		if !ok {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i + 1
		for j < len(lines) {
			next, ok := numericShape(lines[j])
			if !ok || next != shape {
				break
			}
			j++
		}
		if run := j - i; run >= 5 {
			out = append(out, lines[i], fmt.Sprintf("... (%d similar lines)", run-1))
		} else {
			out = append(out, lines[i:j]...)
		}
		i = j
	}
	return out
}

var progressBarRunes = map[rune]bool{
	'━': true, '─': true, '█': true, '▓': true, '▒': true, '░': true,
	'■': true, '▪': true, '▬': true, '▄': true, '▀': true, '⣿': true,
}

// isProgressBarLine reports whether a line is mostly bar-drawing runes and
// carries no other information.
func isProgressBarLine(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	bars, total := 0, 0
	for _, r := range s {
		total++
		if progressBarRunes[r] || r == ' ' || r == '%' || unicode.IsDigit(r) {
			bars++
		}
	}
	barOnly := 0
	for _, r := range s {
		if progressBarRunes[r] {
			barOnly++
		}
	}
	return barOnly >= 5 && bars == total
}

// collapseWarnings groups warning lines by their warning-class token
// (DeprecationWarning, UserWarning) into "Type xN" entries plus one literal
// example from the most frequent type. Source-location lines are dropped.
func collapseWarnings(warningLines []string) []string {
	byType := make(map[string][]string)
	var order []string
	for _, line := range warningLines {
		if m := warningTypeRE.FindStringSubmatch(line); m != nil {
			wtype := m[1]
			if _, seen := byType[wtype]; !seen {
				order = append(order, wtype)
			}
			byType[wtype] = append(byType[wtype], line)
			continue
		}
		if warningSrcRE.MatchString(line) {
			continue
		}
		if _, seen := byType["other"]; !seen {
			order = append(order, "other")
		}
		byType["other"] = append(byType["other"], line)
	}
	if len(byType) == 0 {
		return nil
	}

	sort.SliceStable(order, func(i, j int) bool {
		return len(byType[order[i]]) > len(byType[order[j]])
	})

	total := 0
	var parts []string
	for _, wtype := range order {
		total += len(byType[wtype])
		if wtype != "other" {
			parts = append(parts, fmt.Sprintf("%s x%d", wtype, len(byType[wtype])))
		}
	}
	if len(parts) == 0 {
		return nil
	}

	result := []string{fmt.Sprintf("Warnings (%d): %s", total, strings.Join(parts, ", "))}
	if most := byType[order[0]]; len(most) > 0 {
		result = append(result, "  e.g. "+most[0])
	}
	return result
}
