package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

// Optional git global options that may appear between 'git' and the
// subcommand: -C <path>, --no-pager, -c <key>=<val>, --git-dir, --work-tree.
const gitOpts = `(?:-C\s+\S+\s+|--no-pager\s+|-c\s+\S+\s+` +
	`|--git-dir(?:=|\s+)\S+\s+|--work-tree(?:=|\s+)\S+\s+)*`

const gitSubcmds = `(status|diff|log|show|push|pull|fetch|clone|branch|stash|reflog|remote` +
	`|blame|cherry-pick|rebase|merge)`

var (
	gitCmdRE        = regexp.MustCompile(`\bgit\s+` + gitOpts + gitSubcmds + `\b`)
	gitStashListRE  = regexp.MustCompile(`\bstash\s+list\b`)
	gitNameOnlyRE   = regexp.MustCompile(`--name-only\b`)
	gitNameStatusRE = regexp.MustCompile(`--name-status\b`)
	gitGraphFlagRE  = regexp.MustCompile(`--graph\b`)
	gitGraphLineRE  = regexp.MustCompile(`^[|*/\\ ]*[|*/\\]`)
	gitStatusXYRE   = regexp.MustCompile(`^([MADRCTU?! ]{1,2})\s+(.+)$`)
	gitNameStatRE   = regexp.MustCompile(`^([MADRCTU])\d*\s+(.+)$`)
	gitProgressRE   = regexp.MustCompile(`^(Receiving|Resolving|Counting|Compressing|` +
		`remote:\s*(Counting|Compressing|Total|Enumerating))`)
	gitPercentRE    = regexp.MustCompile(`\d+%`)
	gitBlameLongRE  = regexp.MustCompile(`^[0-9a-f]+\s+\((.+?)\s+\d{4}-\d{2}-\d{2}\s+`)
	gitBlameShortRE = regexp.MustCompile(`^\^?[0-9a-f]+\s+\(`)
	gitBlameAuthRE  = regexp.MustCompile(`^\^?[0-9a-f]+\s+\((.+?)\s+\d{4}`)
)

// gitStatus maps long-format status labels to porcelain codes.
var gitStatusLabels = []struct {
	label string
	code  string
}{
	{"modified:", "M"},
	{"new file:", "A"},
	{"deleted:", "D"},
	{"renamed:", "R"},
	{"copied:", "C"},
	{"both modified:", "UU"},
	{"both added:", "AA"},
	{"both deleted:", "DD"},
	{"added by us:", "AU"},
	{"added by them:", "UA"},
	{"deleted by us:", "DU"},
	{"deleted by them:", "UD"},
}

type gitProcessor struct {
	cfg *config.Config
}

// NewGit returns the processor for git status, diff, log, show, transfer,
// branch, stash, reflog, and blame output.
func NewGit(cfg *config.Config) Processor {
	return &gitProcessor{cfg: cfg}
}

func (p *gitProcessor) Name() string { return "git" }

func (p *gitProcessor) Priority() int { return 20 }

func (p *gitProcessor) CanHandle(command string) bool {
	return gitCmdRE.MatchString(command)
}

func (p *gitProcessor) HookPatterns() []string {
	return []string{`^git\s+` + gitOpts + gitSubcmds + `\b`}
}

func (p *gitProcessor) subcommand(command string) string {
	m := gitCmdRE.FindStringSubmatch(command)
	if m == nil {
		return ""
	}
	return m[1]
}

func (p *gitProcessor) Process(command, output string) string {
	if strings.TrimSpace(output) == "" {
		return output
	}
	switch p.subcommand(command) {
	case "status":
		return p.processStatus(output)
	case "diff":
		return p.processDiff(output, command)
	case "log":
		return p.processLog(output, command)
	case "show":
		return p.processShow(output)
	case "push", "pull", "fetch", "clone", "cherry-pick", "rebase", "merge":
		return p.processTransfer(output)
	case "branch":
		return p.processBranch(output)
	case "stash":
		if gitStashListRE.MatchString(command) {
			return p.processStashList(output)
		}
		return output
	case "reflog":
		return p.processReflog(output)
	case "blame":
		return p.processBlame(output)
	}
	return output
}

// processStatus folds long- or short-format status into a per-directory
// summary with porcelain-style codes.
func (p *gitProcessor) processStatus(output string) string {
	lines := splitLines(strings.TrimSpace(output))
	counts := make(map[string]int)
	filesByDir := make(map[string][]string)
	var headerLines []string
	inUntracked := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		if strings.HasPrefix(stripped, "On branch") ||
			strings.HasPrefix(stripped, "Your branch") ||
			strings.HasPrefix(stripped, "HEAD detached") ||
			strings.HasPrefix(stripped, "nothing to commit") ||
			strings.HasPrefix(stripped, "no changes added") {
			headerLines = append(headerLines, stripped)
			inUntracked = false
			continue
		}

		if strings.HasPrefix(stripped, "Untracked files:") {
			inUntracked = true
			continue
		}
		if strings.HasPrefix(stripped, "Changes") || strings.HasPrefix(stripped, "Unmerged") {
			inUntracked = false
			continue
		}
		// Hint lines like (use "git add <file>..." ...)
		if strings.HasPrefix(stripped, "(") {
			continue
		}

		code, path := "", ""
		matched := false
		for _, s := range gitStatusLabels {
			if strings.HasPrefix(stripped, s.label) {
				code = s.code
				path = strings.TrimSpace(stripped[len(s.label):])
				matched = true
				break
			}
		}
		if !matched {
			if m := gitStatusXYRE.FindStringSubmatch(stripped); m != nil {
				raw := strings.TrimSpace(m[1])
				path = strings.Trim(strings.TrimSpace(m[2]), `"`)
				if raw == "" {
					continue
				}
				code = string(raw[0])
				matched = true
			} else if inUntracked {
				code, path = "?", stripped
				matched = true
			}
		}
		if !matched {
			continue
		}

		counts[code]++
		dir, file := dirOf(path)
		filesByDir[dir] = append(filesByDir[dir], code+" "+file)
	}

	var result []string
	if len(headerLines) > 0 {
		result = append(result, strings.Join(headerLines, " | "))
	}

	if len(counts) > 0 {
		total := 0
		var summary []string
		for _, code := range sortedKeys(counts) {
			total += counts[code]
			summary = append(summary, fmt.Sprintf("%s:%d", code, counts[code]))
		}
		result = append(result, fmt.Sprintf("Files: %d (%s)", total, strings.Join(summary, ", ")))
	}

	for _, dir := range sortedKeys(filesByDir) {
		files := filesByDir[dir]
		if len(files) > 8 {
			codes := make(map[string]int)
			for _, f := range files {
				c, _, _ := strings.Cut(f, " ")
				codes[c]++
			}
			var desc []string
			for _, c := range sortedKeys(codes) {
				desc = append(desc, fmt.Sprintf("%s:%d", c, codes[c]))
			}
			result = append(result, fmt.Sprintf("  %s/ (%d files: %s)", dir, len(files), strings.Join(desc, ", ")))
		} else {
			for _, f := range files {
				result = append(result, fmt.Sprintf("  %s/%s", dir, f))
			}
		}
	}

	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}

func (p *gitProcessor) processDiff(output, command string) string {
	lines := splitLines(output)

	if gitNameOnlyRE.MatchString(command) || gitNameStatusRE.MatchString(command) {
		return p.processNameList(lines)
	}

	// Stat-only output has no file markers at all.
	hasMarker := false
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git") {
			hasMarker = true
			break
		}
	}
	if len(lines) > 0 && !hasMarker {
		return strings.Join(reduceDiffStat(lines), "\n")
	}

	return strings.Join(reduceDiff(lines, p.cfg.MaxDiffHunkLines, p.cfg.MaxDiffContextLines), "\n")
}

// processNameList groups --name-only/--name-status output by directory.
func (p *gitProcessor) processNameList(lines []string) string {
	if len(lines) <= 20 {
		return strings.Join(lines, "\n")
	}

	byDir := make(map[string][]string)
	total := 0
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		total++
		path := stripped
		if m := gitNameStatRE.FindStringSubmatch(stripped); m != nil {
			path = m[2]
		}
		dir, _ := dirOf(path)
		byDir[dir] = append(byDir[dir], stripped)
	}

	result := []string{fmt.Sprintf("%d files changed:", total)}
	for _, dir := range sortedKeys(byDir) {
		files := byDir[dir]
		if len(files) > 5 {
			result = append(result, fmt.Sprintf("  %s/ (%d files)", dir, len(files)))
		} else {
			for _, f := range files {
				result = append(result, "  "+f)
			}
		}
	}
	return strings.Join(result, "\n")
}

func (p *gitProcessor) processLog(output, command string) string {
	maxEntries := p.cfg.MaxLogEntries
	lines := splitLines(output)

	hasGraph := gitGraphFlagRE.MatchString(command)
	if !hasGraph {
		probe := lines
		if len(probe) > 10 {
			probe = probe[:10]
		}
		for _, line := range probe {
			if gitGraphLineRE.MatchString(line) {
				hasGraph = true
				break
			}
		}
	}
	if hasGraph {
		// Graph art carries structure; truncate generously instead of reshaping.
		if len(lines) > maxEntries*4 {
			kept := append([]string{}, lines[:maxEntries*4]...)
			kept = append(kept, fmt.Sprintf("... (%d more lines)", len(lines)-maxEntries*4))
			return strings.Join(kept, "\n")
		}
		return output
	}

	if len(lines) > 0 && !strings.HasPrefix(lines[0], "commit ") {
		// Already --oneline style.
		if len(lines) > maxEntries {
			return strings.Join(lines[:maxEntries], "\n") +
				fmt.Sprintf("\n... (%d more)", len(lines)-maxEntries)
		}
		return output
	}

	var entries [][]string
	var current []string
	for _, line := range lines {
		if strings.HasPrefix(line, "commit ") {
			if len(current) > 0 {
				entries = append(entries, current)
			}
			current = []string{line}
		} else {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		entries = append(entries, current)
	}

	var result []string
	limit := len(entries)
	if limit > maxEntries {
		limit = maxEntries
	}
	for _, entry := range entries[:limit] {
		hash, message := "", ""
		for _, line := range entry {
			if strings.HasPrefix(line, "commit ") {
				fields := strings.Fields(line)
				if len(fields) > 1 {
					hash = fields[1]
					if len(hash) > 8 {
						hash = hash[:8]
					}
				}
			} else if s := strings.TrimSpace(line); s != "" && message == "" &&
				!strings.HasPrefix(line, "Author:") &&
				!strings.HasPrefix(line, "Merge:") &&
				!strings.HasPrefix(line, "Date:") {
				message = s
			}
		}
		result = append(result, hash+" "+message)
	}
	if len(entries) > maxEntries {
		result = append(result, fmt.Sprintf("... (%d more commits)", len(entries)-maxEntries))
	}

	return strings.Join(result, "\n")
}

// processShow keeps the commit header (hash + message) and reduces the diff
// portion like processDiff.
func (p *gitProcessor) processShow(output string) string {
	lines := splitLines(output)
	var header []string
	diffStart := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "diff --git") {
			diffStart = i
			break
		}
		header = append(header, line)
	}
	if diffStart == -1 {
		return output
	}

	reduced := strings.Join(reduceDiff(lines[diffStart:], p.cfg.MaxDiffHunkLines, p.cfg.MaxDiffContextLines), "\n")

	var compact []string
	for _, line := range header {
		s := strings.TrimSpace(line)
		if s != "" && !strings.HasPrefix(s, "Merge:") &&
			!strings.HasPrefix(s, "Author:") && !strings.HasPrefix(s, "Date:") {
			compact = append(compact, line)
		}
	}
	return strings.Join(compact, "\n") + "\n" + reduced
}

// processTransfer drops progress noise from push/pull/fetch/clone and
// merge-family output, keeping everything else.
func (p *gitProcessor) processTransfer(output string) string {
	lines := splitLines(output)
	var important []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if gitProgressRE.MatchString(stripped) {
			continue
		}
		if gitPercentRE.MatchString(stripped) {
			continue
		}
		important = append(important, stripped)
	}
	if len(important) > 0 {
		return strings.Join(important, "\n")
	}
	// Everything was progress output; keep the final state line.
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return output
}

func (p *gitProcessor) processBranch(output string) string {
	lines := splitLines(strings.TrimSpace(output))
	if len(lines) <= p.cfg.GitBranchThreshold {
		return output
	}
	current := ""
	var branches []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "* ") {
			current = stripped
		} else {
			branches = append(branches, stripped)
		}
	}
	var result []string
	if current != "" {
		result = append(result, current)
	}
	result = append(result, fmt.Sprintf("(%d other branches)", len(branches)))
	show := len(branches)
	if show > 5 {
		show = 5
	}
	for _, b := range branches[:show] {
		result = append(result, "  "+b)
	}
	if len(branches) > 5 {
		result = append(result, fmt.Sprintf("  ... (%d more)", len(branches)-5))
	}
	return strings.Join(result, "\n")
}

func (p *gitProcessor) processStashList(output string) string {
	lines := splitLines(strings.TrimSpace(output))
	threshold := p.cfg.GitStashThreshold
	if len(lines) <= threshold {
		return output
	}
	return strings.Join(lines[:threshold], "\n") +
		fmt.Sprintf("\n... (%d more stashes)", len(lines)-threshold)
}

func (p *gitProcessor) processReflog(output string) string {
	lines := splitLines(strings.TrimSpace(output))
	maxEntries := p.cfg.MaxLogEntries
	if len(lines) <= maxEntries {
		return output
	}
	return strings.Join(lines[:maxEntries], "\n") +
		fmt.Sprintf("\n... (%d more entries)", len(lines)-maxEntries)
}

// processBlame groups blame output by author with counts, keeping the last
// ten lines for recent context.
func (p *gitProcessor) processBlame(output string) string {
	lines := splitLines(strings.TrimSpace(output))
	if len(lines) <= 20 {
		return output
	}

	byAuthor := make(map[string]int)
	for _, line := range lines {
		if m := gitBlameLongRE.FindStringSubmatch(line); m != nil {
			byAuthor[strings.TrimSpace(m[1])]++
		} else if gitBlameShortRE.MatchString(line) {
			if m2 := gitBlameAuthRE.FindStringSubmatch(line); m2 != nil {
				byAuthor[strings.TrimSpace(m2[1])]++
			}
		}
	}

	if len(byAuthor) == 0 {
		// Porcelain or unrecognized format.
		if len(lines) > 50 {
			return strings.Join(lines[:40], "\n") +
				fmt.Sprintf("\n... (%d more lines)", len(lines)-40)
		}
		return output
	}

	type authorCount struct {
		author string
		count  int
	}
	ranked := make([]authorCount, 0, len(byAuthor))
	for _, a := range sortedKeys(byAuthor) {
		ranked = append(ranked, authorCount{a, byAuthor[a]})
	}
	// Descending by count, ties in name order.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].count > ranked[j-1].count; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	result := []string{fmt.Sprintf("%d lines, %d authors:", len(lines), len(byAuthor))}
	for _, ac := range ranked {
		pct := ac.count * 100 / len(lines)
		result = append(result, fmt.Sprintf("  %s: %d lines (%d%%)", ac.author, ac.count, pct))
	}
	result = append(result, "", "Last 10 lines:")
	result = append(result, lines[len(lines)-10:]...)

	return strings.Join(result, "\n")
}
