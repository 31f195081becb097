package processors

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	searchCmdRE = regexp.MustCompile(`\b(grep|rg|ag|fd|fdfind)\b`)
	fdCmdRE     = regexp.MustCompile(`\b(fd|fdfind)\b`)

	binaryMatchRE = regexp.MustCompile(`^Binary file .* matches`)
	matchLineRE   = regexp.MustCompile(`^((?:[a-zA-Z]:)?[^\s:]+\.[a-zA-Z0-9]+):(\d+:)?(.*)$`)
)

type searchProcessor struct {
	cfg *config.Config
}

// NewSearch returns the processor for grep, rg, ag, and fd output.
// Matches are regrouped per file with per-file caps; fd listings are
// grouped by directory.
func NewSearch(cfg *config.Config) Processor {
	return &searchProcessor{cfg: cfg}
}

func (p *searchProcessor) Name() string { return "search" }

func (p *searchProcessor) Priority() int { return 35 }

func (p *searchProcessor) CanHandle(command string) bool {
	return searchCmdRE.MatchString(command)
}

func (p *searchProcessor) HookPatterns() []string {
	return []string{`\b(grep|rg|ag|fd|fdfind)\b`}
}

func (p *searchProcessor) Process(command, output string) string {
	if fdCmdRE.MatchString(command) {
		return p.processFd(output)
	}
	return p.processGrep(output)
}

func (p *searchProcessor) processFd(output string) string {
	var paths []string
	for _, line := range splitLines(output) {
		if strings.TrimSpace(line) != "" {
			paths = append(paths, strings.TrimSpace(line))
		}
	}
	if len(paths) <= 20 {
		return output
	}
	return strings.Join(summarizePathsByDir(paths, true, 10, p.cfg.SearchMaxFiles), "\n")
}

func (p *searchProcessor) processGrep(output string) string {
	lines := splitLines(output)
	if len(lines) < 20 {
		return output
	}

	byFile := make(map[string][]string)
	var fileOrder, plain []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || binaryMatchRE.MatchString(line) {
			continue
		}
		m := matchLineRE.FindStringSubmatch(line)
		if m == nil {
			plain = append(plain, line)
			continue
		}
		file := m[1]
		if _, seen := byFile[file]; !seen {
			fileOrder = append(fileOrder, file)
		}
		byFile[file] = append(byFile[file], line)
	}

	if len(byFile) == 0 {
		if len(plain) > 30 {
			result := append([]string{}, plain[:25]...)
			result = append(result, fmt.Sprintf("... (%d more matches)", len(plain)-25))
			return strings.Join(result, "\n")
		}
		return output
	}

	totalMatches := 0
	for _, matches := range byFile {
		totalMatches += len(matches)
	}
	sort.SliceStable(fileOrder, func(i, j int) bool {
		return len(byFile[fileOrder[i]]) > len(byFile[fileOrder[j]])
	})

	maxFiles := p.cfg.SearchMaxFiles
	maxPerFile := p.cfg.SearchMaxPerFile
	result := []string{fmt.Sprintf("%d matches across %d files:", totalMatches, len(byFile))}

	shown := fileOrder
	if len(shown) > maxFiles {
		shown = shown[:maxFiles]
	}
	for _, file := range shown {
		matches := byFile[file]
		if len(matches) > maxPerFile {
			result = append(result, fmt.Sprintf("%s: (%d matches)", file, len(matches)))
			for _, line := range matches[:maxPerFile] {
				result = append(result, "  "+strings.TrimPrefix(line, file+":"))
			}
			result = append(result, fmt.Sprintf("  ... (%d more)", len(matches)-maxPerFile))
			continue
		}
		result = append(result, matches...)
	}
	if len(fileOrder) > maxFiles {
		result = append(result, fmt.Sprintf("... (%d more files)", len(fileOrder)-maxFiles))
	}
	return strings.Join(result, "\n")
}

// summarizePathsByDir groups file paths by parent directory. Directories
// with many files collapse to an extension breakdown. byCount sorts
// directories largest first; otherwise they sort by name. maxDirs <= 0
// means unlimited.
func summarizePathsByDir(paths []string, byCount bool, extBreakdownAt, maxDirs int) []string {
	byDir := make(map[string][]string)
	var order []string
	for _, path := range paths {
		dir, base := dirOf(path)
		if _, seen := byDir[dir]; !seen {
			order = append(order, dir)
		}
		byDir[dir] = append(byDir[dir], base)
	}

	if byCount {
		sort.SliceStable(order, func(i, j int) bool {
			return len(byDir[order[i]]) > len(byDir[order[j]])
		})
	} else {
		sort.Strings(order)
	}

	result := []string{fmt.Sprintf("%d files in %d directories:", len(paths), len(byDir))}
	shown := order
	if maxDirs > 0 && len(shown) > maxDirs {
		shown = shown[:maxDirs]
	}
	for _, dir := range shown {
		files := byDir[dir]
		switch {
		case len(files) > extBreakdownAt:
			result = append(result, fmt.Sprintf("  %s/ (%d files: %s)", dir, len(files), extBreakdown(files)))
		case len(files) > 5:
			result = append(result, fmt.Sprintf("  %s/: %s ...", dir, strings.Join(files[:3], ", ")))
		default:
			result = append(result, fmt.Sprintf("  %s/: %s", dir, strings.Join(files, ", ")))
		}
	}
	if maxDirs > 0 && len(order) > maxDirs {
		result = append(result, fmt.Sprintf("... (%d more directories)", len(order)-maxDirs))
	}
	return result
}

// extBreakdown renders the four most common extensions in a file set.
func extBreakdown(files []string) string {
	counts := make(map[string]int)
	var order []string
	for _, f := range files {
		ext := "(no ext)"
		if i := strings.LastIndex(f, "."); i > 0 {
			ext = "*." + f[i+1:]
		}
		if _, seen := counts[ext]; !seen {
			order = append(order, ext)
		}
		counts[ext]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 4 {
		order = order[:4]
	}
	parts := make([]string, 0, len(order))
	for _, ext := range order {
		parts = append(parts, fmt.Sprintf("%s:%d", ext, counts[ext]))
	}
	return strings.Join(parts, ", ")
}
