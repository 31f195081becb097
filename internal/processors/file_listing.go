package processors

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	listingCmdRE = regexp.MustCompile(`\b(ls|find|tree|dir)\b`)
	findCmdRE    = regexp.MustCompile(`\bfind\b`)
	treeCmdRE    = regexp.MustCompile(`\btree\b`)
	lsLongFlagRE = regexp.MustCompile(`\s-\S*l`)

	lsLongEntryRE = regexp.MustCompile(`^([d\-lbcps])[rwxsStT\-]{9}[@+.]?\s+\d+\s+\S+\s+\S+\s+(\d+)\s+(?:\S+\s+){2,3}(\S.*?)$`)
	treeSummaryRE = regexp.MustCompile(`\d+\s+director`)
)

type fileListingProcessor struct {
	cfg *config.Config
}

// NewFileListing returns the processor for ls, find, tree, and dir.
// Long listings group by extension, find output groups by directory,
// and tree output keeps its head plus the summary line.
func NewFileListing(cfg *config.Config) Processor {
	return &fileListingProcessor{cfg: cfg}
}

func (p *fileListingProcessor) Name() string { return "file_listing" }

func (p *fileListingProcessor) Priority() int { return 50 }

func (p *fileListingProcessor) CanHandle(command string) bool {
	return listingCmdRE.MatchString(command)
}

func (p *fileListingProcessor) HookPatterns() []string {
	return []string{`\b(ls|find|tree|dir)\b`}
}

func (p *fileListingProcessor) Process(command, output string) string {
	switch {
	case findCmdRE.MatchString(command):
		return p.processFind(output)
	case treeCmdRE.MatchString(command):
		return p.processTree(output)
	case lsLongFlagRE.MatchString(command):
		return p.processLongListing(output)
	default:
		return p.processPlainListing(output)
	}
}

func (p *fileListingProcessor) processLongListing(output string) string {
	lines := splitLines(output)
	if len(lines) <= p.cfg.LsCompactThreshold {
		return output
	}

	var entries []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "total") {
			continue
		}
		m := lsLongEntryRE.FindStringSubmatch(stripped)
		if m == nil {
			continue
		}
		name := m[3]
		switch m[1] {
		case "d":
			entries = append(entries, fmt.Sprintf("  %s/", name))
		case "l":
			entries = append(entries, fmt.Sprintf("  %s", name))
		default:
			size, _ := strconv.ParseInt(m[2], 10, 64)
			entries = append(entries, fmt.Sprintf("  %6s  %s", formatByteSize(size), name))
		}
	}
	if len(entries) == 0 {
		return output
	}

	if len(entries) > 60 {
		omitted := len(entries) - 50
		entries = append(entries[:50], fmt.Sprintf("... (%d more entries)", omitted))
	}
	return strings.Join(entries, "\n")
}

func formatByteSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%dK", n/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1fM", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.1fG", float64(n)/(1024*1024*1024))
	}
}

func (p *fileListingProcessor) processPlainListing(output string) string {
	lines := splitLines(output)
	if len(lines) <= p.cfg.LsCompactThreshold {
		return output
	}

	var dirs []string
	byExt := make(map[string][]string)
	var extOrder []string
	total := 0
	for _, line := range lines {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		total++
		if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ":") {
			dirs = append(dirs, strings.TrimRight(name, "/:"))
			continue
		}
		ext := "no ext"
		if i := strings.LastIndex(name, "."); i > 0 {
			ext = name[i+1:]
		}
		if _, seen := byExt[ext]; !seen {
			extOrder = append(extOrder, ext)
		}
		byExt[ext] = append(byExt[ext], name)
	}

	result := []string{fmt.Sprintf("%d items:", total)}
	if len(dirs) > 10 {
		result = append(result, fmt.Sprintf("  dirs (%d): %s ... +%d more",
			len(dirs), strings.Join(dirs[:8], ", "), len(dirs)-8))
	} else if len(dirs) > 0 {
		result = append(result, fmt.Sprintf("  dirs (%d): %s", len(dirs), strings.Join(dirs, ", ")))
	}

	sort.SliceStable(extOrder, func(i, j int) bool {
		return len(byExt[extOrder[i]]) > len(byExt[extOrder[j]])
	})
	for _, ext := range extOrder {
		files := byExt[ext]
		label := "*." + ext
		if ext == "no ext" {
			label = ext
		}
		if len(files) > 5 {
			result = append(result, fmt.Sprintf("  %s (%d): %s ...", label, len(files), strings.Join(files[:3], ", ")))
		} else {
			result = append(result, fmt.Sprintf("  %s: %s", label, strings.Join(files, ", ")))
		}
	}
	return strings.Join(result, "\n")
}

func (p *fileListingProcessor) processFind(output string) string {
	var paths []string
	for _, line := range splitLines(output) {
		if strings.TrimSpace(line) != "" {
			paths = append(paths, strings.TrimSpace(line))
		}
	}
	if len(paths) <= p.cfg.FindCompactThreshold {
		return output
	}
	return strings.Join(summarizePathsByDir(paths, false, 20, 0), "\n")
}

func (p *fileListingProcessor) processTree(output string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))
	threshold := p.cfg.TreeCompactThreshold
	if len(lines) <= threshold {
		return output
	}

	keep := threshold - 5
	result := append([]string{}, lines[:keep]...)
	result = append(result, fmt.Sprintf("\n... (%d lines truncated)", len(lines)-keep))
	for i := len(lines) - 1; i >= keep; i-- {
		if treeSummaryRE.MatchString(lines[i]) {
			result = append(result, lines[i])
			break
		}
	}
	return strings.Join(result, "\n")
}
