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
	sysInfoCmdRE = regexp.MustCompile(`\b(du|wc|df)\b`)
	duCmdRE      = regexp.MustCompile(`\bdu\b`)
	wcCmdRE      = regexp.MustCompile(`\bwc\b`)

	duEntryRE      = regexp.MustCompile(`^([\d.]+\s*[KMGTP]?i?B?)\s+(.+)$`)
	wcEntryRE      = regexp.MustCompile(`^\s*(\d+)\s+(.*)$`)
	dfSystemRE     = regexp.MustCompile(`\b(snap|loop\d*|squashfs)\b`)
	dfSizeHeaderRE = regexp.MustCompile(`\bSize\b`)
)

type systemInfoProcessor struct {
	cfg *config.Config
}

// NewSystemInfo returns the processor for du, wc, and df output. du and
// wc entries are sorted by size with the biggest kept; df drops loop
// and tmpfs mounts.
func NewSystemInfo(cfg *config.Config) Processor {
	return &systemInfoProcessor{cfg: cfg}
}

func (p *systemInfoProcessor) Name() string { return "system_info" }

func (p *systemInfoProcessor) Priority() int { return 36 }

func (p *systemInfoProcessor) CanHandle(command string) bool {
	return sysInfoCmdRE.MatchString(command)
}

func (p *systemInfoProcessor) HookPatterns() []string {
	return []string{`\b(du|wc|df)\b`}
}

func (p *systemInfoProcessor) Process(command, output string) string {
	switch {
	case duCmdRE.MatchString(command):
		return p.processDu(output)
	case wcCmdRE.MatchString(command):
		return p.processWc(output)
	default:
		return p.processDf(output)
	}
}

type duEntry struct {
	size  string
	path  string
	bytes float64
}

func (p *systemInfoProcessor) processDu(output string) string {
	lines := splitLines(strings.TrimSpace(output))
	if len(lines) <= 15 {
		return output
	}

	var entries []duEntry
	totalLine := ""
	for _, line := range lines {
		size, path := "", ""
		if m := duEntryRE.FindStringSubmatch(line); m != nil {
			size, path = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		} else if before, after, found := strings.Cut(line, "\t"); found {
			size, path = strings.TrimSpace(before), strings.TrimSpace(after)
		} else {
			continue
		}
		if path == "." || path == "total" {
			totalLine = line
			continue
		}
		entries = append(entries, duEntry{size: size, path: path, bytes: parseHumanSize(size)})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].bytes > entries[j].bytes
	})

	var result []string
	shown := entries
	if len(shown) > 15 {
		shown = shown[:15]
	}
	for _, e := range shown {
		result = append(result, fmt.Sprintf("  %s\t%s", e.size, e.path))
	}
	if len(entries) > 15 {
		result = append(result, fmt.Sprintf("  ... (%d more entries)", len(entries)-15))
	}
	if totalLine != "" {
		result = append(result, totalLine)
	}
	return strings.Join(result, "\n")
}

// parseHumanSize turns "1.5G" or "234M" into comparable bytes. The
// exact base does not matter, only the ordering.
func parseHumanSize(size string) float64 {
	s := strings.TrimSpace(size)
	num := strings.TrimRight(s, "KMGTPiB ")
	val, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	for _, c := range s[len(num):] {
		switch c {
		case 'K':
			val *= 1e3
		case 'M':
			val *= 1e6
		case 'G':
			val *= 1e9
		case 'T':
			val *= 1e12
		case 'P':
			val *= 1e15
		}
	}
	return val
}

func (p *systemInfoProcessor) processWc(output string) string {
	lines := splitLines(strings.TrimSpace(output))
	if len(lines) <= 15 {
		return output
	}

	type wcEntry struct {
		line  string
		count int
	}
	var entries []wcEntry
	totalLine := ""
	zeros := 0
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) > 1 && fields[len(fields)-1] == "total" {
			totalLine = line
			continue
		}
		m := wcEntryRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		count, _ := strconv.Atoi(m[1])
		if count == 0 {
			zeros++
			continue
		}
		entries = append(entries, wcEntry{line: strings.TrimSpace(line), count: count})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})

	var result []string
	shown := entries
	if len(shown) > 15 {
		shown = shown[:15]
	}
	for _, e := range shown {
		result = append(result, "  "+e.line)
	}
	if len(entries) > 15 {
		result = append(result, fmt.Sprintf("  ... (%d more)", len(entries)-15))
	}
	if zeros > 0 {
		result = append(result, fmt.Sprintf("  (%d entries with count 0)", zeros))
	}
	if totalLine != "" {
		result = append(result, totalLine)
	}
	return strings.Join(result, "\n")
}

func (p *systemInfoProcessor) processDf(output string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))
	if len(lines) < 2 {
		return output
	}
	sizeLoc := dfSizeHeaderRE.FindStringIndex(lines[0])
	if sizeLoc == nil {
		return output
	}
	cut := sizeLoc[0]

	var result []string
	hidden := 0
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if dfSystemRE.MatchString(line) {
			hidden++
			continue
		}
		if strings.HasPrefix(line, "tmpfs") && !strings.Contains(line, "/tmp") {
			hidden++
			continue
		}
		if strings.HasPrefix(line, "devtmpfs") {
			hidden++
			continue
		}
		if cut < len(line) {
			result = append(result, line[cut:])
		} else {
			result = append(result, line)
		}
	}
	if hidden > 0 {
		result = append(result, fmt.Sprintf("(%d system mounts hidden)", hidden))
	}
	return strings.Join(result, "\n")
}
