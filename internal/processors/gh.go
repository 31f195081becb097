package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	ghCmdRE = regexp.MustCompile(`\bgh\s+(pr|issue|run|repo|release|workflow)\s+(list|view|status|diff|checks|ls|create|close|merge)\b`)

	ghMetaRE      = regexp.MustCompile(`(?i)^(title|state|author|number|url|labels|reviewers|assignees|milestone|projects|base|head|created|updated|closed|merged):`)
	ghSeparatorRE = regexp.MustCompile(`^--+$`)
	ghIndicatorRE = regexp.MustCompile(`(FAIL|OPEN|CLOSED|MERGED|APPROVED|CHANGES_REQUESTED|REVIEW_REQUIRED|✓|✗|×|!)`)
	ghPassRE      = regexp.MustCompile(`(?i)\bpass\b`)
	ghFailRE      = regexp.MustCompile(`(?i)\bfail\b`)
	ghPendingRE   = regexp.MustCompile(`(?i)\b(pending|queued|in_progress)\b`)
)

type ghProcessor struct {
	cfg *config.Config
}

// NewGH returns the processor for the GitHub CLI. Listings truncate to
// 30 rows, PR views keep metadata and a bounded body, diffs go through
// the diff reducer, and check runs collapse to failed/pending/passed.
func NewGH(cfg *config.Config) Processor {
	return &ghProcessor{cfg: cfg}
}

func (p *ghProcessor) Name() string { return "gh" }

func (p *ghProcessor) Priority() int { return 37 }

func (p *ghProcessor) CanHandle(command string) bool {
	return ghCmdRE.MatchString(command)
}

func (p *ghProcessor) HookPatterns() []string {
	return []string{`^gh\s+`}
}

func (p *ghProcessor) Process(command, output string) string {
	m := ghCmdRE.FindStringSubmatch(command)
	if m == nil {
		return output
	}
	resource, action := m[1], m[2]
	switch action {
	case "list", "ls":
		return p.processList(output, resource)
	case "view":
		return p.processView(output)
	case "status":
		return p.processStatus(output)
	case "diff":
		return p.processDiff(output)
	case "checks":
		return p.processChecks(output)
	}
	return output
}

func (p *ghProcessor) processList(output, resource string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))
	if len(lines) <= 15 {
		return output
	}

	shown := lines
	if len(shown) > 30 {
		shown = shown[:30]
	}
	result := make([]string, 0, len(shown)+1)
	for _, line := range shown {
		fields := strings.Split(line, "\t")
		for i, f := range fields {
			if len(f) > 80 {
				fields[i] = f[:77] + "..."
			}
		}
		result = append(result, strings.Join(fields, "\t"))
	}
	if len(lines) > 30 {
		result = append(result, fmt.Sprintf("... (%d more %ss)", len(lines)-30, resource))
	}
	return strings.Join(result, "\n")
}

func (p *ghProcessor) processView(output string) string {
	lines := splitLines(output)
	if len(lines) <= 30 {
		return output
	}

	var result, body []string
	inBody := false
	for _, line := range lines {
		if inBody {
			body = append(body, line)
			continue
		}
		if ghSeparatorRE.MatchString(strings.TrimSpace(line)) {
			inBody = true
			continue
		}
		if ghMetaRE.MatchString(line) {
			result = append(result, line)
		}
	}

	if len(body) > 20 {
		result = append(result, body[:20]...)
		result = append(result, fmt.Sprintf("... (%d more body lines)", len(body)-20))
	} else {
		result = append(result, body...)
	}
	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}

func (p *ghProcessor) processStatus(output string) string {
	lines := splitLines(output)
	if len(lines) <= 20 {
		return output
	}
	var result []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t"):
			result = append(result, line)
		case ghIndicatorRE.MatchString(line):
			result = append(result, line)
		case len(lines) <= 30:
			result = append(result, line)
		}
	}
	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}

func (p *ghProcessor) processDiff(output string) string {
	lines := splitLines(output)
	if len(lines) <= 50 {
		return output
	}
	reduced := reduceDiff(lines, p.cfg.MaxDiffHunkLines, p.cfg.MaxDiffContextLines)
	return strings.Join(reduced, "\n")
}

func (p *ghProcessor) processChecks(output string) string {
	lines := splitLines(output)
	if len(lines) <= 10 {
		return output
	}

	passed := 0
	var failed, pending, other []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		switch {
		case ghFailRE.MatchString(stripped) || strings.ContainsAny(stripped, "✗×"):
			failed = append(failed, stripped)
		case ghPassRE.MatchString(stripped) || strings.Contains(stripped, "✓"):
			passed++
		case ghPendingRE.MatchString(stripped) || strings.Contains(stripped, "○"):
			pending = append(pending, stripped)
		default:
			other = append(other, stripped)
		}
	}

	var result []string
	if len(failed) > 0 {
		result = append(result, fmt.Sprintf("Failed (%d):", len(failed)))
		for _, line := range failed {
			result = append(result, "  "+line)
		}
	}
	if len(pending) > 0 {
		result = append(result, fmt.Sprintf("Pending (%d):", len(pending)))
		for _, line := range pending {
			result = append(result, "  "+line)
		}
	}
	if passed > 0 {
		result = append(result, fmt.Sprintf("[%d checks passed]", passed))
	}
	if len(other) > 5 {
		other = other[:5]
	}
	result = append(result, other...)

	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}
