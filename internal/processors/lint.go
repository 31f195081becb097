package processors

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	lintCmdRE = regexp.MustCompile(
		`\b(eslint|ruff(\s+check)?|flake8|pylint|clippy|rubocop|` +
			`golangci-lint|stylelint|prettier\s+--check|biome\s+(check|lint)|` +
			`python3?\s+-m\s+(flake8|pylint|ruff|mypy)|mypy|` +
			`shellcheck|hadolint|tflint|ktlint|swiftlint|cargo\s+clippy)\b`)
	lintFileHeaderRE = regexp.MustCompile(`^/?[\w./_-]+\.\w+$`)
	lintLineColRE    = regexp.MustCompile(`:\d+`)
	lintSummaryREs   = []*regexp.Regexp{
		regexp.MustCompile(`^\s*\d+\s+(error|warning|problem)`),
		regexp.MustCompile(`(Found|Total|All checks)\s+\d+`),
		regexp.MustCompile(`^\s*✖\s+\d+\s+problem`),
	}
	lintSummaryPrefixRE = regexp.MustCompile(`^(error|warning):`)
	lintImportantRE     = regexp.MustCompile(`(?i)\b(error|fatal|cannot|failed)\b`)
)

type lintProcessor struct {
	cfg *config.Config
}

// NewLint returns the processor for linter output: eslint, ruff, flake8,
// pylint, clippy, rubocop, mypy, shellcheck, hadolint, biome.
func NewLint(cfg *config.Config) Processor {
	return &lintProcessor{cfg: cfg}
}

func (p *lintProcessor) Name() string { return "lint" }

func (p *lintProcessor) Priority() int { return 27 }

func (p *lintProcessor) CanHandle(command string) bool {
	return lintCmdRE.MatchString(command)
}

func (p *lintProcessor) HookPatterns() []string {
	return []string{
		`^(eslint|ruff(\s+check)?|flake8|pylint|clippy|rubocop|golangci-lint|stylelint|biome\s+(check|lint))\b`,
		`^python3?\s+-m\s+(flake8|pylint|ruff|mypy)\b`,
		`^(mypy|prettier\s+--check|shellcheck|hadolint|tflint|ktlint|swiftlint|cargo\s+clippy)\b`,
	}
}

// Process groups violations by rule: rules over the group threshold collapse
// to a count plus a few examples, rare rules stay verbatim.
func (p *lintProcessor) Process(command, output string) string {
	if strings.TrimSpace(output) == "" {
		return output
	}

	byRule := make(map[string][]string)
	filesByRule := make(map[string]map[string]bool)
	var ruleOrder []string
	var ungrouped, summaryLines []string
	currentFile := ""

	for _, line := range splitLines(output) {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		// ESLint block format puts the file path on its own line.
		if lintFileHeaderRE.MatchString(stripped) && !lintLineColRE.MatchString(stripped) {
			currentFile = stripped
			continue
		}

		if rule, file, ok := parseViolation(stripped, currentFile); ok {
			if _, seen := byRule[rule]; !seen {
				ruleOrder = append(ruleOrder, rule)
				filesByRule[rule] = make(map[string]bool)
			}
			byRule[rule] = append(byRule[rule], stripped)
			if file != "" {
				filesByRule[rule][file] = true
			}
			continue
		}

		if p.isSummaryLine(stripped) {
			summaryLines = append(summaryLines, stripped)
		} else {
			ungrouped = append(ungrouped, stripped)
		}
	}

	if len(byRule) == 0 {
		return output
	}

	exampleCount := p.cfg.LintExampleCount
	groupThreshold := p.cfg.LintGroupThreshold

	total := 0
	for _, v := range byRule {
		total += len(v)
	}
	result := []string{fmt.Sprintf("%d issues across %d rules:", total, len(byRule))}

	sort.SliceStable(ruleOrder, func(i, j int) bool {
		return len(byRule[ruleOrder[i]]) > len(byRule[ruleOrder[j]])
	})

	for _, rule := range ruleOrder {
		violations := byRule[rule]
		count := len(violations)
		if count > groupThreshold {
			loc := ""
			if len(filesByRule[rule]) > 1 {
				loc = fmt.Sprintf(" in %d files", len(filesByRule[rule]))
			}
			result = append(result, fmt.Sprintf("  %s: %d occurrences%s", rule, count, loc))
			show := exampleCount
			if show > count {
				show = count
			}
			for _, v := range violations[:show] {
				result = append(result, "    "+v)
			}
			if count > exampleCount {
				result = append(result, fmt.Sprintf("    ... (%d more)", count-exampleCount))
			}
		} else {
			for _, v := range violations {
				result = append(result, "  "+v)
			}
		}
	}

	result = append(result, summaryLines...)

	// Ungrouped lines that still look like real problems.
	kept := 0
	for _, line := range ungrouped {
		if lintImportantRE.MatchString(line) {
			result = append(result, line)
			if kept++; kept == 5 {
				break
			}
		}
	}

	return strings.Join(result, "\n")
}

func (p *lintProcessor) isSummaryLine(stripped string) bool {
	for _, re := range lintSummaryREs {
		if re.MatchString(stripped) {
			return true
		}
	}
	return lintSummaryPrefixRE.MatchString(strings.ToLower(stripped))
}
