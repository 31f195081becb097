package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	pkgListCmdRE = regexp.MustCompile(`\b(pip3?\s+(list|freeze)|npm\s+(ls|list)|conda\s+list)\b`)
	npmListCmdRE = regexp.MustCompile(`\bnpm\s+(ls|list)\b`)
	pipHeaderRE  = regexp.MustCompile(`^Package\s+Version`)
	pipRuleRE    = regexp.MustCompile(`^-+(\s+-+)*$`)
)

// pkgListKeep is how many package entries a truncated listing shows.
const pkgListKeep = 15

type packageListProcessor struct {
	cfg *config.Config
}

// NewPackageList returns the processor for package inventory commands:
// pip list/freeze, npm ls, conda list. Runs before the build processor so
// listings are never mistaken for install output.
func NewPackageList(cfg *config.Config) Processor {
	return &packageListProcessor{cfg: cfg}
}

func (p *packageListProcessor) Name() string { return "package_list" }

func (p *packageListProcessor) Priority() int { return 15 }

func (p *packageListProcessor) CanHandle(command string) bool {
	return pkgListCmdRE.MatchString(command)
}

func (p *packageListProcessor) HookPatterns() []string {
	return []string{`^(pip3?\s+(list|freeze)|npm\s+(ls|list)|conda\s+list)\b`}
}

func (p *packageListProcessor) Process(command, output string) string {
	if strings.TrimSpace(output) == "" {
		return output
	}
	if npmListCmdRE.MatchString(command) {
		return p.processNpmTree(output)
	}
	return p.processFlatList(output)
}

// processFlatList truncates pip/conda style listings to a count plus the
// first entries.
func (p *packageListProcessor) processFlatList(output string) string {
	var entries []string
	for _, line := range splitLines(output) {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		if pipHeaderRE.MatchString(stripped) || pipRuleRE.MatchString(stripped) {
			continue
		}
		entries = append(entries, stripped)
	}
	if len(entries) <= pkgListKeep {
		return output
	}

	result := make([]string, 0, pkgListKeep+2)
	result = append(result, fmt.Sprintf("%d packages installed:", len(entries)))
	result = append(result, entries[:pkgListKeep]...)
	result = append(result, fmt.Sprintf("... (%d more)", len(entries)-pkgListKeep))
	return strings.Join(result, "\n")
}

// processNpmTree collapses a dependency tree to its root, a total, the
// top-level packages, and any problem lines (UNMET, missing, invalid).
func (p *packageListProcessor) processNpmTree(output string) string {
	lines := splitLines(output)

	root := ""
	var topLevel, issues []string
	totalNodes := 0

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if i == 0 && !isNpmTreeNode(line) {
			root = stripped
			continue
		}

		if strings.Contains(stripped, "UNMET DEPENDENCY") ||
			strings.Contains(stripped, "missing:") ||
			strings.Contains(stripped, "invalid") ||
			strings.Contains(stripped, "npm ERR") {
			issues = append(issues, stripped)
		}

		if isNpmTreeNode(line) {
			totalNodes++
			if isNpmTopLevel(line) {
				topLevel = append(topLevel, npmNodeText(line))
			}
		}
	}

	if totalNodes <= pkgListKeep {
		return output
	}

	var result []string
	if root != "" {
		result = append(result, root)
	}
	result = append(result, fmt.Sprintf("%d total dependencies", totalNodes))

	result = append(result, fmt.Sprintf("Top-level (%d):", len(topLevel)))
	show := topLevel
	if len(show) > 20 {
		show = show[:20]
	}
	for _, pkg := range show {
		result = append(result, "  "+pkg)
	}
	if len(topLevel) > 20 {
		result = append(result, fmt.Sprintf("  ... (%d more)", len(topLevel)-20))
	}

	if len(issues) > 0 {
		result = append(result, fmt.Sprintf("Issues (%d):", len(issues)))
		for _, issue := range issues {
			result = append(result, "  "+issue)
		}
	}

	return strings.Join(result, "\n")
}

func isNpmTreeNode(line string) bool {
	trimmed := strings.TrimLeft(line, "│| ")
	return strings.HasPrefix(trimmed, "├──") || strings.HasPrefix(trimmed, "└──") ||
		strings.HasPrefix(trimmed, "+--") || strings.HasPrefix(trimmed, "`--")
}

func isNpmTopLevel(line string) bool {
	return strings.HasPrefix(line, "├──") || strings.HasPrefix(line, "└──") ||
		strings.HasPrefix(line, "+--") || strings.HasPrefix(line, "`--")
}

func npmNodeText(line string) string {
	trimmed := strings.TrimLeft(line, "│| ")
	for _, marker := range []string{"├── ", "└── ", "+-- ", "`-- "} {
		if strings.HasPrefix(trimmed, marker) {
			return trimmed[len(marker):]
		}
	}
	return strings.TrimSpace(trimmed)
}
