package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	buildCmdRE = regexp.MustCompile(
		`\b(npm\s+(run|install|ci|build|audit)|yarn\s+(install|build|add|audit)|pnpm\s+(install|build|add|audit)|` +
			`cargo\s+(build|check)|make\b|cmake\b|gradle\b|mvn\b|ant\b|` +
			`pip3?\s+install|poetry\s+(install|update)|uv\s+(pip|sync)|` +
			`tsc\b|webpack\b|vite(\s+build)?|esbuild\b|rollup\b|next\s+build|nuxt\s+build|` +
			`docker\s+(build|compose\s+build))\b`)
	buildListingRE     = regexp.MustCompile(`\b(pip3?\s+(list|freeze)|npm\s+(ls|list)|conda\s+list)\b`)
	buildAuditCmdRE    = regexp.MustCompile(`\b(npm|yarn|pnpm)\s+audit\b`)
	dockerBuildCmdRE   = regexp.MustCompile(`\bdocker\s+(build|compose\s+build)\b`)
	buildErrorRE       = regexp.MustCompile(`\b(error|Error|ERROR)\b`)
	buildZeroErrorsRE  = regexp.MustCompile(`\b0 errors?\b`)
	buildErrCountRE    = regexp.MustCompile(`\d+\s+(errors?|warnings?|problems?)`)
	buildWarnRE        = regexp.MustCompile(`(?i)\bwarn(ing)?\b`)
	buildNoteRE        = regexp.MustCompile(`\b(warning|Warning|note|Note|help|Help)\b`)
	buildCodeFrameRE   = regexp.MustCompile(`^\d+\s*\|`)
	buildLocRE         = regexp.MustCompile(`^\s+\d+:\d+`)
	dockerStepRE       = regexp.MustCompile(`^(Step \d+/\d+|#\d+\s|\[\d+/\d+\])`)
	dockerBuildErrorRE = regexp.MustCompile(`\b(error|Error|ERROR|failed|FAILED)\b`)
	dockerSuccessRE    = regexp.MustCompile(`(?i)(Successfully (built|tagged)|naming to |writing image|DONE)`)
	dockerLayerNoiseRE = regexp.MustCompile(`^(Running in |Removing intermediate| ---> |sha256:)`)
	dockerContextRE    = regexp.MustCompile(`^(Sending build context|Downloading|Extracting|Pulling)`)
	percentRE          = regexp.MustCompile(`\d+(\.\d+)?%`)
	auditSeverityRE    = regexp.MustCompile(`(?i)\b(critical|high|moderate|low)\b`)
	auditPkgRangeRE    = regexp.MustCompile(`^(\S+)\s+[<>=]`)
	auditPkgLabelRE    = regexp.MustCompile(`^Package\s+(\S+)`)
	auditSummaryRE     = regexp.MustCompile(`(?i)\d+\s+(vulnerabilit|package)`)
	auditFixRE         = regexp.MustCompile(`(?i)(npm audit fix|run .* to fix|breaking change)`)

	buildProgressREs = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(Downloading|Installing|Fetching|Resolving|Unpacking|Linking|Extracting)`),
		regexp.MustCompile(`^\s*added \d+ packages?`),
		regexp.MustCompile(`^\s*\d+ packages? are looking`),
		regexp.MustCompile(`^\s*(GET|fetch)\s+http`),
		regexp.MustCompile(`^\s*npm\s+(WARN|notice|warn)\b`),
		regexp.MustCompile(`^\s*\d+(\.\d+)?\s*%`),
		regexp.MustCompile(`^\s*(⠋|⠙|⠹|⠸|⠼|⠴|⠦|⠧|⠇|⠏|⣾|⣽|⣻|⢿|⡿|⣟|⣯|⣷)`),
		regexp.MustCompile(`^\s*\[\d+/\d+\]`),
		regexp.MustCompile(`^\s*(Compiling|Updating|Preparing)\s+\S+`),
		regexp.MustCompile(`^\s*Already up to date`),
		regexp.MustCompile(`^\s*Using\s+(cached|version)\b`),
		regexp.MustCompile(`^\s*Collecting\s+\S+`),
		regexp.MustCompile(`^\s*━`),
		regexp.MustCompile(`^\s*➤?\s*YN\d+:.*\b(Resolution|Fetch|Link)\s+step\b`),
		regexp.MustCompile(`^\s*Progress:\s+resolved\s+\d+`),
		regexp.MustCompile(`^\s*[Pp]ackages?\s+(are|is)\s+hard linked`),
	}
)

type buildProcessor struct {
	cfg *config.Config
}

// NewBuild returns the processor for build tool output: npm, cargo, make,
// webpack, tsc, pip, docker build, npm audit.
func NewBuild(cfg *config.Config) Processor {
	return &buildProcessor{cfg: cfg}
}

func (p *buildProcessor) Name() string { return "build" }

func (p *buildProcessor) Priority() int { return 25 }

func (p *buildProcessor) CanHandle(command string) bool {
	// Package listing commands belong to the package_list processor.
	if buildListingRE.MatchString(command) {
		return false
	}
	return buildCmdRE.MatchString(command)
}

func (p *buildProcessor) HookPatterns() []string {
	return []string{
		`^(npm\s+(run|install|build|ci|audit)|yarn\s+(run|install|build|add|audit)|pnpm\s+(run|install|build|add|audit))\b`,
		`^(cargo\s+(build|check|clippy)|make\b|cmake\b|gradle\b|mvn\b|ant\b)`,
		`^(pip3?\s+install|poetry\s+(install|update)|uv\s+(pip|sync))\b`,
		`^(tsc|webpack|vite(\s+build)?|esbuild|rollup|next\s+build|nuxt\s+build)\b`,
	}
}

func (p *buildProcessor) Process(command, output string) string {
	if strings.TrimSpace(output) == "" {
		return output
	}

	if buildAuditCmdRE.MatchString(command) {
		return p.processAudit(output)
	}
	if dockerBuildCmdRE.MatchString(command) {
		return p.processDockerBuild(output)
	}

	lines := splitLines(output)

	hasError := false
	for _, line := range lines {
		if buildErrorRE.MatchString(line) && !buildZeroErrorsRE.MatchString(line) &&
			!isBuildProgressLine(strings.TrimSpace(line)) {
			hasError = true
			break
		}
	}

	if hasError {
		return p.extractErrors(lines)
	}
	return p.summarizeSuccess(lines)
}

func isBuildProgressLine(line string) bool {
	if line == "" {
		return false
	}
	for _, re := range buildProgressREs {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// extractErrors keeps error lines plus their stack/code-frame context.
func (p *buildProcessor) extractErrors(lines []string) string {
	var result []string
	inErrorBlock := false
	blanks := 0

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if isBuildProgressLine(stripped) {
			continue
		}

		if buildErrorRE.MatchString(stripped) && !buildZeroErrorsRE.MatchString(stripped) {
			inErrorBlock = true
			blanks = 0
			result = append(result, line)
			continue
		}

		if inErrorBlock {
			if stripped == "" {
				blanks++
				if blanks >= 2 {
					inErrorBlock = false
				} else {
					result = append(result, line)
				}
				continue
			}
			blanks = 0
			switch {
			case strings.HasPrefix(stripped, "at ") || strings.HasPrefix(stripped, "-->") ||
				strings.HasPrefix(stripped, "  |") || strings.HasPrefix(stripped, "   |") ||
				strings.HasPrefix(stripped, ">") || strings.HasPrefix(stripped, "~~") ||
				strings.HasPrefix(stripped, "^^") ||
				buildCodeFrameRE.MatchString(stripped) || buildLocRE.MatchString(stripped):
				result = append(result, line)
			case buildNoteRE.MatchString(stripped):
				result = append(result, line)
				inErrorBlock = false
			default:
				result = append(result, line)
			}
			continue
		}

		if buildErrCountRE.MatchString(strings.ToLower(stripped)) {
			result = append(result, line)
		}
	}

	if len(result) == 0 {
		tail := lines
		if len(tail) > 30 {
			tail = tail[len(tail)-30:]
		}
		return strings.Join(tail, "\n")
	}
	return strings.Join(result, "\n")
}

// summarizeSuccess reduces a clean build to one line plus the last few
// size/timing lines.
func (p *buildProcessor) summarizeSuccess(lines []string) string {
	warningCount := 0
	var outputLines []string

	keywords := []string{
		"built", "compiled", "success", "done", "complete", "finish",
		"written", "created", "generated", "output", "bundle", "size",
		"gzip", "chunk",
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if isBuildProgressLine(stripped) {
			continue
		}
		if buildWarnRE.MatchString(stripped) {
			warningCount++
			continue
		}
		lower := strings.ToLower(stripped)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				outputLines = append(outputLines, stripped)
				break
			}
		}
	}

	summary := "Build succeeded."
	if warningCount > 0 {
		summary += fmt.Sprintf(" (%d warnings)", warningCount)
	}

	result := []string{summary}
	if len(outputLines) > 3 {
		outputLines = outputLines[len(outputLines)-3:]
	}
	result = append(result, outputLines...)

	return strings.Join(result, "\n")
}

// processDockerBuild keeps step headers, errors, and the final image line.
func (p *buildProcessor) processDockerBuild(output string) string {
	lines := splitLines(output)
	var result []string

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if dockerStepRE.MatchString(stripped) {
			result = append(result, stripped)
			continue
		}
		if dockerBuildErrorRE.MatchString(stripped) {
			result = append(result, stripped)
			continue
		}
		if dockerSuccessRE.MatchString(stripped) {
			result = append(result, stripped)
			continue
		}
		if dockerLayerNoiseRE.MatchString(stripped) || dockerContextRE.MatchString(stripped) {
			continue
		}
		if percentRE.MatchString(stripped) {
			continue
		}
	}

	if len(result) == 0 {
		tail := lines
		if len(tail) > 10 {
			tail = tail[len(tail)-10:]
		}
		return strings.Join(tail, "\n")
	}
	return strings.Join(result, "\n")
}

// processAudit groups npm/yarn audit findings by severity.
func (p *buildProcessor) processAudit(output string) string {
	lines := splitLines(output)
	severities := make(map[string]int)
	packages := make(map[string][]string)
	var summaryLines []string
	currentPackage := ""

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if m := auditPkgRangeRE.FindStringSubmatch(stripped); m != nil {
			currentPackage = m[1]
		} else if m := auditPkgLabelRE.FindStringSubmatch(stripped); m != nil {
			currentPackage = m[1]
		}

		if m := auditSeverityRE.FindStringSubmatch(stripped); m != nil {
			sev := strings.ToLower(m[1])
			severities[sev]++
			if currentPackage != "" {
				known := false
				for _, pkg := range packages[sev] {
					if pkg == currentPackage {
						known = true
						break
					}
				}
				if !known {
					packages[sev] = append(packages[sev], currentPackage)
				}
			}
		}

		if auditSummaryRE.MatchString(stripped) {
			summaryLines = append(summaryLines, stripped)
		}
		if auditFixRE.MatchString(stripped) {
			summaryLines = append(summaryLines, stripped)
		}
	}

	if len(severities) == 0 {
		return strings.Join(lines, "\n")
	}

	total := 0
	for _, n := range severities {
		total += n
	}
	result := []string{fmt.Sprintf("%d vulnerabilities found:", total)}
	for _, sev := range []string{"critical", "high", "moderate", "low"} {
		count, found := severities[sev]
		if !found {
			continue
		}
		pkgs := packages[sev]
		pkgStr := ""
		if len(pkgs) > 5 {
			pkgStr = fmt.Sprintf(" (%s +%d more)", strings.Join(pkgs[:5], ", "), len(pkgs)-5)
		} else if len(pkgs) > 0 {
			pkgStr = fmt.Sprintf(" (%s)", strings.Join(pkgs, ", "))
		}
		result = append(result, fmt.Sprintf("  %s: %d%s", sev, count, pkgStr))
	}

	seen := make(map[string]bool)
	for _, line := range summaryLines {
		if !seen[line] {
			result = append(result, line)
			seen[line] = true
		}
	}

	return strings.Join(result, "\n")
}
