package processors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	testCmdRE = regexp.MustCompile(
		`\b(pytest|py\.test|python3?\s+-m\s+pytest|jest|mocha|` +
			`cargo\s+test|go\s+test|rspec|phpunit|vitest|bun\s+test|` +
			`npm\s+test|yarn\s+test|pnpm\s+test|` +
			`dotnet\s+test|swift\s+test|mix\s+test)\b`)

	pytestCmdRE = regexp.MustCompile(`\bpytest\b|py\.test|python3?\s+-m\s+pytest`)
	jestCmdRE   = regexp.MustCompile(`\bjest\b|\bvitest\b|\bnpm\s+test\b|\byarn\s+test\b|\bpnpm\s+test\b`)
	cargoCmdRE  = regexp.MustCompile(`\bcargo\s+test\b`)
	goCmdRE     = regexp.MustCompile(`\bgo\s+test\b`)
	rspecCmdRE  = regexp.MustCompile(`\brspec\b`)
	dotnetCmdRE = regexp.MustCompile(`\bdotnet\s+test\b`)
	swiftCmdRE  = regexp.MustCompile(`\bswift\s+test\b`)
	mixCmdRE    = regexp.MustCompile(`\bmix\s+test\b`)

	pytestCollectRE    = regexp.MustCompile(`^(collecting|collected)\s`)
	pytestMetaRE       = regexp.MustCompile(`^(platform|rootdir|configfile|plugins|cachedir)[\s:]`)
	pytestFailuresRE   = regexp.MustCompile(`^=+ FAILURES =+`)
	pytestWarnSumRE    = regexp.MustCompile(`^=+ warnings summary =+`)
	pytestBannerRE     = regexp.MustCompile(`^=+.*=+$`)
	pytestFailHeaderRE = regexp.MustCompile(`^_+ .+ _+$`)
	pytestFailEndRE    = regexp.MustCompile(`^=+ (short test summary|warnings summary|\d+ (failed|passed|error))`)
	pytestPassedRE     = regexp.MustCompile(`\bPASSED\b`)
	pytestFailedRE     = regexp.MustCompile(`\bFAILED\b|\bERROR\b`)
	pytestShortSumRE   = regexp.MustCompile(`^(FAILED|ERROR)\s`)

	jestSummaryRE   = regexp.MustCompile(`^(Tests?|Test Suites?|Snapshots?|Time|Ran all):`)
	jestSuiteHdrRE  = regexp.MustCompile(`^(Tests?|Test Suites?):`)
	jestFailRE      = regexp.MustCompile(`\bFAIL\b`)
	jestPassRE      = regexp.MustCompile(`\bPASS\b`)
	jestTestCountRE = regexp.MustCompile(`\((\d+)\s+tests?\)`)

	cargoCompileRE = regexp.MustCompile(`^\s*(Compiling|Downloading|Running|Doc-tests)`)

	goPkgSummaryRE = regexp.MustCompile(`^(ok|FAIL)\s+\S+`)

	rspecSummaryRE = regexp.MustCompile(`^\d+ examples?, \d+ failures?`)
	rspecDotsRE    = regexp.MustCompile(`^[.FE*P]+$`)
	checkmarkRE    = regexp.MustCompile(`^\s*(✓|✔)`)

	dotnetBuildRE   = regexp.MustCompile(`^\s*(Build|Restore|Determining|Microsoft)`)
	dotnetPassedRE  = regexp.MustCompile(`\bPassed\b`)
	dotnetFailedRE  = regexp.MustCompile(`\bFailed\b`)
	dotnetFailEndRE = regexp.MustCompile(`^(Total|Passed|Failed|Skipped)\s`)
	dotnetSummaryRE = regexp.MustCompile(`^(Total tests|Passed|Failed|Skipped|Test Run)`)

	swiftBuildRE   = regexp.MustCompile(`^\s*(Build|Compile|Link|Fetch|Creating)`)
	swiftFailRE    = regexp.MustCompile(`\bfailed\b|\bFailed\b|\berror\b`)
	swiftSummaryRE = regexp.MustCompile(`^Test Suite|^Executed \d+`)

	mixCompileRE = regexp.MustCompile(`^\s*(Compiling|Generated)\s`)
	mixDotsRE    = regexp.MustCompile(`^\.+$`)
	mixFailRE    = regexp.MustCompile(`(?i)\bfailure\b|\bFailed\b`)
	mixSummaryRE = regexp.MustCompile(`^\d+\s+(tests?|doctests?)`)

	genericCountRE = regexp.MustCompile(`^\d+\s+(tests?|specs?|examples?)`)
)

type testProcessor struct {
	cfg *config.Config
}

// NewTest returns the processor for test-runner output: pytest, jest, mocha,
// cargo test, go test, rspec, dotnet test, swift test, mix test.
func NewTest(cfg *config.Config) Processor {
	return &testProcessor{cfg: cfg}
}

func (p *testProcessor) Name() string { return "test" }

func (p *testProcessor) Priority() int { return 21 }

func (p *testProcessor) CanHandle(command string) bool {
	return testCmdRE.MatchString(command)
}

func (p *testProcessor) HookPatterns() []string {
	return []string{
		`^(pytest|py\.test|python3?\s+-m\s+pytest|jest|mocha|vitest|cargo\s+test|go\s+test|rspec|phpunit|bun\s+test|dotnet\s+test|swift\s+test|mix\s+test)\b`,
		`^(npm\s+test|yarn\s+test|pnpm\s+test)\b`,
	}
}

func (p *testProcessor) Process(command, output string) string {
	if strings.TrimSpace(output) == "" {
		return output
	}
	lines := splitLines(output)

	switch {
	case pytestCmdRE.MatchString(command):
		return p.processPytest(lines)
	case jestCmdRE.MatchString(command):
		return p.processJest(lines)
	case cargoCmdRE.MatchString(command):
		return p.processCargo(lines)
	case goCmdRE.MatchString(command):
		return p.processGoTest(lines)
	case rspecCmdRE.MatchString(command):
		return p.processRspec(lines)
	case dotnetCmdRE.MatchString(command):
		return p.processDotnet(lines)
	case swiftCmdRE.MatchString(command):
		return p.processSwift(lines)
	case mixCmdRE.MatchString(command):
		return p.processMix(lines)
	}
	return p.processGenericTest(lines)
}

// truncateTraceback keeps the first and last halves of an over-long failure
// block with a marker between them.
func (p *testProcessor) truncateTraceback(block []string) []string {
	maxLines := p.cfg.MaxTracebackLines
	if len(block) <= maxLines {
		return block
	}
	keepHead := maxLines / 2
	keepTail := maxLines - keepHead
	omitted := len(block) - keepHead - keepTail

	out := make([]string, 0, maxLines+1)
	out = append(out, block[:keepHead]...)
	out = append(out, fmt.Sprintf("    ... (%d traceback lines truncated)", omitted))
	out = append(out, block[len(block)-keepTail:]...)
	return out
}

func (p *testProcessor) processPytest(lines []string) string {
	var result, failureBlock, warningLines, summaryLines []string
	inFailure, inWarnings := false, false
	passed := 0

	flushFailure := func() {
		if len(failureBlock) > 0 {
			result = append(result, p.truncateTraceback(failureBlock)...)
			failureBlock = nil
		}
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if pytestCollectRE.MatchString(stripped) || pytestMetaRE.MatchString(stripped) {
			continue
		}

		if pytestFailuresRE.MatchString(line) {
			inFailure, inWarnings = true, false
			result = append(result, line)
			continue
		}
		if pytestWarnSumRE.MatchString(line) {
			inWarnings, inFailure = true, false
			flushFailure()
			continue
		}

		if inWarnings {
			if pytestBannerRE.MatchString(line) {
				inWarnings = false
				if len(warningLines) > 0 {
					result = append(result, collapseWarnings(warningLines)...)
					warningLines = nil
				}
				summaryLines = append(summaryLines, line)
			} else if stripped != "" && !strings.HasPrefix(stripped, "--") {
				warningLines = append(warningLines, stripped)
			}
			continue
		}

		if inFailure {
			if pytestFailHeaderRE.MatchString(line) {
				flushFailure()
				result = append(result, line)
				continue
			}
			if pytestFailEndRE.MatchString(line) {
				inFailure = false
				flushFailure()
				if strings.Contains(line, "warnings summary") {
					inWarnings = true
				} else {
					result = append(result, line)
				}
			} else if pytestBannerRE.MatchString(line) && !strings.Contains(line, "FAILURES") {
				inFailure = false
				flushFailure()
				result = append(result, line)
			} else {
				failureBlock = append(failureBlock, line)
			}
			continue
		}

		if pytestPassedRE.MatchString(line) {
			passed++
			continue
		}
		if pytestFailedRE.MatchString(line) {
			result = append(result, line)
			continue
		}
		if pytestBannerRE.MatchString(line) && !strings.Contains(line, "test session starts") {
			summaryLines = append(summaryLines, line)
			continue
		}
		if pytestShortSumRE.MatchString(stripped) {
			result = append(result, line)
		}
	}

	if len(warningLines) > 0 {
		result = append(result, collapseWarnings(warningLines)...)
	}
	flushFailure()

	if passed > 0 {
		result = append([]string{fmt.Sprintf("[%d tests passed]", passed)}, result...)
	}
	result = append(result, summaryLines...)

	if len(result) == 0 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(result, "\n")
}

func (p *testProcessor) processJest(lines []string) string {
	var result, failureBuffer []string
	inFailure := false
	passedSuites, passedTests := 0, 0
	blanks := 0

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if jestFailRE.MatchString(line) && !jestSuiteHdrRE.MatchString(stripped) {
			inFailure = true
			blanks = 0
			result = append(result, line)
			continue
		}

		if inFailure {
			failureBuffer = append(failureBuffer, line)
			if stripped == "" {
				blanks++
				// Two consecutive blanks end the failure block.
				if blanks >= 2 {
					result = append(result, p.truncateTraceback(failureBuffer)...)
					failureBuffer = nil
					inFailure = false
					blanks = 0
				}
			} else {
				blanks = 0
			}
			continue
		}

		if jestPassRE.MatchString(line) && !jestSuiteHdrRE.MatchString(stripped) {
			passedSuites++
			if m := jestTestCountRE.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					passedTests += n
				}
			}
			continue
		}

		if jestSummaryRE.MatchString(stripped) {
			result = append(result, line)
		}
	}

	if len(failureBuffer) > 0 {
		result = append(result, p.truncateTraceback(failureBuffer)...)
	}

	if passedSuites > 0 {
		msg := fmt.Sprintf("[%d suites passed", passedSuites)
		if passedTests > 0 {
			msg += fmt.Sprintf(", %d tests", passedTests)
		}
		msg += "]"
		result = append([]string{msg}, result...)
	}

	if len(result) == 0 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(result, "\n")
}

func (p *testProcessor) processCargo(lines []string) string {
	var result []string
	inFailure := false
	okCount := 0

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "test ") && strings.Contains(stripped, "... ok") {
			okCount++
			continue
		}
		if strings.Contains(stripped, "FAILED") {
			inFailure = true
			result = append(result, line)
			continue
		}
		if inFailure {
			result = append(result, line)
			if strings.HasPrefix(stripped, "test result:") {
				inFailure = false
			}
			continue
		}
		if strings.HasPrefix(stripped, "test result:") {
			result = append(result, line)
			continue
		}
		if cargoCompileRE.MatchString(stripped) {
			continue
		}
	}

	if okCount > 0 {
		result = append([]string{fmt.Sprintf("[%d tests passed]", okCount)}, result...)
	}
	if len(result) == 0 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(result, "\n")
}

func (p *testProcessor) processGoTest(lines []string) string {
	var result []string
	passed := 0
	inFailure := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "--- PASS") {
			passed++
			continue
		}
		if strings.HasPrefix(stripped, "--- FAIL") {
			inFailure = true
			result = append(result, line)
			continue
		}
		if inFailure {
			result = append(result, line)
			if strings.HasPrefix(stripped, "FAIL") || strings.HasPrefix(stripped, "ok") {
				inFailure = false
			}
			continue
		}
		if goPkgSummaryRE.MatchString(stripped) {
			result = append(result, line)
		}
	}

	if passed > 0 {
		result = append([]string{fmt.Sprintf("[%d tests passed]", passed)}, result...)
	}
	if len(result) == 0 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(result, "\n")
}

func (p *testProcessor) processRspec(lines []string) string {
	var result []string
	passed := 0
	inFailure := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if rspecSummaryRE.MatchString(stripped) {
			result = append(result, line)
			continue
		}
		if strings.Contains(stripped, "FAILED") || strings.Contains(stripped, "Failure/Error") {
			inFailure = true
			result = append(result, line)
			continue
		}
		if inFailure {
			result = append(result, line)
			if stripped == "" {
				inFailure = false
			}
			continue
		}
		if rspecDotsRE.MatchString(stripped) {
			passed += strings.Count(stripped, ".")
			continue
		}
		if checkmarkRE.MatchString(stripped) {
			passed++
			continue
		}
	}

	if passed > 0 {
		result = append([]string{fmt.Sprintf("[%d examples passed]", passed)}, result...)
	}
	if len(result) == 0 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(result, "\n")
}

func (p *testProcessor) processDotnet(lines []string) string {
	var result []string
	passed := 0
	inFailure := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if dotnetBuildRE.MatchString(stripped) {
			continue
		}
		if (strings.HasPrefix(stripped, "Passed!") || dotnetPassedRE.MatchString(stripped)) &&
			!strings.Contains(strings.ToLower(stripped), "test") {
			passed++
			continue
		}
		if dotnetFailedRE.MatchString(stripped) {
			inFailure = true
			result = append(result, line)
			continue
		}
		if inFailure {
			result = append(result, line)
			if stripped == "" || dotnetFailEndRE.MatchString(stripped) {
				inFailure = false
			}
			continue
		}
		if dotnetSummaryRE.MatchString(stripped) {
			result = append(result, line)
		}
	}

	if passed > 0 {
		result = append([]string{fmt.Sprintf("[%d tests passed]", passed)}, result...)
	}
	if len(result) == 0 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(result, "\n")
}

func (p *testProcessor) processSwift(lines []string) string {
	var result []string
	passed := 0

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if swiftBuildRE.MatchString(stripped) {
			continue
		}
		lower := strings.ToLower(stripped)
		if strings.Contains(lower, "passed") && !strings.Contains(lower, "test") {
			passed++
			continue
		}
		if swiftFailRE.MatchString(stripped) {
			result = append(result, line)
			continue
		}
		if swiftSummaryRE.MatchString(stripped) {
			result = append(result, line)
		}
	}

	if passed > 0 {
		result = append([]string{fmt.Sprintf("[%d tests passed]", passed)}, result...)
	}
	if len(result) == 0 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(result, "\n")
}

func (p *testProcessor) processMix(lines []string) string {
	var result []string
	passed := 0
	inFailure := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if mixCompileRE.MatchString(stripped) {
			continue
		}
		if mixDotsRE.MatchString(stripped) {
			passed += len(stripped)
			continue
		}
		if mixFailRE.MatchString(stripped) {
			inFailure = true
			result = append(result, line)
			continue
		}
		if inFailure {
			result = append(result, line)
			if stripped == "" {
				inFailure = false
			}
			continue
		}
		if mixSummaryRE.MatchString(stripped) {
			result = append(result, line)
		}
		if strings.HasPrefix(stripped, "Finished in") {
			result = append(result, line)
		}
	}

	if passed > 0 {
		result = append([]string{fmt.Sprintf("[%d tests passed]", passed)}, result...)
	}
	if len(result) == 0 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(result, "\n")
}

func (p *testProcessor) processGenericTest(lines []string) string {
	var result []string
	passed := 0

	for _, line := range lines {
		lower := strings.ToLower(line)
		stripped := strings.TrimSpace(line)
		switch {
		case strings.Contains(lower, "fail") || strings.Contains(lower, "error") ||
			strings.Contains(lower, "assert") || strings.Contains(lower, "exception") ||
			strings.Contains(lower, "traceback"):
			result = append(result, line)
		case strings.Contains(lower, "pass") || strings.Contains(lower, "ok ") ||
			strings.Contains(lower, "success"):
			passed++
		case checkmarkRE.MatchString(stripped):
			passed++
		case genericCountRE.MatchString(stripped):
			result = append(result, line)
		}
	}

	if passed > 0 {
		result = append([]string{fmt.Sprintf("[%d tests passed]", passed)}, result...)
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
