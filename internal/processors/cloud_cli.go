package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	cloudCmdRE = regexp.MustCompile(`\b(aws|gcloud|az)\s+`)

	cloudTableSepRE = regexp.MustCompile(`^[+\-|─┼]+$`)
	cloudTableRowRE = regexp.MustCompile(`\w+\s{2,}\w+\s{2,}\w+`)
)

type cloudCLIProcessor struct {
	cfg  *config.Config
	keys *keyMatcher
}

// NewCloudCLI returns the processor for aws, gcloud, and az output.
// JSON documents are summarized structurally with important keys kept
// at full depth; tables and plain text keep head and tail rows.
func NewCloudCLI(cfg *config.Config) Processor {
	return &cloudCLIProcessor{cfg: cfg, keys: newKeyMatcher(cfg.ImportantKeys)}
}

func (p *cloudCLIProcessor) Name() string { return "cloud_cli" }

func (p *cloudCLIProcessor) Priority() int { return 39 }

func (p *cloudCLIProcessor) CanHandle(command string) bool {
	return cloudCmdRE.MatchString(command)
}

func (p *cloudCLIProcessor) HookPatterns() []string {
	return []string{`^(aws|gcloud|az)\s+`}
}

func (p *cloudCLIProcessor) Process(command, output string) string {
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return p.processJSON(trimmed, output)
	}
	if isCloudTable(output) {
		return p.processTable(output)
	}
	return p.processText(output)
}

func (p *cloudCLIProcessor) processJSON(trimmed, output string) string {
	if !gjson.Valid(trimmed) {
		lines := splitLines(output)
		if len(lines) <= 50 {
			return output
		}
		result := append([]string{}, lines[:20]...)
		result = append(result, fmt.Sprintf("... (%d lines omitted)", len(lines)-30))
		result = append(result, lines[len(lines)-10:]...)
		return strings.Join(result, "\n")
	}

	summary := summarizeJSONDeep(gjson.Parse(trimmed), 4, p.keys)
	origLines := countLines(output)
	newLines := countLines(summary)
	if origLines > newLines+10 {
		summary += fmt.Sprintf("\n\n(%d lines compressed to %d)", origLines, newLines)
	}
	return summary
}

func isCloudTable(output string) bool {
	lines := splitLines(output)
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if cloudTableSepRE.MatchString(stripped) || cloudTableRowRE.MatchString(stripped) {
			return true
		}
	}
	return false
}

func (p *cloudCLIProcessor) processTable(output string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))

	headerEnd := 0
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		if cloudTableSepRE.MatchString(strings.TrimSpace(lines[i])) {
			headerEnd = i
		}
	}

	data := lines[headerEnd+1:]
	if len(data) <= 20 {
		return output
	}
	result := append([]string{}, lines[:headerEnd+1]...)
	result = append(result, data[:15]...)
	result = append(result, fmt.Sprintf("... (%d more rows)", len(data)-20))
	result = append(result, data[len(data)-5:]...)
	return strings.Join(result, "\n")
}

func (p *cloudCLIProcessor) processText(output string) string {
	lines := splitLines(output)
	if len(lines) <= 30 {
		return output
	}
	result := append([]string{}, lines[:20]...)
	result = append(result, fmt.Sprintf("... (%d lines omitted)", len(lines)-30))
	result = append(result, lines[len(lines)-10:]...)
	return strings.Join(result, "\n")
}
