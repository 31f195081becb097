package processors

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	terraformCmdRE = regexp.MustCompile(`\b(terraform|tofu)\s+(plan|apply|destroy|init|output|state\s+(?:list|show))\b`)

	tfInitNoiseRE  = regexp.MustCompile(`^(Initializing|Acquiring|Installing|Reusing|Finding|Using)\b`)
	tfVersionRE    = regexp.MustCompile(`\bv\d+\.\d+`)
	tfBlockHdRE    = regexp.MustCompile(`^#\s+\S+`)
	tfResourceRE   = regexp.MustCompile(`^\s*[+~-]\s+resource\s+`)
	tfChangedRE    = regexp.MustCompile(`^\s*[~+-]`)
	tfOutputLineRE = regexp.MustCompile(`^\s*[+~-]\s+\w+\s*=`)
	tfSummaryRE    = regexp.MustCompile(`^(Plan:|Apply complete|Destroy complete|No changes|Changes to Outputs:|Note:)`)
	tfProblemRE    = regexp.MustCompile(`\b(Error|Warning)\b`)
	tfKeyValRE     = regexp.MustCompile(`^(\S+\s*=\s*)`)
	tfTypeRE       = regexp.MustCompile(`^[a-z]+_`)
)

type terraformProcessor struct {
	cfg *config.Config
}

// NewTerraform returns the processor for terraform and tofu output.
// Plans keep resource headers and changed attributes, init keeps
// provider versions, and state listings become per-type counts.
func NewTerraform(cfg *config.Config) Processor {
	return &terraformProcessor{cfg: cfg}
}

func (p *terraformProcessor) Name() string { return "terraform" }

func (p *terraformProcessor) Priority() int { return 33 }

func (p *terraformProcessor) CanHandle(command string) bool {
	return terraformCmdRE.MatchString(command)
}

func (p *terraformProcessor) HookPatterns() []string {
	return []string{`^(terraform|tofu)\s+`}
}

func (p *terraformProcessor) Process(command, output string) string {
	m := terraformCmdRE.FindStringSubmatch(command)
	if m == nil {
		return output
	}
	sub := strings.Join(strings.Fields(m[2]), " ")
	switch sub {
	case "init":
		return p.processInit(output)
	case "output":
		return p.processOutput(output)
	case "state list":
		return p.processStateList(output)
	case "state show":
		return p.processStateShow(output)
	case "plan", "apply", "destroy":
		return p.processPlan(output)
	}
	return output
}

func (p *terraformProcessor) processInit(output string) string {
	lines := splitLines(output)
	if len(lines) <= 20 {
		return output
	}
	var result []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if strings.HasPrefix(stripped, "- ") && tfVersionRE.MatchString(stripped) {
			result = append(result, stripped)
			continue
		}
		if tfInitNoiseRE.MatchString(stripped) {
			continue
		}
		lower := strings.ToLower(stripped)
		if strings.Contains(lower, "success") || strings.Contains(lower, "error") ||
			strings.Contains(lower, "warning") || strings.Contains(lower, "upgrade") {
			result = append(result, stripped)
		}
	}
	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}

func (p *terraformProcessor) processOutput(output string) string {
	lines := splitLines(output)
	if len(lines) <= 30 {
		return output
	}
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		result = append(result, truncateLongValue(line, 200, 150))
	}
	return strings.Join(result, "\n")
}

// truncateLongValue shortens a single long line, keeping the "key ="
// prefix when one exists.
func truncateLongValue(line string, maxLen, keep int) string {
	if len(line) <= maxLen {
		return line
	}
	if m := tfKeyValRE.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("%s... (%d chars)", m[1], len(line))
	}
	return fmt.Sprintf("%s... (%d chars)", line[:keep], len(line))
}

func (p *terraformProcessor) processStateList(output string) string {
	lines := splitLines(strings.TrimSpace(output))
	if len(lines) <= 30 {
		return output
	}

	counts := make(map[string]int)
	var order []string
	total := 0
	for _, line := range lines {
		addr := strings.TrimSpace(line)
		if addr == "" {
			continue
		}
		total++
		typ := ""
		for _, part := range strings.Split(addr, ".") {
			if tfTypeRE.MatchString(part) {
				typ = part
				break
			}
		}
		if typ == "" {
			typ = strings.SplitN(addr, ".", 2)[0]
		}
		if _, seen := counts[typ]; !seen {
			order = append(order, typ)
		}
		counts[typ]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	result := []string{fmt.Sprintf("%d resources in state:", total)}
	for _, typ := range order {
		result = append(result, fmt.Sprintf("  %s: %d", typ, counts[typ]))
	}
	return strings.Join(result, "\n")
}

func (p *terraformProcessor) processStateShow(output string) string {
	lines := splitLines(output)
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		result = append(result, truncateLongValue(line, 200, 150))
	}
	if len(result) > 80 {
		omitted := len(result) - 60
		result = append(result[:60], fmt.Sprintf("... (%d more lines)", omitted))
	}
	return strings.Join(result, "\n")
}

func (p *terraformProcessor) processPlan(output string) string {
	lines := splitLines(output)
	if len(lines) <= 30 {
		return output
	}

	var result []string
	action := ""
	inBlock := false

	appendSeparated := func(line string) {
		if len(result) > 0 && result[len(result)-1] != "" {
			result = append(result, "")
		}
		result = append(result, line)
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if tfBlockHdRE.MatchString(stripped) {
			switch {
			case strings.Contains(stripped, "will be created"):
				action = "+"
			case strings.Contains(stripped, "will be destroyed"):
				action = "-"
			case strings.Contains(stripped, "must be replaced"):
				action = "-"
			default:
				action = "~"
			}
			inBlock = true
			appendSeparated(line)
			continue
		}

		if inBlock {
			if tfResourceRE.MatchString(line) {
				result = append(result, line)
				continue
			}
			if stripped == "}" {
				if action != "-" {
					result = append(result, line)
				}
				inBlock = false
				continue
			}
			switch action {
			case "+":
				result = append(result, line)
			case "~":
				if strings.Contains(line, "->") || tfChangedRE.MatchString(line) ||
					strings.Contains(line, "known after apply") ||
					strings.Contains(line, "forces replacement") {
					result = append(result, line)
				}
			}
			continue
		}

		if tfSummaryRE.MatchString(stripped) || tfProblemRE.MatchString(stripped) ||
			tfOutputLineRE.MatchString(line) {
			appendSeparated(line)
		}
	}

	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}
