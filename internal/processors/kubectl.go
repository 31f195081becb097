package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	kubectlCmdRE = regexp.MustCompile(`\b(kubectl|oc)\s+(?:-n\s+\S+\s+|--namespace(?:=|\s+)\S+\s+|--context(?:=|\s+)\S+\s+|--kubeconfig(?:=|\s+)\S+\s+|-A\s+|--all-namespaces\s+)*(get|describe|logs|top|apply|delete|create)\b`)

	kubectlErrorRE   = regexp.MustCompile(`\b(error|Error|ERROR|exception|Exception|EXCEPTION|fatal|Fatal|FATAL|panic|Panic|PANIC)\b`)
	kubectlSectionRE = regexp.MustCompile(`^[A-Z][\w\s-]+:`)
	kubectlMutateRE  = regexp.MustCompile(`\b(created|configured|unchanged|deleted|patched)\b`)
	kubectlCountRE   = regexp.MustCompile(`\d+\s+resource`)
)

// kubectlNoiseSections in describe output carry little diagnostic value.
var kubectlNoiseSections = map[string]bool{
	"tolerations":    true,
	"volumes":        true,
	"qos class":      true,
	"node-selectors": true,
	"annotations":    true,
	"managed fields": true,
}

var kubectlKeepSections = map[string]bool{
	"name":          true,
	"namespace":     true,
	"status":        true,
	"state":         true,
	"containers":    true,
	"events":        true,
	"conditions":    true,
	"type":          true,
	"reason":        true,
	"message":       true,
	"last state":    true,
	"restart count": true,
	"port":          true,
	"image":         true,
	"node":          true,
	"labels":        true,
}

type kubectlProcessor struct {
	cfg *config.Config
}

// NewKubectl returns the processor for kubectl and oc output. Healthy
// pods collapse to a count, describe output drops noise sections, and
// logs keep error context around head and tail windows.
func NewKubectl(cfg *config.Config) Processor {
	return &kubectlProcessor{cfg: cfg}
}

func (p *kubectlProcessor) Name() string { return "kubectl" }

func (p *kubectlProcessor) Priority() int { return 32 }

func (p *kubectlProcessor) CanHandle(command string) bool {
	return kubectlCmdRE.MatchString(command)
}

func (p *kubectlProcessor) HookPatterns() []string {
	return []string{`^(kubectl|oc)\s+`}
}

func (p *kubectlProcessor) Process(command, output string) string {
	m := kubectlCmdRE.FindStringSubmatch(command)
	if m == nil {
		return output
	}
	switch m[2] {
	case "get", "top":
		return p.processGet(output)
	case "describe":
		return p.processDescribe(output)
	case "logs":
		return p.processLogs(output)
	case "apply", "delete", "create":
		return p.processMutate(output)
	}
	return output
}

// stripTableColumn removes one column from a whitespace-aligned table
// using the header's offsets.
func stripTableColumn(lines []string, name string) []string {
	if len(lines) == 0 {
		return lines
	}
	cols := parseTableColumns(lines[0])
	idx := -1
	for i, c := range cols {
		if c.name == name {
			idx = i
		}
	}
	if idx < 0 {
		return lines
	}
	start := cols[idx].start
	end := -1
	if idx+1 < len(cols) {
		end = cols[idx+1].start
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		switch {
		case start >= len(line):
			out[i] = strings.TrimRight(line, " ")
		case end < 0 || end >= len(line):
			out[i] = strings.TrimRight(line[:start], " ")
		default:
			out[i] = line[:start] + line[end:]
		}
	}
	return out
}

func (p *kubectlProcessor) processGet(output string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))
	if len(lines) <= 10 {
		return output
	}
	lines = stripTableColumn(lines, "AGE")
	header := lines[0]
	cols := parseTableColumns(header)

	hasStatus, hasReady := false, false
	for _, c := range cols {
		if c.name == "STATUS" {
			hasStatus = true
		}
		if c.name == "READY" {
			hasReady = true
		}
	}
	if !hasStatus || !hasReady {
		entries := lines[1:]
		if len(entries) > 50 {
			result := append([]string{header}, entries[:40]...)
			result = append(result, fmt.Sprintf("... (%d more resources)", len(entries)-40))
			return strings.Join(result, "\n")
		}
		return strings.Join(lines, "\n")
	}

	var healthy, unhealthy []string
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := extractTableFields(line, cols)
		status := fields["STATUS"]
		ok := status == "Completed"
		if status == "Running" {
			parts := strings.SplitN(fields["READY"], "/", 2)
			ok = len(parts) == 2 && parts[0] == parts[1]
		}
		if ok {
			healthy = append(healthy, line)
		} else {
			unhealthy = append(unhealthy, line)
		}
	}

	result := []string{header}
	result = append(result, unhealthy...)
	if len(healthy) > 5 {
		result = append(result, fmt.Sprintf("... (%d pods Running/Ready)", len(healthy)))
	} else {
		result = append(result, healthy...)
	}
	return strings.Join(result, "\n")
}

func (p *kubectlProcessor) processDescribe(output string) string {
	lines := splitLines(output)
	if len(lines) <= 15 {
		return output
	}

	var result []string
	keeping := false
	inEvents := false
	for _, line := range lines {
		if kubectlSectionRE.MatchString(line) && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			key := strings.ToLower(strings.TrimSpace(strings.SplitN(line, ":", 2)[0]))
			inEvents = key == "events"
			if kubectlNoiseSections[key] {
				keeping = false
				continue
			}
			keeping = kubectlKeepSections[key]
			if keeping {
				result = append(result, line)
			}
			continue
		}
		if !keeping {
			continue
		}
		if inEvents {
			stripped := strings.TrimSpace(line)
			if stripped == "" || strings.HasPrefix(stripped, "Normal") {
				continue
			}
			result = append(result, line)
			continue
		}
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}

	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}

func (p *kubectlProcessor) processLogs(output string) string {
	lines := splitLines(output)
	head := p.cfg.KubectlKeepHead
	tail := p.cfg.KubectlKeepTail
	if len(lines) <= head+tail {
		return output
	}

	if errs := errorContextWindows(lines[head:len(lines)-tail], kubectlErrorRE, 1, 40); errs != nil {
		result := append([]string{}, lines[:head]...)
		result = append(result, fmt.Sprintf("\n... (%d total lines, showing errors) ...\n", len(lines)))
		result = append(result, errs...)
		result = append(result, lines[len(lines)-tail:]...)
		return strings.Join(result, "\n")
	}

	result := append([]string{}, lines[:head]...)
	result = append(result, fmt.Sprintf("\n... (%d lines truncated) ...\n", len(lines)-head-tail))
	result = append(result, lines[len(lines)-tail:]...)
	return strings.Join(result, "\n")
}

func (p *kubectlProcessor) processMutate(output string) string {
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
		if kubectlMutateRE.MatchString(stripped) ||
			kubectlErrorRE.MatchString(stripped) ||
			kubectlCountRE.MatchString(stripped) {
			result = append(result, stripped)
		}
	}
	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}
