package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	dockerCmdRE = regexp.MustCompile(`\bdocker\s+(?:--context(?:=|\s+)\S+\s+|-H\s+\S+\s+|--host(?:=|\s+)\S+\s+)*(ps|images|logs|pull|push|inspect|stats|compose\s+(?:ps|logs|up|down|build))\b`)

	dockerLayerRE   = regexp.MustCompile(`^[0-9a-f]+:\s*(Downloading|Extracting|Pulling|Waiting|Verifying|Download complete|Pull complete|Already exists)`)
	dockerStoppedRE = regexp.MustCompile(`\b(Exited|Created|Dead)\b`)
	dockerErrorRE   = regexp.MustCompile(`\b(error|Error|ERROR|exception|Exception|EXCEPTION|fatal|Fatal|FATAL|panic|Panic|PANIC|traceback|Traceback)\b`)

	composeUpKeepRE    = regexp.MustCompile(`(Created|Started|Running|Healthy|Error|error|failed)`)
	composeResourceRE  = regexp.MustCompile(`(Network|Volume)\s+\S+\s+(Created|Found|Removed)`)
	composeProgressRE  = regexp.MustCompile(`(Pulling|Building|Creating|Starting)`)
	composeDownKeepRE  = regexp.MustCompile(`(?i)(Stopped|Removed|Removing)`)
	composeBuildRE     = regexp.MustCompile(`^\S+\s+[Bb]uilding`)
	composeBuildStepRE = regexp.MustCompile(`^(Step\s+\d+/\d+|#\d+)\b`)

	tableColumnRE = regexp.MustCompile(`\S+(?:\s\S+)*`)
)

// dockerInspectKeys are the top-level fields worth surfacing from a
// docker inspect document.
var dockerInspectKeys = []string{
	"Id", "Name", "State", "Config", "NetworkSettings",
	"Image", "Created", "Platform", "Status",
}

var dockerConfigKeys = []string{"Image", "Cmd", "Env", "ExposedPorts", "Labels"}

type tableColumn struct {
	name  string
	start int
}

// parseTableColumns reads a whitespace-aligned header row. Column names
// may contain single spaces ("CONTAINER ID"); two or more spaces
// separate columns.
func parseTableColumns(header string) []tableColumn {
	var cols []tableColumn
	for _, loc := range tableColumnRE.FindAllStringIndex(header, -1) {
		cols = append(cols, tableColumn{name: header[loc[0]:loc[1]], start: loc[0]})
	}
	return cols
}

// extractTableFields slices a data row at the header's column offsets.
func extractTableFields(line string, cols []tableColumn) map[string]string {
	fields := make(map[string]string, len(cols))
	for i, c := range cols {
		start := c.start
		if start > len(line) {
			start = len(line)
		}
		end := len(line)
		if i+1 < len(cols) && cols[i+1].start < end {
			end = cols[i+1].start
		}
		if start > end {
			start = end
		}
		fields[c.name] = strings.TrimSpace(line[start:end])
	}
	return fields
}

type dockerProcessor struct {
	cfg *config.Config
}

// NewDocker returns the processor for docker and docker compose output.
// Tables are regrouped by state, logs keep error context, and inspect
// documents are reduced to the fields that matter.
func NewDocker(cfg *config.Config) Processor {
	return &dockerProcessor{cfg: cfg}
}

func (p *dockerProcessor) Name() string { return "docker" }

func (p *dockerProcessor) Priority() int { return 31 }

func (p *dockerProcessor) CanHandle(command string) bool {
	return dockerCmdRE.MatchString(command)
}

func (p *dockerProcessor) HookPatterns() []string {
	return []string{`^docker\s+`}
}

func (p *dockerProcessor) Process(command, output string) string {
	m := dockerCmdRE.FindStringSubmatch(command)
	if m == nil {
		return output
	}
	sub := m[1]
	if rest, ok := strings.CutPrefix(sub, "compose"); ok {
		switch strings.TrimSpace(rest) {
		case "ps":
			return p.processPs(output)
		case "logs":
			return p.processLogs(output)
		case "up":
			return p.processComposeUp(output)
		case "down":
			return p.processComposeDown(output)
		case "build":
			return p.processComposeBuild(output)
		}
		return output
	}

	switch sub {
	case "ps":
		return p.processPs(output)
	case "images":
		return p.processImages(output)
	case "logs":
		return p.processLogs(output)
	case "pull", "push":
		return p.processTransfer(output)
	case "inspect":
		return p.processInspect(output)
	case "stats":
		return p.processStats(output)
	}
	return output
}

func (p *dockerProcessor) processPs(output string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))
	if len(lines) <= 2 {
		return output
	}
	cols := parseTableColumns(lines[0])
	hasNames := false
	for _, c := range cols {
		if c.name == "NAMES" {
			hasNames = true
		}
	}
	if !hasNames {
		return output
	}

	var running, stopped, other []string
	var stoppedNames []string
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := extractTableFields(line, cols)
		name := fields["NAMES"]
		status := fields["STATUS"]
		entry := fmt.Sprintf("  %s  (%s)  %s", name, fields["IMAGE"], status)
		if ports := fields["PORTS"]; ports != "" {
			entry += "  " + ports
		}
		switch {
		case strings.HasPrefix(status, "Up "):
			running = append(running, entry)
		case dockerStoppedRE.MatchString(status):
			stopped = append(stopped, entry)
			stoppedNames = append(stoppedNames, name)
		default:
			other = append(other, entry)
		}
	}

	total := len(running) + len(stopped) + len(other)
	result := []string{fmt.Sprintf("%d containers:", total)}
	if len(running) > 0 {
		result = append(result, fmt.Sprintf("Running (%d):", len(running)))
		result = append(result, running...)
	}
	if len(stopped) > 0 {
		if len(stopped) > 10 {
			shown := strings.Join(stoppedNames[:5], ", ")
			result = append(result, fmt.Sprintf("Stopped (%d): %s ... +%d more", len(stopped), shown, len(stopped)-5))
		} else {
			result = append(result, fmt.Sprintf("Stopped (%d):", len(stopped)))
			result = append(result, stopped...)
		}
	}
	result = append(result, other...)
	return strings.Join(result, "\n")
}

func (p *dockerProcessor) processImages(output string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))
	if len(lines) <= 2 {
		return output
	}
	cols := parseTableColumns(lines[0])

	var entries []string
	dangling := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := extractTableFields(line, cols)
		repo := fields["REPOSITORY"]
		if repo == "<none>" {
			dangling++
			continue
		}
		entries = append(entries, fmt.Sprintf("  %s:%s  %s", repo, fields["TAG"], fields["SIZE"]))
	}

	result := []string{fmt.Sprintf("%d images:", len(entries))}
	if len(entries) > 30 {
		result = append(result, entries[:20]...)
		result = append(result, fmt.Sprintf("  ... (%d more)", len(entries)-20))
	} else {
		result = append(result, entries...)
	}
	if dangling > 0 {
		result = append(result, fmt.Sprintf("  (%d dangling images)", dangling))
	}
	return strings.Join(result, "\n")
}

// errorContextWindows returns the lines around every error match, with a
// blank line between non-adjacent regions and duplicates removed. Nil
// when nothing matches.
func errorContextWindows(lines []string, errRE *regexp.Regexp, context, limit int) []string {
	indices := make(map[int]bool)
	for i, line := range lines {
		if errRE.MatchString(line) {
			for j := i - context; j <= i+context; j++ {
				if j >= 0 && j < len(lines) {
					indices[j] = true
				}
			}
		}
	}
	if len(indices) == 0 {
		return nil
	}

	var result []string
	seen := make(map[string]bool)
	prev := -2
	for i := 0; i < len(lines); i++ {
		if !indices[i] {
			continue
		}
		if prev >= 0 && i > prev+1 && len(result) > 0 && result[len(result)-1] != "" {
			result = append(result, "")
		}
		prev = i
		line := lines[i]
		if strings.TrimSpace(line) != "" && seen[line] {
			continue
		}
		seen[line] = true
		result = append(result, line)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

func (p *dockerProcessor) processLogs(output string) string {
	lines := splitLines(output)
	head := p.cfg.DockerLogKeepHead
	tail := p.cfg.DockerLogKeepTail
	if len(lines) <= head+tail {
		return output
	}

	if errs := errorContextWindows(lines[head:len(lines)-tail], dockerErrorRE, 2, 50); errs != nil {
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

func (p *dockerProcessor) processTransfer(output string) string {
	var result []string
	for _, line := range splitLines(output) {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if dockerLayerRE.MatchString(stripped) {
			continue
		}
		if strings.Contains(stripped, "%") && strings.ContainsAny(stripped, "[]=>") {
			continue
		}
		result = append(result, stripped)
	}
	if len(result) == 0 {
		return output
	}
	return strings.Join(result, "\n")
}

func (p *dockerProcessor) processInspect(output string) string {
	totalLines := countLines(output)
	trimmed := strings.TrimSpace(output)
	if !gjson.Valid(trimmed) {
		if totalLines > 50 {
			lines := splitLines(output)
			result := append([]string{}, lines[:40]...)
			result = append(result, fmt.Sprintf("... (%d more lines)", len(lines)-40))
			return strings.Join(result, "\n")
		}
		return output
	}

	doc := gjson.Parse(trimmed)
	if doc.IsArray() {
		items := doc.Array()
		if len(items) == 1 {
			doc = items[0]
		}
	}
	if !doc.IsObject() {
		return output
	}

	var result []string
	for _, key := range dockerInspectKeys {
		val := doc.Get(key)
		if !val.Exists() {
			continue
		}
		switch key {
		case "State":
			result = append(result, "State:")
			val.ForEach(func(k, v gjson.Result) bool {
				if !v.IsObject() && !v.IsArray() {
					result = append(result, fmt.Sprintf("  %s: %s", k.String(), v.String()))
				}
				return true
			})
		case "Config":
			result = append(result, "Config:")
			for _, ck := range dockerConfigKeys {
				cv := val.Get(ck)
				if !cv.Exists() {
					continue
				}
				result = append(result, fmt.Sprintf("  %s: %s", ck, summarizeInspectValue(cv, 120, 100)))
			}
		case "NetworkSettings":
			result = append(result, "NetworkSettings:")
			if ports := val.Get("Ports"); ports.Exists() && len(ports.Map()) > 0 {
				result = append(result, fmt.Sprintf("  Ports: %s", summarizeInspectValue(ports, 120, 100)))
			}
			val.Get("Networks").ForEach(func(k, v gjson.Result) bool {
				result = append(result, fmt.Sprintf("  %s: %s", k.String(), v.Get("IPAddress").String()))
				return true
			})
		default:
			if val.IsObject() {
				result = append(result, fmt.Sprintf("%s: {%d keys}", key, len(val.Map())))
			} else {
				result = append(result, fmt.Sprintf("%s: %s", key, summarizeInspectValue(val, 100, 80)))
			}
		}
	}

	if len(result) == 0 {
		keys := doc.Map()
		result = append(result, fmt.Sprintf("docker inspect: %d top-level keys", len(keys)))
		shown := 0
		doc.ForEach(func(k, v gjson.Result) bool {
			if shown >= 15 {
				return false
			}
			result = append(result, fmt.Sprintf("  %s: %s", k.String(), summarizeInspectValue(v, 100, 80)))
			shown++
			return true
		})
	}

	result = append(result, fmt.Sprintf("\n(%d total lines)", totalLines))
	return strings.Join(result, "\n")
}

func summarizeInspectValue(v gjson.Result, maxLen, keep int) string {
	switch {
	case v.IsArray():
		items := v.Array()
		if len(items) > 5 {
			return fmt.Sprintf("[%d items]", len(items))
		}
	case v.IsObject():
		m := v.Map()
		if len(m) > 5 {
			return fmt.Sprintf("{%d keys}", len(m))
		}
	}
	s := v.String()
	if v.IsArray() || v.IsObject() {
		s = v.Raw
	}
	if len(s) > maxLen {
		return s[:keep] + "..."
	}
	return s
}

func (p *dockerProcessor) processStats(output string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))
	if len(lines) <= 15 {
		return output
	}
	// Streamed stats repeat the table; keep only the last refresh.
	last := 0
	for i, line := range lines {
		if strings.Contains(line, "CONTAINER") && strings.Contains(line, "CPU") {
			last = i
		}
	}
	return strings.Join(lines[last:], "\n")
}

func (p *dockerProcessor) processComposeUp(output string) string {
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
		switch {
		case composeUpKeepRE.MatchString(stripped):
			result = append(result, stripped)
		case composeResourceRE.MatchString(stripped):
			result = append(result, stripped)
		case composeProgressRE.MatchString(stripped) && !strings.Contains(stripped, "%"):
			result = append(result, stripped)
		}
	}
	if len(result) == 0 {
		return strings.Join(lastLines(lines, 10), "\n")
	}
	return strings.Join(result, "\n")
}

func (p *dockerProcessor) processComposeDown(output string) string {
	lines := splitLines(output)
	if len(lines) <= 15 {
		return output
	}
	var result []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if composeDownKeepRE.MatchString(stripped) || composeResourceRE.MatchString(stripped) {
			result = append(result, stripped)
		}
	}
	if len(result) == 0 {
		return strings.Join(lastLines(lines, 10), "\n")
	}
	return strings.Join(result, "\n")
}

func (p *dockerProcessor) processComposeBuild(output string) string {
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
		switch {
		case composeBuildRE.MatchString(stripped), composeBuildStepRE.MatchString(stripped):
			result = append(result, stripped)
		case dockerErrorRE.MatchString(stripped):
			result = append(result, stripped)
		case strings.Contains(stripped, "Successfully") || strings.Contains(stripped, "DONE"):
			result = append(result, stripped)
		}
	}
	if len(result) == 0 {
		return strings.Join(lastLines(lines, 10), "\n")
	}
	return strings.Join(result, "\n")
}

func lastLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
