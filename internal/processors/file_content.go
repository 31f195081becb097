package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	fileContentCmdRE = regexp.MustCompile(`\b(cat|head|tail|less|more|bat)\b`)
	fileExtRE        = regexp.MustCompile(`[\w/\\.-]+\.(\w+)(?:\s|$|;|\||&)`)

	logLevelRE = regexp.MustCompile(`^\[?\d{4}[-/]\d{2}[-/]\d{2}|^\[?\d{2}:\d{2}:\d{2}|\b(DEBUG|INFO|WARN|WARNING|ERROR|CRITICAL|FATAL|TRACE)\b`)
	logErrorRE = regexp.MustCompile(`(?i)\b(error|critical|fatal|exception|traceback|warn(ing)?)\b`)
	logInfoRE  = regexp.MustCompile(`\bINFO\b`)
	logDebugRE = regexp.MustCompile(`\bDEBUG\b`)

	importantMarkerRE = regexp.MustCompile(`(?i)\b(TODO|FIXME|HACK|BUG|XXX|NOQA|SAFETY)\b`)

	yamlKeyRE = regexp.MustCompile(`^(\s*[\w.-]+):\s`)
	iniKeyRE  = regexp.MustCompile(`^([\w.-]+)\s*[=:]`)
)

// definitionPatterns recognize function, class, and type declarations
// across the languages that show up in file dumps.
var definitionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(async\s+)?def\s+\w+`),
	regexp.MustCompile(`^\s*class\s+\w+`),
	regexp.MustCompile(`^\s*(export\s+)?(default\s+)?(async\s+)?function\s*\*?\s*\w*`),
	regexp.MustCompile(`^\s*(export\s+)?(abstract\s+)?class\s+\w+`),
	regexp.MustCompile(`^\s*(export\s+)?(const|let|var)\s+\w+\s*=\s*(async\s*)?\(`),
	regexp.MustCompile(`^\s*(export\s+)?interface\s+\w+`),
	regexp.MustCompile(`^\s*(export\s+)?type\s+\w+\s*=`),
	regexp.MustCompile(`^\s*(export\s+)?enum\s+\w+`),
	regexp.MustCompile(`^\s*func\s+(\(.*?\)\s*)?\w+`),
	regexp.MustCompile(`^\s*type\s+\w+\s+(struct|interface)`),
	regexp.MustCompile(`^\s*(pub\s+)?(async\s+)?fn\s+\w+`),
	regexp.MustCompile(`^\s*(pub\s+)?struct\s+\w+`),
	regexp.MustCompile(`^\s*(pub\s+)?enum\s+\w+`),
	regexp.MustCompile(`^\s*(pub\s+)?trait\s+\w+`),
	regexp.MustCompile(`^\s*impl\b`),
	regexp.MustCompile(`^\s*(public|private|protected|internal)\s+(static\s+)?[\w<>\[\]]+\s+\w+\s*\(`),
	regexp.MustCompile(`^\s*(public|private|protected)?\s*(abstract\s+|final\s+|sealed\s+)?(class|interface|enum)\s+\w+`),
	regexp.MustCompile(`^[A-Za-z_][\w\s*&:<>,]*\w+\s*\([^;]*$`),
	regexp.MustCompile(`^\s*module\s+\w+`),
	regexp.MustCompile(`^\s*(public\s+|private\s+|protected\s+|static\s+)*function\s+\w+`),
	regexp.MustCompile(`^\s*\w+\s*\(\)\s*\{`),
	regexp.MustCompile(`^\s*function\s+\w+`),
}

var codeExtensions = map[string]bool{
	"py": true, "js": true, "ts": true, "jsx": true, "tsx": true,
	"go": true, "rs": true, "java": true, "c": true, "cpp": true,
	"cc": true, "h": true, "hpp": true, "cs": true, "rb": true,
	"php": true, "swift": true, "kt": true, "scala": true, "sh": true,
	"bash": true, "zsh": true, "pl": true, "lua": true, "r": true,
	"m": true, "mm": true, "dart": true, "el": true, "clj": true,
	"ex": true, "exs": true, "erl": true, "hs": true, "ml": true,
	"fs": true, "vb": true, "groovy": true, "jl": true, "nim": true,
	"zig": true, "v": true, "md": true, "rst": true, "sql": true,
}

var configExtensions = map[string]bool{
	"json": true, "yaml": true, "yml": true, "toml": true, "ini": true,
	"cfg": true, "xml": true, "env": true, "properties": true,
	"plist": true, "conf": true,
}

var csvExtensions = map[string]bool{"csv": true, "tsv": true}

type fileContentProcessor struct {
	cfg *config.Config
}

// NewFileContent returns the processor for file dumps (cat, head, tail,
// less, more, bat). The file kind is inferred from the command's
// extension or the content itself; code keeps definitions, logs keep
// errors, configs keep top-level structure.
func NewFileContent(cfg *config.Config) Processor {
	return &fileContentProcessor{cfg: cfg}
}

func (p *fileContentProcessor) Name() string { return "file_content" }

func (p *fileContentProcessor) Priority() int { return 51 }

func (p *fileContentProcessor) CanHandle(command string) bool {
	return fileContentCmdRE.MatchString(command)
}

func (p *fileContentProcessor) HookPatterns() []string {
	return []string{`\b(cat|head|tail|less|more|bat)\b`}
}

func (p *fileContentProcessor) Process(command, output string) string {
	lines := splitLines(output)
	if len(lines) <= p.cfg.MaxFileLines {
		return output
	}

	ext := ""
	if m := fileExtRE.FindStringSubmatch(command + " "); m != nil {
		ext = strings.ToLower(m[1])
	}

	switch {
	case csvExtensions[ext]:
		sep := ","
		if ext == "tsv" {
			sep = "\t"
		}
		return p.processCSV(lines, sep)
	case ext == "log":
		return p.processLog(lines)
	case codeExtensions[ext]:
		return p.processCode(lines)
	case configExtensions[ext]:
		return p.processConfig(lines, ext, output)
	}

	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return p.processConfig(lines, "json", output)
	}
	if looksLikeLog(lines) {
		return p.processLog(lines)
	}
	if sep, ok := detectDelimited(lines); ok {
		return p.processCSV(lines, sep)
	}
	return p.processDefault(lines)
}

// looksLikeLog samples the first lines for timestamp or level markers.
func looksLikeLog(lines []string) bool {
	sample := lines
	if len(sample) > 200 {
		sample = sample[:200]
	}
	hits := 0
	for _, line := range sample {
		if logLevelRE.MatchString(line) {
			hits++
		}
	}
	return hits*10 > len(sample)*3
}

func (p *fileContentProcessor) processCode(lines []string) string {
	head := p.cfg.FileCodeHeadLines
	if head > len(lines) {
		head = len(lines)
	}
	body := p.cfg.FileCodeBodyLines

	keep := make(map[int]bool, len(lines))
	for i := 0; i < head; i++ {
		keep[i] = true
	}
	defs := 0
	for i := head; i < len(lines); i++ {
		if matchesDefinition(lines[i]) {
			defs++
			for j := i; j <= i+body && j < len(lines); j++ {
				keep[j] = true
			}
			continue
		}
		if importantMarkerRE.MatchString(lines[i]) {
			keep[i] = true
		}
	}

	var result []string
	gap := 0
	flushGap := func() {
		if gap > 0 {
			result = append(result, fmt.Sprintf("  ... (%d lines omitted)", gap))
			gap = 0
		}
	}
	kept := 0
	for i, line := range lines {
		if keep[i] {
			flushGap()
			result = append(result, line)
			kept++
		} else {
			gap++
		}
	}
	flushGap()

	result = append(result, fmt.Sprintf("\n(%d total lines, %d definitions found, %d lines omitted)",
		len(lines), defs, len(lines)-kept))
	return strings.Join(result, "\n")
}

func matchesDefinition(line string) bool {
	for _, re := range definitionPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func (p *fileContentProcessor) processConfig(lines []string, ext, output string) string {
	switch ext {
	case "json":
		trimmed := strings.TrimSpace(output)
		if !gjson.Valid(trimmed) {
			return p.processDefault(lines)
		}
		summary := summarizeJSONCompact(gjson.Parse(trimmed), 0, 2, compactLimits{
			maxInline: 3,
			headItems: 3,
			strMax:    100,
			strKeep:   80,
		})
		return fmt.Sprintf("%s\n\n(%d total lines)", summary, len(lines))
	case "yaml", "yml":
		return p.processYAML(lines)
	case "xml", "plist":
		return p.processXML(lines)
	default:
		return p.processINI(lines)
	}
}

func (p *fileContentProcessor) processYAML(lines []string) string {
	var result []string
	nested := 0
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if indent > 2 {
			nested++
			continue
		}
		if len(line) > 120 {
			if m := yamlKeyRE.FindStringSubmatch(line); m != nil {
				result = append(result, fmt.Sprintf("%s: ... (truncated)", m[1]))
				continue
			}
			result = append(result, line[:100]+"...")
			continue
		}
		result = append(result, line)
	}
	if nested > 0 {
		result = append(result, fmt.Sprintf("  ... (%d nested lines omitted)", nested))
	}
	result = append(result, fmt.Sprintf("(%d total lines)", len(lines)))
	return strings.Join(result, "\n")
}

func (p *fileContentProcessor) processXML(lines []string) string {
	var result []string
	omitted := 0
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent <= 4 || strings.HasPrefix(stripped, "<?") || strings.HasPrefix(stripped, "<!") {
			result = append(result, line)
			continue
		}
		omitted++
	}
	if omitted > 0 {
		result = append(result, fmt.Sprintf("  ... (%d additional lines omitted)", omitted))
	}
	result = append(result, fmt.Sprintf("(%d total lines)", len(lines)))
	return strings.Join(result, "\n")
}

func (p *fileContentProcessor) processINI(lines []string) string {
	var result []string
	omitted := 0
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if strings.HasPrefix(stripped, "[") || strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, ";") {
			result = append(result, line)
			continue
		}
		if m := iniKeyRE.FindStringSubmatch(stripped); m != nil {
			if len(line) > 120 {
				result = append(result, fmt.Sprintf("%s= ... (truncated)", m[1]))
			} else {
				result = append(result, line)
			}
			continue
		}
		omitted++
	}
	if omitted > 0 {
		result = append(result, fmt.Sprintf("  ... (%d additional lines omitted)", omitted))
	}
	result = append(result, fmt.Sprintf("(%d total lines)", len(lines)))
	return strings.Join(result, "\n")
}

func (p *fileContentProcessor) processLog(lines []string) string {
	head := lines[:5]
	tail := lines[len(lines)-5:]
	middle := lines[5 : len(lines)-5]
	ctx := p.cfg.FileLogContext

	keep := make(map[int]bool)
	for i, line := range middle {
		if logErrorRE.MatchString(line) {
			for j := i - ctx; j <= i+ctx; j++ {
				if j >= 0 && j < len(middle) {
					keep[j] = true
				}
			}
		}
	}

	result := append([]string{}, head...)
	if len(keep) > 0 {
		result = append(result, fmt.Sprintf("\n... (scanning %d middle lines) ...\n", len(middle)))
		prev := -1
		for i := 0; i < len(middle); i++ {
			if !keep[i] {
				continue
			}
			if prev >= 0 && i > prev+1 {
				result = append(result, fmt.Sprintf("  ... (%d lines skipped)", i-prev-1))
			}
			result = append(result, middle[i])
			prev = i
		}
		if prev >= 0 && prev < len(middle)-1 {
			result = append(result, fmt.Sprintf("  ... (%d lines skipped)", len(middle)-1-prev))
		}
	} else {
		result = append(result, fmt.Sprintf("\n... (%d lines, no errors/warnings found) ...\n", len(middle)))
	}
	result = append(result, tail...)

	info, debug, other := 0, 0, 0
	for i, line := range middle {
		if keep[i] {
			continue
		}
		switch {
		case logInfoRE.MatchString(line):
			info++
		case logDebugRE.MatchString(line):
			debug++
		default:
			other++
		}
	}
	result = append(result, fmt.Sprintf("\n(%d total lines; %d INFO, %d DEBUG, %d other lines omitted)",
		len(lines), info, debug, other))
	return strings.Join(result, "\n")
}

func (p *fileContentProcessor) processCSV(lines []string, sep string) string {
	header := lines[0]
	data := lines[1:]
	headRows := p.cfg.FileCSVHeadRows
	tailRows := p.cfg.FileCSVTailRows
	if len(data) <= headRows+tailRows {
		return strings.Join(lines, "\n")
	}
	cols := strings.Count(header, sep) + 1

	result := []string{header}
	result = append(result, data[:headRows]...)
	result = append(result, fmt.Sprintf("... (%d rows omitted)", len(data)-headRows-tailRows))
	result = append(result, data[len(data)-tailRows:]...)
	result = append(result, fmt.Sprintf("\n(%d data rows, %d columns)", len(data), cols))
	return strings.Join(result, "\n")
}

func (p *fileContentProcessor) processDefault(lines []string) string {
	head := p.cfg.FileKeepHead
	tail := p.cfg.FileKeepTail
	if len(lines) <= head+tail {
		return strings.Join(lines, "\n")
	}
	result := append([]string{}, lines[:head]...)
	result = append(result, fmt.Sprintf("\n... (%d lines truncated, %d total lines) ...\n",
		len(lines)-head-tail, len(lines)))
	result = append(result, lines[len(lines)-tail:]...)
	return strings.Join(result, "\n")
}
