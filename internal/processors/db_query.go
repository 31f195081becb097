package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	dbCmdRE = regexp.MustCompile(`\b(psql|mysql|sqlite3|mycli|pgcli|litecli)\b`)

	psqlSepRE     = regexp.MustCompile(`^[-─┼+| ]+$`)
	mysqlBorderRE = regexp.MustCompile(`^\+[-+]+\+$`)
	rowsFooterRE  = regexp.MustCompile(`^\(\d+\s+rows?\)$`)
	timeFooterRE  = regexp.MustCompile(`^Time:\s+`)
	mysqlFooterRE = regexp.MustCompile(`^\d+\s+rows?\s+in\s+set`)
)

type dbQueryProcessor struct {
	cfg *config.Config
}

// NewDBQuery returns the processor for SQL client output. Result tables
// keep their header, the first and last rows, and the row-count footer.
func NewDBQuery(cfg *config.Config) Processor {
	return &dbQueryProcessor{cfg: cfg}
}

func (p *dbQueryProcessor) Name() string { return "db_query" }

func (p *dbQueryProcessor) Priority() int { return 38 }

func (p *dbQueryProcessor) CanHandle(command string) bool {
	return dbCmdRE.MatchString(command)
}

func (p *dbQueryProcessor) HookPatterns() []string {
	return []string{`\b(psql|mysql|sqlite3|mycli|pgcli|litecli)\b`}
}

func (p *dbQueryProcessor) Process(command, output string) string {
	lines := splitLines(strings.TrimRight(output, "\n"))
	switch {
	case isMysqlTable(lines):
		return p.processMysql(lines, output)
	case isPsqlTable(lines):
		return p.processPsql(lines, output)
	}
	if sep, ok := detectDelimited(lines); ok {
		return p.processDelimited(lines, sep, output)
	}
	return p.processFallback(lines, output)
}

func isMysqlTable(lines []string) bool {
	return len(lines) > 0 && mysqlBorderRE.MatchString(strings.TrimSpace(lines[0]))
}

func isPsqlTable(lines []string) bool {
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if isPsqlSeparator(stripped) {
			return true
		}
		if strings.Contains(stripped, "|") && strings.ContainsFunc(stripped, isWordChar) {
			return true
		}
	}
	return false
}

func isPsqlSeparator(line string) bool {
	return psqlSepRE.MatchString(line) && strings.ContainsAny(line, "-─")
}

func isWordChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// detectDelimited reports whether the lines look like CSV/TSV/pipe
// output: the same separator count on each of the first rows.
func detectDelimited(lines []string) (string, bool) {
	if len(lines) < 3 {
		return "", false
	}
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, sep := range []string{",", "\t", "|"} {
		count := strings.Count(lines[0], sep)
		if count < 1 {
			continue
		}
		uniform := true
		for _, line := range lines[1:limit] {
			if strings.Count(line, sep) != count {
				uniform = false
				break
			}
		}
		if uniform {
			return sep, true
		}
	}
	return "", false
}

func (p *dbQueryProcessor) processPsql(lines []string, output string) string {
	headerEnd := -1
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		if isPsqlSeparator(strings.TrimSpace(lines[i])) {
			headerEnd = i
			break
		}
	}
	if headerEnd < 0 {
		return p.processFallback(lines, output)
	}

	footerStart := len(lines)
	for i := len(lines) - 1; i >= 0 && i >= len(lines)-5; i-- {
		stripped := strings.TrimSpace(lines[i])
		if rowsFooterRE.MatchString(stripped) || timeFooterRE.MatchString(stripped) {
			footerStart = i
		}
	}

	var data []string
	for _, line := range lines[headerEnd+1 : footerStart] {
		if isPsqlSeparator(strings.TrimSpace(line)) {
			continue
		}
		data = append(data, line)
	}

	maxRows := p.cfg.DBMaxRows
	if len(data) <= maxRows {
		return output
	}
	head := (maxRows + 1) / 2
	tail := maxRows / 2

	result := append([]string{}, lines[:headerEnd+1]...)
	result = append(result, data[:head]...)
	result = append(result, fmt.Sprintf("  ... (%d rows omitted)", len(data)-head-tail))
	result = append(result, data[len(data)-tail:]...)
	result = append(result, lines[footerStart:]...)
	return strings.Join(result, "\n")
}

func (p *dbQueryProcessor) processMysql(lines []string, output string) string {
	var borders []int
	for i, line := range lines {
		if mysqlBorderRE.MatchString(strings.TrimSpace(line)) {
			borders = append(borders, i)
		}
	}
	if len(borders) < 2 {
		return p.processFallback(lines, output)
	}

	headerEnd := borders[1]
	dataEnd := len(lines)
	var footer []string
	if len(borders) >= 3 {
		bottom := borders[len(borders)-1]
		dataEnd = bottom
		footer = lines[bottom:]
	} else {
		for i, line := range lines {
			if mysqlFooterRE.MatchString(strings.TrimSpace(line)) {
				dataEnd = i
				footer = lines[i:]
				break
			}
		}
	}

	var data []string
	for _, line := range lines[headerEnd+1 : dataEnd] {
		if mysqlBorderRE.MatchString(strings.TrimSpace(line)) {
			continue
		}
		data = append(data, line)
	}

	maxRows := p.cfg.DBMaxRows
	if len(data) <= maxRows {
		return output
	}
	head := (maxRows + 1) / 2
	tail := maxRows / 2

	result := append([]string{}, lines[:headerEnd+1]...)
	result = append(result, data[:head]...)
	result = append(result, fmt.Sprintf("| ... (%d rows omitted)", len(data)-head-tail))
	result = append(result, data[len(data)-tail:]...)
	result = append(result, footer...)
	return strings.Join(result, "\n")
}

func (p *dbQueryProcessor) processDelimited(lines []string, sep, output string) string {
	if len(lines) <= 20 {
		return output
	}
	header := lines[0]
	data := lines[1:]
	cols := strings.Count(header, sep) + 1

	result := []string{header}
	result = append(result, data[:10]...)
	result = append(result, fmt.Sprintf("... (%d rows omitted)", len(data)-15))
	result = append(result, data[len(data)-5:]...)
	result = append(result, fmt.Sprintf("\n(%d data rows, %d columns)", len(data), cols))
	return strings.Join(result, "\n")
}

func (p *dbQueryProcessor) processFallback(lines []string, output string) string {
	if len(lines) <= 30 {
		return output
	}
	result := append([]string{}, lines[:15]...)
	result = append(result, fmt.Sprintf("... (%d rows omitted)", len(lines)-20))
	result = append(result, lines[len(lines)-5:]...)
	return strings.Join(result, "\n")
}
