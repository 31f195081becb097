package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	networkCmdRE  = regexp.MustCompile(`\b(curl|wget)\b`)
	httpieCmdRE   = regexp.MustCompile(`^\s*(http|https)\s+`)
	curlVerboseRE = regexp.MustCompile(`\s-[a-zA-Z]*v|--verbose`)

	// TLS handshake and connection chatter on curl's "*" lines.
	curlTLSNoiseRE = regexp.MustCompile(`^\*\s*(SSL|TLS|ALPN|CAfile|CApath|Certificate|issuer|subject|subjectAlt|Server certificate|Connected|Trying|Connection(ed| #\d)| *expire| *start|TCP_NODELAY|Mark bundle|upload completely|Using Stream|old SSL|Closing|successfully set certificate)\b`)
	curlErrorRE    = regexp.MustCompile(`(?i)(error|fail|could not|refused)`)
	httpMethodRE   = regexp.MustCompile(`^(GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)\s+`)

	curlProgressHeaderRE = regexp.MustCompile(`^\s+%\s+Total\s+%\s+Received`)
	curlProgressDataRE   = regexp.MustCompile(`^\s*\d+\s+\d+`)
	curlProgressTimeRE   = regexp.MustCompile(`--:--:--|(\d+:){2}\d+`)

	wgetNoiseRE    = regexp.MustCompile(`^(Resolving|Connecting)\b`)
	wgetBarRE      = regexp.MustCompile(`\d+%\s*\[=*>?\s*\]`)
	wgetDotRE      = regexp.MustCompile(`^\s*\d+K\s+`)
	networkJSONMin = 500
)

// curlRespHeaders are response headers worth keeping from a verbose
// curl exchange. Everything else is dropped.
var curlRespHeaders = []string{
	"content-type", "location", "www-authenticate", "set-cookie",
	"x-ratelimit", "retry-after", "authorization", "content-length",
	"transfer-encoding", "access-control-allow-origin", "x-request-id",
}

var httpieRespHeaders = []string{
	"content-type", "location", "set-cookie", "www-authenticate",
	"content-length", "x-request-id",
}

type networkProcessor struct {
	cfg *config.Config
}

// NewNetwork returns the processor for curl, wget, and httpie output.
// Verbose curl transcripts keep the request line, status, and a handful
// of response headers; JSON bodies are summarized structurally.
func NewNetwork(cfg *config.Config) Processor {
	return &networkProcessor{cfg: cfg}
}

func (p *networkProcessor) Name() string { return "network" }

func (p *networkProcessor) Priority() int { return 30 }

func (p *networkProcessor) CanHandle(command string) bool {
	return networkCmdRE.MatchString(command) || httpieCmdRE.MatchString(command)
}

func (p *networkProcessor) HookPatterns() []string {
	return []string{`\b(curl|wget)\b`, `^(http|https)\s+`}
}

func (p *networkProcessor) Process(command, output string) string {
	var result string
	switch {
	case strings.Contains(command, "curl"):
		if curlVerboseRE.MatchString(command) {
			result = p.processCurlVerbose(output)
		} else {
			result = p.maybeCompressJSON(stripCurlProgress(output))
		}
	case strings.Contains(command, "wget"):
		result = p.processWget(output)
	default:
		result = p.processHTTPie(output)
	}
	if strings.TrimSpace(result) == "" {
		return output
	}
	return result
}

func (p *networkProcessor) processCurlVerbose(output string) string {
	var result, body []string
	inBody := false

	for _, line := range splitLines(output) {
		if inBody {
			body = append(body, line)
			continue
		}
		if curlTLSNoiseRE.MatchString(line) {
			continue
		}
		if strings.HasPrefix(line, "> ") {
			if httpMethodRE.MatchString(line[2:]) {
				result = append(result, line)
			}
			continue
		}
		if line == "<" || strings.HasPrefix(line, "< ") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "<"))
			if rest == "" {
				// Blank response header line: body follows.
				inBody = true
				continue
			}
			if strings.HasPrefix(rest, "HTTP/") || hasHeaderPrefix(rest, curlRespHeaders) {
				result = append(result, line)
			}
			continue
		}
		if curlProgressHeaderRE.MatchString(line) {
			continue
		}
		if curlProgressDataRE.MatchString(line) && curlProgressTimeRE.MatchString(line) {
			continue
		}
		if strings.HasPrefix(line, "* ") {
			if curlErrorRE.MatchString(line) {
				result = append(result, line)
			}
			continue
		}
		body = append(body, line)
	}

	if bodyText := strings.TrimSpace(strings.Join(body, "\n")); bodyText != "" {
		result = append(result, p.maybeCompressJSON(bodyText))
	}
	return strings.Join(result, "\n")
}

func (p *networkProcessor) processWget(output string) string {
	var result []string
	for _, line := range splitLines(output) {
		stripped := strings.TrimSpace(line)
		if wgetNoiseRE.MatchString(stripped) {
			continue
		}
		if wgetBarRE.MatchString(line) || (wgetDotRE.MatchString(line) && strings.Contains(line, ".")) {
			continue
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

func (p *networkProcessor) processHTTPie(output string) string {
	var result, body []string
	inBody := false

	for _, line := range splitLines(output) {
		if inBody {
			body = append(body, line)
			continue
		}
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			inBody = true
			continue
		}
		if strings.HasPrefix(stripped, "HTTP/") || hasHeaderPrefix(stripped, httpieRespHeaders) {
			result = append(result, line)
		}
	}

	if bodyText := strings.TrimSpace(strings.Join(body, "\n")); bodyText != "" {
		result = append(result, p.maybeCompressJSON(bodyText))
	}
	return strings.Join(result, "\n")
}

// maybeCompressJSON summarizes a JSON response body when it is large
// enough to be worth it. Anything else passes through untouched.
func (p *networkProcessor) maybeCompressJSON(text string) string {
	stripped := strings.TrimSpace(text)
	if len(stripped) < networkJSONMin {
		return text
	}
	if !strings.HasPrefix(stripped, "{") && !strings.HasPrefix(stripped, "[") {
		return text
	}
	if !gjson.Valid(stripped) {
		return text
	}
	summary := summarizeJSONCompact(gjson.Parse(stripped), 0, 2, compactLimits{
		maxInline: 2,
		headItems: 1,
		strMax:    80,
		strKeep:   60,
	})
	return fmt.Sprintf("%s\n\n(%d chars, %d lines)", summary, len(stripped), countLines(stripped))
}

func stripCurlProgress(output string) string {
	var result []string
	for _, line := range splitLines(output) {
		if curlProgressHeaderRE.MatchString(line) {
			continue
		}
		if curlProgressDataRE.MatchString(line) && curlProgressTimeRE.MatchString(line) {
			continue
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

func hasHeaderPrefix(line string, headers []string) bool {
	lower := strings.ToLower(line)
	for _, h := range headers {
		if strings.HasPrefix(lower, h) {
			return true
		}
	}
	return false
}
