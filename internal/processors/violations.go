package processors

import "regexp"

// Violation line shapes, tried in order. Each yields a rule identifier and,
// when the line carries one, the offending file path.
var (
	// ESLint indented:  10:5  error  Unexpected var  no-var
	eslintIndentRE = regexp.MustCompile(`^\s*(\d+):(\d+)\s+(error|warning)\s+(.+?)\s{2,}(\S+)\s*$`)
	// ESLint inline: /path/file.js:10:5: 'foo' is not defined. (no-undef)
	eslintInlineRE = regexp.MustCompile(`^(.+?):(\d+):\d+:\s+.+\((\S+)\)\s*$`)
	// ESLint inline alt: /path/file.js:10:5  error  message  rule-name
	eslintInlineAltRE = regexp.MustCompile(`^(.+?):(\d+):\d+\s+(error|warning)\s+.+?\s{2,}(\S+)\s*$`)
	// Ruff/Flake8: path/file.py:10:5: E501 line too long
	flake8RE = regexp.MustCompile(`^(.+?):(\d+):\d+:\s+([A-Z]\w?\d+)\s+`)
	// Pylint: path/file.py:10:0: C0114: message (rule-name)
	pylintRE = regexp.MustCompile(`^(.+?):(\d+):\d+:\s+\w+:\s+.+\((\S+)\)\s*$`)
	// mypy: file.py:10: error: message  [error-code]
	mypyRE = regexp.MustCompile(`^(.+?):(\d+):\s+(error|warning|note):\s+.+\[(\S+)\]\s*$`)
	// Clippy: warning[rule]: message
	clippyBracketRE = regexp.MustCompile(`^(warning|error)\[(\S+)\]`)
	// Clippy/Rust fallback: warning: message [rule-name]
	rustTrailRE  = regexp.MustCompile(`\[([a-z][a-z0-9_-]+)\]\s*$`)
	rustPrefixRE = regexp.MustCompile(`^(warning|error):`)
	// shellcheck long form: In file.sh line N:
	shellcheckInRE = regexp.MustCompile(`^In (.+?) line (\d+):`)
	// shellcheck gcc format: file.sh:3:10: warning - SC2086 ...
	shellcheckGccRE = regexp.MustCompile(`^(.+?):(\d+):\d+:\s+(warning|error|info|style)\s*-\s*(SC\d+)`)
	// hadolint: Dockerfile:3 DL3008 ...
	hadolintRE = regexp.MustCompile(`^(.+?):(\d+)\s+(DL\d+|SC\d+)\s+`)
	// biome: file.ts:10:5 lint/rule message
	biomeRE = regexp.MustCompile(`^(.+?):(\d+):\d+\s+(lint/\S+)\s+`)
)

// parseViolation extracts (rule, file) from a single lint violation line.
// currentFile carries the most recent ESLint-style file header for formats
// that put the path on its own line. The bool result is false for lines that
// are not violations (summaries, free text).
func parseViolation(line, currentFile string) (rule, file string, ok bool) {
	if m := eslintIndentRE.FindStringSubmatch(line); m != nil {
		return m[5], currentFile, true
	}
	if m := eslintInlineRE.FindStringSubmatch(line); m != nil {
		return m[3], m[1], true
	}
	if m := eslintInlineAltRE.FindStringSubmatch(line); m != nil {
		return m[4], m[1], true
	}
	if m := flake8RE.FindStringSubmatch(line); m != nil {
		return m[3], m[1], true
	}
	if m := pylintRE.FindStringSubmatch(line); m != nil {
		return m[3], m[1], true
	}
	if m := mypyRE.FindStringSubmatch(line); m != nil {
		return m[4], m[1], true
	}
	if m := clippyBracketRE.FindStringSubmatch(line); m != nil {
		return m[2], "", true
	}
	if m := rustTrailRE.FindStringSubmatch(line); m != nil && rustPrefixRE.MatchString(line) {
		return m[1], "", true
	}
	if m := shellcheckInRE.FindStringSubmatch(line); m != nil {
		return "shellcheck", m[1], true
	}
	if m := shellcheckGccRE.FindStringSubmatch(line); m != nil {
		return m[4], m[1], true
	}
	if m := hadolintRE.FindStringSubmatch(line); m != nil {
		return m[3], m[1], true
	}
	if m := biomeRE.FindStringSubmatch(line); m != nil {
		return m[3], m[1], true
	}
	return "", "", false
}
