package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseViolationFormats(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		currentFile string
		wantRule    string
		wantFile    string
	}{
		{
			name:        "eslint indented",
			line:        "  10:5  error  Unexpected var, use let or const  no-var",
			currentFile: "/src/app.js",
			wantRule:    "no-var",
			wantFile:    "/src/app.js",
		},
		{
			name:     "eslint inline",
			line:     "/src/app.js:10:5: 'foo' is not defined. (no-undef)",
			wantRule: "no-undef",
			wantFile: "/src/app.js",
		},
		{
			name:     "eslint inline alt",
			line:     "/src/app.js:10:5  error  Unexpected var  no-var",
			wantRule: "no-var",
			wantFile: "/src/app.js",
		},
		{
			name:     "flake8",
			line:     "src/app.py:10:5: E501 line too long (88 > 79 characters)",
			wantRule: "E501",
			wantFile: "src/app.py",
		},
		{
			name:     "ruff",
			line:     "src/app.py:3:1: F401 `os` imported but unused",
			wantRule: "F401",
			wantFile: "src/app.py",
		},
		{
			name:     "pylint",
			line:     "src/app.py:10:0: C0114: Missing module docstring (missing-module-docstring)",
			wantRule: "missing-module-docstring",
			wantFile: "src/app.py",
		},
		{
			name:     "mypy",
			line:     "src/app.py:10: error: Incompatible types in assignment  [assignment]",
			wantRule: "assignment",
			wantFile: "src/app.py",
		},
		{
			name:     "rustc bracketed",
			line:     "error[E0308]: mismatched types",
			wantRule: "E0308",
		},
		{
			name:     "rust trailing rule",
			line:     "warning: unused variable: `x` [unused_variables]",
			wantRule: "unused_variables",
		},
		{
			name:     "shellcheck long form",
			line:     "In deploy.sh line 12:",
			wantRule: "shellcheck",
			wantFile: "deploy.sh",
		},
		{
			name:     "shellcheck gcc form",
			line:     "deploy.sh:3:10: warning - SC2086 Double quote to prevent globbing",
			wantRule: "SC2086",
			wantFile: "deploy.sh",
		},
		{
			name:     "hadolint",
			line:     "Dockerfile:3 DL3008 Pin versions in apt-get install",
			wantRule: "DL3008",
			wantFile: "Dockerfile",
		},
		{
			name:     "biome",
			line:     "src/app.ts:10:5 lint/suspicious/noExplicitAny Unexpected any",
			wantRule: "lint/suspicious/noExplicitAny",
			wantFile: "src/app.ts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, file, ok := parseViolation(tt.line, tt.currentFile)
			assert.True(t, ok)
			assert.Equal(t, tt.wantRule, rule)
			assert.Equal(t, tt.wantFile, file)
		})
	}
}

func TestParseViolationRejectsNonViolations(t *testing.T) {
	lines := []string{
		"",
		"All checks passed",
		"/src/components/app.js",
		"✖ 5 problems (5 errors, 0 warnings)",
		"Found 3 errors in 2 files (checked 10 source files)",
		"warning: build completed with warnings",
	}
	for _, line := range lines {
		_, _, ok := parseViolation(line, "")
		assert.False(t, ok, "line %q", line)
	}
}
