package processors_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/processors"
)

func TestBuildKeepsErrorsWithContext(t *testing.T) {
	p := processors.NewBuild(config.Default())

	in := strings.Join([]string{
		"Downloading dependencies...",
		"src/app.ts:10:5 - error TS2322: Type 'string' is not assignable to type 'number'.",
		"",
		"10     const x: number = \"hello\";",
		"       ~~~~~~",
		"",
		"Found 1 error.",
	}, "\n")
	got := p.Process("tsc --noEmit", in)

	assert.Contains(t, got, "error TS2322")
	assert.Contains(t, got, "const x: number")
	assert.Contains(t, got, "~~~~~~")
	assert.Contains(t, got, "Found 1 error.")
	assert.NotContains(t, got, "Downloading")
}

func TestBuildSummarizesSuccess(t *testing.T) {
	p := processors.NewBuild(config.Default())

	in := strings.Join([]string{
		"asset main.js 1.2 MiB [emitted] [minimized]",
		"asset index.html 512 bytes [emitted]",
		"webpack 5.88.0 compiled successfully in 2300 ms",
	}, "\n")

	want := "Build succeeded.\nwebpack 5.88.0 compiled successfully in 2300 ms"
	assert.Equal(t, want, p.Process("npm run build", in))
}

func TestBuildCountsWarnings(t *testing.T) {
	p := processors.NewBuild(config.Default())

	in := strings.Join([]string{
		"warning: unused variable `tmp`",
		"warning: unused import",
		"   Compiling app v0.1.0",
		"    Finished release [optimized] target(s) in 3.42s",
	}, "\n")

	want := "Build succeeded. (2 warnings)\nFinished release [optimized] target(s) in 3.42s"
	assert.Equal(t, want, p.Process("cargo build --release", in))
}

func TestBuildAuditGroupsBySeverity(t *testing.T) {
	p := processors.NewBuild(config.Default())

	in := strings.Join([]string{
		"# npm audit report",
		"",
		"lodash  <4.17.21",
		"Severity: high",
		"Prototype Pollution - https://github.com/advisories/GHSA-p6mc",
		"fix available via `npm audit fix`",
		"",
		"minimist  <1.2.6",
		"Severity: critical",
		"Prototype Pollution in minimist",
		"fix available via `npm audit fix --force`",
		"",
		"2 vulnerabilities found in 150 scanned packages",
	}, "\n")

	want := strings.Join([]string{
		"2 vulnerabilities found:",
		"  critical: 1 (minimist)",
		"  high: 1 (lodash)",
		"fix available via `npm audit fix`",
		"fix available via `npm audit fix --force`",
		"2 vulnerabilities found in 150 scanned packages",
	}, "\n")
	assert.Equal(t, want, p.Process("npm audit", in))
}

func TestBuildDockerKeepsStepsAndOutcome(t *testing.T) {
	p := processors.NewBuild(config.Default())

	in := strings.Join([]string{
		"Sending build context to Docker daemon  2.048kB",
		"Step 1/4 : FROM golang:1.24",
		" ---> abc123def456",
		"Step 2/4 : WORKDIR /app",
		" ---> Using cache",
		"Removing intermediate container xyz",
		"Step 3/4 : COPY . .",
		"Step 4/4 : RUN go build -o /bin/app ./cmd",
		"Successfully built 9f8e7d6c5b4a",
		"Successfully tagged app:latest",
	}, "\n")

	want := strings.Join([]string{
		"Step 1/4 : FROM golang:1.24",
		"Step 2/4 : WORKDIR /app",
		"Step 3/4 : COPY . .",
		"Step 4/4 : RUN go build -o /bin/app ./cmd",
		"Successfully built 9f8e7d6c5b4a",
		"Successfully tagged app:latest",
	}, "\n")
	assert.Equal(t, want, p.Process("docker build -t app .", in))
}
