package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/engine"
	"github.com/ppgranger/token-saver/internal/monitoring"
	"github.com/ppgranger/token-saver/internal/tokens"
)

// auditScenario pairs a command with a generator for the kind of verbose
// output that command produces in the wild.
type auditScenario struct {
	label   string
	command string
	build   func() string
}

// runAuditCommand compresses a corpus of synthetic command outputs and
// reports per-scenario and overall savings. It is the quickest way to see
// what a threshold change does across every processor.
func runAuditCommand(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "print the first lines of each compressed output")
	_ = fs.Parse(args)

	cfg := config.Load()
	log := monitoring.Nop()
	if cfg.Debug {
		log = monitoring.New(monitoring.LoggerConfig{Level: "debug", Format: "console", Output: "stderr"})
	}
	eng, err := engine.New(cfg, log)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	est := tokens.NewEstimator(cfg.CharsPerToken)
	if est.Exact() {
		printInfo("token counts: exact (cl100k_base)")
	} else {
		printInfo(fmt.Sprintf("token counts: estimated (1 token per %d chars)", cfg.CharsPerToken))
	}

	runAudit(os.Stdout, eng, est, auditCorpus(), *verbose)
}

func runAudit(w io.Writer, eng *engine.Engine, est *tokens.Estimator, corpus []auditScenario, verbose bool) {
	var totalOriginal, totalCompressed int
	var missed []string

	for _, sc := range corpus {
		output := sc.build()
		res := eng.Compress(sc.command, output)

		origTokens := est.Count(output)
		compTokens := est.Count(res.Text)
		totalOriginal += origTokens
		totalCompressed += compTokens
		if !res.Compressed {
			missed = append(missed, sc.label)
		}

		fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 72))
		fmt.Fprintf(w, "SCENARIO: %s\n", sc.label)
		fmt.Fprintf(w, "Command:   %s\n", sc.command)
		fmt.Fprintf(w, "Processor: %s | Compressed: %v\n", res.Processor, res.Compressed)
		fmt.Fprintf(w, "Original:   %7d chars %6d tokens (%d lines)\n",
			len(output), origTokens, lineCount(output))
		fmt.Fprintf(w, "Compressed: %7d chars %6d tokens (%d lines)\n",
			len(res.Text), compTokens, lineCount(res.Text))
		fmt.Fprintf(w, "Saved:      %6.1f%% chars %6.1f%% tokens\n",
			percentSaved(len(output), len(res.Text)),
			percentSaved(origTokens, compTokens))

		if verbose {
			fmt.Fprintln(w, strings.Repeat("-", 72))
			preview := strings.Split(res.Text, "\n")
			const keep = 15
			for i, line := range preview {
				if i == keep {
					fmt.Fprintf(w, "  ... (%d more lines)\n", len(preview)-keep)
					break
				}
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 72))
	fmt.Fprintf(w, "TOTAL: %s -> %s (%.1f%% saved across %d scenarios)\n",
		tokens.Format(totalOriginal), tokens.Format(totalCompressed),
		percentSaved(totalOriginal, totalCompressed), len(corpus))
	if len(missed) > 0 {
		fmt.Fprintf(w, "Not compressed: %s\n", strings.Join(missed, ", "))
	}
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func percentSaved(original, compressed int) float64 {
	if original == 0 {
		return 0
	}
	return float64(original-compressed) / float64(original) * 100
}

// auditCorpus builds one representative verbose output per processor
// family. Sizes mirror what heavy real-world sessions produce.
func auditCorpus() []auditScenario {
	return []auditScenario{
		{"git status, 45 files", "git status", buildGitStatus},
		{"git log, 60 entries", "git log", buildGitLog},
		{"git diff, 5 files with fat context", "git diff", buildGitDiff},
		{"pytest, 300 passed 2 failed", "pytest tests/", buildPytest},
		{"go test, verbose run", "go test ./...", buildGoTest},
		{"npm install with warnings", "npm install", buildNpmInstall},
		{"cargo build, 80 crates", "cargo build", buildCargoBuild},
		{"eslint, 150 violations", "eslint src/", buildESLint},
		{"find, 200 paths", "find . -name '*.py'", buildFind},
		{"ls -la, 60 entries", "ls -la", buildLsLong},
		{"docker ps, 30 containers", "docker ps", buildDockerPs},
		{"kubectl get pods, 80 pods", "kubectl get pods", buildKubectlPods},
		{"pip install with progress", "pip install -r requirements.txt", buildPipInstall},
		{"env dump, 80 vars", "env", buildEnvDump},
		{"cat of a rotating app log", "cat app.log", buildAppLog},
		{"curl download progress", "curl -O https://example.com/big.tar.gz", buildCurlProgress},
	}
}

func buildGitStatus() string {
	var b strings.Builder
	b.WriteString("On branch feature/compression\n")
	b.WriteString("Your branch is ahead of 'origin/feature/compression' by 3 commits.\n\n")
	b.WriteString("Changes to be committed:\n")
	b.WriteString("  (use \"git restore --staged <file>...\" to unstage)\n\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "\tmodified:   internal/processors/proc_%02d.go\n", i)
	}
	b.WriteString("\nChanges not staged for commit:\n")
	b.WriteString("  (use \"git add <file>...\" to update what will be committed)\n")
	b.WriteString("  (use \"git restore <file>...\" to discard changes in working directory)\n\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "\tmodified:   docs/page_%02d.md\n", i)
	}
	b.WriteString("\nUntracked files:\n")
	b.WriteString("  (use \"git add <file>...\" to include in what will be committed)\n\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "\tscripts/tool_%02d.sh\n", i)
	}
	return b.String()
}

func buildGitLog() string {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "commit %040x\n", i*7919)
		fmt.Fprintf(&b, "Author: Dev Eloper <dev@example.com>\n")
		fmt.Fprintf(&b, "Date:   Mon Aug %d 10:%02d:00 2026 +0000\n\n", (i%28)+1, i%60)
		fmt.Fprintf(&b, "    commit message number %d describing a change\n\n", i)
	}
	return b.String()
}

func buildGitDiff() string {
	var b strings.Builder
	for f := 0; f < 5; f++ {
		fmt.Fprintf(&b, "diff --git a/src/module_%d.go b/src/module_%d.go\n", f, f)
		fmt.Fprintf(&b, "index abc%dd..123%d4 100644\n", f, f)
		fmt.Fprintf(&b, "--- a/src/module_%d.go\n", f)
		fmt.Fprintf(&b, "+++ b/src/module_%d.go\n", f)
		fmt.Fprintf(&b, "@@ -%d,30 +%d,32 @@ func handler%d():\n", 10+f*100, 10+f*100, f)
		for j := 0; j < 10; j++ {
			fmt.Fprintf(&b, "     // context line %d that has not changed and costs tokens\n", j)
		}
		fmt.Fprintf(&b, "-    old := compute(%d)\n", f)
		b.WriteString("-    return old\n")
		fmt.Fprintf(&b, "+    improved := computeBetter(%d)\n", f)
		b.WriteString("+    return improved\n")
		for j := 0; j < 10; j++ {
			fmt.Fprintf(&b, "     // trailing context line %d, equally unchanged\n", j)
		}
	}
	return b.String()
}

func buildPytest() string {
	var b strings.Builder
	b.WriteString("============================= test session starts ==============================\n")
	b.WriteString("platform linux -- Python 3.12.1, pytest-8.0.0, pluggy-1.4.0\n")
	b.WriteString("rootdir: /home/dev/project\nplugins: cov-4.1.0, xdist-3.5.0\ncollected 302 items\n\n")
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, "tests/test_module_%02d.py::test_case_%03d PASSED [ %2d%%]\n", i%20, i, i*100/302)
	}
	b.WriteString("tests/test_auth.py::test_expired_token FAILED [ 99%]\n")
	b.WriteString("tests/test_auth.py::test_refresh FAILED [100%]\n\n")
	b.WriteString("=================================== FAILURES ===================================\n")
	b.WriteString("_____________________________ test_expired_token ______________________________\n\n")
	b.WriteString("    def test_expired_token():\n>       assert validate(token)\nE       AssertionError: token expired\n\n")
	b.WriteString("tests/test_auth.py:42: AssertionError\n")
	b.WriteString("=========================== short test summary info ============================\n")
	b.WriteString("FAILED tests/test_auth.py::test_expired_token - AssertionError: token expired\n")
	b.WriteString("FAILED tests/test_auth.py::test_refresh - TimeoutError\n")
	b.WriteString("======================== 2 failed, 300 passed in 14.2s ========================\n")
	return b.String()
}

func buildGoTest() string {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&b, "=== RUN   TestHandler%03d\n--- PASS: TestHandler%03d (0.0%ds)\n", i, i, i%10)
	}
	b.WriteString("=== RUN   TestTimeout\n--- FAIL: TestTimeout (3.00s)\n")
	b.WriteString("    server_test.go:88: expected 200, got 504\n")
	b.WriteString("FAIL\nFAIL\tgithub.com/example/app/server\t3.41s\n")
	b.WriteString("ok  \tgithub.com/example/app/store\t0.22s\n")
	return b.String()
}

func buildNpmInstall() string {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "npm http fetch GET 200 https://registry.npmjs.org/package-%d 120ms\n", i)
	}
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "npm WARN deprecated old-lib@0.%d.0: no longer maintained\n", i)
	}
	b.WriteString("\nadded 412 packages, and audited 413 packages in 9s\n\n")
	b.WriteString("52 packages are looking for funding\n  run `npm fund` for details\n\n")
	b.WriteString("3 vulnerabilities (1 moderate, 2 high)\n\nTo address all issues, run:\n  npm audit fix\n")
	return b.String()
}

func buildCargoBuild() string {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "   Compiling crate-%02d v0.%d.%d\n", i, i%10, i%7)
	}
	b.WriteString("warning: unused variable: `x`\n --> src/main.rs:14:9\n   |\n14 |     let x = 5;\n   |         ^ help: prefix with an underscore\n\n")
	b.WriteString("    Finished dev [unoptimized + debuginfo] target(s) in 42.3s\n")
	return b.String()
}

func buildESLint() string {
	var b strings.Builder
	rules := []string{"no-unused-vars", "eqeqeq", "no-console", "prefer-const", "semi"}
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&b, "/app/src/components/widget_%02d.js\n", i%25)
		fmt.Fprintf(&b, "  %d:%d  error  violation detail %d  %s\n", i%300+1, i%80+1, i, rules[i%len(rules)])
	}
	b.WriteString("\n✖ 150 problems (150 errors, 0 warnings)\n")
	return b.String()
}

func buildFind() string {
	var b strings.Builder
	dirs := []string{"src", "src/utils", "src/models", "tests", "scripts", "docs"}
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "./%s/file_%03d.py\n", dirs[i%len(dirs)], i)
	}
	return b.String()
}

func buildLsLong() string {
	var b strings.Builder
	b.WriteString("total 488\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "-rw-r--r--  1 dev dev %6d Aug %2d 10:%02d module_%02d.py\n",
			1000+i*37, (i%28)+1, i%60, i)
	}
	return b.String()
}

func buildDockerPs() string {
	var b strings.Builder
	b.WriteString("CONTAINER ID   IMAGE                    COMMAND                  CREATED        STATUS        PORTS                    NAMES\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "%012x   registry.example.com/svc-%02d:1.%d   \"/entrypoint.sh run\"   %d hours ago   Up %d hours   0.0.0.0:%d->8080/tcp   svc-%02d\n",
			i*104729, i, i%9, i%24+1, i%24+1, 30000+i, i)
	}
	return b.String()
}

func buildKubectlPods() string {
	var b strings.Builder
	b.WriteString("NAME                                READY   STATUS    RESTARTS   AGE\n")
	for i := 0; i < 80; i++ {
		status := "Running"
		if i%17 == 0 {
			status = "CrashLoopBackOff"
		}
		fmt.Fprintf(&b, "api-deployment-7d9f8b6c5-%05x      1/1     %s   %d          %dd\n",
			i*3571, status, i%5, i%30+1)
	}
	return b.String()
}

func buildPipInstall() string {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "Collecting package-%d>=1.0\n", i)
		fmt.Fprintf(&b, "  Downloading package_%d-1.2.%d-py3-none-any.whl (%d kB)\n", i, i%9, 100+i*13)
		b.WriteString("     ━━━━━━━━━━━━━━━━━━━━ 100.0 kB 5.1 MB/s eta 0:00:00\n")
	}
	b.WriteString("Installing collected packages: package-0, package-1, package-2\n")
	b.WriteString("Successfully installed package-0-1.2.0 package-1-1.2.1 package-2-1.2.2\n")
	return b.String()
}

func buildEnvDump() string {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "APP_SETTING_%02d=value-%d-with-some-length-to-it\n", i, i*31)
	}
	b.WriteString("PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin\n")
	b.WriteString("HOME=/home/dev\nSHELL=/bin/bash\n")
	return b.String()
}

func buildAppLog() string {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		level := "INFO"
		msg := "request handled"
		if i%50 == 7 {
			level = "ERROR"
			msg = "upstream timeout after 30s"
		}
		fmt.Fprintf(&b, "2026-08-25T10:%02d:%02d.000Z %s  [worker-%d] %s path=/api/v1/items/%d\n",
			i/60%60, i%60, level, i%8, msg, i)
	}
	return b.String()
}

func buildCurlProgress() string {
	var b strings.Builder
	b.WriteString("  % Total    % Received % Xferd  Average Speed   Time    Time     Time  Current\n")
	b.WriteString("                                 Dload  Upload   Total   Spent    Left  Speed\n")
	for i := 0; i <= 100; i++ {
		fmt.Fprintf(&b, "\r%3d  512M  %3d  %3dM    0     0  24.1M      0  0:00:21  0:00:%02d  0:00:%02d 24.3M",
			i, i, i*5, i/5, 21-i/5)
		b.WriteString("\n")
	}
	return b.String()
}
