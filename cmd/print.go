package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"

	"github.com/ppgranger/token-saver/internal/version"
)

// ANSI color codes. Colors are dropped when stdout is not a terminal so
// piped output stays clean.
const (
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorCyan   = "\033[0;36m"
	colorRed    = "\033[0;31m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

var colorEnabled = term.IsTerminal(int(os.Stdout.Fd()))

func colorize(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + colorReset
}

func printHeader(title string) {
	fmt.Println(colorize(colorBold+colorCyan, "========================================"))
	fmt.Println(colorize(colorBold+colorCyan, "       "+title))
	fmt.Println(colorize(colorBold+colorCyan, "========================================"))
	fmt.Println()
}

func printSuccess(msg string) {
	fmt.Printf("%s %s\n", colorize(colorGreen, "[OK]"), msg)
}

func printInfo(msg string) {
	fmt.Printf("%s %s\n", colorize(colorCyan, "[INFO]"), msg)
}

func printWarn(msg string) {
	fmt.Printf("%s %s\n", colorize(colorYellow, "[WARN]"), msg)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", colorize(colorRed, "[ERROR]"), msg)
}

func printStep(msg string) {
	fmt.Printf("%s %s\n", colorize(colorCyan, ">>>"), msg)
}

// promptYesNo asks for confirmation on stdin. Non-interactive runs get the
// default so scripted invocations never hang on a prompt.
func promptYesNo(prompt string, defaultYes bool) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return defaultYes
	}
	suffix := " [y/N]: "
	if defaultYes {
		suffix = " [Y/n]: "
	}
	fmt.Print(prompt + suffix)

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

func printVersion() {
	fmt.Printf("token-saver v%s\n", version.Version)
	fmt.Printf("Runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
