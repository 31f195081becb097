package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/ppgranger/token-saver/internal/install"
)

func runInstallCommand(args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	target := fs.String("target", "claude", "claude, gemini, or both")
	_ = fs.Parse(args)

	tgt, err := install.ParseTarget(*target)
	if err != nil {
		printError(err.Error())
		os.Exit(2)
	}

	printHeader("Install Token-Saver")
	fmt.Printf("Installing token-saver for: %s\n", tgt)
	fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	in, err := install.New(install.Options{Config: defaultConfigYAML()})
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	if err := in.Install(tgt); err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	fmt.Println()
	printSuccess("Installation complete.")
	printInfo("Start a new agent session so the hooks take effect.")
}

func runUninstallCommand(args []string) {
	fs := flag.NewFlagSet("uninstall", flag.ExitOnError)
	target := fs.String("target", "both", "claude, gemini, or both")
	keepData := fs.Bool("keep-data", false, "keep the data directory (stats DB, config)")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)

	tgt, err := install.ParseTarget(*target)
	if err != nil {
		printError(err.Error())
		os.Exit(2)
	}

	printHeader("Uninstall Token-Saver")
	fmt.Printf("Uninstalling token-saver from: %s\n", tgt)
	if !*keepData {
		printWarn("This removes the data directory (stats DB, config). Use --keep-data to keep it.")
	}
	if !*yes && !promptYesNo("Continue?", true) {
		printInfo("Aborted.")
		return
	}

	in, err := install.New(install.Options{})
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	if err := in.Uninstall(tgt, *keepData); err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	fmt.Println()
	printSuccess("Uninstallation complete.")
}
