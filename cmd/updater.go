package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ppgranger/token-saver/internal/install"
	"github.com/ppgranger/token-saver/internal/version"
)

// doUpdate replaces the running binary with the latest GitHub release and
// re-registers hooks for whichever agents are currently installed.
func doUpdate() error {
	fmt.Printf("token-saver v%s\n", version.Version)
	printStep("Checking for updates...")

	release, err := version.FetchLatest(10 * time.Second)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	latest := strings.TrimPrefix(release.TagName, "v")

	newer, err := version.Newer(release.TagName, version.Version)
	if err != nil {
		return fmt.Errorf("could not compare versions: local=%s remote=%s: %w",
			version.Version, release.TagName, err)
	}
	if !newer {
		printSuccess(fmt.Sprintf("Already up to date (v%s).", version.Version))
		return nil
	}

	fmt.Printf("Update available: v%s -> v%s\n", version.Version, latest)

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	asset := fmt.Sprintf("token-saver-%s-%s", runtime.GOOS, runtime.GOARCH)
	if runtime.GOOS == "windows" {
		asset += ".exe"
	}
	var downloadURL string
	for _, a := range release.Assets {
		if a.Name == asset {
			downloadURL = a.BrowserDownloadURL
			break
		}
	}
	if downloadURL == "" {
		return fmt.Errorf("release v%s has no prebuilt binary for %s/%s",
			latest, runtime.GOOS, runtime.GOARCH)
	}

	printStep("Downloading " + asset + "...")
	if err := swapBinary(execPath, downloadURL); err != nil {
		return err
	}

	// Hooks reference the installed path, which now holds the new
	// version; re-running the installer refreshes manifests and picks up
	// any new hook registrations the release added.
	targets := detectInstalledTargets()
	printStep(fmt.Sprintf("Re-running installer for: %s...", targets))
	in, err := install.New(install.Options{
		BinaryPath: execPath,
		Version:    latest,
		Config:     defaultConfigYAML(),
	})
	if err != nil {
		return err
	}
	if err := in.Install(targets); err != nil {
		return err
	}

	fmt.Println()
	printSuccess(fmt.Sprintf("Update complete! Now running v%s.", latest))
	return nil
}

// swapBinary downloads url over execPath using a .new/.old rename dance so
// a failed download never leaves a broken binary behind.
func swapBinary(execPath, url string) error {
	// #nosec G107 -- URL comes from the GitHub releases API for our repo
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tmpFile := execPath + ".new"
	// #nosec G304 -- derived from os.Executable()
	out, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	_, err = io.Copy(out, resp.Body)
	_ = out.Close()
	if err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write binary: %w", err)
	}

	// #nosec G302 -- binaries need 0755 to be executable
	if err := os.Chmod(tmpFile, 0755); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to chmod: %w", err)
	}

	oldFile := execPath + ".old"
	_ = os.Remove(oldFile)
	if err := os.Rename(execPath, oldFile); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to back up old binary: %w", err)
	}
	if err := os.Rename(tmpFile, execPath); err != nil {
		if restoreErr := os.Rename(oldFile, execPath); restoreErr != nil {
			return fmt.Errorf("failed to install new binary: %w (restore also failed: %v)", err, restoreErr)
		}
		return fmt.Errorf("failed to install new binary: %w", err)
	}
	_ = os.Remove(oldFile)
	return nil
}

// detectInstalledTargets reports which agents currently carry our hooks so
// an update only touches what the user actually installed. Claude is the
// default when nothing is detected.
func detectInstalledTargets() install.Target {
	home, err := os.UserHomeDir()
	if err != nil {
		return install.TargetClaude
	}

	var settingsPath, geminiDir string
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		settingsPath = filepath.Join(appData, "claude", "settings.json")
		geminiDir = filepath.Join(appData, "gemini", "extensions", "token-saver")
	} else {
		settingsPath = filepath.Join(home, ".claude", "settings.json")
		geminiDir = filepath.Join(home, ".gemini", "extensions", "token-saver")
	}

	claude := false
	if data, err := os.ReadFile(settingsPath); err == nil {
		claude = strings.Contains(string(data), "token-saver")
	}
	gemini := false
	if info, err := os.Stat(geminiDir); err == nil && info.IsDir() {
		gemini = true
	}

	switch {
	case claude && gemini:
		return install.TargetBoth
	case gemini:
		return install.TargetGemini
	default:
		return install.TargetClaude
	}
}
