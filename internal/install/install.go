// Package install wires token-saver into coding agents: it copies the
// binary onto PATH, registers hooks in Claude Code's settings.json,
// generates the Gemini CLI extension, and seeds the data directory.
// Uninstall reverses all of it and also sweeps directories left behind
// by pre-1.0 "token-saving" installations.
package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/version"
)

// Target selects which agents an install or uninstall touches.
type Target string

const (
	TargetClaude Target = "claude"
	TargetGemini Target = "gemini"
	TargetBoth   Target = "both"
)

// ParseTarget validates a --target flag value.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetClaude, TargetGemini, TargetBoth:
		return Target(s), nil
	}
	return "", fmt.Errorf("invalid target %q (want claude, gemini, or both)", s)
}

func (t Target) claude() bool { return t == TargetClaude || t == TargetBoth }
func (t Target) gemini() bool { return t == TargetGemini || t == TargetBoth }

// legacyName is the project's pre-1.0 name. Old installs left directories
// and settings.json entries under it that coexist badly with the current
// hooks, so both install and uninstall clean them up first.
const legacyName = "token-saving"

// hookMarker identifies our own entries in agent settings. The Python
// script names are matched too so upgrading replaces them.
const hookMarker = "token-saver"

// Options configures an Installer. Zero values resolve to the running
// executable and the current user's home directory.
type Options struct {
	HomeDir    string    // defaults to os.UserHomeDir()
	AppData    string    // Windows only; defaults to %APPDATA%
	BinaryPath string    // source executable; defaults to os.Executable()
	Version    string    // stamped into manifests; defaults to version.Version
	Config     []byte    // default config.yaml seeded into the data dir
	Out        io.Writer // progress output; defaults to os.Stdout
}

// Installer performs installs and uninstalls against a fixed set of
// filesystem roots, so tests can point it at a temp directory.
type Installer struct {
	home          string
	appData       string
	binary        string
	version       string
	defaultConfig []byte
	out           io.Writer
}

// New resolves Options into an Installer.
func New(opts Options) (*Installer, error) {
	in := &Installer{
		home:          opts.HomeDir,
		appData:       opts.AppData,
		binary:        opts.BinaryPath,
		version:       opts.Version,
		defaultConfig: opts.Config,
		out:           opts.Out,
	}
	if in.home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		in.home = home
	}
	if in.appData == "" {
		in.appData = os.Getenv("APPDATA")
		if in.appData == "" {
			in.appData = filepath.Join(in.home, "AppData", "Roaming")
		}
	}
	if in.binary == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate executable: %w", err)
		}
		in.binary = exe
	}
	if in.version == "" {
		in.version = version.Version
	}
	if in.out == nil {
		in.out = os.Stdout
	}
	return in, nil
}

// Install sets up token-saver for the given target: legacy cleanup, CLI
// copy onto PATH, hook registration, and data directory seeding.
func (in *Installer) Install(target Target) error {
	in.printf("\n--- Legacy cleanup ---\n")
	in.cleanupLegacy()

	in.printf("\n--- CLI (%s) ---\n", in.cliDir())
	if err := in.installBinary(); err != nil {
		return err
	}

	if target.claude() {
		in.printf("\n--- Claude Code (%s) ---\n", in.claudeDir())
		if err := in.registerClaudeHooks(); err != nil {
			return fmt.Errorf("failed to register Claude Code hooks: %w", err)
		}
	}
	if target.gemini() {
		in.printf("\n--- Gemini CLI (%s) ---\n", in.geminiExtensionDir())
		if err := in.installGeminiExtension(); err != nil {
			return fmt.Errorf("failed to install Gemini extension: %w", err)
		}
	}

	in.printf("\n--- Data (%s) ---\n", in.dataDir())
	if err := in.seedData(); err != nil {
		return err
	}

	in.pathHint()
	return nil
}

// Uninstall removes token-saver from the given target. The data
// directory (stats DB, config) survives when keepData is set.
func (in *Installer) Uninstall(target Target, keepData bool) error {
	in.printf("\n--- Legacy cleanup ---\n")
	in.cleanupLegacy()

	in.printf("\n--- CLI ---\n")
	in.uninstallBinary()

	if target.claude() {
		in.printf("\n--- Claude Code ---\n")
		if err := in.unregisterClaudeHooks(); err != nil {
			return fmt.Errorf("failed to unregister Claude Code hooks: %w", err)
		}
		in.removeDir(filepath.Join(in.claudeDir(), "plugins", hookMarker))
	}
	if target.gemini() {
		in.printf("\n--- Gemini CLI ---\n")
		in.removeDir(in.geminiExtensionDir())
	}

	if !keepData {
		in.printf("\n--- Data ---\n")
		in.removeDir(in.dataDir())
	}
	return nil
}

// InstalledBinary returns the path hooks are registered against.
func (in *Installer) InstalledBinary() string {
	name := "token-saver"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(in.cliDir(), name)
}

func (in *Installer) hookCommand(kind string) string {
	return in.InstalledBinary() + " hook " + kind
}

func (in *Installer) cliDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(in.appData, "token-saver", "bin")
	}
	return filepath.Join(in.home, ".local", "bin")
}

func (in *Installer) claudeDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(in.appData, "claude")
	}
	return filepath.Join(in.home, ".claude")
}

func (in *Installer) geminiDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(in.appData, "gemini")
	}
	return filepath.Join(in.home, ".gemini")
}

func (in *Installer) geminiExtensionDir() string {
	return filepath.Join(in.geminiDir(), "extensions", hookMarker)
}

func (in *Installer) dataDir() string {
	return config.DataDir()
}

// installBinary copies the running executable into the CLI directory so
// hooks keep working after the download or build tree is deleted.
func (in *Installer) installBinary() error {
	dst := in.InstalledBinary()
	src, err := filepath.Abs(in.binary)
	if err != nil {
		src = in.binary
	}
	if abs, err := filepath.Abs(dst); err == nil && abs == src {
		in.printf("  OK %s (already in place)\n", dst)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	// Remove first: overwriting a running binary in place fails with
	// ETXTBSY on Linux.
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	// #nosec G306 -- the CLI binary needs to be executable
	if err := os.WriteFile(dst, data, 0755); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	in.printf("  COPY %s -> %s\n", filepath.Base(src), dst)
	return nil
}

func (in *Installer) uninstallBinary() {
	path := in.InstalledBinary()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			in.printf("  NOT FOUND %s (already removed)\n", path)
		} else {
			in.printf("  WARNING could not remove %s: %v\n", path, err)
		}
		return
	}
	in.printf("  REMOVED %s\n", path)
}

// seedData creates the data directory and writes the annotated default
// config.yaml if the user doesn't have one yet.
func (in *Installer) seedData() error {
	dir := in.dataDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if len(in.defaultConfig) == 0 {
		return nil
	}
	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		in.printf("  KEPT %s (exists)\n", path)
		return nil
	}
	if err := os.WriteFile(path, in.defaultConfig, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	in.printf("  SEEDED %s\n", path)
	return nil
}

// cleanupLegacy removes directories and settings.json entries left by
// "token-saving" installations. Reports whether anything was cleaned.
func (in *Installer) cleanupLegacy() bool {
	found := false
	for _, dir := range in.legacyDirs() {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			in.printf("  WARNING could not remove legacy %s: %v\n", dir, err)
			continue
		}
		in.printf("  REMOVED legacy %s\n", dir)
		found = true
	}
	if in.scrubLegacySettings() {
		found = true
	}
	if found {
		in.printf("  Legacy %q installation cleaned up.\n", legacyName)
	}
	return found
}

func (in *Installer) legacyDirs() []string {
	if runtime.GOOS == "windows" {
		return []string{
			filepath.Join(in.appData, "claude", "plugins", legacyName),
			filepath.Join(in.appData, "gemini", "extensions", legacyName),
			filepath.Join(in.appData, legacyName),
		}
	}
	return []string{
		filepath.Join(in.home, ".claude", "plugins", legacyName),
		filepath.Join(in.home, ".gemini", "extensions", legacyName),
		filepath.Join(in.home, "."+legacyName),
	}
}

func (in *Installer) removeDir(dir string) {
	if _, err := os.Stat(dir); err != nil {
		in.printf("  NOT FOUND %s (already removed)\n", dir)
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		in.printf("  WARNING could not remove %s: %v\n", dir, err)
		return
	}
	in.printf("  REMOVED %s\n", dir)
}

// pathHint warns when the CLI directory is not on PATH, mirroring what
// package managers print after installing into ~/.local/bin.
func (in *Installer) pathHint() {
	dir := in.cliDir()
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if p == dir {
			return
		}
	}
	in.printf("\n  NOTE: %s is not in your PATH.\n", dir)
	if runtime.GOOS == "windows" {
		in.printf("  Add it: setx PATH \"%%PATH%%;%s\"\n", dir)
		return
	}
	in.printf("  Add it: export PATH=%q\n", dir+":$PATH")
	in.printf("  (Add the above line to your ~/.bashrc or ~/.zshrc)\n")
}

func (in *Installer) printf(format string, args ...interface{}) {
	fmt.Fprintf(in.out, format, args...)
}

func containsMarker(cmd string) bool {
	return strings.Contains(cmd, hookMarker) ||
		strings.Contains(cmd, "hook_pretool") ||
		strings.Contains(cmd, "hook_session")
}
