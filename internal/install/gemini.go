package install

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// installGeminiExtension generates the Gemini CLI extension under
// ~/.gemini/extensions/token-saver: a version-stamped manifest plus a
// hooks file pointing AfterTool at the installed binary. Gemini has no
// PreToolUse-style rewrite, so compression happens after the tool runs.
func (in *Installer) installGeminiExtension() error {
	dir := in.geminiExtensionDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	manifest := map[string]interface{}{
		"name":        "token-saver",
		"version":     in.version,
		"description": "Compresses verbose tool output to cut token usage.",
	}
	if err := writeManifest(filepath.Join(dir, "gemini-extension.json"), manifest); err != nil {
		return err
	}
	in.printf("  WROTE gemini-extension.json (version %s)\n", in.version)

	hooks := map[string]interface{}{
		"hooks": map[string]interface{}{
			"AfterTool": []interface{}{
				map[string]interface{}{
					"matcher": "run_shell_command",
					"hooks": []interface{}{
						map[string]interface{}{
							"type":    "command",
							"command": in.hookCommand("aftertool"),
							"timeout": 5000,
						},
					},
				},
			},
		},
	}
	if err := writeManifest(filepath.Join(dir, "hooks.json"), hooks); err != nil {
		return err
	}
	in.printf("  WROTE hooks.json\n")
	return nil
}

func writeManifest(path string, doc map[string]interface{}) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
