package install

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (in *Installer) claudeSettingsPath() string {
	return filepath.Join(in.claudeDir(), "settings.json")
}

// registerClaudeHooks adds our PreToolUse and SessionStart entries to
// ~/.claude/settings.json, replacing any stale token-saver entries
// (including ones pointing at old install locations) and leaving every
// other hook untouched.
func (in *Installer) registerClaudeHooks() error {
	settingsPath := in.claudeSettingsPath()
	settings, err := readSettings(settingsPath)
	if err != nil {
		return err
	}

	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		hooks = make(map[string]interface{})
		settings["hooks"] = hooks
	}

	register := []struct {
		event   string
		matcher string
		command string
		timeout int
	}{
		{event: "PreToolUse", matcher: "Bash", command: in.hookCommand("pretool"), timeout: 5000},
		{event: "SessionStart", command: in.hookCommand("session"), timeout: 3000},
	}
	for _, reg := range register {
		entries, _ := hooks[reg.event].([]interface{})
		entries = dropOwnEntries(entries)

		entry := map[string]interface{}{
			"hooks": []interface{}{
				map[string]interface{}{
					"type":    "command",
					"command": reg.command,
					"timeout": reg.timeout,
				},
			},
		}
		if reg.matcher != "" {
			entry["matcher"] = reg.matcher
		}
		hooks[reg.event] = append(entries, entry)
		in.printf("  REGISTERED %s hook in settings.json\n", reg.event)
	}

	return writeSettings(settingsPath, settings)
}

// unregisterClaudeHooks removes our entries from settings.json. Events
// left with no entries are dropped entirely, as is an empty hooks object.
func (in *Installer) unregisterClaudeHooks() error {
	settingsPath := in.claudeSettingsPath()
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			in.printf("  settings.json not found, nothing to clean\n")
			return nil
		}
		return err
	}

	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse settings.json: %w", err)
	}

	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		in.printf("  No token-saver hooks found in settings.json\n")
		return nil
	}

	changed := false
	for _, event := range []string{"PreToolUse", "SessionStart"} {
		entries, ok := hooks[event].([]interface{})
		if !ok {
			continue
		}
		kept := dropOwnEntries(entries)
		if len(kept) != len(entries) {
			changed = true
		}
		if len(kept) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = kept
		}
	}
	if !changed {
		in.printf("  No token-saver hooks found in settings.json\n")
		return nil
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	}

	if err := writeSettings(settingsPath, settings); err != nil {
		return err
	}
	in.printf("  REMOVED hooks from settings.json\n")
	return nil
}

// scrubLegacySettings drops settings.json entries that reference the old
// "token-saving" install, comparing against the serialized entry so any
// shape (old flat format included) is caught.
func (in *Installer) scrubLegacySettings() bool {
	settingsPath := in.claudeSettingsPath()
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return false
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return false
	}
	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		return false
	}

	changed := false
	for event, raw := range hooks {
		entries, ok := raw.([]interface{})
		if !ok {
			continue
		}
		var kept []interface{}
		for _, entry := range entries {
			if serialized, err := json.Marshal(entry); err == nil &&
				strings.Contains(string(serialized), legacyName) {
				changed = true
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = kept
		}
	}
	if !changed {
		return false
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	}
	if err := writeSettings(settingsPath, settings); err != nil {
		return false
	}
	in.printf("  REMOVED legacy hooks from settings.json\n")
	return true
}

// dropOwnEntries filters out hook entries that belong to token-saver,
// whether in the current matcher format or the old flat one.
func dropOwnEntries(entries []interface{}) []interface{} {
	var kept []interface{}
	for _, entry := range entries {
		if !hookBelongsToUs(entry) {
			kept = append(kept, entry)
		}
	}
	return kept
}

func hookBelongsToUs(entry interface{}) bool {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return false
	}
	if cmd, ok := m["command"].(string); ok && containsMarker(cmd) {
		return true
	}
	hooksList, _ := m["hooks"].([]interface{})
	for _, h := range hooksList {
		hm, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		if cmd, ok := hm["command"].(string); ok && containsMarker(cmd) {
			return true
		}
	}
	return false
}

func readSettings(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, err
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings.json: %w", err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]interface{}) error {
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0600)
}
