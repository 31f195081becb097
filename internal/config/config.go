// Package config loads and validates token-saver configuration.
//
// DESIGN: Every threshold has a code default. An optional YAML file at
// <data dir>/config.yaml overlays the defaults, then TOKEN_SAVER_* environment
// variables overlay the file, in that order. The loaded Config is immutable
// for the process lifetime and passed explicitly to the engine; reloading
// means constructing a new Config.
//
// A broken config file must never break a hook invocation, so Load degrades
// to defaults instead of failing. LoadFromBytes reports parse errors for
// callers that want them (tests, install-time validation).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to upper-cased config keys for env overrides,
// e.g. min_input_length -> TOKEN_SAVER_MIN_INPUT_LENGTH.
const EnvPrefix = "TOKEN_SAVER_"

// ConfigFileName is the overlay file looked up inside the data directory.
const ConfigFileName = "config.yaml"

// DefaultImportantKeys seeds important_keys: JSON object keys starting with
// one of these (case-insensitive) survive depth-limited summarization intact.
var DefaultImportantKeys = []string{
	"error", "status", "state", "name", "id", "arn", "message",
	"code", "reason", "type", "tag", "key", "value", "label",
}

// Config holds every tunable threshold. YAML keys double as env override
// names (upper-cased, prefixed with TOKEN_SAVER_).
type Config struct {
	Enabled             bool    `yaml:"enabled"`               // master switch
	Debug               bool    `yaml:"debug"`                 // hook.log debug logging
	MinInputLength      int     `yaml:"min_input_length"`      // outputs shorter than this pass through
	MinCompressionRatio float64 `yaml:"min_compression_ratio"` // required fractional gain
	CharsPerToken       int     `yaml:"chars_per_token"`       // chars->tokens estimate divisor
	WrapTimeout         int     `yaml:"wrap_timeout"`          // wrapped command timeout, seconds

	MaxDiffHunkLines    int `yaml:"max_diff_hunk_lines"`
	MaxDiffContextLines int `yaml:"max_diff_context_lines"`
	GitBranchThreshold  int `yaml:"git_branch_threshold"`
	GitStashThreshold   int `yaml:"git_stash_threshold"`

	MaxLogEntries     int `yaml:"max_log_entries"`
	MaxTracebackLines int `yaml:"max_traceback_lines"`

	MaxFileLines      int `yaml:"max_file_lines"`
	FileKeepHead      int `yaml:"file_keep_head"`
	FileKeepTail      int `yaml:"file_keep_tail"`
	FileCodeHeadLines int `yaml:"file_code_head_lines"`
	FileCodeBodyLines int `yaml:"file_code_body_lines"`
	FileLogContext    int `yaml:"file_log_context_lines"`
	FileCSVHeadRows   int `yaml:"file_csv_head_rows"`
	FileCSVTailRows   int `yaml:"file_csv_tail_rows"`

	GenericTruncateThreshold int `yaml:"generic_truncate_threshold"`
	GenericKeepHead          int `yaml:"generic_keep_head"`
	GenericKeepTail          int `yaml:"generic_keep_tail"`

	LsCompactThreshold   int `yaml:"ls_compact_threshold"`
	FindCompactThreshold int `yaml:"find_compact_threshold"`
	TreeCompactThreshold int `yaml:"tree_compact_threshold"`

	LintExampleCount   int `yaml:"lint_example_count"`
	LintGroupThreshold int `yaml:"lint_group_threshold"`

	SearchMaxPerFile int `yaml:"search_max_per_file"`
	SearchMaxFiles   int `yaml:"search_max_files"`

	KubectlKeepHead   int `yaml:"kubectl_keep_head"`
	KubectlKeepTail   int `yaml:"kubectl_keep_tail"`
	DockerLogKeepHead int `yaml:"docker_log_keep_head"`
	DockerLogKeepTail int `yaml:"docker_log_keep_tail"`

	DBMaxRows   int `yaml:"db_max_rows"`
	DBPruneDays int `yaml:"db_prune_days"`

	// ImportantKeys lists key-name prefixes the structured-value summarizer
	// keeps at full depth. Matching is case-insensitive.
	ImportantKeys []string `yaml:"important_keys"`
}

// Default returns a Config with every threshold at its shipped value.
func Default() *Config {
	return &Config{
		Enabled:             true,
		Debug:               false,
		MinInputLength:      200,
		MinCompressionRatio: 0.10,
		CharsPerToken:       4,
		WrapTimeout:         300,

		MaxDiffHunkLines:    150,
		MaxDiffContextLines: 3,
		GitBranchThreshold:  30,
		GitStashThreshold:   10,

		MaxLogEntries:     20,
		MaxTracebackLines: 30,

		MaxFileLines:      300,
		FileKeepHead:      150,
		FileKeepTail:      50,
		FileCodeHeadLines: 20,
		FileCodeBodyLines: 3,
		FileLogContext:    2,
		FileCSVHeadRows:   5,
		FileCSVTailRows:   3,

		GenericTruncateThreshold: 500,
		GenericKeepHead:          200,
		GenericKeepTail:          100,

		LsCompactThreshold:   20,
		FindCompactThreshold: 30,
		TreeCompactThreshold: 50,

		LintExampleCount:   2,
		LintGroupThreshold: 3,

		SearchMaxPerFile: 3,
		SearchMaxFiles:   20,

		KubectlKeepHead:   10,
		KubectlKeepTail:   20,
		DockerLogKeepHead: 10,
		DockerLogKeepTail: 20,

		DBMaxRows:   20,
		DBPruneDays: 90,

		ImportantKeys: append([]string(nil), DefaultImportantKeys...),
	}
}

// DataDir returns the directory holding config, savings DB, and hook log.
// TOKEN_SAVER_DATA_DIR overrides; otherwise ~/.token-saver
// (%APPDATA%\token-saver on Windows).
func DataDir() string {
	if dir := os.Getenv(EnvPrefix + "DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "token-saver")
	}
	return filepath.Join(home, ".token-saver")
}

// Path returns the overlay file path inside the data directory.
func Path() string {
	return filepath.Join(DataDir(), ConfigFileName)
}

// Load builds the effective configuration: defaults, then the overlay file
// if one exists and parses, then env overrides, then clamping. It never
// fails; a malformed overlay is ignored.
func Load() *Config {
	if data, err := os.ReadFile(Path()); err == nil {
		if parsed, err := LoadFromBytes(data); err == nil {
			return parsed
		}
	}
	cfg := Default()
	cfg.applyEnvOverrides()
	cfg.clamp()
	return cfg
}

// LoadFromBytes parses a YAML overlay over the defaults. Supports
// ${VAR:-default} expansion inside the document. Env overrides and clamping
// are applied after the overlay.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()

	expanded := expandEnvWithDefaults(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.clamp()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// expandEnvWithDefaults expands ${VAR} and ${VAR:-default} inside a YAML
// document before parsing.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// applyEnvOverrides overlays TOKEN_SAVER_* environment variables. Values
// that fail to parse keep the current setting.
func (c *Config) applyEnvOverrides() {
	bools := map[string]*bool{
		"enabled": &c.Enabled,
		"debug":   &c.Debug,
	}
	for key, dst := range bools {
		if raw, ok := lookupEnv(key); ok {
			*dst = parseBool(raw)
		}
	}

	floats := map[string]*float64{
		"min_compression_ratio": &c.MinCompressionRatio,
	}
	for key, dst := range floats {
		if raw, ok := lookupEnv(key); ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				*dst = v
			}
		}
	}

	ints := map[string]*int{
		"min_input_length":           &c.MinInputLength,
		"chars_per_token":            &c.CharsPerToken,
		"wrap_timeout":               &c.WrapTimeout,
		"max_diff_hunk_lines":        &c.MaxDiffHunkLines,
		"max_diff_context_lines":     &c.MaxDiffContextLines,
		"git_branch_threshold":       &c.GitBranchThreshold,
		"git_stash_threshold":        &c.GitStashThreshold,
		"max_log_entries":            &c.MaxLogEntries,
		"max_traceback_lines":        &c.MaxTracebackLines,
		"max_file_lines":             &c.MaxFileLines,
		"file_keep_head":             &c.FileKeepHead,
		"file_keep_tail":             &c.FileKeepTail,
		"file_code_head_lines":       &c.FileCodeHeadLines,
		"file_code_body_lines":       &c.FileCodeBodyLines,
		"file_log_context_lines":     &c.FileLogContext,
		"file_csv_head_rows":         &c.FileCSVHeadRows,
		"file_csv_tail_rows":         &c.FileCSVTailRows,
		"generic_truncate_threshold": &c.GenericTruncateThreshold,
		"generic_keep_head":          &c.GenericKeepHead,
		"generic_keep_tail":          &c.GenericKeepTail,
		"ls_compact_threshold":       &c.LsCompactThreshold,
		"find_compact_threshold":     &c.FindCompactThreshold,
		"tree_compact_threshold":     &c.TreeCompactThreshold,
		"lint_example_count":         &c.LintExampleCount,
		"lint_group_threshold":       &c.LintGroupThreshold,
		"search_max_per_file":        &c.SearchMaxPerFile,
		"search_max_files":           &c.SearchMaxFiles,
		"kubectl_keep_head":          &c.KubectlKeepHead,
		"kubectl_keep_tail":          &c.KubectlKeepTail,
		"docker_log_keep_head":       &c.DockerLogKeepHead,
		"docker_log_keep_tail":       &c.DockerLogKeepTail,
		"db_max_rows":                &c.DBMaxRows,
		"db_prune_days":              &c.DBPruneDays,
	}
	for key, dst := range ints {
		if raw, ok := lookupEnv(key); ok {
			if v, err := strconv.Atoi(raw); err == nil {
				*dst = v
			}
		}
	}

	// IMPORTANT_KEYS extends the set rather than replacing it: losing the
	// defaults (error, status, ...) would silently gut JSON summaries.
	if raw, ok := lookupEnv("important_keys"); ok {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.ImportantKeys = append(c.ImportantKeys, k)
			}
		}
	}
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + strings.ToUpper(key))
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// clamp pulls out-of-range values back to safe minimums. A bad threshold
// must degrade compression quality, never crash a hook.
func (c *Config) clamp() {
	if c.MinInputLength < 0 {
		c.MinInputLength = 0
	}
	if c.MinCompressionRatio < 0 {
		c.MinCompressionRatio = 0
	}
	if c.MinCompressionRatio > 1 {
		c.MinCompressionRatio = 1
	}
	if c.CharsPerToken < 1 {
		c.CharsPerToken = 1
	}
	if c.WrapTimeout < 1 {
		c.WrapTimeout = 1
	}

	atLeastOne := []*int{
		&c.MaxDiffHunkLines, &c.MaxLogEntries, &c.MaxFileLines,
		&c.FileKeepHead, &c.FileKeepTail, &c.FileCodeHeadLines,
		&c.FileCSVHeadRows, &c.FileCSVTailRows,
		&c.GenericTruncateThreshold, &c.GenericKeepHead, &c.GenericKeepTail,
		&c.LintExampleCount, &c.SearchMaxPerFile, &c.SearchMaxFiles,
		&c.KubectlKeepHead, &c.KubectlKeepTail,
		&c.DockerLogKeepHead, &c.DockerLogKeepTail,
		&c.MaxTracebackLines, &c.DBMaxRows, &c.DBPruneDays,
	}
	for _, v := range atLeastOne {
		if *v < 1 {
			*v = 1
		}
	}

	atLeastZero := []*int{
		&c.MaxDiffContextLines, &c.GitBranchThreshold, &c.GitStashThreshold,
		&c.FileCodeBodyLines, &c.FileLogContext,
		&c.LsCompactThreshold, &c.FindCompactThreshold, &c.TreeCompactThreshold,
		&c.LintGroupThreshold,
	}
	for _, v := range atLeastZero {
		if *v < 0 {
			*v = 0
		}
	}
}

// Validate reports states clamp cannot repair. Kept separate so Load can
// stay infallible while explicit loads still surface mistakes.
func (c *Config) Validate() error {
	if c.GenericKeepHead+c.GenericKeepTail > c.GenericTruncateThreshold {
		return fmt.Errorf(
			"generic_keep_head+generic_keep_tail (%d) exceeds generic_truncate_threshold (%d)",
			c.GenericKeepHead+c.GenericKeepTail, c.GenericTruncateThreshold)
	}
	if c.FileKeepHead+c.FileKeepTail > c.MaxFileLines {
		return fmt.Errorf(
			"file_keep_head+file_keep_tail (%d) exceeds max_file_lines (%d)",
			c.FileKeepHead+c.FileKeepTail, c.MaxFileLines)
	}
	return nil
}
