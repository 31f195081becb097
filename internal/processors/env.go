package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

var (
	envCmdRE = regexp.MustCompile(`^\s*(env|printenv|set)\s*$`)

	envSensitiveRE = regexp.MustCompile(`(?i)(KEY|SECRET|TOKEN|PASSWORD|CREDENTIAL|PRIVATE|AUTH|API_KEY|ACCESS_KEY|AWS_SECRET|DATABASE_URL|MONGODB_URI|REDIS_URL|STRIPE_|TWILIO_|SENDGRID_|GITHUB_TOKEN|NPM_TOKEN|ENCRYPTION|PASSPHRASE|CERTIFICATE|PEM)`)
)

// envSystemPrefixes mark shell and desktop plumbing variables that say
// nothing about the application being worked on.
var envSystemPrefixes = []string{
	"TERM", "SHELL", "USER", "LOGNAME", "HOME", "LANG", "LC_", "SSH_",
	"DISPLAY", "XDG_", "DBUS_", "WINDOWID", "COLORTERM", "SHLVL", "OLDPWD",
	"_", "LESS", "PAGER", "EDITOR", "VISUAL", "MAIL", "MANPATH", "INFOPATH",
	"GPG_", "GNOME_", "GTK_", "QT_", "DESKTOP_", "SESSION_", "KONSOLE_",
	"TERM_PROGRAM", "TMPDIR", "ZDOTDIR", "ZSH", "BASH", "LS_COLORS",
	"LSCOLORS", "HISTSIZE", "HISTFILE", "HISTCONTROL", "SAVEHIST",
	"COMP_WORDBREAKS", "Apple_PubSub", "LaunchInstanceID", "__CF",
	"__CFBundle", "SECURITYSESSION", "COMMAND_MODE",
}

type envProcessor struct {
	cfg *config.Config
}

// NewEnv returns the processor for bare env, printenv, and set. System
// plumbing variables are hidden, secret-looking values are redacted,
// and oversized values (PATH and friends) are truncated.
func NewEnv(cfg *config.Config) Processor {
	return &envProcessor{cfg: cfg}
}

func (p *envProcessor) Name() string { return "env" }

func (p *envProcessor) Priority() int { return 34 }

func (p *envProcessor) CanHandle(command string) bool {
	return envCmdRE.MatchString(command)
}

func (p *envProcessor) HookPatterns() []string {
	return []string{`^(env|printenv|set)\s*$`}
}

func (p *envProcessor) Process(command, output string) string {
	lines := splitLines(output)
	if len(lines) <= 10 {
		return output
	}

	var shown []string
	total, hidden, redacted := 0, 0, 0
	for _, line := range lines {
		name, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(name) == "" {
			continue
		}
		total++
		if isSystemVar(name) {
			hidden++
			continue
		}
		if envSensitiveRE.MatchString(name) {
			shown = append(shown, fmt.Sprintf("  %s=***", name))
			redacted++
			continue
		}
		shown = append(shown, fmt.Sprintf("  %s=%s", name, truncateEnvValue(value)))
	}

	result := []string{fmt.Sprintf("%d environment variables (%d application-relevant):", total, len(shown))}
	result = append(result, shown...)
	if hidden > 0 || redacted > 0 {
		result = append(result, fmt.Sprintf("(%d system vars hidden, %d sensitive values redacted)", hidden, redacted))
	}
	return strings.Join(result, "\n")
}

func isSystemVar(name string) bool {
	for _, prefix := range envSystemPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// truncateEnvValue shortens long values. Colon-separated lists like
// PATH keep their first entries; everything else keeps a prefix.
func truncateEnvValue(value string) string {
	if len(value) <= 200 {
		return value
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return fmt.Sprintf("%s:... (%d total entries)", strings.Join(parts[:3], ":"), len(parts))
	}
	return fmt.Sprintf("%s... (%d chars)", value[:150], len(value))
}
