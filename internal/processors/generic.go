package processors

import (
	"fmt"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
)

// Generic is the fallback processor. It knows nothing about any command; it
// applies format-agnostic hygiene (escape stripping, whitespace, duplicate
// collapsing) plus head/tail truncation of very long output. The engine also
// uses its Clean method to finish every specialized processor's result.
type Generic struct {
	cfg *config.Config
}

// NewGeneric returns the fallback processor. Discover places it last.
func NewGeneric(cfg *config.Config) Processor {
	return &Generic{cfg: cfg}
}

func (p *Generic) Name() string { return "generic" }

func (p *Generic) Priority() int { return GenericPriority }

func (p *Generic) CanHandle(string) bool { return true }

func (p *Generic) HookPatterns() []string { return nil }

func (p *Generic) Process(command, output string) string {
	lines := splitLines(stripANSI(output))
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}

	kept := lines[:0]
	for _, line := range lines {
		if isProgressBarLine(line) {
			continue
		}
		kept = append(kept, line)
	}

	kept = collapseExactRuns(kept)
	kept = collapseNumericRuns(kept)
	kept = collapseBlankLines(kept)

	if len(kept) > p.cfg.GenericTruncateThreshold {
		head, tail := p.cfg.GenericKeepHead, p.cfg.GenericKeepTail
		omitted := len(kept) - head - tail
		truncated := make([]string, 0, head+tail+1)
		truncated = append(truncated, kept[:head]...)
		truncated = append(truncated, fmt.Sprintf("... (%d lines truncated) ...", omitted))
		truncated = append(truncated, kept[len(kept)-tail:]...)
		kept = truncated
	}

	return strings.Join(kept, "\n")
}

// Clean applies only escape stripping, trailing-whitespace removal, and
// blank-line collapsing. Never truncation or deduplication: it must be safe
// to run on any specialized processor's already-shaped result.
func (p *Generic) Clean(output string) string {
	lines := splitLines(stripANSI(output))
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(collapseBlankLines(lines), "\n")
}
