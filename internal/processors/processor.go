// Package processors implements format-specific compression strategies for
// command output.
//
// DESIGN: Each processor handles one output family (git, test runners, build
// tools, ...) and exposes CanHandle/Process. The registry orders processors
// by ascending priority; dispatch is first-match-wins, so more specific
// formats carry lower priority numbers than the generic catch-all, which is
// always last.
//
// Pattern tables are compiled once at package init and never mutated.
// Processors hold only the immutable Config, so concurrent Process calls
// need no locking. Process never panics and never errors: unrecognized input
// comes back unchanged and the engine's fallback chain takes over.
package processors

import (
	"fmt"
	"sort"

	"github.com/ppgranger/token-saver/internal/config"
)

// Processor compresses one family of command output.
type Processor interface {
	// Name identifies the processor in results and savings records.
	Name() string

	// Priority determines dispatch order (lower = earlier). Unique across
	// the registry.
	Priority() int

	// CanHandle reports whether this processor recognizes the command.
	// Must be a pure predicate.
	CanHandle(command string) bool

	// Process compresses the output. On a format mismatch it returns the
	// input unchanged.
	Process(command, output string) string

	// HookPatterns returns command regexes the PreToolUse hook uses to
	// decide which commands are worth wrapping.
	HookPatterns() []string
}

// GenericPriority sorts the fallback after every specialized processor.
const GenericPriority = 999

// Discover returns all processors sorted ascending by priority. It fails
// fast when two processors share a priority or when the highest-priority
// entry is not the generic fallback, since the engine's dispatch contract
// depends on both.
func Discover(cfg *config.Config) ([]Processor, error) {
	procs := []Processor{
		NewPackageList(cfg),
		NewGit(cfg),
		NewTest(cfg),
		NewBuild(cfg),
		NewLint(cfg),
		NewNetwork(cfg),
		NewDocker(cfg),
		NewKubectl(cfg),
		NewTerraform(cfg),
		NewEnv(cfg),
		NewSearch(cfg),
		NewSystemInfo(cfg),
		NewGH(cfg),
		NewDBQuery(cfg),
		NewCloudCLI(cfg),
		NewFileListing(cfg),
		NewFileContent(cfg),
		NewGeneric(cfg),
	}

	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].Priority() < procs[j].Priority()
	})

	seen := make(map[int]string, len(procs))
	for _, p := range procs {
		if other, ok := seen[p.Priority()]; ok {
			return nil, fmt.Errorf("duplicate processor priority %d: %s and %s",
				p.Priority(), other, p.Name())
		}
		seen[p.Priority()] = p.Name()
	}

	if _, ok := procs[len(procs)-1].(*Generic); !ok {
		last := procs[len(procs)-1]
		return nil, fmt.Errorf("generic fallback must sort last, got %s (priority %d)",
			last.Name(), last.Priority())
	}

	return procs, nil
}

// CollectHookPatterns gathers every processor's hook patterns. The generic
// fallback contributes none: wrapping every command would be wasteful, so
// only commands a specialized processor recognizes get rewritten.
func CollectHookPatterns(cfg *config.Config) []string {
	procs, err := Discover(cfg)
	if err != nil {
		return nil
	}
	var patterns []string
	for _, p := range procs {
		patterns = append(patterns, p.HookPatterns()...)
	}
	return patterns
}
