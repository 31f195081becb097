// Package engine orchestrates compression: registry lookup, threshold
// checks, dispatch, and the two-pass fallback protocol.
//
// DESIGN: The engine is stateless after construction. Processors are
// discovered once, sorted by priority, and the generic fallback is cached for
// the cleanup and second-pass paths. Compress never returns an error and
// never panics; the worst outcome is the original output unchanged.
package engine

import (
	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/monitoring"
	"github.com/ppgranger/token-saver/internal/processors"
)

// Result is the outcome of one Compress call.
type Result struct {
	// Text is the compressed output, or the original when Compressed is
	// false.
	Text string
	// Processor names the processor that handled the command ("none" when
	// nothing dispatched, "generic" when the fallback's second pass won).
	Processor string
	// Compressed reports whether Text achieved the configured minimum
	// ratio. Callers must pass the original output through when false.
	Compressed bool
}

// cleaner is the lightweight hygiene pass every specialized result gets:
// escape stripping and blank-line collapsing, never truncation.
type cleaner interface {
	Clean(output string) string
}

// Engine dispatches command output to the first matching processor.
type Engine struct {
	cfg     *config.Config
	log     *monitoring.Logger
	procs   []processors.Processor
	generic processors.Processor
	clean   cleaner
}

// New discovers the processor registry and caches the generic fallback.
// It fails only when the registry violates its ordering contract.
func New(cfg *config.Config, log *monitoring.Logger) (*Engine, error) {
	if log == nil {
		log = monitoring.Nop()
	}
	procs, err := processors.Discover(cfg)
	if err != nil {
		return nil, err
	}

	generic := procs[len(procs)-1]
	return &Engine{
		cfg:     cfg,
		log:     log,
		procs:   procs,
		generic: generic,
		clean:   generic.(cleaner),
	}, nil
}

// Processors exposes the dispatch order for stats and audit tooling.
func (e *Engine) Processors() []processors.Processor {
	return e.procs
}

// Compress rewrites output into a token-efficient form. First-match-wins
// dispatch over the priority-ordered registry; a specialized result gets the
// generic Clean pass; if it misses the minimum ratio, the full generic
// processor gets a second pass over the original output before giving up.
func (e *Engine) Compress(command, output string) Result {
	if !e.cfg.Enabled {
		return Result{Text: output, Processor: "none"}
	}
	if len(output) < e.cfg.MinInputLength {
		return Result{Text: output, Processor: "none"}
	}

	for _, p := range e.procs {
		if !p.CanHandle(command) {
			continue
		}

		compressed := p.Process(command, output)
		if p != e.generic {
			compressed = e.clean.Clean(compressed)
		}

		if gain(output, compressed) >= e.cfg.MinCompressionRatio {
			e.log.Debug().
				Str("processor", p.Name()).
				Int("original", len(output)).
				Int("compressed", len(compressed)).
				Msg("compressed")
			return Result{Text: compressed, Processor: p.Name(), Compressed: true}
		}

		// The specialized processor under-compressed. The generic pass over
		// the original output still captures blank-line and duplicate waste
		// the specialized format logic left alone.
		if p != e.generic {
			second := e.clean.Clean(e.generic.Process(command, output))
			if gain(output, second) >= e.cfg.MinCompressionRatio {
				e.log.Debug().
					Str("processor", p.Name()).
					Int("original", len(output)).
					Int("compressed", len(second)).
					Msg("fallback second pass compressed")
				return Result{Text: second, Processor: e.generic.Name(), Compressed: true}
			}
		}

		return Result{Text: output, Processor: p.Name()}
	}

	// Unreachable while the generic fallback handles everything; kept so a
	// registry with no catch-all still degrades to pass-through.
	return Result{Text: output, Processor: "none"}
}

func gain(original, compressed string) float64 {
	if len(original) == 0 {
		return 0
	}
	return float64(len(original)-len(compressed)) / float64(len(original))
}
