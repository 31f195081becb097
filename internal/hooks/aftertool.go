package hooks

import (
	"github.com/tidwall/gjson"

	"github.com/ppgranger/token-saver/internal/engine"
	"github.com/ppgranger/token-saver/internal/monitoring"
	"github.com/ppgranger/token-saver/internal/platform"
)

// Recorder persists one savings event. Satisfied by *tracker.Tracker; nil
// disables recording.
type Recorder interface {
	RecordSaving(command, processor string, originalSize, compressedSize int, platform string)
}

// AfterTool evaluates a Gemini AfterTool payload. It returns a deny envelope
// carrying the compressed output, "{}" when the original output should pass
// through, or nil when there is nothing to respond to.
func AfterTool(raw []byte, eng *engine.Engine, rec Recorder, log *monitoring.Logger) []byte {
	if log == nil {
		log = monitoring.Nop()
	}
	if !gjson.ValidBytes(raw) {
		log.Debug().Msg("aftertool: invalid JSON payload")
		return nil
	}

	command := platform.Command(raw, platform.GeminiCLI)
	output := platform.ToolOutput(raw)
	if output == "" {
		return nil
	}

	res := eng.Compress(command, output)
	if !res.Compressed {
		return []byte("{}")
	}

	if rec != nil {
		rec.RecordSaving(command, res.Processor, len(output), len(res.Text), string(platform.GeminiCLI))
	}

	out, err := platform.DenyAfterTool(res.Text)
	if err != nil {
		log.Error().Err(err).Msg("aftertool: building deny response failed")
		return []byte("{}")
	}
	return out
}
