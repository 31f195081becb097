package hooks

import "github.com/tidwall/sjson"

// SessionMessage builds the SessionStart response shown to the user. A
// non-empty update notice is appended to the stats line.
func SessionMessage(stats, update string) []byte {
	msg := stats
	if update != "" {
		msg = stats + " | " + update
	}
	out, err := sjson.Set("{}", "systemMessage", msg)
	if err != nil {
		return nil
	}
	return []byte(out)
}
