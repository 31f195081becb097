package processors

import (
	"sort"
	"strings"
)

// splitLines splits on newlines the way line-oriented scanners expect:
// \r\n is treated as \n, and a single trailing newline does not produce a
// final empty element.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// countLines returns the number of lines splitLines would produce.
func countLines(s string) int {
	return len(splitLines(s))
}

// lastField returns the final whitespace-separated field of a line, or "".
func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// dirOf splits a path into its directory ("." when bare) and file name.
func dirOf(path string) (dir, file string) {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i], path[i+1:]
	}
	return ".", path
}

// sortedKeys returns map keys in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
