package processors

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ppgranger/token-saver/internal/config"
)

// keyMatcher decides which object keys survive depth-limited summarization.
// A key is important when it starts with any configured prefix, compared
// case-insensitively, so "StatusCode" and "NameServers" both qualify.
type keyMatcher struct {
	prefixes []string
}

func newKeyMatcher(keys []string) *keyMatcher {
	if len(keys) == 0 {
		keys = config.DefaultImportantKeys
	}
	m := &keyMatcher{prefixes: make([]string, 0, len(keys))}
	for _, k := range keys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			m.prefixes = append(m.prefixes, k)
		}
	}
	return m
}

func (m *keyMatcher) important(key string) bool {
	key = strings.ToLower(key)
	for _, p := range m.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// deepStringCap bounds string scalars in deep summaries.
const deepStringCap = 200

// summarizeJSONDeep renders a depth-limited, indented view of a parsed JSON
// value. Objects past maxDepth collapse to a key-count placeholder and arrays
// to an item count; important keys recurse at the same depth with one extra
// level of allowance, so their branches stay intact while siblings collapse.
// Array traversal never consumes depth; arrays longer than five elements keep
// the first three plus a count.
func summarizeJSONDeep(v gjson.Result, maxDepth int, keys *keyMatcher) string {
	var b strings.Builder
	writeDeepValue(&b, v, 0, maxDepth, 0, keys)
	return b.String()
}

func writeDeepValue(b *strings.Builder, v gjson.Result, depth, maxDepth, level int, keys *keyMatcher) {
	if depth >= maxDepth {
		switch {
		case v.IsObject():
			writeJSONString(b, fmt.Sprintf("{... %d keys}", countMembers(v)))
		case v.IsArray():
			writeJSONString(b, fmt.Sprintf("[... %d items]", countMembers(v)))
		default:
			writeScalar(b, v)
		}
		return
	}

	switch {
	case v.IsObject():
		type member struct {
			key string
			val gjson.Result
		}
		var members []member
		v.ForEach(func(k, val gjson.Result) bool {
			members = append(members, member{k.String(), val})
			return true
		})
		if len(members) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for i, m := range members {
			writeIndent(b, level+1)
			writeJSONString(b, m.key)
			b.WriteString(": ")
			if keys.important(m.key) {
				writeDeepValue(b, m.val, depth, maxDepth+1, level+1, keys)
			} else {
				writeDeepValue(b, m.val, depth+1, maxDepth, level+1, keys)
			}
			if i < len(members)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		writeIndent(b, level)
		b.WriteByte('}')

	case v.IsArray():
		items := v.Array()
		if len(items) == 0 {
			b.WriteString("[]")
			return
		}
		keep := items
		extra := 0
		if len(items) > 5 {
			keep = items[:3]
			extra = len(items) - 3
		}
		b.WriteString("[\n")
		for i, item := range keep {
			writeIndent(b, level+1)
			writeDeepValue(b, item, depth, maxDepth, level+1, keys)
			if i < len(keep)-1 || extra > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		if extra > 0 {
			writeIndent(b, level+1)
			writeJSONString(b, fmt.Sprintf("... (%d more items)", extra))
			b.WriteByte('\n')
		}
		writeIndent(b, level)
		b.WriteByte(']')

	default:
		writeScalar(b, v)
	}
}

func countMembers(v gjson.Result) int {
	n := 0
	v.ForEach(func(_, _ gjson.Result) bool { n++; return true })
	return n
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}

func writeScalar(b *strings.Builder, v gjson.Result) {
	if v.Type == gjson.String {
		runes := []rune(v.String())
		if len(runes) > deepStringCap {
			writeJSONString(b, string(runes[:deepStringCap-3])+"...")
			return
		}
	}
	if v.Raw == "" {
		b.WriteString("null")
		return
	}
	b.WriteString(v.Raw)
}

func writeJSONString(b *strings.Builder, s string) {
	enc, err := json.Marshal(s)
	if err != nil {
		b.WriteString(strconv.Quote(s))
		return
	}
	b.Write(enc)
}

// compactLimits tunes summarizeJSONCompact per call site: how many array
// elements render without truncation, how many lead a truncated array, and
// the string length cap with its kept prefix.
type compactLimits struct {
	maxInline int
	headItems int
	strMax    int
	strKeep   int
}

// summarizeJSONCompact renders a one-screen structural sketch of a JSON
// value: nested objects past maxDepth become "{N keys}", long arrays keep
// their leading elements plus a total, and long strings are clipped with
// their character count. Unlike summarizeJSONDeep the result is shaped for
// reading, not for re-parsing.
func summarizeJSONCompact(v gjson.Result, depth, maxDepth int, lim compactLimits) string {
	switch {
	case v.IsObject():
		if depth >= maxDepth {
			return fmt.Sprintf("{%d keys}", countMembers(v))
		}
		indent := strings.Repeat("  ", depth)
		var items []string
		v.ForEach(func(k, val gjson.Result) bool {
			items = append(items, fmt.Sprintf("%s  %s: %s",
				indent, quoteKey(k.String()),
				summarizeJSONCompact(val, depth+1, maxDepth, lim)))
			return true
		})
		if len(items) == 0 {
			return "{}"
		}
		return "{\n" + strings.Join(items, ",\n") + "\n" + indent + "}"

	case v.IsArray():
		items := v.Array()
		if len(items) == 0 {
			return "[]"
		}
		if len(items) <= lim.maxInline {
			inner := make([]string, len(items))
			for i, item := range items {
				inner[i] = summarizeJSONCompact(item, depth+1, maxDepth, lim)
			}
			return "[" + strings.Join(inner, ", ") + "]"
		}
		head := make([]string, 0, lim.headItems)
		for _, item := range items[:lim.headItems] {
			head = append(head, summarizeJSONCompact(item, depth+1, maxDepth, lim))
		}
		return fmt.Sprintf("[%s, ... (%d items total)]", strings.Join(head, ", "), len(items))

	case v.Type == gjson.String:
		runes := []rune(v.String())
		if len(runes) > lim.strMax {
			return fmt.Sprintf("%s (%d chars)",
				quoteKey(string(runes[:lim.strKeep])+"..."), len(runes))
		}
		return quoteKey(v.String())

	default:
		if v.Raw == "" {
			return "null"
		}
		return v.Raw
	}
}

func quoteKey(s string) string {
	enc, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(enc)
}
