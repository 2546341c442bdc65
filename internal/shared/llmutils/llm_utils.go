package llmutils

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/chartchat/chartchat/internal/schema"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens a string to at most n characters, adding "..." if it was truncated.
// It cuts on a rune boundary so the result stays valid UTF-8.
func Truncate(s string, n int) string {
	if head, cut := runePrefix(s, n); cut {
		return head + "..."
	}
	return s
}

// runePrefix returns the first n runes of s and whether anything was cut.
func runePrefix(s string, n int) (string, bool) {
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return reThink.ReplaceAllString(s, "")
}

// StringOrDefault returns s if it's not empty, or def if s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ToolHint renders a tool call as a short hint, e.g. get_time_series_data("2024-01-01").
func ToolHint(tc schema.ToolCall) string {
	keys := make([]string, 0, len(tc.Arguments))
	for k := range tc.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var firstVal string
	for _, k := range keys {
		if s, ok := tc.Arguments[k].(string); ok {
			firstVal = s
			break
		}
	}
	if firstVal == "" {
		return tc.Name
	}
	if head, cut := runePrefix(firstVal, 40); cut {
		firstVal = head + "…"
	}
	return fmt.Sprintf("%s(%q)", tc.Name, strings.ReplaceAll(firstVal, "\n", " "))
}
