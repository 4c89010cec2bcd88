// Package hidden parses the in-band [HIDDEN]...[/HIDDEN] markers that gate
// part of a post or reply body behind a react-to-unlock grant.
package hidden

import "strings"

const (
	openMarker  = "[HIDDEN]"
	closeMarker = "[/HIDDEN]"

	// Placeholder substituted for each hidden span in the visible body.
	Placeholder = "[hidden content]"
)

// Contains reports whether the body carries at least one complete hidden span.
func Contains(content string) bool {
	start := strings.Index(content, openMarker)
	if start < 0 {
		return false
	}
	return strings.Contains(content[start+len(openMarker):], closeMarker)
}

// Parse splits a body into its visible text, with every hidden span replaced
// by Placeholder, and the concatenated hidden text, spans joined in order and
// separated by a blank line. An unterminated open marker is left as plain
// text.
func Parse(content string) (visible string, hiddenText string) {
	var visibleParts strings.Builder
	var spans []string
	rest := content
	for {
		start := strings.Index(rest, openMarker)
		if start < 0 {
			visibleParts.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+len(openMarker):], closeMarker)
		if end < 0 {
			visibleParts.WriteString(rest)
			break
		}
		visibleParts.WriteString(rest[:start])
		visibleParts.WriteString(Placeholder)
		spans = append(spans, rest[start+len(openMarker):start+len(openMarker)+end])
		rest = rest[start+len(openMarker)+end+len(closeMarker):]
	}
	return visibleParts.String(), strings.Join(spans, "\n\n")
}
