// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock strips the noise models wrap around JSON payloads: markdown
// code fences, conversational preambles, and trailing chatter. Verdict
// responses are parsed with this before unmarshaling.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// No fences. Pull out the first balanced object or array so preambles
	// ("Here is the JSON:") and trailing chatter do not break unmarshaling.
	// Whichever delimiter appears first wins, so an array of objects is
	// returned whole.
	objStart := strings.IndexByte(text, '{')
	arrStart := strings.IndexByte(text, '[')
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if extracted := extractDelimited(text, '[', ']'); extracted != "" {
			return extracted
		}
	}
	if extracted := extractDelimited(text, '{', '}'); extracted != "" {
		return extracted
	}
	if extracted := extractDelimited(text, '[', ']'); extracted != "" {
		return extracted
	}
	return text
}

// ExtractJSONObject returns the first balanced JSON object in text, or ""
// when none is found.
func ExtractJSONObject(text string) string {
	return extractDelimited(text, '{', '}')
}

// extractDelimited returns the first balanced open..close span, tracking
// string literals so delimiters inside values do not affect the depth count.
func extractDelimited(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
