package llm

import "strings"

// CleanJSONBlock strips markdown fences and any chatter around the first JSON
// object or array in a model response. Models add both even when the response
// MIME type is JSON.
func CleanJSONBlock(text string) string {
	text = stripFence(strings.TrimSpace(text))

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	var body string
	if text[start] == '{' {
		body = extractJSONObject(text[start:])
	} else {
		body = extractJSONArray(text[start:])
	}
	if body == "" {
		// Unbalanced: hand the remainder to the decoder so it reports the error.
		return strings.TrimSpace(text[start:])
	}
	return body
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop a language tag such as "json" on the opening line.
	if idx := strings.Index(text, "\n"); idx >= 0 {
		first := text[:idx]
		if len(first) < 20 && !strings.ContainsAny(first, " {[") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func extractJSONObject(s string) string {
	return extractBalanced(s, '{', '}')
}

func extractJSONArray(s string) string {
	return extractBalanced(s, '[', ']')
}

// extractBalanced returns the prefix of s that closes the bracket s starts
// with, honouring JSON string escapes. It returns "" when s does not start
// with open or never closes it.
func extractBalanced(s string, open, close byte) string {
	if s == "" || s[0] != open {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
