// Package llm holds helpers for reading structured data out of generative text.
package llm

import (
	"regexp"
	"strings"
)

var (
	// jsonObjectPattern matches the widest {...} span.
	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	// jsonArrayPattern matches the widest [...] span.
	jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSONArray returns the widest bracketed span of content, from the first
// '[' to the last ']', cleaned of comments and trailing commas. It returns ""
// when there is none. The result is not guaranteed to be valid JSON.
func ExtractJSONArray(content string) string {
	if match := jsonArrayPattern.FindString(content); match != "" {
		return cleanJSON(match)
	}
	return ""
}

// ExtractJSON is ExtractJSONArray for objects.
func ExtractJSON(content string) string {
	if match := jsonObjectPattern.FindString(content); match != "" {
		return cleanJSON(match)
	}
	return ""
}

// cleanJSON removes JavaScript-style line comments and trailing commas, which
// models commonly emit.
func cleanJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return trailingCommaPattern.ReplaceAllString(strings.Join(lines, "\n"), "$1")
}

// stripLineComment removes a // comment outside of string values, so
// "url": "http://example.com" is kept intact.
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}

	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
