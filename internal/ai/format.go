package ai

import (
	"regexp"
	"strings"
)

// FormatParagraphs wraps each non-empty line of raw transcript or
// translation output in a paragraph tag. Blank lines are dropped, leading
// and trailing whitespace on each line is trimmed. Deterministic: the same
// input always yields the same output, so formatted text is safe to persist
// as a cached artifact.
func FormatParagraphs(raw string) string {
	lines := strings.Split(raw, "\n")

	var b strings.Builder
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(line)
		b.WriteString("</p>")
	}

	return b.String()
}

var paragraphClose = regexp.MustCompile(`</p>\s*`)
var paragraphOpen = regexp.MustCompile(`<p>`)

// PlainText reverses FormatParagraphs: paragraph tags become newlines so the
// text can be fed to speech synthesis.
func PlainText(formatted string) string {
	s := paragraphClose.ReplaceAllString(formatted, "\n")
	s = paragraphOpen.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
