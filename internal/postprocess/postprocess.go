// Package postprocess normalizes renderer output into the final Markdown body.
package postprocess

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/starford/enexmd/internal/rewrite"
)

const fence = "```"

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Process cleans up renderer output line by line, then collapses blank-line
// runs and trims the document.
func Process(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, normalizeLine(line))
	}

	text = strings.Join(out, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.Trim(text, "\n")
}

func normalizeLine(line string) string {
	line = strings.TrimRightFunc(line, unicode.IsSpace)

	// Leftover markers from emphasis the renderer could not attach to text.
	if line == "**" || line == " **" {
		return ""
	}

	line = strings.TrimPrefix(line, "    ")

	if line == rewrite.CodeBegin || line == rewrite.CodeEnd {
		return fence
	}
	return line
}
