package rewrite

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	spanRe  = regexp.MustCompile(`(?is)<span\b([^>]*)>(.*?)</span>`)
	styleRe = regexp.MustCompile(`(?is)\bstyle\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	brOnly  = regexp.MustCompile(`(?i)^\s*<br\s*/?>\s*$`)
)

// EmphasisSpans turns inline-styled spans into Markdown emphasis.
//
// Matching is done on span boundaries in the text, not on a tree, so spans
// are assumed not to nest. A match whose content opens another span is left
// untouched rather than guessed at. Spans without a style attribute, which
// includes this function's own output, are never rewritten.
func EmphasisSpans(content string) string {
	return spanRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := spanRe.FindStringSubmatch(m)
		attrs, inner := sub[1], sub[2]

		style, ok := styleAttr(attrs)
		if !ok {
			return m
		}
		if strings.Contains(strings.ToLower(inner), "<span") {
			return m
		}
		if brOnly.MatchString(inner) {
			return "<br />"
		}

		italic, bold := parseEmphasis(style)
		var marker string
		switch {
		case italic && bold:
			marker = "***"
		case bold:
			marker = "**"
		case italic:
			marker = "*"
		default:
			return m
		}

		core := strings.TrimSpace(inner)
		if core == "" {
			return inner
		}
		lead := inner[:strings.Index(inner, core)]
		trail := inner[len(lead)+len(core):]
		return "<span>" + lead + marker + core + marker + trail + "</span>"
	})
}

func styleAttr(attrs string) (string, bool) {
	sub := styleRe.FindStringSubmatch(attrs)
	if sub == nil {
		return "", false
	}
	if sub[1] != "" {
		return sub[1], true
	}
	return sub[2], true
}

// parseEmphasis reads font-style and font-weight from a style declaration
// list, ignoring every other property.
func parseEmphasis(style string) (italic, bold bool) {
	for _, decl := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))

		switch prop {
		case "font-style":
			italic = value == "italic" || value == "oblique"
		case "font-weight":
			if value == "bold" || value == "bolder" {
				bold = true
			} else if n, err := strconv.Atoi(value); err == nil {
				bold = n >= 600
			} else {
				bold = false
			}
		}
	}
	return italic, bold
}
