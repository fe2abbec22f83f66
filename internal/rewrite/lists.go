package rewrite

import (
	"regexp"
	"strings"
)

var listOpenRe = regexp.MustCompile(`(?i)(?:<br\s*/?>)?<(?:ul|ol)\b[^>]*>`)

// ListSpacing puts a line break in front of every list opening tag so the
// renderer does not merge a preceding paragraph into the list. Lists that
// already follow a line break are left alone.
func ListSpacing(content string) string {
	return listOpenRe.ReplaceAllStringFunc(content, func(m string) string {
		if strings.HasPrefix(strings.ToLower(m), "<br") {
			return m
		}
		return "<br />" + m
	})
}
