package rewrite

import "regexp"

var (
	tableRe   = regexp.MustCompile(`(?is)<table\b.*?</table>`)
	divOpenRe = regexp.MustCompile(`(?i)<div\b[^>]*>`)
	divEndRe  = regexp.MustCompile(`(?i)</div\s*>`)
)

// TableCleanup removes div wrappers inside table blocks; the one-div-per-line
// convention of the source breaks cell rendering. Tables are assumed not to
// nest. Content outside tables keeps its divs.
func TableCleanup(content string) string {
	return tableRe.ReplaceAllStringFunc(content, func(table string) string {
		table = divOpenRe.ReplaceAllString(table, "")
		return divEndRe.ReplaceAllString(table, "")
	})
}
