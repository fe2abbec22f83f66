package rewrite

import "regexp"

// todoRe matches the self-closing task tag in spaced and unspaced form,
// together with a marker left by an earlier pass.
var todoRe = regexp.MustCompile(`<en-todo(?:\s+checked="(true|false)")?\s*/>(\[[x ]\] )?`)

// TaskMarkers appends a literal checkbox after every task tag. The tag
// itself is kept, normalized to its unspaced form.
func TaskMarkers(content string) string {
	return todoRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := todoRe.FindStringSubmatch(m)
		if sub[1] == "true" {
			return `<en-todo checked="true"/>[x] `
		}
		return `<en-todo checked="false"/>[ ] `
	})
}
