// Package parser reads converted note files back into their metadata and body.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/enexmd/internal/markdown"
)

var attachmentLinkRe = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+_attachments/[^)\s]+)\)`)

// Result holds the output of parsing a converted note.
type Result struct {
	Frontmatter map[string]any
	Title       string
	Author      string
	Created     string
	Updated     string
	SourceURL   string
	Tags        []string
	Body        string
	Attachments []string
}

// Parse splits a converted note into frontmatter, template metadata and body.
// Files that do not follow the note template yield their whole text as body.
func Parse(data []byte) (*Result, error) {
	fm, rest := splitFrontmatter(data)
	res := &Result{Frontmatter: fm}

	meta, body, ok := strings.Cut(rest, markdown.ContentHeading+"\n")
	if !ok {
		meta, body = rest, rest
	}
	res.Body = strings.TrimSpace(body)
	res.Attachments = extractAttachments(res.Body)

	for _, line := range strings.Split(meta, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "# ") && res.Title == "":
			res.Title = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "- Created by: "):
			res.Author = strings.TrimPrefix(line, "- Created by: ")
		case strings.HasPrefix(line, "- Created at: "):
			res.Created = strings.TrimPrefix(line, "- Created at: ")
		case strings.HasPrefix(line, "- Updated at: "):
			res.Updated = strings.TrimPrefix(line, "- Updated at: ")
		case strings.HasPrefix(line, "- Source URL: "):
			res.SourceURL = strings.Trim(strings.TrimPrefix(line, "- Source URL: "), "<>")
		case strings.HasPrefix(line, "- Tags:"):
			res.Tags = splitTags(strings.TrimPrefix(line, "- Tags:"))
		}
	}

	if t, ok := fm["title"].(string); ok && t != "" {
		res.Title = t
	}
	if len(res.Tags) == 0 {
		res.Tags = frontmatterTags(fm)
	}
	return res, nil
}

// splitFrontmatter separates a leading YAML block from the rest. Invalid
// YAML is treated as part of the document.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim+"\n"))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	return fm, string(rest[idx+len(delim)+2:])
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func frontmatterTags(fm map[string]any) []string {
	raw, ok := fm["tags"].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func extractAttachments(body string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range attachmentLinkRe.FindAllStringSubmatch(body, -1) {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}
