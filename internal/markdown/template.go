// Package markdown renders a converted note into its Markdown file layout.
package markdown

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/enexmd/internal/models"
)

// Section headings of the note template.
const (
	MetadataHeading = "## Note metadata"
	ContentHeading  = "## Note Content"
)

// Options tweaks the rendered file.
type Options struct {
	// Frontmatter prepends a YAML block carrying the metadata.
	Frontmatter bool
}

type frontmatter struct {
	Title     string     `yaml:"title"`
	Created   time.Time  `yaml:"created"`
	Updated   *time.Time `yaml:"updated,omitempty"`
	Author    string     `yaml:"author,omitempty"`
	SourceURL string     `yaml:"source_url,omitempty"`
	Tags      []string   `yaml:"tags"`
}

// Lines returns the fixed note template, one entry per output line.
func Lines(meta models.Meta, body string) []string {
	lines := []string{
		"# " + meta.Title,
		"",
		MetadataHeading,
		"",
	}
	if meta.Author != "" {
		lines = append(lines, "- Created by: "+meta.Author)
	}
	lines = append(lines, "- Created at: "+meta.CreatedDisplay())
	if meta.Updated != nil {
		lines = append(lines, "- Updated at: "+meta.UpdatedDisplay())
	}
	if meta.SourceURL != "" {
		lines = append(lines, "- Source URL: <"+meta.SourceURL+">")
	}
	lines = append(lines,
		"- Tags: "+meta.TagsDisplay(),
		"",
		ContentHeading,
		"",
		body,
	)
	return lines
}

// Format renders the complete file contents, newline-terminated.
func Format(meta models.Meta, body string, opts Options) (string, error) {
	var sb strings.Builder
	if opts.Frontmatter {
		fm, err := yaml.Marshal(frontmatter{
			Title:     meta.Title,
			Created:   meta.Created.UTC(),
			Updated:   utcPtr(meta.Updated),
			Author:    meta.Author,
			SourceURL: meta.SourceURL,
			Tags:      meta.Tags,
		})
		if err != nil {
			return "", fmt.Errorf("markdown: frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n")
	}
	for _, line := range Lines(meta, body) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
