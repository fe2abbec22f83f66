package parser

import (
	"testing"
	"time"

	"github.com/starford/enexmd/internal/markdown"
	"github.com/starford/enexmd/internal/models"
)

func sampleMeta() models.Meta {
	return models.Meta{
		Title:     "Trip plan",
		Created:   time.Date(2019, 1, 1, 10, 0, 0, 0, time.UTC),
		Author:    "Jane",
		SourceURL: "https://example.com/x",
		Tags:      []string{"travel", "2019"},
	}
}

func TestParse_ConvertedNote(t *testing.T) {
	body := "Day one\n\n![map.png](Trip_plan_attachments/map.png)"
	data, err := markdown.Format(sampleMeta(), body, markdown.Options{})
	if err != nil {
		t.Fatal(err)
	}
	r, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Title != "Trip plan" || r.Author != "Jane" || r.SourceURL != "https://example.com/x" {
		t.Errorf("meta = %+v", r)
	}
	if r.Created != "Jan 01 2019 10:00:00 GMT" {
		t.Errorf("created = %q", r.Created)
	}
	if len(r.Tags) != 2 || r.Tags[0] != "travel" || r.Tags[1] != "2019" {
		t.Errorf("tags = %v", r.Tags)
	}
	if r.Body != body {
		t.Errorf("body = %q", r.Body)
	}
	if len(r.Attachments) != 1 || r.Attachments[0] != "Trip_plan_attachments/map.png" {
		t.Errorf("attachments = %v", r.Attachments)
	}
}

func TestParse_WithFrontmatter(t *testing.T) {
	data, err := markdown.Format(sampleMeta(), "x", markdown.Options{Frontmatter: true})
	if err != nil {
		t.Fatal(err)
	}
	r, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Frontmatter == nil || r.Frontmatter["author"] != "Jane" {
		t.Errorf("frontmatter = %v", r.Frontmatter)
	}
	if r.Title != "Trip plan" || r.Body != "x" {
		t.Errorf("result = %+v", r)
	}
}

func TestParse_InvalidFrontmatterFallsBack(t *testing.T) {
	r, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\n# T\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Error("expected nil frontmatter on invalid YAML")
	}
	if r.Title != "T" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_PlainMarkdown(t *testing.T) {
	r, err := Parse([]byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q", r.Title)
	}
	if len(r.Tags) != 0 {
		t.Errorf("tags = %v", r.Tags)
	}
}
