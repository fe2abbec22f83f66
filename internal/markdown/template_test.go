package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/enexmd/internal/models"
)

func fullMeta() models.Meta {
	updated := time.Date(2019, 2, 2, 13, 14, 15, 0, time.UTC)
	return models.Meta{
		Title:     "Shopping list",
		Created:   time.Date(2019, 1, 1, 10, 11, 12, 0, time.UTC),
		Updated:   &updated,
		Author:    "Jane",
		SourceURL: "https://example.com",
		Tags:      []string{"home", "errands"},
	}
}

func TestFormat_FullTemplate(t *testing.T) {
	got, err := Format(fullMeta(), "Milk", Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"# Shopping list",
		"",
		"## Note metadata",
		"",
		"- Created by: Jane",
		"- Created at: Jan 01 2019 10:11:12 GMT",
		"- Updated at: Feb 02 2019 13:14:15 GMT",
		"- Source URL: <https://example.com>",
		"- Tags: home, errands",
		"",
		"## Note Content",
		"",
		"Milk",
		"",
	}, "\n")
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormat_OptionalLinesOmitted(t *testing.T) {
	meta := models.Meta{Title: "Bare", Created: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	got, err := Format(meta, "", Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, absent := range []string{"Created by", "Updated at", "Source URL"} {
		if strings.Contains(got, absent) {
			t.Errorf("unexpected %q in:\n%s", absent, got)
		}
	}
	if !strings.Contains(got, "- Tags: \n") {
		t.Errorf("tags line missing:\n%s", got)
	}
}

func TestFormat_Frontmatter(t *testing.T) {
	got, err := Format(fullMeta(), "body", Options{Frontmatter: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "---\ntitle: Shopping list\n") {
		t.Errorf("frontmatter missing:\n%s", got)
	}
	if !strings.Contains(got, "source_url: https://example.com") || !strings.Contains(got, "- errands") {
		t.Errorf("frontmatter incomplete:\n%s", got)
	}
	if !strings.Contains(got, "---\n# Shopping list\n") {
		t.Errorf("template should follow frontmatter:\n%s", got)
	}
}
