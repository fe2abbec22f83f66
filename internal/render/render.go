// Package render converts rewritten note HTML into Markdown-ish text.
package render

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// Renderer turns an HTML fragment into Markdown text.
type Renderer interface {
	Render(content string) (string, error)
}

// Flags controls the rendering output.
type Flags struct {
	// SingleLineBreaks ends each div with one newline instead of a paragraph break.
	SingleLineBreaks bool `yaml:"single_line_breaks"`
	// InlineLinks emits [text](url). Reference-style links are not supported.
	InlineLinks bool `yaml:"inline_links"`
	// AutomaticLinks allows <url> for links whose text equals their target.
	AutomaticLinks bool `yaml:"automatic_links"`
	// WrapWidth of 0 disables wrapping, the only supported value.
	WrapWidth int `yaml:"wrap_width"`
	// EmphasisMarker is "*" or "_".
	EmphasisMarker string `yaml:"emphasis_marker"`
}

// DefaultFlags returns the flag set notes are converted with.
func DefaultFlags() Flags {
	return Flags{
		SingleLineBreaks: true,
		InlineLinks:      true,
		AutomaticLinks:   false,
		WrapWidth:        0,
		EmphasisMarker:   "*",
	}
}

// HTMLToMarkdown is the Renderer backed by html-to-markdown.
type HTMLToMarkdown struct {
	flags Flags
	conv  *converter.Converter
}

// New builds a renderer for the given flags.
func New(flags Flags) *HTMLToMarkdown {
	marker := flags.EmphasisMarker
	if marker == "" {
		marker = "*"
	}

	conv := converter.NewConverter(
		converter.WithEscapeMode(converter.EscapeModeDisabled),
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithEmDelimiter(marker),
				commonmark.WithStrongDelimiter(marker+marker),
			),
			table.NewTablePlugin(),
		),
	)

	r := &HTMLToMarkdown{flags: flags, conv: conv}

	// Code blocks are emitted indented, one line per source line; the
	// post-processor strips the indent and swaps the sentinels for fences.
	conv.Register.RendererFor("pre", converter.TagTypeBlock, r.renderPre, converter.PriorityEarly)

	if flags.SingleLineBreaks {
		conv.Register.RendererFor("div", converter.TagTypeBlock, r.renderDiv, converter.PriorityEarly)
	}
	if !flags.AutomaticLinks {
		conv.Register.RendererFor("a", converter.TagTypeInline, r.renderLink, converter.PriorityEarly)
	}
	return r
}

// Render converts content. The result still carries renderer artifacts
// (indentation, blank-line runs) that the post-processor removes.
func (r *HTMLToMarkdown) Render(content string) (string, error) {
	out, err := r.conv.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return out, nil
}

func (r *HTMLToMarkdown) renderPre(_ converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	w.WriteString("\n\n")
	for _, line := range strings.Split(textOf(n), "\n") {
		w.WriteString("    " + line + "\n")
	}
	w.WriteString("\n")
	return converter.RenderSuccess
}

func (r *HTMLToMarkdown) renderDiv(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	ctx.RenderChildNodes(ctx, w, n)
	w.WriteString("\n")
	return converter.RenderSuccess
}

// renderLink keeps links whose text equals the target in [url](url) form
// instead of collapsing them to <url>.
func (r *HTMLToMarkdown) renderLink(_ converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	href := strings.TrimSpace(dom.GetAttributeOr(n, "href", ""))
	text := strings.TrimSpace(textOf(n))
	if href == "" || text != href {
		return converter.RenderTryNext
	}
	w.WriteString("[" + text + "](" + href + ")")
	return converter.RenderSuccess
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}
