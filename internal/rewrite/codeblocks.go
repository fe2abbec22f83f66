package rewrite

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinel lines delimiting a detected code block. The post-processor turns
// them into fence lines after rendering.
const (
	CodeBegin = "code-begin-code-begin-code-begin"
	CodeEnd   = "code-end-code-end-code-end"
)

var codeChars = strings.NewReplacer("“", `"`, "”", `"`, "\u00a0", " ")

// CodeBlocks finds containers styled as code blocks and replaces each with a
// <pre> holding one line per child div, wrapped in the sentinel lines.
// Content without code blocks is returned byte-for-byte unchanged.
func CodeBlocks(content string) string {
	if !strings.Contains(strings.ToLower(content), "-en-codeblock") {
		return content
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return content
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	var blocks []*html.Node
	collectCodeBlocks(body, &blocks)
	if len(blocks) == 0 {
		return content
	}

	for _, block := range blocks {
		pre := &html.Node{Type: html.ElementNode, Data: "pre", DataAtom: atom.Pre}
		pre.AppendChild(&html.Node{Type: html.TextNode, Data: codeText(block)})
		block.Parent.InsertBefore(pre, block)
		block.Parent.RemoveChild(block)
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return content
		}
	}
	return buf.String()
}

// collectCodeBlocks gathers code-block containers without descending into them.
func collectCodeBlocks(n *html.Node, out *[]*html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && isCodeBlock(c) {
			*out = append(*out, c)
			continue
		}
		collectCodeBlocks(c, out)
	}
}

func isCodeBlock(n *html.Node) bool {
	style := strings.ToLower(dom.GetAttributeOr(n, "style", ""))
	style = strings.Join(strings.Fields(style), "")
	return strings.Contains(style, "-en-codeblock:true")
}

// codeText renders the block as sentinel-delimited lines, one per leaf div.
func codeText(block *html.Node) string {
	lines := []string{CodeBegin}

	var leaves []*html.Node
	collectLeafDivs(block, &leaves)
	if len(leaves) == 0 {
		lines = append(lines, strings.Split(textOf(block), "\n")...)
	}
	for _, leaf := range leaves {
		lines = append(lines, textOf(leaf))
	}

	lines = append(lines, CodeEnd)
	return codeChars.Replace(strings.Join(lines, "\n"))
}

func collectLeafDivs(n *html.Node, out *[]*html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dom.NodeName(c) == "div" && !hasDescendantDiv(c) {
			*out = append(*out, c)
			continue
		}
		collectLeafDivs(c, out)
	}
}

func hasDescendantDiv(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dom.NodeName(c) == "div" || hasDescendantDiv(c) {
			return true
		}
	}
	return false
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
