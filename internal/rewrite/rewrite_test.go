package rewrite

import (
	"strings"
	"testing"
)

const evernoteSample = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd">` +
	`<en-note><div>Intro</div><ul><li>one</li></ul><div>Steps</div><ol><li>a</li></ol>` +
	`<div><en-todo checked="true"/>done</div><div><en-todo checked="false" />open</div>` +
	`<div><span style="font-weight: bold;">B</span> <span style="font-style: italic;">I</span> ` +
	`<span style="color: red; font-style: italic; font-weight: bold;">BI</span></div>` +
	`<table><tr><td><div>cell</div></td></tr></table><div>after table</div>` +
	`<div style="box-sizing: border-box; font-family: Monaco;-en-codeblock:true;">` +
	`<div>import x</div><div><br /></div><div>print(x)</div></div>` +
	`<div><en-media hash="0f1e2d" type="image/png" /></div></en-note>`

func TestListSpacing(t *testing.T) {
	got := ListSpacing(`<div>a</div><ul><li>x</li></ul><ol start="2"><li>y</li></ol>`)
	want := `<div>a</div><br /><ul><li>x</li></ul><br /><ol start="2"><li>y</li></ol>`
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestListSpacing_KeepsExistingBreak(t *testing.T) {
	in := `<div>a</div><br/><ul><li>x</li></ul>`
	if got := ListSpacing(in); got != in {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestTaskMarkers_BothForms(t *testing.T) {
	in := `<en-todo checked="true"/>a<en-todo checked="false"/>b<en-todo checked="true" />c<en-todo checked="false" />d`
	want := `<en-todo checked="true"/>[x] a<en-todo checked="false"/>[ ] b<en-todo checked="true"/>[x] c<en-todo checked="false"/>[ ] d`
	if got := TaskMarkers(in); got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestTaskMarkers_DoesNotRematchOwnOutput(t *testing.T) {
	once := TaskMarkers(`<en-todo checked="true" />done`)
	twice := TaskMarkers(once)
	if once != twice {
		t.Errorf("second pass changed output:\n%q\n%q", once, twice)
	}
	if strings.Count(twice, "[x]") != 1 {
		t.Errorf("marker duplicated: %q", twice)
	}
}

func TestEmphasisSpans(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"bold", `<span style="font-weight: bold;">B</span>`, `<span>**B**</span>`},
		{"italic", `<span style="font-style: italic;">I</span>`, `<span>*I*</span>`},
		{"both", `<span style="font-style: italic; font-weight: bold;">BI</span>`, `<span>***BI***</span>`},
		{"extra declarations", `<span style="color: rgb(1, 2, 3); font-weight: bold; font-size: 12px">B</span>`, `<span>**B**</span>`},
		{"numeric weight", `<span style="font-weight: 700">B</span>`, `<span>**B**</span>`},
		{"line break only", `<span style="font-weight: bold;"><br /></span>`, `<br />`},
		{"plain styled span", `<span style="color: red;">x</span>`, `<span style="color: red;">x</span>`},
		{"no style", `<span>x</span>`, `<span>x</span>`},
		{"whitespace outside markers", `<span style="font-weight: bold;"> B </span>`, `<span> **B** </span>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EmphasisSpans(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEmphasisSpans_Adjacent(t *testing.T) {
	in := `<span style="font-weight: bold;">a</span><span style="font-style: italic;">b</span>`
	want := `<span>**a**</span><span>*b*</span>`
	if got := EmphasisSpans(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEmphasisSpans_NestedLeftAlone(t *testing.T) {
	in := `<span style="font-weight: bold;"><span style="font-style: italic;">x</span> y</span>`
	got := EmphasisSpans(in)
	if strings.Contains(got, "**<span") || strings.Contains(got, "*<span") {
		t.Errorf("nested span mis-triggered: %q", got)
	}
}

func TestTableCleanup(t *testing.T) {
	in := `<div>outside</div><table><tr><td><div>a</div><div><div>b</div></div></td></tr></table><div>tail</div>`
	want := `<div>outside</div><table><tr><td>ab</td></tr></table><div>tail</div>`
	if got := TableCleanup(in); got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestCodeBlocks_SentinelForm(t *testing.T) {
	in := `<div>before</div><div style="-en-codeblock: true;"><div>import x</div><div><br /></div><div>print(“x”)</div></div>`
	got := CodeBlocks(in)
	want := "<pre>" + CodeBegin + "\nimport x\n\nprint(&#34;x&#34;)\n" + CodeEnd + "</pre>"
	if !strings.Contains(got, want) {
		t.Errorf("got %q\nwant substring %q", got, want)
	}
	if !strings.Contains(got, "<div>before</div>") {
		t.Errorf("content outside block lost: %q", got)
	}
}

func TestCodeBlocks_NoBlockUnchanged(t *testing.T) {
	in := `<div>plain <b>text</b></div><br />`
	if got := CodeBlocks(in); got != in {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestAttachmentPlaceholders(t *testing.T) {
	in := `<div><en-media hash="ABC" type="image/png" /></div><en-media type="x" hash="def"></en-media><en-media type="none"/>`
	want := `<div><div>ATCHMT:abc</div></div><div>ATCHMT:def</div><en-media type="none"/>`
	if got := AttachmentPlaceholders(in); got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestDefaultChain_StageOrder(t *testing.T) {
	got := strings.Join(Default(true).Names(), ",")
	if got != "lists,tasks,emphasis,tables,codeblocks,attachments" {
		t.Errorf("stages = %s", got)
	}
	if n := len(Default(false).Names()); n != 5 {
		t.Errorf("stdout chain has %d stages, want 5", n)
	}
}

func TestDefaultChain_Idempotent(t *testing.T) {
	for _, withAttachments := range []bool{true, false} {
		chain := Default(withAttachments)
		once := chain.Apply(evernoteSample)
		twice := chain.Apply(once)
		if once != twice {
			t.Errorf("withAttachments=%v: chain not idempotent\nonce:  %q\ntwice: %q", withAttachments, once, twice)
		}
	}
}

func TestDefaultChain_FullSample(t *testing.T) {
	got := Default(true).Apply(evernoteSample)
	for _, want := range []string{
		"<br/><ul>", "<br/><ol>", "[x] done", "[ ] open",
		"**B**", "*I*", "***BI***",
		"<td>cell</td>", "<div>after table</div>",
		CodeBegin, CodeEnd, "ATCHMT:0f1e2d",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
}
