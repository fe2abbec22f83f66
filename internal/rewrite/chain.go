// Package rewrite normalizes the note-content HTML dialect before rendering.
//
// The chain is a fixed sequence of string-to-string stages. Later stages
// assume the normal form produced by earlier ones, and every stage leaves
// its own output untouched when applied again, so running the chain twice
// yields the same content as running it once.
package rewrite

// Stage is one named rewrite step.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Chain applies its stages in order.
type Chain struct {
	stages []Stage
}

// NewChain builds a chain from the given stages.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Default returns the standard chain. Attachment placeholders are only
// substituted when the note is going to be written to disk.
func Default(withAttachments bool) *Chain {
	stages := []Stage{
		{Name: "lists", Apply: ListSpacing},
		{Name: "tasks", Apply: TaskMarkers},
		{Name: "emphasis", Apply: EmphasisSpans},
		{Name: "tables", Apply: TableCleanup},
		{Name: "codeblocks", Apply: CodeBlocks},
	}
	if withAttachments {
		stages = append(stages, Stage{Name: "attachments", Apply: AttachmentPlaceholders})
	}
	return NewChain(stages...)
}

// Apply runs every stage over content.
func (c *Chain) Apply(content string) string {
	for _, s := range c.stages {
		content = s.Apply(content)
	}
	return content
}

// Names lists the stage names in execution order.
func (c *Chain) Names() []string {
	out := make([]string, 0, len(c.stages))
	for _, s := range c.stages {
		out = append(out, s.Name)
	}
	return out
}
