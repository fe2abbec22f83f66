package mcpserver

// NoteTemplate describes the layout of every converted note, for LLM
// consumers reading the output tree.
const NoteTemplate = `# enexmd Note Template

Every note converted from an ENEX archive is written as one Markdown file
with this fixed layout.

## Structure

` + "```" + `markdown
# <title>

## Note metadata

- Created by: <author>          # only when the note has an author
- Created at: Jan 02 2019 15:04:05 GMT
- Updated at: Jan 03 2019 09:00:00 GMT   # only when the note was updated
- Source URL: <https://...>     # only when the note has a source URL
- Tags: tag-one, tag-two

## Note Content

<body>
` + "```" + `

An optional YAML frontmatter block (title, created, updated, author,
source_url, tags) precedes the heading when the converter runs with
frontmatter enabled.

## Layout on disk

- ` + "`" + `<timestamp>/<archive>/<Note_Title>.md` + "`" + `, one folder per conversion run.
- Titles are reduced to letters, digits and underscores. Notes with the
  same reduced title get ` + "`" + `_1` + "`" + `, ` + "`" + `_2` + "`" + `, ... in archive order.
- Attachments live next to the note in ` + "`" + `<Note_Title>_attachments/` + "`" + ` and are
  linked from the body as ` + "`" + `![file.png](Note_Title_attachments/file.png)` + "`" + `.
- A line ` + "`" + `ATCHMT:<id>` + "`" + ` marks an attachment that could not be written.

## Body conventions

- Task items start with ` + "`" + `[x] ` + "`" + ` or ` + "`" + `[ ] ` + "`" + `.
- Code blocks are fenced with three backticks.
- Bold is ` + "`" + `**text**` + "`" + `, italic ` + "`" + `*text*` + "`" + `.
`
