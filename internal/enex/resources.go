package enex

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/checksum"
	"github.com/starford/enexmd/internal/models"
)

var preferredExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"application/pdf": ".pdf",
	"audio/wav":       ".wav",
	"audio/mpeg":      ".mp3",
	"text/plain":      ".txt",
}

// ExtractAttachments decodes the resources of note into attachments, in
// document order. Decode failures are recorded on the attachment itself and
// never returned, so one broken resource cannot fail the note.
func ExtractAttachments(note models.RawNote) []models.Attachment {
	out := make([]models.Attachment, 0, len(note.Resources))
	for i, res := range note.Resources {
		att := models.Attachment{
			MimeType:    res.Mime,
			ReferenceID: strings.ToLower(res.Hash),
		}

		data, err := decodePayload(res.Data)
		if err != nil {
			att.Err = fmt.Errorf("%w: %v", apperr.ErrDecode, err)
		} else {
			att.Bytes = data
			if att.ReferenceID == "" {
				att.ReferenceID = checksum.MD5(data)
			}
		}

		att.DeclaredFilename = attachmentFilename(res.FileName, att.ReferenceID, res.Mime, i)
		out = append(out, att)
	}
	return out
}

// decodePayload strips the line breaks the export embeds into base64 data.
func decodePayload(raw string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if clean == "" {
		return nil, fmt.Errorf("empty payload")
	}
	return base64.StdEncoding.DecodeString(clean)
}

// attachmentFilename keeps the declared name when it is a plain file name and
// otherwise derives one from the reference id and MIME type.
func attachmentFilename(declared, ref, mimeType string, idx int) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(declared), "\\", "/"))
	if name != "" && name != "." && name != ".." && name != "/" {
		return name
	}
	if ref == "" {
		ref = fmt.Sprintf("attachment_%d", idx+1)
	}
	return ref + extensionFor(mimeType)
}

func extensionFor(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if ext, ok := preferredExt[mimeType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	sort.Strings(exts)
	return exts[0]
}
