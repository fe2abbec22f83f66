package enex

import (
	"errors"
	"testing"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/models"
)

func TestExtractAttachments_StripsLineBreaks(t *testing.T) {
	note := models.RawNote{Resources: []models.Resource{
		{FileName: "a.png", Mime: "image/png", Data: "aGVs\nbG8=\r\n"},
	}}
	atts := ExtractAttachments(note)
	if len(atts) != 1 {
		t.Fatalf("len = %d", len(atts))
	}
	a := atts[0]
	if a.Err != nil {
		t.Fatalf("unexpected decode error: %v", a.Err)
	}
	if string(a.Bytes) != "hello" {
		t.Errorf("bytes = %q", a.Bytes)
	}
	if a.ReferenceID != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("reference id = %q", a.ReferenceID)
	}
	if a.MimeType != "image/png" {
		t.Errorf("mime = %q", a.MimeType)
	}
}

func TestExtractAttachments_DeclaredHashWins(t *testing.T) {
	note := models.RawNote{Resources: []models.Resource{
		{FileName: "a.bin", Mime: "application/octet-stream", Data: "aGVsbG8=", Hash: "ABCDEF"},
	}}
	atts := ExtractAttachments(note)
	if atts[0].ReferenceID != "abcdef" {
		t.Errorf("reference id = %q, want declared hash", atts[0].ReferenceID)
	}
}

func TestExtractAttachments_DecodeFailureIsScoped(t *testing.T) {
	note := models.RawNote{Resources: []models.Resource{
		{FileName: "bad.png", Mime: "image/png", Data: "!!!not base64"},
		{FileName: "good.txt", Mime: "text/plain", Data: "aGVsbG8="},
	}}
	atts := ExtractAttachments(note)
	if len(atts) != 2 {
		t.Fatalf("len = %d", len(atts))
	}
	if !errors.Is(atts[0].Err, apperr.ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", atts[0].Err)
	}
	if atts[1].Err != nil || string(atts[1].Bytes) != "hello" {
		t.Errorf("second attachment should decode: %+v", atts[1])
	}
}

func TestAttachmentFilename_Fallback(t *testing.T) {
	if got := attachmentFilename("", "abc", "image/png", 0); got != "abc.png" {
		t.Errorf("got %q", got)
	}
	if got := attachmentFilename("../../etc/passwd", "abc", "text/plain", 0); got != "passwd" {
		t.Errorf("got %q", got)
	}
	if got := attachmentFilename("", "", "application/pdf", 2); got != "attachment_3.pdf" {
		t.Errorf("got %q", got)
	}
}
