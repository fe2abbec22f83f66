package rewrite

import (
	"regexp"
	"strings"
)

// PlaceholderPrefix marks an unresolved attachment reference in note content.
const PlaceholderPrefix = "ATCHMT:"

var (
	mediaRe     = regexp.MustCompile(`(?is)<en-media\b([^>]*?)/?>(?:\s*</en-media\s*>)?`)
	mediaHashRe = regexp.MustCompile(`(?is)\bhash\s*=\s*"([^"]*)"`)
)

// Placeholder returns the token standing in for the attachment with the given reference id.
func Placeholder(ref string) string {
	return PlaceholderPrefix + ref
}

// AttachmentPlaceholders swaps every media reference for a placeholder token
// on its own line. References without a hash attribute are left in place.
func AttachmentPlaceholders(content string) string {
	return mediaRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := mediaRe.FindStringSubmatch(m)
		hash := mediaHashRe.FindStringSubmatch(sub[1])
		if hash == nil || strings.TrimSpace(hash[1]) == "" {
			return m
		}
		return "<div>" + Placeholder(strings.ToLower(strings.TrimSpace(hash[1]))) + "</div>"
	})
}
