package domain

import "strings"

var slugReplacer = strings.NewReplacer(" ", "-", "/", "-", "\\", "-")

// Sanitize converts a title into a filesystem-safe slug.
//
// It trims surrounding whitespace, replaces spaces and both path
// separators with hyphens and lower-cases the result. Nothing else is
// changed: distinct titles may produce the same slug and will then share
// a file on disk.
func Sanitize(title string) string {
	return strings.ToLower(slugReplacer.Replace(strings.TrimSpace(title)))
}
