// Package frontmatter renders and reads the metadata header written at
// the top of every discussion document.
//
// The rendered header has a fixed layout:
//
//	---
//	title: "<title>"
//	date: "<updated_at>"
//	draft: false
//	discussion_id: "<id>"
//	---
//
// followed by a blank line and the raw body. Values are not escaped, so
// a title containing a double quote yields a header that is not valid
// YAML. Parse tolerates that case for the fields it needs.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
)

const delimiter = "---"

// ErrNoHeader indicates the content does not start with a header block.
var ErrNoHeader = errors.New("frontmatter: missing header block")

// Header is the metadata block of a document.
type Header struct {
	Title        string `yaml:"title"`
	Date         string `yaml:"date"`
	Draft        bool   `yaml:"draft"`
	DiscussionID string `yaml:"discussion_id"`
}

// Render produces the full document content for d.
func Render(d domain.Discussion) string {
	var sb strings.Builder
	sb.Grow(len(d.Title) + len(d.UpdatedAt) + len(d.ID) + len(d.Body) + 72)

	sb.WriteString(delimiter + "\n")
	sb.WriteString(`title: "` + d.Title + "\"\n")
	sb.WriteString(`date: "` + d.UpdatedAt + "\"\n")
	sb.WriteString("draft: false\n")
	sb.WriteString(`discussion_id: "` + d.ID + "\"\n")
	sb.WriteString(delimiter + "\n")
	sb.WriteString("\n")
	sb.WriteString(d.Body)

	return sb.String()
}

// Parse splits content into its header and body.
//
// The header is decoded as YAML. When that fails (unescaped quotes in a
// title) the fields are recovered line by line; an error is returned
// only if no discussion_id can be found either way.
func Parse(content string) (Header, string, error) {
	raw, body, ok := split(content)
	if !ok {
		return Header{}, "", ErrNoHeader
	}

	var h Header
	err := yaml.Unmarshal([]byte(raw), &h)
	if err == nil {
		return h, body, nil
	}
	if recovered, ok := scanLines(raw); ok {
		return recovered, body, nil
	}
	return Header{}, "", fmt.Errorf("frontmatter: decode header: %w", err)
}

// split returns the raw header and the body that follows the blank line.
func split(content string) (header, body string, ok bool) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, delimiter+"\n") {
		return "", "", false
	}
	rest := content[len(delimiter)+1:]

	end := strings.Index(rest, "\n"+delimiter+"\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n"+delimiter) {
			return rest[:len(rest)-len(delimiter)-1], "", true
		}
		return "", "", false
	}
	header = rest[:end]
	body = rest[end+len(delimiter)+2:]
	return header, strings.TrimPrefix(body, "\n"), true
}

// scanLines recovers header fields without a YAML parser. Each value is
// everything between the first and the last double quote on its line.
func scanLines(raw string) (Header, bool) {
	var h Header
	for _, line := range strings.Split(raw, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = unquote(strings.TrimSpace(value))
		switch strings.TrimSpace(key) {
		case "title":
			h.Title = value
		case "date":
			h.Date = value
		case "draft":
			h.Draft = value == "true"
		case "discussion_id":
			h.DiscussionID = value
		}
	}
	return h, h.DiscussionID != ""
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
