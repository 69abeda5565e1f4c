// Package event decodes discussion webhook payloads into domain events.
//
// Required fields are checked once here, at the boundary. Everything
// past this package works with a typed domain.Event.
package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
)

// DefaultPath is where GitHub Actions containers mount the event payload.
const DefaultPath = "/github/workflow/event.json"

// EnvEventPath names the environment variable GitHub sets to the payload path.
const EnvEventPath = "GITHUB_EVENT_PATH"

// Stdin is the path value that reads the payload from standard input.
const Stdin = "-"

// ErrNoEventFile indicates no event payload could be located.
var ErrNoEventFile = errors.New("event file does not exist")

type payload struct {
	Action     *string            `json:"action"`
	Discussion *discussionPayload `json:"discussion"`
}

type discussionPayload struct {
	NodeID    *string          `json:"node_id"`
	Title     *string          `json:"title"`
	UpdatedAt *string          `json:"updated_at"`
	HTMLURL   *string          `json:"html_url"`
	Category  *categoryPayload `json:"category"`
	Body      *string          `json:"body"`
}

type categoryPayload struct {
	Slug *string `json:"slug"`
}

// Decode reads one event payload. Missing fields yield a
// *domain.ValidationError naming the first one absent; null counts
// as absent. A missing or null body is treated as empty.
func Decode(r io.Reader) (domain.Event, error) {
	var p payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return domain.Event{}, &domain.ValidationError{
			Field:  "payload",
			Reason: fmt.Sprintf("malformed JSON: %v", err),
		}
	}

	if p.Action == nil {
		return domain.Event{}, domain.NewMissingFieldError("action")
	}
	if p.Discussion == nil {
		return domain.Event{}, domain.NewMissingFieldError("discussion")
	}

	d := p.Discussion
	required := []struct {
		field string
		value *string
	}{
		{"discussion.node_id", d.NodeID},
		{"discussion.title", d.Title},
		{"discussion.updated_at", d.UpdatedAt},
		{"discussion.html_url", d.HTMLURL},
	}
	for _, r := range required {
		if r.value == nil {
			return domain.Event{}, domain.NewMissingFieldError(r.field)
		}
	}
	if d.Category == nil {
		return domain.Event{}, domain.NewMissingFieldError("discussion.category")
	}
	if d.Category.Slug == nil {
		return domain.Event{}, domain.NewMissingFieldError("discussion.category.slug")
	}

	ev := domain.Event{
		Action: domain.ParseAction(*p.Action),
		Discussion: &domain.Discussion{
			ID:        *d.NodeID,
			Title:     *d.Title,
			UpdatedAt: *d.UpdatedAt,
			URL:       *d.HTMLURL,
			Category:  *d.Category.Slug,
			Body:      deref(d.Body),
		},
	}
	if err := ev.Validate(); err != nil {
		return domain.Event{}, err
	}
	return ev, nil
}

// DecodeBytes is Decode over an in-memory payload.
func DecodeBytes(data []byte) (domain.Event, error) {
	return Decode(bytes.NewReader(data))
}

// LoadFile decodes the payload stored at path, or standard input for "-".
func LoadFile(path string) (domain.Event, error) {
	if path == Stdin {
		return Decode(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Event{}, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	ev, err := Decode(f)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", path, err)
	}
	return ev, nil
}

// ResolvePath picks the payload location. The explicit path (or
// DefaultPath when empty) is tried first, then GITHUB_EVENT_PATH.
func ResolvePath(explicit string, lookupEnv func(string) (string, bool)) (string, error) {
	if explicit == Stdin {
		return Stdin, nil
	}

	candidates := []string{explicit}
	if explicit == "" {
		candidates[0] = DefaultPath
	}
	if env, ok := lookupEnv(EnvEventPath); ok && env != "" {
		candidates = append(candidates, env)
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrNoEventFile, candidates)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
