package domain

import (
	"path"
	"strings"
)

// Action is the lifecycle transition carried by an Event.
type Action string

const (
	// ActionCreated is sent when a discussion is opened.
	ActionCreated Action = "created"

	// ActionEdited is sent when a discussion's title, body or category changes.
	ActionEdited Action = "edited"

	// ActionDeleted is sent when a discussion is removed.
	ActionDeleted Action = "deleted"
)

// ParseAction normalises a raw action string. Unknown actions are kept
// as-is so the engine can report them.
func ParseAction(raw string) Action {
	return Action(strings.ToLower(strings.TrimSpace(raw)))
}

// Known reports whether the engine has a handler for the action.
func (a Action) Known() bool {
	switch a {
	case ActionCreated, ActionEdited, ActionDeleted:
		return true
	default:
		return false
	}
}

// Discussion is the immutable record carried by one event.
type Discussion struct {
	// ID is the stable identifier (GitHub node_id). Never reused.
	ID string

	// Title is the human-readable title. It may change between events.
	Title string

	// UpdatedAt is the raw timestamp string, "YYYY-MM..." form.
	// It is written verbatim into the document header.
	UpdatedAt string

	// URL is informational and only used in diagnostics.
	URL string

	// Category is the category slug used for allow-list filtering.
	Category string

	// Body is the document content, written verbatim.
	Body string
}

// Partition returns the year and month storage partition derived from
// UpdatedAt. Callers must validate the record first.
func (d Discussion) Partition() (year, month string) {
	return d.UpdatedAt[:4], d.UpdatedAt[5:7]
}

// Slug returns the sanitised title used as the document's base filename.
func (d Discussion) Slug() string {
	return Sanitize(d.Title)
}

// DocumentPath returns the stored path of d's document:
// <outputDir>/<year>/<month>/<slug>.md, slash separated.
func DocumentPath(outputDir string, d Discussion) string {
	year, month := d.Partition()
	return path.Join(outputDir, year, month, d.Slug()+".md")
}

// Event is one lifecycle notification for a discussion.
type Event struct {
	Action     Action
	Discussion *Discussion
}

// Validate checks the invariants the engine relies on.
// Field presence is checked by the decoder at the boundary; this guards
// values built in code.
func (e Event) Validate() error {
	if e.Action == "" {
		return NewMissingFieldError("action")
	}
	if e.Discussion == nil {
		return NewMissingFieldError("discussion")
	}
	if e.Discussion.ID == "" {
		return NewMissingFieldError("discussion.node_id")
	}
	if !hasPartitionPrefix(e.Discussion.UpdatedAt) {
		return &ValidationError{
			Field:  "discussion.updated_at",
			Reason: "expected a YYYY-MM prefix, got " + quote(e.Discussion.UpdatedAt),
		}
	}
	return nil
}

// hasPartitionPrefix reports whether s starts with "YYYY-MM".
func hasPartitionPrefix(s string) bool {
	if len(s) < 7 || s[4] != '-' {
		return false
	}
	for i, c := range s[:7] {
		if i == 4 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func quote(s string) string {
	return "\"" + s + "\""
}
