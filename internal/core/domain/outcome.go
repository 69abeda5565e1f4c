package domain

import "time"

// Status summarises what an invocation did.
type Status string

const (
	// StatusApplied means the event was dispatched and the index persisted.
	StatusApplied Status = "applied"

	// StatusFiltered means the category allow-list rejected the event.
	// Nothing was written, including the index.
	StatusFiltered Status = "filtered"

	// StatusSkipped means the action was unknown. The index was
	// persisted unchanged.
	StatusSkipped Status = "skipped"
)

// NoticeKind classifies a recoverable condition met during a run.
type NoticeKind string

const (
	// NoticeIndexVersionMismatch is raised when the index file carries
	// a version other than IndexVersion.
	NoticeIndexVersionMismatch NoticeKind = "index_version_mismatch"

	// NoticeFileNotFoundOnDelete is raised when a document to remove was
	// already absent.
	NoticeFileNotFoundOnDelete NoticeKind = "file_not_found_on_delete"

	// NoticeUnknownAction is raised for actions without a handler.
	NoticeUnknownAction NoticeKind = "unknown_action"
)

// Notice is a recoverable warning attached to an Outcome.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Outcome is the structured result of applying one Event.
type Outcome struct {
	// RunID uniquely identifies the invocation.
	RunID string `json:"run_id"`

	Action       Action `json:"action"`
	DiscussionID string `json:"discussion_id"`
	URL          string `json:"url,omitempty"`
	Category     string `json:"category,omitempty"`

	Status Status `json:"status"`

	// Written is the stored path of the document written, if any.
	Written string `json:"written,omitempty"`

	// Removed lists stored paths deleted from disk.
	Removed []string `json:"removed,omitempty"`

	Notices []Notice `json:"notices,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// AddNotice appends a notice.
func (o *Outcome) AddNotice(kind NoticeKind, message string) {
	o.Notices = append(o.Notices, Notice{Kind: kind, Message: message})
}

// HasNotice reports whether a notice of the given kind was raised.
func (o *Outcome) HasNotice(kind NoticeKind) bool {
	for _, n := range o.Notices {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

// Duration returns how long the run took.
func (o *Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// JournalEntry is an Outcome as recorded in the run journal.
type JournalEntry struct {
	Outcome
	RecordedAt time.Time `json:"recorded_at"`
}

// ScannedDocument is a document found on disk by an index rebuild.
type ScannedDocument struct {
	// Path is the workspace-relative stored path.
	Path string

	// DiscussionID is read from the document header.
	DiscussionID string

	Title   string
	ModTime time.Time
}

// RebuildReport summarises an index rebuild.
type RebuildReport struct {
	// Entries is the rebuilt index.
	Entries Index

	// Scanned is the number of documents inspected.
	Scanned int

	// Shadowed lists documents that lost to a newer file with the same ID.
	Shadowed []ScannedDocument

	// Unidentified lists documents without a discussion_id header.
	Unidentified []string
}
