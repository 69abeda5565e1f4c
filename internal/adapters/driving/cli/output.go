package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
)

// printer writes command results as styled text or JSON.
type printer struct {
	out    io.Writer
	styles *Styles
	json   bool
}

func newPrinter(cmd *cobra.Command) *printer {
	out := cmd.OutOrStdout()
	return &printer{
		out:    out,
		styles: stylesFor(out),
		json:   flagJSON,
	}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (p *printer) field(label, value string) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Label.Render(fmt.Sprintf("%-11s", label+":")), value)
}

func (p *printer) status(s domain.Status) string {
	switch s {
	case domain.StatusApplied:
		return p.styles.Success.Render(string(s))
	case domain.StatusFiltered:
		return p.styles.Muted.Render(string(s))
	default:
		return p.styles.Warning.Render(string(s))
	}
}

// Outcome prints the result of one applied event.
func (p *printer) Outcome(o *domain.Outcome) error {
	if p.json {
		return p.encode(o)
	}

	p.field("Status", p.status(o.Status))
	p.field("Action", string(o.Action))
	p.field("Discussion", o.DiscussionID)
	if o.Category != "" {
		p.field("Category", o.Category)
	}
	if o.Written != "" {
		p.field("Written", o.Written)
	}
	for _, r := range o.Removed {
		p.field("Removed", r)
	}
	for _, n := range o.Notices {
		p.field("Warning", p.styles.Warning.Render(n.Message))
	}
	return nil
}

type indexEntry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Index prints a persisted index.
func (p *printer) Index(path string, snap *domain.IndexSnapshot) error {
	if p.json {
		entries := make([]indexEntry, 0, snap.Entries.Len())
		for _, id := range snap.Entries.IDs() {
			entries = append(entries, indexEntry{ID: id, Path: snap.Entries[id]})
		}
		return p.encode(struct {
			Path    string       `json:"path"`
			Version string       `json:"version"`
			Entries []indexEntry `json:"entries"`
		}{path, snap.Version, entries})
	}

	fmt.Fprintln(p.out, p.styles.Title.Render(path))
	fmt.Fprintln(p.out, p.styles.Muted.Render(
		fmt.Sprintf("version %s, %d entries", snap.Version, snap.Entries.Len())))
	if !snap.VersionMatches() {
		fmt.Fprintln(p.out, p.styles.Warning.Render(
			fmt.Sprintf("expected version %s", domain.IndexVersion)))
	}
	for _, id := range snap.Entries.IDs() {
		fmt.Fprintf(p.out, "  %s  %s\n", id, snap.Entries[id])
	}
	return nil
}

// Rebuild prints a rebuild report.
func (p *printer) Rebuild(r *domain.RebuildReport) error {
	if p.json {
		shadowed := make([]string, 0, len(r.Shadowed))
		for _, d := range r.Shadowed {
			shadowed = append(shadowed, d.Path)
		}
		return p.encode(struct {
			Scanned      int               `json:"scanned"`
			Entries      map[string]string `json:"entries"`
			Shadowed     []string          `json:"shadowed"`
			Unidentified []string          `json:"unidentified"`
		}{r.Scanned, r.Entries, shadowed, nonNil(r.Unidentified)})
	}

	fmt.Fprintf(p.out, "Scanned %d documents, indexed %d discussions.\n", r.Scanned, r.Entries.Len())
	for _, d := range r.Shadowed {
		fmt.Fprintln(p.out, p.styles.Warning.Render(
			fmt.Sprintf("  shadowed: %s (older copy of %s)", d.Path, d.DiscussionID)))
	}
	for _, path := range r.Unidentified {
		fmt.Fprintln(p.out, p.styles.Muted.Render(
			fmt.Sprintf("  skipped:  %s (no discussion_id)", path)))
	}
	return nil
}

// History prints journal entries, newest first.
func (p *printer) History(entries []domain.JournalEntry) error {
	if p.json {
		if entries == nil {
			entries = []domain.JournalEntry{}
		}
		return p.encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(p.out, "No runs recorded.")
		return nil
	}

	for _, e := range entries {
		target := e.Written
		if target == "" && len(e.Removed) > 0 {
			target = strings.Join(e.Removed, ", ")
		}
		fmt.Fprintf(p.out, "%s  %-8s %-9s %s %s\n",
			p.styles.Muted.Render(e.StartedAt.Local().Format(time.DateTime)),
			e.Action,
			p.status(e.Status),
			e.DiscussionID,
			target)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
