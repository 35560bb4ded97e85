package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fwojciec/papershelf"
)

// renderEntries writes the library view as an aligned table.
func renderEntries(w io.Writer, entries []papershelf.LibraryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(e.ID), entryStatus(e), e.Title, e.FilePath)
	}
	return tw.Flush()
}

// entryStatus describes an entry's status, including upload progress.
func entryStatus(e papershelf.LibraryEntry) string {
	if e.Kind == papershelf.KindUploading && e.Progress != nil {
		return fmt.Sprintf("uploading %d%%", int(math.Floor(*e.Progress)))
	}
	return string(e.Status)
}

// shortID abbreviates the long hash IDs of workspace and upload entries.
func shortID(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderSearch writes the answer followed by the passages it was built from.
func renderSearch(w io.Writer, result *papershelf.SearchResult) {
	if answer := strings.TrimSpace(result.Answer); answer != "" {
		fmt.Fprintln(w, answer)
		fmt.Fprintln(w)
	}
	if len(result.Hits) == 0 {
		fmt.Fprintln(w, "No matching passages found.")
		return
	}
	for i, h := range result.Hits {
		fmt.Fprintf(w, "[%d] %s", i+1, h.DocumentTitle)
		if h.PageNumber > 0 {
			fmt.Fprintf(w, " p.%d", h.PageNumber)
		}
		fmt.Fprintf(w, " (%.2f)\n", h.Similarity)
		if h.SectionTitle != "" {
			fmt.Fprintf(w, "    %s\n", h.SectionTitle)
		}
		fmt.Fprintf(w, "    %s\n", strings.Join(strings.Fields(h.Content), " "))
	}
}

// progressPrinter prints a line whenever an upload's whole-percent
// progress changes.
type progressPrinter struct {
	w    io.Writer
	mu   sync.Mutex
	last map[string]int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, last: make(map[string]int)}
}

func (p *progressPrinter) update(entries []papershelf.LibraryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range entries {
		if e.Kind != papershelf.KindUploading || e.Progress == nil {
			continue
		}
		pct := int(math.Floor(*e.Progress))
		if last, ok := p.last[e.FilePath]; ok && last == pct {
			continue
		}
		p.last[e.FilePath] = pct
		fmt.Fprintf(p.w, "%s: %d%%\n", e.Title, pct)
	}
}
