// Package history implements the two-tier History store: a saved segment
// already persisted to disk and an unsaved segment accumulated during the
// current session.
package history

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// History holds chronologically ordered saved and unsaved entries. The
// logical record is the concatenation saved ++ unsaved.
type History struct {
	saved   []string
	unsaved []string
}

// New returns an empty History.
func New() *History {
	return &History{}
}

// Add appends entry to the unsaved segment.
func (h *History) Add(entry string) {
	h.unsaved = append(h.unsaved, entry)
}

// Load reads each non-blank line of path and appends it to the unsaved
// segment.
func (h *History) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		h.unsaved = append(h.unsaved, line)
	}
	return scanner.Err()
}

// Save creates/truncates path, writes the full concatenation saved ++
// unsaved (one entry per line), then moves unsaved into saved. If maxSize
// is positive, only the most recent maxSize entries are written, and saved
// keeps just those entries after the merge (see SPEC_FULL.md §2.3/§4 -- a
// bound the original prototype lacks).
func (h *History) Save(path string, maxSize int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer f.Close()

	entries := h.all()
	if maxSize > 0 && len(entries) > maxSize {
		entries = entries[len(entries)-maxSize:]
	}

	w := bufio.NewWriter(f)
	for _, entry := range entries {
		fmt.Fprintln(w, entry)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	h.saved = entries
	h.unsaved = nil
	return nil
}

// Append opens path in append mode, writes only the unsaved segment, then
// moves unsaved into saved.
func (h *History) Append(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, entry := range h.unsaved {
		fmt.Fprintln(w, entry)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	h.saved = append(h.saved, h.unsaved...)
	h.unsaved = nil
	return nil
}

// Size returns |saved| + |unsaved|.
func (h *History) Size() int {
	return len(h.saved) + len(h.unsaved)
}

// At returns the entry at logical index i (0-based) of saved ++ unsaved.
// It panics if i is out of range, matching slice-indexing semantics.
func (h *History) At(i int) string {
	if i < len(h.saved) {
		return h.saved[i]
	}
	return h.unsaved[i-len(h.saved)]
}

func (h *History) all() []string {
	out := make([]string, 0, h.Size())
	out = append(out, h.saved...)
	out = append(out, h.unsaved...)
	return out
}

// All returns a fresh copy of the concatenation saved ++ unsaved.
func (h *History) All() []string {
	return h.all()
}

// Last returns the last n elements of the concatenation (or all of them if
// n exceeds the total size).
func (h *History) Last(n int) []string {
	all := h.all()
	if n >= len(all) {
		return all
	}
	if n <= 0 {
		return nil
	}
	return all[len(all)-n:]
}
