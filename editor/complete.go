package editor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"monogrammedchalk.com/pshell/pipeline"
)

// stringSet is a minimal set of strings used to dedupe completion
// candidates gathered from multiple PATH directories.
type stringSet map[string]struct{}

func (s stringSet) add(v string)      { s[v] = struct{}{} }
func (s stringSet) has(v string) bool { _, ok := s[v]; return ok }

// candidates returns every completion candidate for prefix: the union of
// built-in names and PATH-discoverable executables (owner-execute bit set),
// sorted and deduplicated.
func candidates(prefix string) []string {
	seen := stringSet{}
	var out []string

	for _, b := range pipeline.BuiltinNames {
		if strings.HasPrefix(b, prefix) && !seen.has(b) {
			seen.add(b)
			out = append(out, b)
		}
	}

	for _, name := range executablesInPath() {
		if strings.HasPrefix(name, prefix) && !seen.has(name) {
			seen.add(name)
			out = append(out, name)
		}
	}

	sort.Strings(out)
	return out
}

func executablesInPath() []string {
	var names []string
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.Mode()&0100 != 0 {
				names = append(names, entry.Name())
			}
		}
	}
	return names
}

// commonPrefix returns the longest string that prefixes every element of
// names. It returns "" for an empty slice.
func commonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := names[0]
	for _, n := range names[1:] {
		for !strings.HasPrefix(n, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
