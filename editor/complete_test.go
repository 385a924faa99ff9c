package editor

import "testing"

func TestCommonPrefixOfSingleElement(t *testing.T) {
	got := commonPrefix([]string{"echo"})
	if got != "echo" {
		t.Fatalf("got %q, want %q", got, "echo")
	}
}

func TestCommonPrefixAcrossSeveral(t *testing.T) {
	got := commonPrefix([]string{"echo", "exit", "export"})
	if got != "e" {
		t.Fatalf("got %q, want %q", got, "e")
	}
}

func TestCommonPrefixNoOverlap(t *testing.T) {
	got := commonPrefix([]string{"echo", "pwd"})
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestCommonPrefixEmptyInput(t *testing.T) {
	if got := commonPrefix(nil); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestCandidatesIncludesBuiltins(t *testing.T) {
	cands := candidates("ec")
	found := false
	for _, c := range cands {
		if c == "echo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected echo among candidates for prefix %q, got %v", "ec", cands)
	}
}

func TestStringSetDedup(t *testing.T) {
	s := stringSet{}
	s.add("a")
	s.add("a")
	if len(s) != 1 {
		t.Fatalf("expected dedup to size 1, got %d", len(s))
	}
	if !s.has("a") {
		t.Fatalf("expected set to report containment")
	}
}
