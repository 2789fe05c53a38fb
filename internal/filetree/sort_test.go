package filetree

import (
	"testing"

	"github.com/temirov/repodoc/internal/types"
)

func TestSortEntriesKeepsOrderWhenComparisonPanics(t *testing.T) {
	entries := []types.Entry{
		{Path: "b.go", Type: types.EntryTypeBlob},
		{Path: "a.go", Type: types.EntryTypeBlob},
	}
	sorted, sortErr := sortEntries(entries, func(left, right types.Entry) bool {
		panic("incomparable entries")
	})
	if sortErr == nil {
		t.Fatalf("expected sort error")
	}
	if sorted[0].Path != "b.go" || sorted[1].Path != "a.go" {
		t.Fatalf("expected original order, got %+v", sorted)
	}
}

func TestSortEntriesOrdersByPath(t *testing.T) {
	entries := []types.Entry{
		{Path: "src/main.go", Type: types.EntryTypeBlob},
		{Path: "README.md", Type: types.EntryTypeBlob},
		{Path: "src", Type: types.EntryTypeTree},
	}
	sorted, sortErr := sortEntries(entries, byPath)
	if sortErr != nil {
		t.Fatalf("unexpected sort error: %v", sortErr)
	}
	if sorted[0].Path != "README.md" || sorted[1].Path != "src" || sorted[2].Path != "src/main.go" {
		t.Fatalf("unexpected order %+v", sorted)
	}
	if entries[0].Path != "src/main.go" {
		t.Fatalf("input slice must not be reordered")
	}
}
