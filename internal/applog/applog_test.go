package applog

import "testing"

func TestLogAppendsTaggedEntryAndRaisesHasNew(t *testing.T) {
	h := NewHistory()
	if h.HasNew() {
		t.Fatal("fresh history should not have hasNew set")
	}

	h.Log("scan started")
	h.Log("watch limit hit", "WARN")

	if !h.HasNew() {
		t.Fatal("expected hasNew after Log")
	}

	entries := h.GetHistory()
	want := []string{"[LOG] scan started", "[WARN] watch limit hit"}
	if len(entries) != len(want) {
		t.Fatalf("entries = %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entries[%d] = %q, want %q", i, entries[i], want[i])
		}
	}
}

func TestGetHistoryClearsHasNew(t *testing.T) {
	h := NewHistory()
	h.Log("a")
	h.GetHistory()
	if h.HasNew() {
		t.Fatal("GetHistory should clear hasNew")
	}
}

func TestClearEmptiesHistoryAndHasNew(t *testing.T) {
	h := NewHistory()
	h.Log("a")
	h.Clear()
	if h.HasNew() {
		t.Fatal("Clear should clear hasNew")
	}
	if len(h.GetHistory()) != 0 {
		t.Fatal("Clear should empty history")
	}
}

func TestGetHistoryReturnsCopyNotAlias(t *testing.T) {
	h := NewHistory()
	h.Log("a")
	first := h.GetHistory()
	h.Log("b")
	if len(first) != 1 {
		t.Fatalf("earlier snapshot mutated: %v", first)
	}
}
