package prefs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matheuskafuri/bookshelf/internal/cache"
)

type brokenStore struct{}

var errBroken = errors.New("storage unavailable")

func (brokenStore) GetItem(string) (string, bool, error) { return "", false, errBroken }
func (brokenStore) SetItem(string, string) error          { return errBroken }
func (brokenStore) RemoveItem(string) error               { return errBroken }

func TestHistoryAdd(t *testing.T) {
	h := NewHistory(cache.NewMemory())

	h.Add("sun")
	h.Add("romance")
	got := h.Add("  jacaranda  ")

	if diff := cmp.Diff([]string{"jacaranda", "romance", "sun"}, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(got, h.Load()); diff != "" {
		t.Errorf("loaded history differs from returned (-want +got):\n%s", diff)
	}
}

func TestHistoryMovesRepeatToFront(t *testing.T) {
	h := NewHistory(cache.NewMemory())
	h.Add("a")
	h.Add("b")
	h.Add("c")
	got := h.Add("a")

	if diff := cmp.Diff([]string{"a", "c", "b"}, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryIgnoresBlank(t *testing.T) {
	store := cache.NewMemory()
	h := NewHistory(store)
	h.Add("sun")
	got := h.Add("   ")

	if diff := cmp.Diff([]string{"sun"}, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryCapsAtTen(t *testing.T) {
	h := NewHistory(cache.NewMemory())
	for i := 0; i < 25; i++ {
		h.Add(fmt.Sprintf("q%d", i))
		if n := len(h.Load()); n > HistoryLimit {
			t.Fatalf("history grew to %d entries", n)
		}
	}
	got := h.Load()
	if len(got) != HistoryLimit {
		t.Fatalf("expected %d entries, got %d", HistoryLimit, len(got))
	}
	if got[0] != "q24" || got[9] != "q15" {
		t.Errorf("expected newest first q24..q15, got %v", got)
	}
}

func TestHistoryCustomLimit(t *testing.T) {
	h := NewHistory(cache.NewMemory(), WithLimit(2))
	h.Add("a")
	h.Add("b")
	got := h.Add("c")
	if diff := cmp.Diff([]string{"c", "b"}, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryCorruptStorage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"not json", "{oops", nil},
		{"wrong shape", `{"q":"sun"}`, nil},
		{"numbers", `[1,2,3]`, nil},
		{"duplicates and blanks", `["sun","","sun","moon"]`, []string{"sun", "moon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := cache.NewMemory()
			store.SetItem(HistoryKey, tt.raw)
			core, logs := observer.New(zapcore.WarnLevel)
			h := NewHistory(store, WithLogger(zap.New(core)))

			got := h.Load()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("load mismatch (-want +got):\n%s", diff)
			}
			if tt.want == nil && logs.Len() == 0 {
				t.Error("expected corrupt history to be logged")
			}

			// adding after corruption starts over cleanly
			got = h.Add("fresh")
			if got[0] != "fresh" {
				t.Errorf("expected fresh first, got %v", got)
			}
		})
	}
}

func TestHistoryStoredAsJSONArray(t *testing.T) {
	store := cache.NewMemory()
	h := NewHistory(store)
	h.Add("sun")
	h.Add("c++.")

	raw, ok, _ := store.GetItem(HistoryKey)
	if !ok {
		t.Fatal("expected history to be stored")
	}
	if raw != `["c++.","sun"]` {
		t.Errorf("unexpected stored form %s", raw)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(cache.NewMemory())
	h.Add("sun")
	h.Clear()
	if got := h.Load(); len(got) != 0 {
		t.Errorf("expected empty history after clear, got %v", got)
	}
}

func TestHistoryBrokenStoreNeverFails(t *testing.T) {
	h := NewHistory(brokenStore{})
	if got := h.Load(); len(got) != 0 {
		t.Errorf("expected empty history, got %v", got)
	}
	if got := h.Add("sun"); len(got) != 1 || got[0] != "sun" {
		t.Errorf("expected in-memory result [sun], got %v", got)
	}
	h.Clear()
}

func TestProgressGetSet(t *testing.T) {
	store := cache.NewMemory()
	p := NewProgress(store, nil)

	if got := p.Get("when-the-sun-fades"); got != 0 {
		t.Errorf("expected 0 for unread item, got %d", got)
	}

	tests := []struct {
		in, want int
	}{
		{42, 42},
		{0, 0},
		{100, 100},
		{-5, 0},
		{140, 100},
	}
	for _, tt := range tests {
		if got := p.Set("when-the-sun-fades", tt.in); got != tt.want {
			t.Errorf("Set(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if got := p.Get("when-the-sun-fades"); got != tt.want {
			t.Errorf("Get after Set(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}

	raw, _, _ := store.GetItem("readingProgress:when-the-sun-fades")
	if raw != "100" {
		t.Errorf("expected string-encoded percentage, got %q", raw)
	}
}

func TestProgressCorruptResets(t *testing.T) {
	for _, raw := range []string{"abc", "12.5", "-3", "250", ""} {
		store := cache.NewMemory()
		store.SetItem(ProgressKey("x"), raw)
		p := NewProgress(store, nil)

		if got := p.Get("x"); got != 0 {
			t.Errorf("Get with stored %q = %d, want 0", raw, got)
		}
		if _, ok, _ := store.GetItem(ProgressKey("x")); ok {
			t.Errorf("expected corrupt value %q to be removed", raw)
		}
	}
}

func TestProgressAll(t *testing.T) {
	store := cache.NewMemory()
	p := NewProgress(store, nil)
	p.Set("sun", 40)
	p.Set("fog", 100)
	store.SetItem(ProgressKey("bad"), "lots")
	store.SetItem("searchHistory", `["sun"]`)

	want := []Entry{{ID: "fog", Percent: 100}, {ID: "sun", Percent: 40}}
	if diff := cmp.Diff(want, p.All()); diff != "" {
		t.Errorf("All mismatch (-want +got):\n%s", diff)
	}
	if _, ok, _ := store.GetItem(ProgressKey("bad")); ok {
		t.Error("expected corrupt entry to be removed while listing")
	}
}

func TestProgressAllWithoutLister(t *testing.T) {
	if got := NewProgress(brokenStore{}, nil).All(); got != nil {
		t.Errorf("expected nil from a store that cannot list, got %v", got)
	}
}

func TestProgressBrokenStore(t *testing.T) {
	p := NewProgress(brokenStore{}, nil)
	if got := p.Get("x"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := p.Set("x", 50); got != 50 {
		t.Errorf("expected Set to report 50, got %d", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		offset, total, want int
	}{
		{0, 100, 0},
		{50, 100, 50},
		{150, 100, 100},
		{-1, 100, 0},
		{0, 0, 100},
		{1, 3, 33},
	}
	for _, tt := range tests {
		if got := Percent(tt.offset, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.offset, tt.total, got, tt.want)
		}
	}
}
