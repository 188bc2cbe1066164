package repl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHistory_Add(t *testing.T) {
	h := NewHistory("")
	h.Add("store list")
	h.Add("store list")
	h.Add("auth status")

	if got := h.Entries(); len(got) != 2 {
		t.Errorf("entries = %q, want consecutive duplicates collapsed", got)
	}
	if h.Get(0) != "auth status" || h.Get(1) != "store list" {
		t.Errorf("Get(0), Get(1) = %q, %q", h.Get(0), h.Get(1))
	}
	if h.Get(5) != "" || h.Get(-1) != "" {
		t.Error("out of range Get should be empty")
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory("")
	h.maxSize = 3
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		h.Add(c)
	}
	got := h.Entries()
	if len(got) != 3 || got[0] != "c" || got[2] != "e" {
		t.Errorf("entries = %q, want [c d e]", got)
	}
}

func TestHistory_SkipsSecrets(t *testing.T) {
	h := NewHistory("")
	for _, line := range []string{
		"auth login jwt-abc",
		"live watch --token jwt-abc",
		"store export --passphrase hunter22 f",
	} {
		h.Add(line)
	}
	if got := h.Entries(); len(got) != 0 {
		t.Errorf("entries = %q, want none", got)
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(file)
	h.Add("store list")
	h.Add("auth status")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	loaded := NewHistory(file)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Entries(); len(got) != 2 || got[1] != "auth status" {
		t.Errorf("loaded = %q", got)
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "none"))
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
}
