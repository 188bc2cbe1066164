package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestMap_BasicOperations(t *testing.T) {
	m := New[string]()

	m.Set("a", "1")
	if v, ok := m.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v, want 1, true", v, ok)
	}

	m.Set("a", "2")
	if v, _ := m.Get("a"); v != "2" {
		t.Errorf("Get(a) after overwrite = %q, want 2", v)
	}

	v, ok := m.Pop("a")
	if !ok || v != "2" {
		t.Errorf("Pop(a) = %q, %v, want 2, true", v, ok)
	}
	if _, ok := m.Get("a"); ok {
		t.Error("Get(a) after Pop reported ok")
	}

	if _, ok := m.Pop("a"); ok {
		t.Error("Pop of missing key reported ok")
	}
}

func TestNewWithShards_InvalidCount(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"zero", 0, DefaultShardCount},
		{"negative", -4, DefaultShardCount},
		{"not power of two", 12, DefaultShardCount},
		{"power of two", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWithShards[int](tt.count)
			if len(m.shards) != tt.want {
				t.Errorf("shards = %d, want %d", len(m.shards), tt.want)
			}
		})
	}
}

func TestMap_Prefix(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("app_%d", i), i)
	}
	m.Set("other", 99)

	keys := m.KeysWithPrefix("app_")
	sort.Strings(keys)
	if len(keys) != 10 {
		t.Fatalf("KeysWithPrefix len = %d, want 10", len(keys))
	}
	if keys[0] != "app_0" {
		t.Errorf("first key = %q, want app_0", keys[0])
	}

	if keys := m.KeysWithPrefix("oth"); len(keys) != 1 || keys[0] != "other" {
		t.Errorf("KeysWithPrefix(oth) = %v", keys)
	}
	if n := len(m.KeysWithPrefix("")); n != 11 {
		t.Errorf("KeysWithPrefix(\"\") len = %d, want 11", n)
	}
}

func TestMap_RangeStops(t *testing.T) {
	m := New[int]()
	for i := 0; i < 50; i++ {
		m.Set(fmt.Sprint(i), i)
	}

	seen := 0
	m.Range(func(string, int) bool {
		seen++
		return seen < 5
	})
	if seen != 5 {
		t.Errorf("Range visited %d entries, want 5", seen)
	}
}

func TestMap_Concurrent(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("%d-%d", w, i)
				m.Set(key, i)
				m.Get(key)
			}
		}(w)
	}
	wg.Wait()

	if m.Count() != 1600 {
		t.Errorf("Count = %d, want 1600", m.Count())
	}

	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count after Clear = %d", m.Count())
	}
}
