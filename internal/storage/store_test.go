package storage

import (
	"reflect"
	"sync"
	"testing"
)

func TestInMemoryStore_AppendFind(t *testing.T) {
	store := NewInMemoryStore()

	store.Append("alpha")

	got, found := store.Find("alpha")
	if !found {
		t.Fatal("Expected to find alpha")
	}
	if got != "alpha" {
		t.Errorf("Expected 'alpha', got '%s'", got)
	}
}

func TestInMemoryStore_FindNotFound(t *testing.T) {
	store := NewInMemoryStore()
	store.Append("alpha")

	if _, found := store.Find("beta"); found {
		t.Error("Expected miss for absent resource")
	}
	if _, found := store.Find("Alpha"); found {
		t.Error("Find must be an exact, case-sensitive match")
	}
}

func TestInMemoryStore_Duplicates(t *testing.T) {
	store := NewInMemoryStore()
	store.Append("alpha")
	store.Append("alpha")

	if store.Len() != 2 {
		t.Errorf("Expected 2 entries for a duplicate append, got %d", store.Len())
	}
	if got, found := store.Find("alpha"); !found || got != "alpha" {
		t.Errorf("Find() = (%q, %v), want (alpha, true)", got, found)
	}
}

func TestInMemoryStore_ListOrderAndCopy(t *testing.T) {
	store := NewInMemoryStore()
	for _, r := range []string{"c", "a", "b"} {
		store.Append(r)
	}

	list := store.List()
	if !reflect.DeepEqual(list, []string{"c", "a", "b"}) {
		t.Errorf("List() = %v, want insertion order", list)
	}

	// Modifying the copy must not affect the store
	list[0] = "mutated"
	if _, found := store.Find("mutated"); found {
		t.Error("List() should return a copy")
	}
}

func TestInMemoryStore_EmptyList(t *testing.T) {
	store := NewInMemoryStore()
	if len(store.List()) != 0 || store.Len() != 0 {
		t.Error("Expected empty store")
	}
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Append("r")
		}()
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Errorf("Expected 50 entries, got %d", store.Len())
	}
}
