package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()

	id, err := s.InsertItem(ctx, model.ShoppingItem{Name: "Milk"})
	if err != nil {
		t.Fatalf("InsertItem() failed: %v", err)
	}
	if id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}
	if _, err := s.InsertItem(ctx, model.ShoppingItem{Name: "Eggs", Bought: true}); err != nil {
		t.Fatalf("InsertItem() failed: %v", err)
	}

	// A fresh store on the same file sees the same data.
	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	items, err := s2.GetAllItems(ctx)
	if err != nil {
		t.Fatalf("GetAllItems() failed: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Milk" || items[1].Name != "Eggs" || !items[1].Bought {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestUpsertUpdateDelete(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "list.json"), nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()

	id, _ := s.InsertItem(ctx, model.ShoppingItem{Name: "Milk"})
	if _, err := s.InsertItem(ctx, model.ShoppingItem{ID: id, Name: "Oat milk"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	items, _ := s.GetAllItems(ctx)
	if len(items) != 1 || items[0].Name != "Oat milk" {
		t.Fatalf("upsert: %+v", items)
	}

	if err := s.UpdateItem(ctx, model.ShoppingItem{ID: id, Name: "Oat milk", Bought: true}); err != nil {
		t.Fatalf("UpdateItem() failed: %v", err)
	}
	if err := s.UpdateItem(ctx, model.ShoppingItem{ID: 77}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateItem(missing) = %v, want ErrNotFound", err)
	}

	if err := s.DeleteItem(ctx, model.ShoppingItem{ID: 77}); err != nil {
		t.Errorf("DeleteItem(absent) = %v, want nil", err)
	}
	if err := s.DeleteItem(ctx, model.ShoppingItem{ID: id}); err != nil {
		t.Fatalf("DeleteItem() failed: %v", err)
	}
	items, _ = s.GetAllItems(ctx)
	if len(items) != 0 {
		t.Errorf("after delete: %+v", items)
	}

	// IDs are never reused after a delete.
	next, _ := s.InsertItem(ctx, model.ShoppingItem{Name: "Bread"})
	if next <= id {
		t.Errorf("reused id %d (previous %d)", next, id)
	}
}

func TestLegacyTodoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	legacy := `[{"title":"Buy milk","done":false},{"title":"Eggs","done":true}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()
	items, err := s.GetAllItems(ctx)
	if err != nil {
		t.Fatalf("GetAllItems() failed: %v", err)
	}
	want := []model.ShoppingItem{{ID: 1, Name: "Buy milk"}, {ID: 2, Name: "Eggs", Bought: true}}
	if len(items) != 2 || items[0] != want[0] || items[1] != want[1] {
		t.Fatalf("legacy import = %+v, want %+v", items, want)
	}

	// First mutation rewrites the file in the current format.
	id, err := s.InsertItem(ctx, model.ShoppingItem{Name: "Bread"})
	if err != nil || id != 3 {
		t.Fatalf("InsertItem() = %d, %v", id, err)
	}
	b, _ := os.ReadFile(path)
	if b[0] != '{' {
		t.Errorf("file not rewritten in current format: %s", b)
	}
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, nil)
	if !store.IsStorageError(err) {
		t.Errorf("Open(corrupt) = %v, want StorageError", err)
	}
}

func TestCancelledContext(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "list.json"), nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.InsertItem(ctx, model.ShoppingItem{Name: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("InsertItem() = %v, want context.Canceled", err)
	}
}
