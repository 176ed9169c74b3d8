package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// The whole file is rewritten on every mutation; fine for a personal list.

type fileData struct {
	NextID int64                `json:"next_id"`
	Items  []model.ShoppingItem `json:"items"`
}

// legacyItem is the bare-array format written by the old todo tool.
type legacyItem struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Store implements store.Store on a JSON file.
type Store struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open returns a store on path. The file is created on first write.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{path: path, log: log}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, s.fail("open", fmt.Errorf("mkdir: %w", err))
	}
	// Surface unreadable or corrupt files at open time.
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() (fileData, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileData{NextID: 1}, nil
		}
		return fileData{}, s.fail("load", fmt.Errorf("read file: %w", err))
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fileData{NextID: 1}, nil
	}

	if b[0] == '[' {
		var legacy []legacyItem
		if err := json.Unmarshal(b, &legacy); err != nil {
			return fileData{}, s.fail("load", fmt.Errorf("json unmarshal: %w", err))
		}
		d := fileData{NextID: 1}
		for _, l := range legacy {
			d.Items = append(d.Items, model.ShoppingItem{ID: d.NextID, Name: l.Title, Bought: l.Done})
			d.NextID++
		}
		s.log.Debug("reading legacy todo list", "path", s.path, "items", len(d.Items))
		return d, nil
	}

	var d fileData
	if err := json.Unmarshal(b, &d); err != nil {
		return fileData{}, s.fail("load", fmt.Errorf("json unmarshal: %w", err))
	}
	for _, it := range d.Items {
		if it.ID >= d.NextID {
			d.NextID = it.ID + 1
		}
	}
	if d.NextID < 1 {
		d.NextID = 1
	}
	return d, nil
}

func (s *Store) save(op string, d fileData) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return s.fail(op, fmt.Errorf("json marshal: %w", err))
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".shoplist-*.json")
	if err != nil {
		return s.fail(op, fmt.Errorf("create temp: %w", err))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return s.fail(op, fmt.Errorf("write file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return s.fail(op, fmt.Errorf("sync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return s.fail(op, fmt.Errorf("close: %w", err))
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return s.fail(op, fmt.Errorf("rename: %w", err))
	}
	return nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Close is a no-op; the file is not held open between calls.
func (s *Store) Close() error { return nil }

func (s *Store) GetAllItems(ctx context.Context) ([]model.ShoppingItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return nil, err
	}
	items := make([]model.ShoppingItem, len(d.Items))
	copy(items, d.Items)
	return model.Sort(items, model.ByInsertionOrder, model.Ascending), nil
}

func (s *Store) InsertItem(ctx context.Context, item model.ShoppingItem) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return 0, err
	}
	if item.ID == 0 {
		item.ID = d.NextID
	}
	if i := model.IndexOf(d.Items, item.ID); i >= 0 {
		d.Items[i] = item
	} else {
		d.Items = append(d.Items, item)
	}
	if item.ID >= d.NextID {
		d.NextID = item.ID + 1
	}
	if err := s.save("insert", d); err != nil {
		return 0, err
	}
	s.log.Debug("item inserted", "id", item.ID, "name", item.Name)
	return item.ID, nil
}

func (s *Store) UpdateItem(ctx context.Context, item model.ShoppingItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return err
	}
	i := model.IndexOf(d.Items, item.ID)
	if i < 0 {
		return fmt.Errorf("update item %d: %w", item.ID, store.ErrNotFound)
	}
	d.Items[i] = item
	if err := s.save("update", d); err != nil {
		return err
	}
	s.log.Debug("item updated", "id", item.ID, "bought", item.Bought)
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, item model.ShoppingItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return err
	}
	i := model.IndexOf(d.Items, item.ID)
	if i < 0 {
		return nil
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	if err := s.save("delete", d); err != nil {
		return err
	}
	s.log.Debug("item deleted", "id", item.ID)
	return nil
}

func (s *Store) fail(op string, err error) error {
	s.log.Warn("json store failure", "op", op, "path", s.path, "err", err)
	return &store.StorageError{Op: op, Path: s.path, Err: err}
}
